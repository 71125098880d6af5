package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/pflag"

	"github.com/noah-isme/gradebook/internal/app"
	"github.com/noah-isme/gradebook/internal/report"
	"github.com/noah-isme/gradebook/pkg/config"
	"github.com/noah-isme/gradebook/pkg/export"
	"github.com/noah-isme/gradebook/pkg/logger"
)

const reportTitle = "Gradebook report"

func main() {
	format := pflag.String("format", "text", "Output format: text|csv|pdf")
	out := pflag.String("out", "", "Write the report to this file instead of stdout")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(context.Background(), cfg, *format, *out); err != nil {
		logr.Sugar().Errorw("report failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, format, out string) error {
	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	sections, err := report.NewBuilder(a.Queries, gofakeit.New(0)).Build(ctx)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "text":
		return report.WriteText(w, sections)
	case "csv":
		payload, err := export.NewCSVExporter().Render(report.Datasets(sections)...)
		if err != nil {
			return err
		}
		_, err = w.Write(payload)
		return err
	case "pdf":
		payload, err := export.NewPDFExporter().Render(reportTitle, report.Datasets(sections)...)
		if err != nil {
			return err
		}
		_, err = w.Write(payload)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
