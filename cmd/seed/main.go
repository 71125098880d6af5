package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/gradebook/internal/app"
	"github.com/noah-isme/gradebook/internal/seed"
	"github.com/noah-isme/gradebook/pkg/config"
	"github.com/noah-isme/gradebook/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// per-row mutation logs are noise during bulk generation
	a, err := app.New(ctx, cfg, logr.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel)))
	if err != nil {
		logr.Sugar().Fatalw("startup failed", "error", err)
	}
	defer a.Close()

	seeder := seed.New(seed.Services{
		Groups:   a.Groups,
		Students: a.Students,
		Teachers: a.Teachers,
		Subjects: a.Subjects,
		Grades:   a.Grades,
	}, cfg.Seed, gofakeit.New(cfg.Seed.RandomSeed), logr)

	if _, err := seeder.Run(ctx); err != nil {
		logr.Sugar().Errorw("seeding failed", "error", err)
		a.Close()
		os.Exit(1)
	}
}
