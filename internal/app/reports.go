package app

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook/internal/models"
	"github.com/noah-isme/gradebook/internal/repository"
	"github.com/noah-isme/gradebook/internal/service"
	"github.com/noah-isme/gradebook/pkg/config"
	"github.com/noah-isme/gradebook/pkg/jobs"
	"github.com/noah-isme/gradebook/pkg/storage"
)

// Reports groups the asynchronous export pipeline.
type Reports struct {
	Service *service.ReportService
	queue   *jobs.Queue[models.ReportFormat]
}

// EnableReports wires report exports on top of the query service. Only the API server needs them.
func (a *App) EnableReports(cfg config.ReportConfig, apiPrefix string) error {
	files, err := storage.NewLocalStorage(cfg.Dir)
	if err != nil {
		return fmt.Errorf("init report storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.SigningSecret, cfg.ResultTTL)
	exporter := service.NewExportService(a.Queries, files, signer, service.ExportConfig{
		APIPrefix: apiPrefix,
		ResultTTL: cfg.ResultTTL,
	}, a.logger, nil, nil)

	repo := repository.NewReportRepository(a.DB)
	worker := service.NewReportWorker(repo, exporter, cfg.MaxRetries, a.logger)
	queue := jobs.NewQueue[models.ReportFormat](service.ReportQueueName, worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Observer:   a.Metrics.ObserveJob,
		Logger:     a.logger,
	})

	a.Reports = &Reports{
		Service: service.NewReportService(repo, queue, exporter, validator.New(), a.logger, service.ReportServiceConfig{
			ResultTTL:       cfg.ResultTTL,
			CleanupInterval: cfg.CleanupInterval,
		}),
		queue: queue,
	}
	return nil
}

// Start launches the workers, replays jobs left queued and schedules cleanup.
func (r *Reports) Start(ctx context.Context, logger *zap.Logger) {
	r.queue.Start(ctx)
	r.Service.RecoverPendingJobs(ctx)
	r.Service.StartCleanup(ctx)
	logger.Info("report pipeline started")
}

// Stop waits for in-flight exports.
func (r *Reports) Stop() {
	r.queue.Stop()
}
