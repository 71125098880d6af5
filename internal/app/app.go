package app

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook/internal/cli"
	"github.com/noah-isme/gradebook/internal/handler"
	"github.com/noah-isme/gradebook/internal/repository"
	"github.com/noah-isme/gradebook/internal/service"
	"github.com/noah-isme/gradebook/pkg/cache"
	"github.com/noah-isme/gradebook/pkg/config"
	"github.com/noah-isme/gradebook/pkg/database"
)

const cacheNamespace = "gradebook"

// App holds the wired repositories and services shared by every binary.
type App struct {
	DB      *sqlx.DB
	Redis   *redis.Client
	Metrics *service.MetricsService
	Cache   *service.CacheService

	Groups   *service.GroupService
	Students *service.StudentService
	Teachers *service.TeacherService
	Subjects *service.SubjectService
	Grades   *service.GradeService
	Queries  *service.QueryService
	Reports  *Reports

	logger *zap.Logger
}

// New opens the database and the optional Redis cache and wires the service layer.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, query cache disabled", zap.Error(err))
		client = nil
	}

	return Wire(db, client, cfg.Queries, logger), nil
}

// Wire builds the service graph on an already opened database. Without a Redis client the query
// cache falls back to an in-process LRU when MemoryCacheSize is set. That cache only sees writes
// made through this App, so it is off by default; Redis is shared and cleared by every process.
func Wire(db *sqlx.DB, client *redis.Client, queries config.QueriesConfig, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	switch {
	case client != nil:
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(client, cacheNamespace), metrics, queries.CacheTTL, logger, true)
	case queries.MemoryCacheSize > 0:
		memory := repository.NewMemoryCacheRepository(queries.MemoryCacheSize, queries.CacheTTL)
		cacheSvc = service.NewCacheService(memory, metrics, queries.CacheTTL, logger, true)
	}
	hooks := service.WriteHooks{Cache: cacheSvc, Metrics: metrics}

	groups := repository.NewGroupRepository(db)
	students := repository.NewStudentRepository(db)
	teachers := repository.NewTeacherRepository(db)
	subjects := repository.NewSubjectRepository(db)
	grades := repository.NewGradeRepository(db)

	return &App{
		DB:       db,
		Redis:    client,
		Metrics:  metrics,
		Cache:    cacheSvc,
		Groups:   service.NewGroupService(groups, validate, logger, hooks),
		Students: service.NewStudentService(students, groups, validate, logger, hooks),
		Teachers: service.NewTeacherService(teachers, subjects, validate, logger, hooks),
		Subjects: service.NewSubjectService(subjects, validate, logger, hooks),
		Grades:   service.NewGradeService(grades, students, subjects, validate, logger, hooks),
		Queries:  service.NewQueryService(repository.NewQueryRepository(db), cacheSvc, metrics, logger),
		logger:   logger,
	}
}

// CLIServices exposes the mutation services to the command line runner.
func (a *App) CLIServices() cli.Services {
	return cli.Services{
		Groups:   a.Groups,
		Students: a.Students,
		Teachers: a.Teachers,
		Subjects: a.Subjects,
		Grades:   a.Grades,
	}
}

// Handlers builds the HTTP handler set.
func (a *App) Handlers() handler.Handlers {
	h := handler.Handlers{
		Groups:   handler.NewGroupHandler(a.Groups),
		Students: handler.NewStudentHandler(a.Students),
		Teachers: handler.NewTeacherHandler(a.Teachers),
		Subjects: handler.NewSubjectHandler(a.Subjects),
		Grades:   handler.NewGradeHandler(a.Grades),
		Queries:  handler.NewQueryHandler(a.Queries),
		Metrics:  handler.NewMetricsHandler(a.Metrics, a.DB),
	}
	if a.Reports != nil {
		h.Reports = handler.NewReportHandler(a.Reports.Service)
	}
	return h
}

// Close releases the database and cache connections.
func (a *App) Close() {
	if a.Reports != nil {
		a.Reports.Stop()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if err := a.DB.Close(); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
}
