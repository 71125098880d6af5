package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/gradebook/api/swagger"
	"github.com/noah-isme/gradebook/internal/app"
	"github.com/noah-isme/gradebook/internal/handler"
	"github.com/noah-isme/gradebook/internal/middleware"
	"github.com/noah-isme/gradebook/pkg/config"
	"github.com/noah-isme/gradebook/pkg/logger"
	corsmiddleware "github.com/noah-isme/gradebook/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gradebook/pkg/middleware/requestid"
)

// @title Gradebook API
// @version 1.0.0
// @description Academic records: groups, students, teachers, subjects, grades, analytical queries and report exports
// @BasePath /
// @schemes http

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("startup failed", "error", err)
	}
	defer a.Close()

	if err := a.EnableReports(cfg.Reports, cfg.APIPrefix); err != nil {
		logr.Sugar().Fatalw("report pipeline failed", "error", err)
	}
	a.Reports.Start(ctx, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.Metrics))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Audit(logr))

	handler.RegisterRoutes(r, cfg.APIPrefix, a.Handlers())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "db_driver", cfg.Database.Driver, "redis", a.Redis != nil)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Errorw("server failed", "error", err)
	}
}
