package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/Mustak4/CleanLinkAI/config"
	appmodel "github.com/Mustak4/CleanLinkAI/internal/app/model"
	apprepository "github.com/Mustak4/CleanLinkAI/internal/app/repository"
	appserver "github.com/Mustak4/CleanLinkAI/internal/app/server"
	appservice "github.com/Mustak4/CleanLinkAI/internal/app/service"
	"github.com/Mustak4/CleanLinkAI/internal/infra/logger"
	infraNATS "github.com/Mustak4/CleanLinkAI/internal/infra/nats"
	infraPostgres "github.com/Mustak4/CleanLinkAI/internal/infra/postgres"
	infraPrometheus "github.com/Mustak4/CleanLinkAI/internal/infra/prometheus"
	infraRedis "github.com/Mustak4/CleanLinkAI/internal/infra/redis"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.Link{}, &appmodel.ClickEvent{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully")

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	linkRepo := apprepository.NewLinkRepository(gormDB)
	statsRepo := apprepository.NewClickStatsRepository(pool)

	slugs, err := linkRepo.Slugs(ctx)
	if err != nil {
		log.Fatal("Failed to load slugs for bloom filter", zap.Error(err))
	}
	slugFilter := appservice.NewSlugFilter(slugs)
	log.Info("Seeded slug bloom filter", zap.Int("slugs", len(slugs)))

	linkService := appservice.NewLinkService(linkRepo, statsRepo, appservice.Options{
		Filter:          slugFilter,
		MaxSlugAttempts: cfg.Slug.MaxAttempts,
		StatsWindowDays: cfg.Stats.WindowDays,
	})

	clickPublisher, err := appservice.NewClickPublisher(js)
	if err != nil {
		log.Fatal("Failed to provision click stream", zap.Error(err))
	}

	clickConsumer := appservice.NewClickConsumer(js, redisClient, log)
	if err := clickConsumer.Start(); err != nil {
		log.Fatal("Failed to start click consumer", zap.Error(err))
	}

	server := appserver.New(appserver.Dependencies{
		Logger:         log,
		Redis:          redisClient,
		LinkService:    linkService,
		ClickPublisher: clickPublisher,
	})

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := server.Listen(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
