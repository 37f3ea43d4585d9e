package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"inventory-api/internal/auth"
	"inventory-api/internal/config"
	"inventory-api/internal/exporter"
	apphttp "inventory-api/internal/http"
	"inventory-api/internal/repository/sqlite"
	"inventory-api/internal/service"
	"inventory-api/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Fatalf("parse log level: %v", err)
	}
	logger.SetLevel(level)

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	inventoryRepo := sqlite.NewInventoryRepository(db)
	if err := inventoryRepo.Init(ctx); err != nil {
		logger.Fatalf("init inventory repository: %v", err)
	}

	inventoryService := service.NewInventoryService(inventoryRepo, service.PageLimits{
		DefaultSize: cfg.Inventory.DefaultPageSize,
		MaxSize:     cfg.Inventory.MaxPageSize,
	})

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	if err != nil {
		logger.Fatalf("setup token manager: %v", err)
	}
	authService, err := service.NewAuthService(cfg.Auth.Username, cfg.Auth.Password, tokens)
	if err != nil {
		logger.Fatalf("setup auth service: %v", err)
	}

	var exports exporter.Exporter
	if cfg.Storage.Bucket != "" {
		storageSvc, err := buildStorage(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("setup storage: %v", err)
		}
		exports, err = exporter.New(exporter.Config{
			Bucket:            cfg.Storage.Bucket,
			KeyPrefix:         cfg.Storage.KeyPrefix,
			Interval:          time.Duration(cfg.Export.IntervalMinutes) * time.Minute,
			Keep:              cfg.Export.Keep,
			LowStockThreshold: cfg.Inventory.LowStockThreshold,
			Logger:            logger,
		}, inventoryService, storageSvc)
		if err != nil {
			logger.Fatalf("setup exporter: %v", err)
		}
		if err := exports.Start(ctx); err != nil {
			logger.Fatalf("start exporter: %v", err)
		}
	} else {
		logger.Info("storage bucket not set, inventory exports disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		inventoryService,
		authService,
		tokens,
		exports,
		logger,
		apphttp.Options{
			AuthRequired:      cfg.Auth.Required,
			AuthUsername:      cfg.Auth.Username,
			LowStockThreshold: cfg.Inventory.LowStockThreshold,
		},
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if exports != nil {
		exports.Shutdown()
	}

	logger.Info("bye")
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
