package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"marketplace/internal/auth"
	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/logger"
	"marketplace/internal/media"
	"marketplace/internal/metrics"
	"marketplace/internal/server"
	"marketplace/internal/services"
	"marketplace/internal/store"
	"marketplace/internal/worker"
)

func main() {
	config.Load()
	cfg := config.AppEnv

	log := logger.New(logger.Options{
		Level:       cfg.LogLevel,
		Development: !cfg.IsProduction(),
		File:        cfg.LogFile,
		MaxSizeMB:   cfg.LogMaxSizeMB,
		MaxBackups:  cfg.LogMaxBackups,
		MaxAgeDays:  cfg.LogMaxAgeDays,
	})
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal("mongodb connection failed", zap.Error(err))
	}
	defer disconnect(client, log)

	db := client.Database(cfg.DBName)
	log.Info("mongodb connected", zap.String("database", db.Name()))

	if err := database.EnsureIndexes(ctx, db, log); err != nil {
		log.Fatal("index bootstrap failed", zap.Error(err))
	}

	images, uploadRoot, err := newMediaStore(cfg, log)
	if err != nil {
		log.Fatal("media store init failed", zap.Error(err))
	}

	stores := store.NewMongo(db)
	m := metrics.New()
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	svc := services.New(services.Options{
		DeliveryFee:     cfg.DeliveryFee,
		PendingOrderTTL: cfg.PendingOrderTTL,
		MaxImageBytes:   cfg.MaxImageBytes,
	}, stores, auth.NewHasher(bcrypt.DefaultCost), tokens, images, m, log)

	if cfg.AdminPhone != "" {
		_, created, err := svc.Accounts.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminPhone, cfg.AdminPassword)
		if err != nil {
			log.Fatal("admin bootstrap failed", zap.Error(err))
		}
		if created {
			log.Info("admin account created", zap.String("phone", cfg.AdminPhone))
		}
	}

	resolver := auth.WithDevBypass(auth.NewTokenResolver(tokens, stores.Accounts), stores.Accounts, log)

	router, err := server.NewRouter(server.Deps{
		Config:     cfg,
		Services:   svc,
		Resolver:   resolver,
		Metrics:    m,
		Log:        log,
		Ping:       func(ctx context.Context) error { return database.Ping(ctx, client) },
		UploadRoot: uploadRoot,
	})
	if err != nil {
		log.Fatal("router init failed", zap.Error(err))
	}

	go worker.NewOrderExpiry(svc.Orders, cfg.OrderSweepEvery, log).Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newMediaStore(cfg config.Config, log *zap.Logger) (media.Store, string, error) {
	if cfg.MediaBackend == "s3" {
		s3Store, err := media.NewS3Store(cfg.S3Region, cfg.S3Bucket, log)
		return s3Store, "", err
	}
	local, err := media.NewLocalStore(cfg.UploadDir, log)
	return local, cfg.UploadDir, err
}

func disconnect(client *mongo.Client, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Error("mongodb disconnect failed", zap.Error(err))
	}
}
