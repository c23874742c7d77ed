package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"healthhive/internal/api"
	"healthhive/internal/auth"
	"healthhive/internal/config"
	"healthhive/internal/database"
	"healthhive/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready",
		slog.String("host", cfg.Database.Host),
		slog.String("name", cfg.Database.Name),
	)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	privateKeyPEM, err := os.ReadFile(cfg.Auth.PrivateKeyPath)
	if err != nil {
		log.Fatalf("read private key: %v", err)
	}
	publicKeyPEM, err := os.ReadFile(cfg.Auth.PublicKeyPath)
	if err != nil {
		log.Fatalf("read public key: %v", err)
	}
	authService, err := auth.NewAuthService(privateKeyPEM, publicKeyPEM, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL())
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer redisClient.Close()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer asynqClient.Close()

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, api.Dependencies{
		DB:          db,
		AuthService: authService,
		Redis:       redisClient,
		Enqueuer:    asynqClient,
		Storage:     storageClient,
		Logger:      logger,
		Config:      cfg,
	})

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("address", address))
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
