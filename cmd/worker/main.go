package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"healthhive/internal/config"
	"healthhive/internal/database"
	"healthhive/internal/metrics"
	"healthhive/internal/tasks"
	"healthhive/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready for worker")

	mailer, err := worker.NewSMTPMailer(cfg.SMTP)
	if err != nil {
		log.Fatalf("init mailer: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()}, asynq.Config{
		Concurrency: 10,
	})

	newsletterHandler := worker.NewNewsletterTaskHandler(db, mailer, logger, cfg.Newsletter.WelcomeSubject)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeNewsletterWelcome, newsletterHandler)

	logger.Info("worker service started", slog.String("redis_addr", cfg.Redis.Addr()))
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
