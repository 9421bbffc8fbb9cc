// Package main runs the background worker that sends reward notices for completed polls.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-survey/backend/config"
	"github.com/aura-survey/backend/internal/chat"
	"github.com/aura-survey/backend/internal/worker"
	"github.com/aura-survey/backend/pkg/queue"
	"github.com/aura-survey/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Chat.BaseURL == "" {
		logger.Fatal("CHAT_BASE_URL is required to deliver reward notices")
	}

	ctx := context.Background()
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jobQueue := queue.NewQueue(rdb.Client, queue.Options{
		Name:       cfg.Worker.CompletionQueue,
		DLQ:        cfg.Worker.DeadLetterQueue,
		MaxRetries: cfg.Worker.MaxRetries,
	}, logger)
	sender := chat.NewHTTPChannel(cfg.Chat.BaseURL, cfg.Chat.Token, cfg.Chat.Timeout, logger)
	processor := worker.NewCompletionProcessor(sender, jobQueue, cfg.Worker.RetryBackoff, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		processor.Run(workerCtx)
		close(done)
	}()
	if n, err := jobQueue.Len(ctx); err == nil {
		logger.Info("worker started", zap.String("queue", cfg.Worker.CompletionQueue), zap.Int64("pending", n))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn("worker did not stop in time")
	}
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
