package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/Leganyst/salon-booking/internal/config"
	"github.com/Leganyst/salon-booking/internal/db"
	"github.com/Leganyst/salon-booking/internal/logger"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/reminder"
)

func main() {
	// 1. Конфиг и логгер.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logg, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	// 2. БД с outbox напоминаний.
	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		logg.Fatal("init db", zap.Error(err))
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		logg.Fatal("auto migrate", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logg.Fatal("sql DB", zap.Error(err))
	}
	defer sqlDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Мониторинг Redis.
	health := reminder.NewRedisHealth(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logg)
	defer health.Close()
	go health.Run(ctx, 10*time.Second)

	// 4. asynq-сервер с обработчиком reminder:send.
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Booking.WorkerConcurrency,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logg.Sugar(),
		},
	)

	worker := reminder.NewWorker(reminder.NewOutbox(gormDB), reminder.LogSender{Logger: logg}, logg)
	mux := asynq.NewServeMux()
	worker.Register(mux)

	// 5. Старт с повторами: Redis может подняться позже воркера.
	const maxAttempts = 5
	for attempt := 1; ; attempt++ {
		err := srv.Start(mux)
		if err == nil {
			break
		}
		logg.Error("start reminder worker", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == maxAttempts {
			logg.Fatal("reminder worker: max start attempts reached")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt*2) * time.Second):
		}
	}
	logg.Info("reminder worker started", zap.String("redis", cfg.Redis.Addr))

	// 6. Грейсфул-шатдаун по сигналу.
	<-ctx.Done()
	logg.Info("shutting down reminder worker...")
	srv.Shutdown()
}
