package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	bookingpb "github.com/Leganyst/salon-booking/internal/api/booking/v1"
	"github.com/Leganyst/salon-booking/internal/config"
	"github.com/Leganyst/salon-booking/internal/db"
	"github.com/Leganyst/salon-booking/internal/httpapi"
	"github.com/Leganyst/salon-booking/internal/logger"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/reminder"
	"github.com/Leganyst/salon-booking/internal/repository"
	"github.com/Leganyst/salon-booking/internal/scheduling"
	"github.com/Leganyst/salon-booking/internal/service"
)

func main() {
	// 1. Загружаем конфиг (.env, config.yaml, env) и поднимаем логгер.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logg, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		logg.Fatal("init db", zap.Error(err))
	}

	// 3. Миграции моделей.
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

	// 4. Репозитории (реализации на GORM) и outbox напоминаний.
	catalogRepo := repository.NewGormCatalogRepository(gormDB)
	appointmentRepo := repository.NewGormAppointmentRepository(gormDB)
	outbox := reminder.NewOutbox(gormDB)

	// 5. Ядро бронирования.
	offsets, err := cfg.Booking.Offsets()
	if err != nil {
		logg.Fatal("reminder offsets", zap.Error(err))
	}
	resolver := scheduling.NewResolver(catalogRepo)
	validator := scheduling.NewValidator(catalogRepo, resolver, time.Now)
	calculator := scheduling.NewCalculator(catalogRepo, resolver, appointmentRepo, time.Now)
	scheduler := scheduling.NewScheduler(catalogRepo, appointmentRepo, validator, outbox, scheduling.Options{
		Timeout:         cfg.Booking.OperationTimeout,
		ReminderOffsets: offsets,
		Logger:          logg.Named("scheduler"),
	})

	booking := service.NewBooking(service.BookingDeps{
		Calculator: calculator,
		Validator:  validator,
		Scheduler:  scheduler,
		Resolver:   resolver,
		Reader:     appointmentRepo,
		Clients:    appointmentRepo,
		Services:   catalogRepo,
	})

	// 6. Диспетчер напоминаний: outbox → asynq.
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	queue := asynq.NewClient(redisOpt)
	defer queue.Close()

	dispatcher := reminder.NewDispatcher(outbox, queue, reminder.DispatcherOptions{
		Spec:      cfg.Booking.DispatchSpec,
		Lookahead: cfg.Booking.DispatchLookahead,
		Logger:    logg.Named("reminders"),
	})
	if err := dispatcher.Start(ctx); err != nil {
		logg.Fatal("start reminder dispatcher", zap.Error(err))
	}

	redisHealth := reminder.NewRedisHealth(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logg.Named("redis"))
	defer redisHealth.Close()

	// 7. gRPC-сервер.
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		service.LoggingInterceptor(logg.Named("grpc")),
		service.RecoveryInterceptor(logg.Named("grpc")),
	))
	bookingpb.RegisterBookingServiceServer(grpcServer, service.NewBookingService(booking))
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(bookingpb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logg.Fatal("listen grpc", zap.String("addr", cfg.Server.GRPCAddr), zap.Error(err))
	}
	go func() {
		logg.Info("gRPC server listening", zap.String("addr", cfg.Server.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logg.Fatal("grpc serve", zap.Error(err))
		}
	}()

	// 8. HTTP API.
	router := httpapi.NewRouter(booking, httpapi.Options{
		Logger:         logg.Named("http"),
		AllowedOrigins: cfg.Server.AllowedOrigins(),
		RequestsPerMin: cfg.Server.MaxRequestsPerMin,
		Health: func(ctx context.Context) error {
			if err := sqlDB.PingContext(ctx); err != nil {
				return fmt.Errorf("database: %w", err)
			}
			if err := redisHealth.Check(ctx); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		},
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logg.Info("HTTP server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("http serve", zap.Error(err))
		}
	}()

	// 9. Грейсфул-шатдаун по сигналу.
	<-ctx.Done()
	logg.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	healthSrv.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Warn("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	dispatcher.Stop(shutdownCtx)
}
