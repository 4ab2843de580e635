package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/config"
	"github.com/turfbook/turf-booking/internal/database"
	"github.com/turfbook/turf-booking/internal/handler"
	"github.com/turfbook/turf-booking/internal/logger"
	"github.com/turfbook/turf-booking/internal/middleware"
	"github.com/turfbook/turf-booking/internal/queue"
	"github.com/turfbook/turf-booking/internal/repository"
	"github.com/turfbook/turf-booking/internal/router"
	"github.com/turfbook/turf-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db, log); err != nil {
			log.Fatal("migrate database", zap.Error(err))
		}
	}

	// Redis backs caching, rate limiting and live events.  Without it the
	// API still serves bookings.
	var rdb redis.UniversalClient
	if client, err := config.NewRedisClient(config.LoadRedisConfig()); err != nil {
		log.Warn("redis unavailable, live events, cache and rate limit disabled", zap.Error(err))
	} else {
		rdb = client
		defer client.Close()
	}

	bookings := repository.NewBookingRepo(db)
	turfs := repository.NewTurfRepo(db)
	users := repository.NewUserRepo(db)
	audit := repository.NewAuditRepo(db)
	orders := repository.NewPaymentOrderRepo(db)
	notifications := repository.NewNotificationRepo(db)

	var emitter service.Emitter
	if rdb != nil {
		emitter = service.NewRedisEmitter(rdb)
	}
	var publisher service.EventPublisher
	if cfg.Queue.URL != "" {
		amqpPub := service.NewAMQPPublisher(cfg.Queue.URL, log)
		defer amqpPub.Close()
		publisher = amqpPub
	}
	dispatcher := service.NewDispatcher(notifications, emitter, publisher, log)

	bookingSvc := service.NewBookingService(bookings, turfs, users, audit, dispatcher, cfg.Booking.HoldTTL, log)
	turfSvc := service.NewTurfService(turfs, audit, log)

	var gateway service.Gateway = service.LocalGateway{}
	if cfg.Payment.Configured() {
		gateway = service.NewRazorpayGateway(cfg.Payment.APIBase, cfg.Payment.KeyID, cfg.Payment.KeySecret)
	} else {
		log.Warn("payment gateway credentials missing, orders will be synthesized and verification will fail")
	}
	paymentSvc := service.NewPaymentService(bookings, orders, gateway, dispatcher, service.PaymentConfig{
		KeyID:     cfg.Payment.KeyID,
		KeySecret: cfg.Payment.KeySecret,
		Currency:  cfg.Payment.Currency,
	}, log)

	sweeper := service.NewSweeper(bookings, audit, dispatcher,
		cfg.Booking.HoldTTL, cfg.Booking.SweepInterval, cfg.Booking.SweepBatch, log)
	if err := sweeper.Start(ctx); err != nil {
		log.Fatal("start sweeper", zap.Error(err))
	}

	if cfg.Queue.URL != "" && cfg.Queue.ConsumerEnabled {
		consumer := queue.NewConsumer(cfg.Queue.URL, cfg.Queue.JournalPath, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("booking journal consumer stopped", zap.Error(err))
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	router.RegisterRoutes(e, db)
	router.RegisterPublic(e,
		handler.NewTurfHandler(turfSvc, bookingSvc, log),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log))
	router.RegisterCustomer(e, router.CustomerHandlers{
		Bookings:      handler.NewBookingHandler(bookingSvc, log),
		Payments:      handler.NewPaymentHandler(paymentSvc, log),
		Notifications: handler.NewNotificationHandler(notifications, log),
		Realtime:      handler.NewRealtimeHandler(rdb, log),
	}, cfg.JWTSecret, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))
	router.RegisterAdmin(e,
		handler.NewAdminHandler(bookingSvc, turfSvc, sweeper, audit, log),
		cfg.JWTSecret)

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	sweeper.Stop()
	dispatcher.Wait()
}
