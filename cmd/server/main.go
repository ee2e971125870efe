package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	echomw "github.com/labstack/echo/v4/middleware"

	appcfg "github.com/Skotchmaster/order_backend/internal/config"
	"github.com/Skotchmaster/order_backend/internal/events"
	"github.com/Skotchmaster/order_backend/internal/httpserver"
	"github.com/Skotchmaster/order_backend/internal/models"
	"github.com/Skotchmaster/order_backend/internal/repo"
	"github.com/Skotchmaster/order_backend/internal/search"
	"github.com/Skotchmaster/order_backend/internal/service"
	pkgdb "github.com/Skotchmaster/order_backend/pkg/db"
	"github.com/Skotchmaster/order_backend/pkg/logging"
	"github.com/Skotchmaster/order_backend/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/order_backend/pkg/middleware/logging"
	"github.com/Skotchmaster/order_backend/pkg/middleware/metrics"
)

func main() {
	cfg := appcfg.Load(".env")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.Env)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}
	if err := pkgdb.Migrate(ctx, db, models.All()...); err != nil {
		cancel()
		log.Fatalf("db migrate: %v", err)
	}
	cancel()

	var publisher events.Publisher = events.Nop{}
	var producer *events.Producer
	if cfg.EventsEnabled() {
		producer = events.NewProducer(cfg.KafkaBrokers)
		publisher = producer
		logger.Info("kafka producer ready", "brokers", cfg.KafkaBrokers)
	} else {
		logger.Warn("KAFKA_BROKERS not set, events are dropped")
	}

	r := &repo.GormRepo{DB: db}
	users := &service.UserService{Repo: r, Events: publisher, BcryptCost: cfg.BcryptCost, AdminEmails: cfg.AdminEmails}
	products := &service.ProductService{Repo: r, Events: publisher}

	if cfg.SearchEnabled() {
		esCtx, esCancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := search.NewClient(esCtx, search.Config{
			URL:      cfg.ESURL,
			Username: cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESProductIndex,
		})
		esCancel()
		if err != nil {
			logger.Error("elasticsearch unavailable, search falls back to the database", "error", err)
		} else {
			products.Index = client
		}
	}

	e := httpserver.NewEcho()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(loggingmw.RequestLoggerWithConfig(logger, loggingmw.Config{
		SkipPaths: []string{"/health/live", "/health/ready", "/metrics"},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))
	e.Use(echomw.Secure())
	e.Use(csrf.Middleware(csrf.Config{
		Secure:    cfg.IsProduction(),
		SkipPaths: []string{"/auth/login", "/users/register"},
	}))
	e.Use(metrics.Middleware())

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Svc:           &service.AuthService{Users: users, JWTSecret: cfg.JWTAccessSecret, AccessTTL: cfg.AccessTokenTTL},
			SecureCookies: cfg.IsProduction(),
		},
		UserHandler:    &httpserver.UserHTTP{Svc: users},
		OrderHandler:   &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: r, Events: publisher}},
		ProductHandler: &httpserver.ProductHTTP{Svc: products},
		JWTSecret:      cfg.JWTAccessSecret,
		Ready: func(ctx context.Context) error {
			return pkgdb.Ping(ctx, db)
		},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("order backend listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close", "error", err)
		}
	}

	if err := pkgdb.Close(db); err != nil {
		logger.Error("db close", "error", err)
	}

	logger.Info("shutdown complete")
}
