package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"warungmadura/internal/auth"
	"warungmadura/internal/config"
	"warungmadura/internal/discovery"
	"warungmadura/internal/events"
	httpapi "warungmadura/internal/http"
	"warungmadura/internal/logging"
	"warungmadura/internal/repository"
	"warungmadura/internal/seed"
	"warungmadura/internal/service"

	_ "warungmadura/docs"
)

// @title Warung Madura API
// @version 1.0
// @description Online pharmacy storefront: catalog, cart, checkout, orders and admin console.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.String(logging.Error, err.Error()))
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stdout, cfg.LogLevel))
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx := context.Background()
	repos, closeStore, err := openRepositories(ctx, cfg)
	if err != nil {
		slog.Error("storage", slog.String(logging.Error, err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	if cfg.SeedDemoData {
		if err := seed.Demo(ctx, repos.Categories, repos.Products); err != nil {
			slog.Error("seed demo data", slog.String(logging.Error, err.Error()))
			os.Exit(1)
		}
	}
	if err := seed.GrantAdmins(ctx, repos.Roles, cfg.AdminUserIDs); err != nil {
		slog.Error("grant admins", slog.String(logging.Error, err.Error()))
		os.Exit(1)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.ServiceName)
		if err != nil {
			slog.Error("kafka", slog.String(logging.Error, err.Error()))
			os.Exit(1)
		}
		defer kp.Close()
		publisher = kp
	}

	keys := auth.NewKeys(cfg.JWTSecret, cfg.TokenTTL)
	srv := httpapi.NewServer(httpapi.Services{
		Sessions: auth.NewManager(keys, repos.Roles),
		Catalog:  service.NewCatalogService(repos.Categories, repos.Products),
		Cart:     service.NewCartService(repos.Carts, repos.Products, repos.Tx),
		Checkout: service.NewCheckoutService(repos.Carts, repos.Products, repos.Orders, repos.Tx, publisher),
		Orders:   service.NewOrderService(repos.Orders),
		Admin:    service.NewAdminService(repos.Products, repos.Categories, repos.Orders, publisher),
		Profiles: service.NewProfileService(repos.Profiles),
	}, cfg.AllowedOrigins)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String(logging.Error, err.Error()))
			os.Exit(1)
		}
	}()

	var registrar *discovery.Registrar
	if cfg.ConsulAddr != "" {
		registrar, err = discovery.NewRegistrar(cfg.ConsulAddr, cfg.ServiceName, cfg.HTTPAddr)
		if err == nil {
			err = registrar.Register()
		}
		if err != nil {
			slog.Warn("consul registration failed", slog.String(logging.Error, err.Error()))
			registrar = nil
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if registrar != nil {
		if err := registrar.Deregister(); err != nil {
			slog.Warn("consul deregistration failed", slog.String(logging.Error, err.Error()))
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", slog.String(logging.Error, err.Error()))
	}
}

// openRepositories Postgres при заданном DATABASE_URL, иначе память
func openRepositories(ctx context.Context, cfg config.Config) (repository.Repositories, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Info("using in-memory store")
		return repository.NewMemoryRepositories(repository.NewMemoryStore()), func() {}, nil
	}
	db, sqlDB, err := repository.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return repository.Repositories{}, nil, err
	}
	if err := repository.Migrate(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return repository.Repositories{}, nil, err
	}
	return repository.NewGormRepositories(repository.NewGormStore(db)), func() { _ = sqlDB.Close() }, nil
}
