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

	"expensetracker/internal/auth"
	"expensetracker/internal/backend"
	"expensetracker/internal/cache"
	"expensetracker/internal/config"
	"expensetracker/internal/core"
	apphttp "expensetracker/internal/http"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
)

const (
	categoryCacheSize = 1000
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg)
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.SecretKey == "" {
		logger.Warn("SECRET_KEY not set, using an insecure development key")
		cfg.SecretKey = "development-only-secret"
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).
		CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	formatter, err := core.NewCurrencyFormatter(cfg.CurrencyLocale, cfg.CurrencySymbol)
	if err != nil {
		logger.Error("Invalid currency settings", applog.FieldError, err)
		os.Exit(1)
	}

	// Category lists are cached per user; a zero TTL turns the cache off.
	var lists *cache.LRUCache[[]core.Category]
	cacheManager := cache.NewManager()
	if cfg.CategoryCacheTTL > 0 {
		lists = cache.NewLRUCache[[]core.Category](categoryCacheSize, cfg.CategoryCacheTTL)
		cacheManager.Register(lists)
		cacheManager.StartCleanup(cfg.CategoryCacheTTL)
	}
	defer cacheManager.Stop()

	categories := services.NewCategoryService(res.Store, lists)
	users := services.NewUserService(res.Store, auth.NewPasswordHasher(cfg.BcryptCost))
	users.OnCategoriesChanged(categories.Invalidate)

	opts := apphttp.Options{
		Tokens:             auth.NewTokenIssuer(cfg.SecretKey, cfg.TokenTTL),
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Location:           cfg.Location(),
	}
	if lists != nil {
		opts.CategoryCache = lists
	}
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Users:        users,
		Categories:   categories,
		Transactions: services.NewTransactionService(res.Store, res.Publisher),
		Dashboard:    services.NewDashboardService(res.Store, formatter),
		Activity:     res.Store,
		Ready:        res.Store,
	}, opts)

	// Graceful shutdown handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting expense API",
		"port", cfg.Port,
		"env", cfg.Env,
		"backend", cfg.DataBackend,
		"activity_events", res.Publisher != nil)
	if err := serve(ctx, srv, logger); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// serve runs srv until ctx is done. It returns only after Shutdown has
// drained in-flight requests.
func serve(ctx context.Context, srv server, logger *applog.Logger) error {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-drained
	return nil
}

func newLogger(cfg *config.Config) *applog.Logger {
	logCfg := applog.DefaultConfig()
	logCfg.Format = cfg.LogFormat
	if level, err := applog.ParseLevel(cfg.LogLevel); err == nil {
		logCfg.Level = level
	}
	return applog.New(logCfg)
}
