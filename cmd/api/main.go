package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/tshirtstore-golang/internal/auth"
	"github.com/01moynul/tshirtstore-golang/internal/config"
	"github.com/01moynul/tshirtstore-golang/internal/database"
	"github.com/01moynul/tshirtstore-golang/internal/handlers"
	"github.com/01moynul/tshirtstore-golang/internal/logger"
	"github.com/01moynul/tshirtstore-golang/internal/media"
	"github.com/01moynul/tshirtstore-golang/internal/middleware"
	"github.com/01moynul/tshirtstore-golang/internal/routes"
	"github.com/01moynul/tshirtstore-golang/internal/shop"
	"github.com/01moynul/tshirtstore-golang/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	config.LoadDotEnv()
	cfg := config.Load()

	log := logger.New(logger.Options{
		Service: "tshirtstore-api",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})
	if cfg.AppEnv == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Database Connection ---
	db, err := database.OpenDB(ctx, cfg.DSN, log)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// 2. --- Redis (optional, rate limiting only) ---
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn("redis unavailable, login rate limiting disabled", slog.Any("err", err))
			rdb.Close()
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("configure tokens: %w", err)
	}

	// --- Application Setup ---
	st := store.New(db)
	accounts := shop.NewAccounts(st, tokens, cfg.AdminEmails)
	reviews := shop.NewReviewLedger(st, st)
	app := &handlers.Handlers{
		Accounts:        accounts,
		Catalog:         shop.NewCatalog(st, reviews, cfg.ProductsPerPage),
		Carts:           shop.NewCartStore(st, st),
		Orders:          shop.NewOrderEngine(st, st, log),
		Reviews:         reviews,
		Board:           shop.NewAdminBoard(st, st, st),
		Media:           media.NewStore(cfg.UploadDir, cfg.BaseURL, cfg.MaxUploadBytes),
		Log:             log,
		CheckoutTimeout: cfg.CheckoutTimeout,
	}

	// --- Router Setup ---
	router := routes.SetupRouter(app, routes.Deps{
		Tokens:      tokens,
		Users:       accounts,
		AuthLimiter: middleware.NewRateLimiter(rdb, "auth", cfg.LoginRateLimit, time.Minute, log),
		CORSOrigin:  cfg.CORSOrigin,
		Log:         log,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// --- Start Server ---
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting api server", slog.Int("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
