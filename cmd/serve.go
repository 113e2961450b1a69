package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"student-loan/config"
	httpLayer "student-loan/http"
	"student-loan/logging"
	"student-loan/repository"
	"student-loan/service"
)

func newServeCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the loan HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

// newCache picks the store backend named in the config.
func newCache(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (repository.CacheRepository, func(), error) {
	switch cfg.Backend {
	case config.BackendRedis:
		cache := repository.NewRedisCache(repository.RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.Password,
			DB:        cfg.DB,
			KeyPrefix: cfg.KeyPrefix,
			TTL:       cfg.TTL.Duration,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := cache.Ping(pingCtx); err != nil {
			cache.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("using redis store", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.DB))
		return cache, func() { cache.Close() }, nil
	default:
		logger.Info("using in-memory store")
		return repository.NewMemoryCache(), func() {}, nil
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	cache, closeCache, err := newCache(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	loanRepo := repository.NewCacheLoanRepository(cache)
	loanService := service.NewLoanService(loanRepo, logger, cfg.Loan.DefaultCompoundingPeriods)
	loanHandler := httpLayer.NewLoanHandler(loanService, logger)

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.Window.Duration)
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      httpLayer.NewRouter(loanHandler, rateLimiter),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  cfg.Server.IdleTimeout.Duration,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("start server: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}
