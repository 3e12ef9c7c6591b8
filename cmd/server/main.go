package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"contractdesk/internal/auth"
	"contractdesk/internal/config"
	"contractdesk/internal/domain"
	"contractdesk/internal/httpapi"
	"contractdesk/internal/service"
	"contractdesk/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	if cfg.DBDSN == "" {
		logger.Error("APP_DB_DSN is required")
		os.Exit(1)
	}

	ctx := context.Background()

	if err := postgres.Migrate(ctx, cfg.DBDSN, cfg.DBSchema); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	pool, err := postgres.Open(ctx, cfg.DBDSN, cfg.DBSchema)
	if err != nil {
		logger.Error("db open failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	accounts := postgres.NewAccountsStore(pool)
	sessions := postgres.NewSessionsStore(pool)
	contracts := postgres.NewContractsStore(pool)
	categories := postgres.NewCategoriesStore(pool)
	statuses := postgres.NewStatusesStore(pool)

	if err := bootstrapAccount(ctx, logger, accounts, cfg); err != nil {
		logger.Error("bootstrap account failed", "err", err)
		os.Exit(1)
	}

	authSvc := &service.AuthService{
		Accounts: accounts,
		Sessions: sessions,
	}
	contractSvc := &service.ContractService{
		Contracts:  contracts,
		Categories: categories,
		Statuses:   statuses,
	}

	router := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:     logger,
		IsProd:     cfg.IsProd(),
		DBPing:     pool.Ping,
		Auth:       authSvc,
		Contracts:  contractSvc,
		Categories: &service.LookupService{Store: categories},
		Statuses:   &service.LookupService{Store: statuses},
		Cookies: auth.CookieConfig{
			Name:   cfg.CookieName,
			TTL:    cfg.SessionTTL,
			Secure: cfg.CookieSecure(),
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

// bootstrapAccount seeds the first account so a fresh deployment is
// reachable. The account comes up active with must_change_password set,
// forcing a rotation on first login.
func bootstrapAccount(ctx context.Context, logger *slog.Logger, accounts *postgres.AccountsStore, cfg config.Config) error {
	if cfg.BootstrapPassword == "" {
		return nil
	}
	if len(cfg.BootstrapPassword) < 8 {
		return errors.New("APP_BOOTSTRAP_PASSWORD: must be at least 8 characters")
	}

	_, err := accounts.GetByUsername(ctx, cfg.BootstrapUsername)
	if err == nil {
		logger.Info("bootstrap: account already exists", "username", cfg.BootstrapUsername)
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("bootstrap: lookup account: %w", err)
	}

	hash, err := auth.HashPassword(cfg.BootstrapPassword)
	if err != nil {
		return fmt.Errorf("bootstrap: hash password: %w", err)
	}

	displayName := cfg.BootstrapDisplayName
	if displayName == "" {
		displayName = cfg.BootstrapUsername
	}

	_, err = accounts.Create(ctx, cfg.BootstrapUsername, displayName, hash, domain.AccountStatusActive, true)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			logger.Info("bootstrap: account already exists", "username", cfg.BootstrapUsername)
			return nil
		}
		return fmt.Errorf("bootstrap: create account: %w", err)
	}

	logger.Info("bootstrap: created account", "username", cfg.BootstrapUsername)
	return nil
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
