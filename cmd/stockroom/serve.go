package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stockroom/internal/httpapi"
	"stockroom/internal/logger"
	"stockroom/internal/metrics"
	pgstore "stockroom/internal/store/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the dashboard HTTP API until SIGINT or SIGTERM.

The collection backend is chosen by STORE_BACKEND. In production the
configuration is validated strictly: AUTH_SECRET must be strong, the seed
passwords must be changed and the memory backend is refused.`,
	Example: `  # Development, in-memory collections
  stockroom serve

  # Postgres, applying migrations first
  STORE_BACKEND=postgres DATABASE_URL=postgres://... stockroom serve --migrate`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "Apply database migrations before serving (postgres backend only)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logger.WithComponent("serve")
	cfg, err := configFrom(cmd.Context())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	migrate, _ := cmd.Flags().GetBool("migrate")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	a, err := openApp(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer a.Close()

	if migrate {
		pg, ok := a.backend.(*pgstore.Store)
		if !ok {
			return errors.New("--migrate requires STORE_BACKEND=postgres")
		}
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
	}

	seeded, err := a.service.Seed(ctx)
	if err != nil {
		return err
	}
	if len(seeded) > 0 {
		log.Info().Strs("collections", seeded).Msg("seeded empty collections")
	}

	auth := httpapi.NewAuthManager(ctx, cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, a.service)
	api := httpapi.New(a.service, auth, httpapi.Options{
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		IsDevelopment:      !cfg.IsProduction(),
		Metrics:            m,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Address()).
			Str("environment", cfg.Environment).
			Str("backend", cfg.StoreBackend).
			Str("version", version).
			Msg("stockroom listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("server stopped")
	return nil
}
