package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockroom/internal/cache"
	"stockroom/internal/config"
	"stockroom/internal/logger"
	"stockroom/internal/metrics"
	"stockroom/internal/service"
	"stockroom/internal/store"
	"stockroom/internal/store/file"
	"stockroom/internal/store/memory"
	pgstore "stockroom/internal/store/postgres"
	"stockroom/internal/store/redisstore"
)

type configContextKey struct{}

func withConfig(ctx context.Context, cfg config.Config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configContextKey{}, cfg)
}

func configFrom(ctx context.Context) (config.Config, error) {
	cfg, ok := ctx.Value(configContextKey{}).(config.Config)
	if !ok {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return cfg, nil
}

// app is everything a command needs, plus the closers to release it.
type app struct {
	backend store.Backend
	service *service.Service
	closers []func() error
}

func (r *app) Close() {
	log := logger.WithComponent("cmd")
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close error")
		}
	}
}

// openBackend connects the configured collection backend. A configured
// remote backend that cannot be reached is an error, never a silent fallback
// to memory.
func openBackend(ctx context.Context, cfg config.Config) (store.Backend, []func() error, error) {
	log := logger.WithComponent("bootstrap")

	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Info().Str("backend", cfg.StoreBackend).Msg("collections stored in memory")
		return memory.New(), nil, nil
	case config.BackendFile:
		fs, err := file.New(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("file backend: %w", err)
		}
		log.Info().Str("backend", cfg.StoreBackend).Str("dir", cfg.DataDir).Msg("collections stored on disk")
		return fs, nil, nil
	case config.BackendPostgres:
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres unavailable: %w", err)
		}
		log.Info().Str("backend", cfg.StoreBackend).Msg("collections stored in postgres")
		return pg, []func() error{pg.Close}, nil
	case config.BackendRedis:
		rs := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("redis unavailable: %w", err)
		}
		log.Info().Str("backend", cfg.StoreBackend).Str("addr", cfg.RedisAddr).Msg("collections stored in redis")
		return rs, []func() error{rs.Close}, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
}

// openReportCache uses Redis when REDIS_ADDR is set and reachable, and the
// noop cache otherwise.
func openReportCache(ctx context.Context, cfg config.Config) (cache.ReportCache, []func() error) {
	log := logger.WithComponent("bootstrap")
	if cfg.RedisAddr == "" {
		log.Info().Msg("report cache: noop")
		return cache.NoopReportCache{}, nil
	}

	redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	if err := redisCache.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, using noop report cache")
		_ = redisCache.Close()
		return cache.NoopReportCache{}, nil
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("report cache: redis")
	return redisCache, []func() error{redisCache.Close}
}

func openApp(ctx context.Context, cfg config.Config, m *metrics.Metrics) (*app, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	backend, closers, err := openBackend(connectCtx, cfg)
	if err != nil {
		return nil, err
	}
	reportCache, cacheClosers := openReportCache(connectCtx, cfg)
	closers = append(closers, cacheClosers...)

	svc := service.New(backend, service.Options{
		Cache:             reportCache,
		CacheTTL:          time.Duration(cfg.ReportCacheTTLSeconds) * time.Second,
		Metrics:           m,
		LowStockThreshold: cfg.LowStockThreshold,
		SeedAdminPassword: cfg.SeedAdminPassword,
		SeedStaffPassword: cfg.SeedStaffPassword,
	})
	return &app{backend: backend, service: svc, closers: closers}, nil
}
