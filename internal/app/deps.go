package app

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/stockroom/stockroom/internal/platform/cache"
	"github.com/stockroom/stockroom/internal/platform/db"
)

// Deps holds the connections shared by the API server and the worker.
type Deps struct {
	Config *Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool
	Redis  *redis.Client
}

// Connect opens the PostgreSQL pool and the Redis client.
func Connect(ctx context.Context, cfg *Config, logger *slog.Logger) (*Deps, error) {
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return nil, err
	}
	client, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &Deps{Config: cfg, Logger: logger, Pool: pool, Redis: client}, nil
}

// Close releases the connections.
func (d *Deps) Close() {
	if d == nil {
		return
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Warn("redis close", slog.Any("error", err))
		}
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
}
