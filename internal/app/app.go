package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/linemk/grocery-shop/internal/config"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *sql.DB
	Redis  *redis.Client
}

// NewApp создаёт новый экземпляр App: пул соединений с Postgres и клиент Redis
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	// без Redis сервис работает, только rate limiter пропускает всё
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis is unavailable, rate limiting disabled until it recovers",
			slog.String("address", cfg.Redis.Address), slog.Any("error", err))
	}

	return &App{
		Config: cfg,
		Logger: log,
		DB:     db,
		Redis:  rdb,
	}, nil
}

func (a *App) Close() {
	if err := a.Redis.Close(); err != nil {
		a.Logger.Error("failed to close redis client", slog.Any("error", err))
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("failed to close database", slog.Any("error", err))
	}
}
