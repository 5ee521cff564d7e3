package config

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig parses DSN and applies the pool settings.
func (c *DatabaseConfig) PoolConfig() (*pgxpool.Config, error) {
	if err := c.RequireTarget(); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(c.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolConfig.MaxConns = int32(c.MaxConns)
	poolConfig.MinConns = int32(c.MinConns)
	poolConfig.MaxConnLifetime = c.MaxConnLifetime
	poolConfig.MaxConnIdleTime = c.MaxConnIdleTime
	return poolConfig, nil
}

// Connect opens the pool and verifies the database answers.
func (c *DatabaseConfig) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := c.PoolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
