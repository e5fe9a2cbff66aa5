package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// PoolOptions sizes the pool and bounds how long startup waits for the database.
type PoolOptions struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	// ConnectAttempts is how many pings are tried before giving up; containers
	// often start the API before Postgres accepts connections.
	ConnectAttempts int
	RetryDelay      time.Duration
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.ConnectAttempts <= 0 {
		o.ConnectAttempts = 5
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	return o
}

// NewPool opens a pgx pool and waits until the server answers a ping.
func NewPool(ctx context.Context, o PoolOptions, logger *logrus.Logger) (*pgxpool.Pool, error) {
	o = o.withDefaults()
	cfg, err := pgxpool.ParseConfig(o.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if o.MaxConns > 0 {
		cfg.MaxConns = o.MaxConns
	}
	cfg.MinConns = o.MinConns
	if o.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = o.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	for attempt := 1; ; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = pool.Ping(pctx)
		cancel()
		if err == nil {
			break
		}
		if attempt == o.ConnectAttempts {
			pool.Close()
			return nil, fmt.Errorf("postgres %s:%d unreachable after %d attempts: %w",
				cfg.ConnConfig.Host, cfg.ConnConfig.Port, attempt, err)
		}
		if logger != nil {
			logger.WithError(err).WithField("attempt", attempt).Warn("postgres not ready; retrying")
		}
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(o.RetryDelay):
		}
	}
	if logger != nil {
		logger.WithFields(logrus.Fields{
			"host":      cfg.ConnConfig.Host,
			"database":  cfg.ConnConfig.Database,
			"max_conns": cfg.MaxConns,
		}).Info("postgres pool ready")
	}
	return pool, nil
}
