package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinicdesk-backend/internal/infrastructure/config"
)

// Pool wraps a pgx connection pool together with a database/sql view
// of it. Repositories use the sql.DB view; the migrator and health
// checks use it too, so the whole application shares one pool.
type Pool struct {
	pgx    *pgxpool.Pool
	db     *sql.DB
	logger *zap.Logger
}

// Connect opens the pool and verifies connectivity
func Connect(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.HealthCheckPeriod = time.Minute

	pgxPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pgxPool.Ping(pingCtx); err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := stdlib.OpenDBFromPool(pgxPool)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logger.Info("database pool ready",
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.Duration("max_conn_lifetime", poolCfg.MaxConnLifetime))

	return &Pool{pgx: pgxPool, db: db, logger: logger}, nil
}

// DB returns the database/sql view of the pool
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Pgx returns the native pgx pool
func (p *Pool) Pgx() *pgxpool.Pool {
	return p.pgx
}

// HealthCheck verifies the pool can still reach the database
func (p *Pool) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.pgx.Ping(ctx); err != nil {
		p.logger.Warn("database health check failed", zap.Error(err))
		return fmt.Errorf("database health check: %w", err)
	}
	return nil
}

// Close shuts down both views of the pool
func (p *Pool) Close() {
	if err := p.db.Close(); err != nil {
		p.logger.Warn("closing sql view", zap.Error(err))
	}
	p.pgx.Close()
}
