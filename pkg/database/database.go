package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/medflow/pharmacy-inventory/pkg/config"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// DB wraps sqlx.DB with transaction and health helpers
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// New opens the connection pool and waits for PostgreSQL to accept connections.
// Compose stacks often start the service before the database is ready, so the
// initial ping is retried a few times.
func New(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			break
		}
		if attempt == connectAttempts {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("database not ready, retrying")
		time.Sleep(connectBackoff)
	}

	return &DB{
		DB:     db,
		logger: log,
	}, nil
}

// Wrap wraps an existing sqlx handle, e.g. one backed by sqlmock
func Wrap(db *sqlx.DB, log *logger.Logger) *DB {
	return &DB{DB: db, logger: log}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Health reports reachability plus connection pool usage
func (db *DB) Health(ctx context.Context) map[string]string {
	status := map[string]string{
		"status": "up",
	}

	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
		return status
	}

	stats := db.Stats()
	status["open_connections"] = strconv.Itoa(stats.OpenConnections)
	status["in_use"] = strconv.Itoa(stats.InUse)
	status["wait_count"] = strconv.FormatInt(stats.WaitCount, 10)

	return status
}

// Transaction executes fn within a read-committed transaction. Any error returned
// by fn rolls the whole transaction back; fn's error is returned unchanged so
// callers can match it.
func (db *DB) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
