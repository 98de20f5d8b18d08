package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	_ "github.com/lib/pq" // registers the "postgres" driver
)

const (
	connectAttempts   = 5
	initialBackoff    = 200 * time.Millisecond
	maxConnectBackoff = 5 * time.Second
)

// Open connects to Postgres and waits for the server to answer a ping,
// retrying with exponential backoff while the database comes up.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := waitForPing(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("connected to postgres")
	return db, nil
}

// waitForPing pings db until it answers, backing off between attempts.
func waitForPing(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == connectAttempts || ctx.Err() != nil {
			return fmt.Errorf("connect to postgres after %d attempts: %w", attempt, err)
		}

		logger.Warn("postgres not reachable, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxConnectBackoff)
	}
}
