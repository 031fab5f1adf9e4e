package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
)

// Config holds PostgreSQL adapter configuration.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// QueryObserver receives the name, latency and row count of every query.
type QueryObserver func(name string, d time.Duration, rows int, err error)

// Adapter owns the pool the TerraMA2 configuration schema is read from.
type Adapter struct {
	db       *sql.DB
	observer QueryObserver
}

// NewAdapter opens a pool through the pgx stdlib driver. The pool connects
// lazily; use Ping to fail fast.
func NewAdapter(cfg Config) (*Adapter, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &Adapter{db: db}, nil
}

// NewAdapterFromDB wraps an existing pool.
func NewAdapterFromDB(db *sql.DB) *Adapter {
	return &Adapter{db: db}
}

// SetQueryObserver installs a hook called after every Query.
func (a *Adapter) SetQueryObserver(fn QueryObserver) {
	a.observer = fn
}

func (a *Adapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *Adapter) Close() error {
	return a.db.Close()
}

// OpenConnections reports the pool's established connections.
func (a *Adapter) OpenConnections() int {
	return a.db.Stats().OpenConnections
}

// Query runs a named read and scans every row into a Row. Driver failures
// wrap common.ErrConnection; a cancelled context wraps common.ErrTimeout.
func (a *Adapter) Query(ctx context.Context, name, query string, args ...interface{}) (out []Row, err error) {
	start := time.Now()
	defer func() {
		if a.observer != nil {
			a.observer(name, time.Since(start), len(out), err)
		}
	}()

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: query %s: %v", common.ErrTimeout, name, err)
		}
		return nil, fmt.Errorf("%w: query %s: %v", common.ErrConnection, name, err)
	}
	out, err = ScanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	return out, nil
}
