// Package storage is the SQL entity store, built on bun over sqlite
// (modernc.org/sqlite) or postgres (lib/pq).
package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"spenny/internal/core"
	spennylog "spenny/internal/log"
	"spenny/internal/store"

	_ "modernc.org/sqlite"
)

// Driver selects the SQL backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

func (d Driver) sqlName() string {
	if d == DriverPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Options configures Open. SQLitePath is used for sqlite, DatabaseURL for postgres.
type Options struct {
	Driver      Driver
	SQLitePath  string
	DatabaseURL string
}

// Repository implements store.Store and store.TxRunner.
type Repository struct {
	db   bun.IDB
	root *bun.DB
	inTx bool
}

var (
	_ store.Store    = (*Repository)(nil)
	_ store.TxRunner = (*Repository)(nil)
)

// SQLiteDSN enables foreign keys on every connection; without them the
// delete restrictions in the schema are not enforced.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open connects, pings and migrates.
func Open(ctx context.Context, opts Options) (*Repository, error) {
	var (
		dsn   string
		sqldb *sql.DB
		err   error
	)

	switch opts.Driver {
	case DriverPostgres:
		dsn = opts.DatabaseURL
		if dsn == "" {
			return nil, errors.New("DATABASE_URL is required for postgres")
		}
	case DriverSQLite, "":
		opts.Driver = DriverSQLite
		if err := os.MkdirAll(filepath.Dir(opts.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = SQLiteDSN(opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	sqldb, err = sql.Open(opts.Driver.sqlName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", opts.Driver, err)
	}

	var db *bun.DB
	if opts.Driver == DriverPostgres {
		db = bun.NewDB(sqldb, pgdialect.New())
	} else {
		// One writer at a time keeps sqlite from returning SQLITE_BUSY under load.
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(opts.Driver, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.InfoContext(ctx, "Entity store ready",
		spennylog.FieldComponent, spennylog.ComponentStorage,
		spennylog.FieldOperation, spennylog.OpStartup,
		"driver", string(opts.Driver))
	return &Repository{db: db, root: db}, nil
}

// NewRepository wraps an already migrated bun handle.
func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db, root: db}
}

func (r *Repository) Close() error {
	if r.root != nil {
		return r.root.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	if err := r.root.PingContext(ctx); err != nil {
		return core.Unavailable(err)
	}
	return nil
}

// RunInTx runs fn against a repository bound to one database transaction.
// Nested calls reuse the outer transaction.
func (r *Repository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	return r.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Repository{db: tx, root: r.root, inTx: true})
	})
}

// mapError translates driver failures into store sentinels or core kinds.
// Errors already classified pass through untouched.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrReferenced) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", store.ErrConflict, pqErr.Constraint)
		case "23503":
			return fmt.Errorf("%w: %s", store.ErrReferenced, pqErr.Constraint)
		}
		if pqErr.Code.Class() == "08" || pqErr.Code.Class() == "57" {
			return core.Unavailable(err)
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %s", store.ErrConflict, msg)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %s", store.ErrReferenced, msg)
	}

	if isConnectionError(err) {
		return core.Unavailable(err)
	}
	return fmt.Errorf("storage: %w", err)
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "unable to open database")
}

func noRowsAffected(res sql.Result) bool {
	n, err := res.RowsAffected()
	return err == nil && n == 0
}
