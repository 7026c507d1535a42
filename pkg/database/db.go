package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"builder-maps/pkg/config"
	errs "builder-maps/pkg/errors"
)

const (
	DefaultReadTimeout  = 5 * time.Second
	DefaultWriteTimeout = 5 * time.Second
)

// querier is satisfied by both *sql.DB and *sql.Tx so every query is written once.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type store struct {
	q            querier
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// DB is the MySQL-backed spot store.
type DB struct {
	store
	conn *sql.DB
}

// Tx is a store bound to one transaction.
type Tx struct {
	store
	tx   *sql.Tx
	done bool
}

// New opens a connection pool with default settings.
func New(databaseURL string) (*DB, error) {
	return open(databaseURL, 25, 10, 10*time.Minute, DefaultReadTimeout, DefaultWriteTimeout)
}

// NewWithConfig opens a connection pool using the pool and timeout settings from cfg.
func NewWithConfig(cfg *config.Config) (*DB, error) {
	return open(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns,
		time.Duration(cfg.DBConnMaxLifetime)*time.Minute, cfg.DBReadTimeout, cfg.DBWriteTimeout)
}

func open(databaseURL string, maxOpen, maxIdle int, maxLifetime, readTO, writeTO time.Duration) (*DB, error) {
	dsn, err := mysql.ParseDSN(databaseURL)
	if err != nil {
		return nil, errs.NewDB("database.open", "invalid DATABASE_URL", err)
	}
	// Timestamps are stored and read as UTC time.Time.
	dsn.ParseTime = true
	dsn.Loc = time.UTC

	connector, err := mysql.NewConnector(dsn)
	if err != nil {
		return nil, errs.NewDB("database.open", "failed to create connector", err)
	}
	conn := sql.OpenDB(connector)
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxIdle)
	conn.SetConnMaxLifetime(maxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), readTO)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errs.NewDB("database.open", "ping failed", err)
	}

	if readTO <= 0 {
		readTO = DefaultReadTimeout
	}
	if writeTO <= 0 {
		writeTO = DefaultWriteTimeout
	}

	return &DB{
		store: store{q: conn, readTimeout: readTO, writeTimeout: writeTO},
		conn:  conn,
	}, nil
}

// Close closes the connection pool.
func (db *DB) Close() error { return db.conn.Close() }

// Conn exposes the underlying pool for health checks and tests.
func (db *DB) Conn() *sql.DB { return db.conn }

// PingContext verifies the database is reachable.
func (db *DB) PingContext(ctx context.Context) error {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// BeginTx starts a transaction exposing the same query methods as DB.
func (db *DB) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, errs.NewDB("database.BeginTx", "failed to begin transaction", err)
	}
	return &Tx{
		store: store{q: tx, readTimeout: db.readTimeout, writeTimeout: db.writeTimeout},
		tx:    tx,
	}, nil
}

// Commit commits the transaction. Calling it twice is a no-op.
func (t *Tx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return errs.NewDB("database.Tx.Commit", "commit failed", err)
	}
	return nil
}

// Rollback aborts the transaction unless it was already committed.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return errs.NewDB("database.Tx.Rollback", "rollback failed", err)
	}
	return nil
}

// withReadTimeout creates a context with standard read timeout.
func (s *store) withReadTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.readTimeout)
}

// withWriteTimeout creates a context with standard write timeout.
func (s *store) withWriteTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.writeTimeout)
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
