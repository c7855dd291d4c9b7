// Package sqlstore is the SQLite implementation of store.Store. Times are
// stored as unix seconds in INTEGER columns.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"reservations/internal/store"
	"reservations/pkg/logger"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// tableProbes verifies each table exposes the columns the store reads.
var tableProbes = map[string]string{
	"resources": `SELECT id, name, type, capacity, location, lock_version, created_at FROM resources LIMIT 0`,
	"bookings":  `SELECT id, resource_id, booked_by, start_time, end_time, status, created_at FROM bookings LIMIT 0`,
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

type Store struct {
	db  *sql.DB
	log *logger.Logger
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New wraps an open database. Use client.OpenSQLite so the pool holds a
// single connection; WithinResourceTx relies on it to serialize writers.
func New(db *sql.DB, log *logger.Logger) *Store {
	return &Store{db: db, log: log, now: time.Now}
}

func (s *Store) Init(ctx context.Context) error {
	if err := s.migrate(ctx); err != nil {
		return err
	}

	names := make([]string, 0, len(tableProbes))
	for name := range tableProbes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := s.db.ExecContext(ctx, tableProbes[name]); err != nil {
			return fmt.Errorf("table %s failed schema probe: %w", name, err)
		}
	}

	s.log.Info("SQLite store initialized", "tables", names)
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// q returns the transaction carried by ctx, or the pool.
func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

func (s *Store) WithinResourceTx(ctx context.Context, resourceID int64, fn store.TxFunc) (err error) {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		if err := lockResource(ctx, tx, resourceID); err != nil {
			return err
		}
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.Error("Failed to roll back transaction", "resource_id", resourceID, "error", rbErr)
			}
		}
	}()

	if err = lockResource(ctx, tx, resourceID); err != nil {
		return err
	}

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// lockResource makes the resource row the first write of the transaction.
func lockResource(ctx context.Context, tx *sql.Tx, resourceID int64) error {
	res, err := tx.ExecContext(ctx, `UPDATE resources SET lock_version = lock_version + 1 WHERE id = ?`, resourceID)
	if err != nil {
		return fmt.Errorf("lock resource %d: %w", resourceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("lock resource %d: %w", resourceID, err)
	}
	if n == 0 {
		return store.ErrResourceNotFound
	}
	return nil
}

func toUnix(t time.Time) int64 {
	return t.Unix()
}

func fromUnix(v int64) time.Time {
	return time.Unix(v, 0).UTC()
}

func affectedOrNotFound(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
