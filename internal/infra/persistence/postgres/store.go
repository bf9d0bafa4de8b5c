// Package postgres persists the catalog to a PostgreSQL server as JSONB
// bucket snapshots, mirroring the sqlite backend's semantics.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"reflcore/internal/catalog"
	"reflcore/internal/infra/persistence/memory"
	"reflcore/pkg/domain"
)

var _ catalog.Store = (*Store)(nil)

const (
	driverName = "pgx"
	defaultDSN = "postgres://localhost/reflcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var buckets = []string{"reflectivity", "samples", "environments", "reflectivity_models"}

// Store snapshots the full in-memory state to Postgres after every
// successful write.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore connects using the given DSN (falling back to a local default),
// ensures the snapshot table exists, and hydrates the in-memory state.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(driverName, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := catalog.Snapshot{}
	loaded := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		var derr error
		switch bucket {
		case "reflectivity":
			derr = json.Unmarshal(payload, &snapshot.Reflectivity)
		case "samples":
			derr = json.Unmarshal(payload, &snapshot.Samples)
		case "environments":
			derr = json.Unmarshal(payload, &snapshot.Environments)
		case "reflectivity_models":
			derr = json.Unmarshal(payload, &snapshot.Models)
		}
		if derr != nil {
			return fmt.Errorf("decode %s: %w", bucket, derr)
		}
		loaded = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if loaded {
		s.ImportState(snapshot)
	}
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range buckets {
		var data []byte
		switch bucket {
		case "reflectivity":
			data, err = json.Marshal(snapshot.Reflectivity)
		case "samples":
			data, err = json.Marshal(snapshot.Samples)
		case "environments":
			data, err = json.Marshal(snapshot.Environments)
		case "reflectivity_models":
			data, err = json.Marshal(snapshot.Models)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`,
			bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// PutReflectivity upserts and snapshots.
func (s *Store) PutReflectivity(ctx context.Context, record domain.Reflectivity) error {
	if err := s.Store.PutReflectivity(ctx, record); err != nil {
		return err
	}
	return s.persist(ctx)
}

// PutSample upserts and snapshots.
func (s *Store) PutSample(ctx context.Context, record domain.Sample) error {
	if err := s.Store.PutSample(ctx, record); err != nil {
		return err
	}
	return s.persist(ctx)
}

// PutEnvironment upserts and snapshots.
func (s *Store) PutEnvironment(ctx context.Context, record domain.Environment) error {
	if err := s.Store.PutEnvironment(ctx, record); err != nil {
		return err
	}
	return s.persist(ctx)
}

// PutModel upserts and snapshots.
func (s *Store) PutModel(ctx context.Context, record domain.ReflectivityModel) error {
	if err := s.Store.PutModel(ctx, record); err != nil {
		return err
	}
	return s.persist(ctx)
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a
// restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
