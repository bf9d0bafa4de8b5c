// Package sqlite persists the catalog to an embedded SQLite file as JSON
// bucket snapshots, keeping the in-memory store as the live state engine.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"reflcore/internal/catalog"
	"reflcore/internal/infra/persistence/memory"
	"reflcore/pkg/domain"
)

var _ catalog.Store = (*Store)(nil)

const defaultPath = "reflcore.db"

var buckets = []string{"reflectivity", "samples", "environments", "reflectivity_models"}

// Store snapshots the full in-memory state to a single SQLite table after
// every successful write.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database file and hydrates the in-memory
// state from any existing snapshot.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
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
		if err := decodeBucket(&snapshot, bucket, payload); err != nil {
			return err
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

func decodeBucket(snapshot *catalog.Snapshot, bucket string, payload []byte) error {
	var err error
	switch bucket {
	case "reflectivity":
		err = json.Unmarshal(payload, &snapshot.Reflectivity)
	case "samples":
		err = json.Unmarshal(payload, &snapshot.Samples)
	case "environments":
		err = json.Unmarshal(payload, &snapshot.Environments)
	case "reflectivity_models":
		err = json.Unmarshal(payload, &snapshot.Models)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}

func encodeBucket(snapshot catalog.Snapshot, bucket string) ([]byte, error) {
	switch bucket {
	case "reflectivity":
		return json.Marshal(snapshot.Reflectivity)
	case "samples":
		return json.Marshal(snapshot.Samples)
	case "environments":
		return json.Marshal(snapshot.Environments)
	case "reflectivity_models":
		return json.Marshal(snapshot.Models)
	}
	return nil, fmt.Errorf("unknown bucket %s", bucket)
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range buckets {
		data, err := encodeBucket(snapshot, bucket)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.Exec(
			`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
			bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
}

// PutReflectivity upserts and snapshots.
func (s *Store) PutReflectivity(ctx context.Context, record domain.Reflectivity) error {
	if err := s.Store.PutReflectivity(ctx, record); err != nil {
		return err
	}
	return s.persist()
}

// PutSample upserts and snapshots.
func (s *Store) PutSample(ctx context.Context, record domain.Sample) error {
	if err := s.Store.PutSample(ctx, record); err != nil {
		return err
	}
	return s.persist()
}

// PutEnvironment upserts and snapshots.
func (s *Store) PutEnvironment(ctx context.Context, record domain.Environment) error {
	if err := s.Store.PutEnvironment(ctx, record); err != nil {
		return err
	}
	return s.persist()
}

// PutModel upserts and snapshots.
func (s *Store) PutModel(ctx context.Context, record domain.ReflectivityModel) error {
	if err := s.Store.PutModel(ctx, record); err != nil {
		return err
	}
	return s.persist()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close closes the database file.
func (s *Store) Close() error { return s.db.Close() }
