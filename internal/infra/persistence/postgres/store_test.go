package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"reflcore/internal/catalog"
	"reflcore/pkg/domain"
)

func TestNewStoreEnsuresTableAndHydrates(t *testing.T) {
	ctx := context.Background()
	db, conn := newStubDB()

	seed := catalog.Snapshot{Reflectivity: []domain.Reflectivity{{
		Base:           domain.Base{ID: "r-1"},
		RunNumber:      "218386",
		InstrumentName: "REF_L",
	}}}
	payload, err := json.Marshal(seed.Reflectivity)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	conn.state["reflectivity"] = payload

	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore(ctx, "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	var sawDDL bool
	for _, stmt := range conn.execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected state-table DDL, got execs: %v", conn.execs)
	}

	got, ok, err := store.GetReflectivity(ctx, "r-1")
	if err != nil || !ok {
		t.Fatalf("GetReflectivity after hydrate: ok=%v err=%v", ok, err)
	}
	if got.RunNumber != "218386" {
		t.Fatalf("hydrated run number = %q, want 218386", got.RunNumber)
	}
}

func TestPutSnapshotsAllBuckets(t *testing.T) {
	ctx := context.Background()
	db, conn := newStubDB()

	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore(ctx, "ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.PutSample(ctx, domain.Sample{Base: domain.Base{ID: "s-1"}, Description: "Cu on Si"}); err != nil {
		t.Fatalf("PutSample: %v", err)
	}

	for _, bucket := range buckets {
		if _, ok := conn.state[bucket]; !ok {
			t.Fatalf("bucket %q missing from snapshot; have %v", bucket, conn.state)
		}
	}
	var samples []domain.Sample
	if err := json.Unmarshal(conn.state["samples"], &samples); err != nil {
		t.Fatalf("decode samples bucket: %v", err)
	}
	if len(samples) != 1 || samples[0].ID != "s-1" {
		t.Fatalf("samples bucket = %+v, want one record s-1", samples)
	}
}

func TestPutSurfacesCommitFailure(t *testing.T) {
	ctx := context.Background()
	db, conn := newStubDB()

	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore(ctx, "ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.failCommit = true
	if err := store.PutEnvironment(ctx, domain.Environment{Base: domain.Base{ID: "e-1"}}); err == nil {
		t.Fatalf("expected commit failure to propagate")
	}
}

// --- stub driver helpers ---

type stubDriver struct {
	conn *stubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

type stubConn struct {
	execs      []string
	state      map[string][]byte
	failCommit bool
}

func newStubDB() (*sql.DB, *stubConn) {
	conn := &stubConn{state: make(map[string][]byte)}
	name := fmt.Sprintf("stubpg%d", time.Now().UnixNano())
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *stubConn) Ping(context.Context) error { return nil }

func (c *stubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return &stubTx{conn: c}, nil
}

func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.execs = append(c.execs, query)
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "INSERT INTO STATE") {
		if len(args) != 2 {
			return nil, fmt.Errorf("expected bucket and payload args, got %d", len(args))
		}
		bucket, ok := args[0].Value.(string)
		if !ok {
			return nil, fmt.Errorf("bucket arg is %T, want string", args[0].Value)
		}
		payload, ok := args[1].Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("payload arg is %T, want []byte", args[1].Value)
		}
		c.state[bucket] = append([]byte(nil), payload...)
		return driver.RowsAffected(1), nil
	}
	return driver.RowsAffected(0), nil
}

func (c *stubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if !strings.Contains(strings.ToLower(query), "from state") {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	rows := make([][]driver.Value, 0, len(c.state))
	for _, bucket := range buckets {
		payload, ok := c.state[bucket]
		if !ok {
			continue
		}
		rows = append(rows, []driver.Value{bucket, append([]byte(nil), payload...)})
	}
	return &stubRows{cols: []string{"bucket", "payload"}, rows: rows}, nil
}

type stubTx struct {
	conn *stubConn
}

func (t *stubTx) Commit() error {
	if t.conn.failCommit {
		return fmt.Errorf("commit fail")
	}
	return nil
}
func (t *stubTx) Rollback() error { return nil }

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
