// Package persistence selects a catalog backend from the environment.
package persistence

import (
	"context"
	"fmt"
	"os"

	"reflcore/internal/catalog"
	"reflcore/internal/infra/persistence/memory"
	"reflcore/internal/infra/persistence/postgres"
	"reflcore/internal/infra/persistence/sqlite"
)

// Driver identifies a concrete catalog backend.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// Open selects a backend using environment variables. Defaults to sqlite
// when unset.
//
//	REFLCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	REFLCORE_SQLITE_PATH: path to sqlite file (default ./reflcore.db)
//	REFLCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func Open(ctx context.Context) (catalog.Store, error) {
	driver := os.Getenv("REFLCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(DriverSQLite)
	}
	switch Driver(driver) {
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverSQLite:
		return sqlite.NewStore(os.Getenv("REFLCORE_SQLITE_PATH"))
	case DriverPostgres:
		return postgres.NewStore(ctx, os.Getenv("REFLCORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
