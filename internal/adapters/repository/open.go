package repository

import (
	"context"
	"fmt"
	"strings"
)

// Store drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open builds a Store for a configured driver.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return NewMemoryStore(opts...), nil
	case DriverSQLite:
		return NewSQLiteStore(ctx, dsn, opts...)
	case DriverPostgres, "pgx":
		return NewPostgresStore(ctx, dsn, opts...)
	}
	return nil, fmt.Errorf("%q: %w", driver, ErrUnknownDriver)
}
