// Package storage provides the persistence adapters behind stepdoc.Store: SQLite,
// PostgreSQL and an in-memory adapter, optionally fronted by a read cache.
package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/livetemplate/stepdoc"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Options selects and configures an adapter.
type Options struct {
	Driver   string
	DSN      string
	CacheTTL time.Duration // zero disables the read cache
	Logger   *zap.Logger
}

// Handle is an adapter that may hold resources.
type Handle interface {
	stepdoc.Adapter
	Close() error
}

type nopCloser struct{ stepdoc.Adapter }

func (nopCloser) Close() error { return nil }

// Open builds the adapter described by opts.
func Open(ctx context.Context, opts Options) (Handle, error) {
	var h Handle
	switch opts.Driver {
	case DriverSQLite, "":
		a, err := OpenSQLite(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		h = a
	case DriverPostgres:
		a, err := OpenPostgres(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		h = a
	case DriverMemory:
		h = nopCloser{NewMemoryAdapter(nil)}
	default:
		return nil, fmt.Errorf("unknown storage driver %q (want sqlite, postgres or memory)", opts.Driver)
	}

	if opts.CacheTTL > 0 {
		return NewCachedAdapter(h, opts.CacheTTL, opts.Logger), nil
	}
	return h, nil
}
