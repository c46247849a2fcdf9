// Package storage persists extracted records into a relational table, one
// TEXT column per field. Backends register themselves by kind; the engine
// depends only on the Repository interface.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// Config is the minimal configuration needed to open a record sink.
//
// Kind must match a registered backend kind ("sqlite", "postgres",
// "mssql"). DSN is passed through to the backend factory; validation is
// backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// Repository is the sink the extraction command writes records into.
//
// Semantics are intentionally simple: EnsureTable is create-if-not-exists,
// InsertRows is a plain append (deduplication is an explicit non-goal of
// the engine), and NULL carries absent values.
type Repository interface {
	// EnsureTable creates table with one TEXT-ish column per name if it
	// does not already exist. Column names must already be normalized.
	EnsureTable(ctx context.Context, table string, columns []string) error

	// InsertRows appends rows to table. Every row must have len(columns)
	// values; nil values become SQL NULL. Returns the number of rows
	// written.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Close releases backend resources. Call once at shutdown.
	Close()
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
//
// Call Register from an init() function in a backend package. Registering
// the same kind twice panics, to fail fast on ambiguous backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: empty kind")
	}

	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("storage: unsupported kind %q", cfg.Kind)
	}
	return f(ctx, cfg)
}
