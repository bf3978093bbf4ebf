// Package storage persists the auction snapshot as a handful of JSON values
// under fixed keys. Every backend implements KV; the service writes all keys
// together after each applied action.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Keys under which the auction snapshot is stored.
const (
	KeyPlayers = "auction-players"
	KeyTeams   = "auction-teams"
	KeyMeta    = "auction-meta"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store is closed")

// KV is a minimal key-value store for snapshot blobs.
type KV interface {
	// Get returns the value for key. A missing key is not an error; ok is false.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// PutAll writes every entry. Backends that support transactions apply
	// the whole batch atomically.
	PutAll(ctx context.Context, entries map[string][]byte) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver      string
	Path        string
	DatabaseURL string

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	BusyTimeout time.Duration
}

// Open constructs the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (KV, error) {
	var (
		kv  KV
		err error
	)
	switch strings.ToLower(opts.Driver) {
	case "", "file":
		kv, err = OpenFile(opts.Path)
	case "sqlite":
		kv, err = OpenSQLite(ctx, opts.Path, opts.BusyTimeout)
	case "postgres":
		kv, err = OpenPostgres(ctx, opts)
	case "memory":
		kv = NewMemory()
	default:
		err = fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	return kv, nil
}
