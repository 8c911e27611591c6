package kv

import (
	"context"

	"github.com/goliatone/go-versiontrack/pkg/kv/badgerkv"
	"github.com/goliatone/go-versiontrack/pkg/kv/sqlitekv"
)

// Store is the contract every backend satisfies. It matches
// versiontrack.KV.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Backend is a Store owning resources that must be released.
type Backend interface {
	Store
	Close() error
}

// Open creates the backend described by cfg.
func Open(cfg Config) (Backend, error) {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case DriverBadger:
		store, err := badgerkv.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverSQLite:
		store, err := sqlitekv.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return NewMemory(), nil
	}
}
