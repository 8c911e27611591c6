// Package badgerkv stores version records in an embedded Badger database.
package badgerkv

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// Store implements the kv contract on top of *badger.DB.
type Store struct {
	db    *badger.DB
	owned bool
}

// Open opens (or creates) a Badger database in dir. Badger's own logger is
// silenced.
func Open(dir string) (*Store, error) {
	return OpenWithOptions(badger.DefaultOptions(dir).WithLogger(nil))
}

// OpenInMemory opens a Badger database that never touches disk.
func OpenInMemory() (*Store, error) {
	return OpenWithOptions(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}

func OpenWithOptions(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerkv: open %q: %w", opts.Dir, err)
	}
	return &Store{db: db, owned: true}, nil
}

// New wraps an existing database. Close leaves it open.
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badgerkv: get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("badgerkv: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badgerkv: remove %q: %w", key, err)
	}
	return nil
}

// Close closes the database when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
