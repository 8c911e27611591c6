package versiontrack

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-versiontrack/internal/record"
)

// KV is the persistent string-keyed store the library writes to. Values are
// opaque records. Implementations live in pkg/kv.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// DefaultKeyPrefix namespaces every key written by a VersionStore.
const DefaultKeyPrefix = "versiontrack"

// Stored field names, one record each per scope.
const (
	FieldLastLaunched     = "lastLaunchedVersion"
	FieldPreviousLaunched = "previousLaunchedVersion"
	FieldInstalled        = "installedVersions"
)

// StoreOption configures a VersionStore.
type StoreOption func(*storeConfig)

type storeConfig struct {
	prefix string
	logger Logger
}

// WithKeyPrefix replaces DefaultKeyPrefix.
func WithKeyPrefix(prefix string) StoreOption {
	return func(cfg *storeConfig) {
		cfg.prefix = strings.TrimSpace(prefix)
	}
}

// WithStoreLogger reports skipped or malformed records to logger.
func WithStoreLogger(logger Logger) StoreOption {
	return func(cfg *storeConfig) {
		cfg.logger = logger
	}
}

// VersionStore reads and writes the per-scope version history and the
// last/previous launch markers on top of a KV.
type VersionStore struct {
	kv      KV
	prefix  string
	logger  Logger
	decoder *record.Decoder[versionRecord]
}

// NewVersionStore wraps kv. It returns ErrStoreRequired when kv is nil.
func NewVersionStore(kv KV, opts ...StoreOption) (*VersionStore, error) {
	if kv == nil {
		return nil, ErrStoreRequired
	}
	cfg := storeConfig{prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.prefix == "" {
		cfg.prefix = DefaultKeyPrefix
	}
	return &VersionStore{
		kv:      kv,
		prefix:  cfg.prefix,
		logger:  loggerOrNoop(cfg.logger),
		decoder: newRecordDecoder(),
	}, nil
}

// Key returns the storage key for field within scope.
func (s *VersionStore) Key(scope, field string) string {
	return s.prefix + "." + scope + "." + field
}

// LoadHistory returns the recorded versions for scope in install order.
// Malformed entries are skipped; a malformed list reads as empty.
func (s *VersionStore) LoadHistory(ctx context.Context, scope string) ([]Version, error) {
	key := s.Key(scope, FieldInstalled)
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("versiontrack: load history %q: %w", key, err)
	}
	if !ok {
		return []Version{}, nil
	}

	rctx := record.Context{Key: key, Scope: scope}
	records, err := s.decoder.DecodeList(rctx, raw, func(index int, err error) {
		s.corrupt(scope, key, err, map[string]any{"index": index})
	})
	if err != nil {
		s.corrupt(scope, key, err, nil)
		return []Version{}, nil
	}

	history := make([]Version, 0, len(records))
	for _, r := range records {
		history = append(history, r.version())
	}
	return history, nil
}

// SaveHistory overwrites the stored history for scope with a single write.
func (s *VersionStore) SaveHistory(ctx context.Context, scope string, history []Version) error {
	key := s.Key(scope, FieldInstalled)
	payload, err := encodeHistory(history)
	if err != nil {
		return fmt.Errorf("versiontrack: encode history %q: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, payload); err != nil {
		return fmt.Errorf("versiontrack: save history %q: %w", key, err)
	}
	return nil
}

// LastLaunched returns the version recorded by the most recent merge.
func (s *VersionStore) LastLaunched(ctx context.Context, scope string) (Version, bool, error) {
	return s.loadMarker(ctx, scope, FieldLastLaunched)
}

// SetLastLaunched overwrites the last launched marker without touching the
// previous marker. Merges go through RecordNewLaunch instead.
func (s *VersionStore) SetLastLaunched(ctx context.Context, scope string, v Version) error {
	return s.saveMarker(ctx, s.Key(scope, FieldLastLaunched), v)
}

// PreviousLaunched returns the value LastLaunched held before the most recent
// merge.
func (s *VersionStore) PreviousLaunched(ctx context.Context, scope string) (Version, bool, error) {
	return s.loadMarker(ctx, scope, FieldPreviousLaunched)
}

// HasLastLaunched reports whether a last launched record exists for scope,
// well-formed or not.
func (s *VersionStore) HasLastLaunched(ctx context.Context, scope string) (bool, error) {
	key := s.Key(scope, FieldLastLaunched)
	_, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("versiontrack: probe %q: %w", key, err)
	}
	return ok, nil
}

// RecordNewLaunch moves the current last launched record into the previous
// marker, then stores v as last launched. When there was no last launched
// record the previous marker is cleared.
func (s *VersionStore) RecordNewLaunch(ctx context.Context, scope string, v Version) error {
	lastKey := s.Key(scope, FieldLastLaunched)
	previousKey := s.Key(scope, FieldPreviousLaunched)

	raw, ok, err := s.kv.Get(ctx, lastKey)
	if err != nil {
		return fmt.Errorf("versiontrack: read %q: %w", lastKey, err)
	}
	if ok {
		if err := s.kv.Set(ctx, previousKey, raw); err != nil {
			return fmt.Errorf("versiontrack: move %q to %q: %w", lastKey, previousKey, err)
		}
	} else if err := s.kv.Remove(ctx, previousKey); err != nil {
		return fmt.Errorf("versiontrack: clear %q: %w", previousKey, err)
	}
	return s.saveMarker(ctx, lastKey, v)
}

// Reset removes every stored record for scope.
func (s *VersionStore) Reset(ctx context.Context, scope string) error {
	for _, field := range []string{FieldLastLaunched, FieldPreviousLaunched, FieldInstalled} {
		key := s.Key(scope, field)
		if err := s.kv.Remove(ctx, key); err != nil {
			return fmt.Errorf("versiontrack: reset %q: %w", key, err)
		}
	}
	return nil
}

func (s *VersionStore) loadMarker(ctx context.Context, scope, field string) (Version, bool, error) {
	key := s.Key(scope, field)
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return Version{}, false, fmt.Errorf("versiontrack: load %q: %w", key, err)
	}
	if !ok {
		return Version{}, false, nil
	}
	r, err := s.decoder.Decode(record.Context{Key: key, Scope: scope}, raw)
	if err != nil {
		s.corrupt(scope, key, err, nil)
		return Version{}, false, nil
	}
	return r.version(), true, nil
}

func (s *VersionStore) saveMarker(ctx context.Context, key string, v Version) error {
	payload, err := encodeVersion(v)
	if err != nil {
		return fmt.Errorf("versiontrack: encode %q: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, payload); err != nil {
		return fmt.Errorf("versiontrack: save %q: %w", key, err)
	}
	return nil
}

func (s *VersionStore) corrupt(scope, key string, err error, fields map[string]any) {
	s.logger.Log(LogEvent{
		Level:   LogLevelWarn,
		Op:      "store.decode",
		Message: "skipping malformed version record",
		Scope:   scope,
		Key:     key,
		Err:     err,
		Fields:  fields,
	})
}
