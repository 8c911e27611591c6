package versiontrack

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreRequired is returned when a nil store or KV is supplied.
	ErrStoreRequired = errors.New("versiontrack: store is required")
	// ErrSupplierRequired is returned when a tracker has no version supplier.
	ErrSupplierRequired = errors.New("versiontrack: version supplier is required")
)

// ConfigError reports a programming or configuration mistake: an unsupported
// scope, a second singleton setup, or a tracker observing a store it never
// initialized. It is raised with panic since callers cannot recover from it
// meaningfully.
type ConfigError struct {
	Op     string
	Scope  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Scope == "" {
		return fmt.Sprintf("versiontrack: %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("versiontrack: %s scope=%q: %s", e.Op, e.Scope, e.Reason)
}

func configPanic(op, scope, reason string) {
	panic(&ConfigError{Op: op, Scope: scope, Reason: reason})
}
