// Package kv provides key-value backends for versiontrack.VersionStore.
//
// Every backend satisfies the same three-method contract:
//
//	Get(ctx, key) ([]byte, bool, error)
//	Set(ctx, key, value) error
//	Remove(ctx, key) error
//
// Memory keeps records in process and is intended for tests and examples.
// badgerkv persists to an embedded Badger database; sqlitekv stores records in
// a single SQLite table through the pure Go modernc.org/sqlite driver.
//
// Open selects a backend from a Config, typically loaded from YAML:
//
//	driver: badger
//	path: /var/lib/myapp/versions
//	key_prefix: myapp
//
// Removing a missing key is not an error for any backend.
package kv
