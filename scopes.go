package versiontrack

import (
	"sort"
	"strings"
	"sync"
)

const (
	// ScopeApp tracks the host application's own release version.
	ScopeApp = "appVersion"
	// ScopeOS tracks the host operating system version.
	ScopeOS = "osVersion"
)

var scopes = struct {
	mu    sync.RWMutex
	names map[string]struct{}
}{
	names: map[string]struct{}{
		ScopeApp: {},
		ScopeOS:  {},
	},
}

// RegisterScope makes name usable with MergeOnce and NewTracker. Registering
// an existing scope is a no-op. Names must be non-empty and may not contain
// the key separator.
func RegisterScope(name string) {
	if strings.TrimSpace(name) == "" || strings.Contains(name, ".") {
		configPanic("register scope", name, "scope names must be non-empty and dot free")
	}
	scopes.mu.Lock()
	scopes.names[name] = struct{}{}
	scopes.mu.Unlock()
}

// ScopeRegistered reports whether name was predefined or registered.
func ScopeRegistered(name string) bool {
	scopes.mu.RLock()
	defer scopes.mu.RUnlock()
	_, ok := scopes.names[name]
	return ok
}

// RegisteredScopes returns the known scope names sorted alphabetically.
func RegisteredScopes() []string {
	scopes.mu.RLock()
	defer scopes.mu.RUnlock()
	names := make([]string, 0, len(scopes.names))
	for name := range scopes.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mustSupportScope(op, name string) {
	if !ScopeRegistered(name) {
		configPanic(op, name, "unsupported scope")
	}
}
