// Package dbinterfaces provides the optional capabilities a cache backend can
// offer beyond loading and saving.
package dbinterfaces

import "io"

// Database is a backend holding an open handle that must be released
type Database interface {
	io.Closer // Close() error
}

// StatsProvider defines the interface for backends that report statistics
type StatsProvider interface {
	GetStats() (map[string]any, error)
}

// Compactor defines the interface for backends that can reclaim space after
// entries are removed
type Compactor interface {
	Compact() error
}
