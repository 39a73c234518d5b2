// Package backend selects and constructs the durable storage gateway from
// configuration.
package backend

import "registro/internal/storage"

// Type names a storage gateway implementation.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	FileBackend   Type = "file"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, FileBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Config holds gateway construction parameters.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// File specific
	SnapshotPath string
	Passphrase   string
}

// Result contains the gateway instance and an optional cleanup function.
type Result struct {
	Gateway storage.Gateway
	Cleanup func() error
}
