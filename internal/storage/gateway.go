// Package storage provides the durable storage gateways for the ledger
// snapshot document: SQLite, a plain or age-encrypted JSON file, and a
// volatile in-memory fallback. Persistence is a synchronous write-through of
// the full snapshot after every mutation; the log is small by construction.
package storage

import (
	"context"

	"registro/internal/ledger"
)

// Gateway is the durable storage port. Load returns (nil, nil) when no
// snapshot has ever been saved, letting the caller initialize defaults.
type Gateway interface {
	Load(ctx context.Context) (*ledger.Snapshot, error)
	Save(ctx context.Context, snap ledger.Snapshot) error
	Close() error
}
