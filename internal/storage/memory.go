package storage

import (
	"context"
	"sync"

	"registro/internal/ledger"
)

// MemoryGateway keeps the snapshot in process memory only. It backs tests
// and the degraded volatile mode entered when the durable medium is
// unavailable at startup.
type MemoryGateway struct {
	mu   sync.Mutex
	snap *ledger.Snapshot
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{}
}

func (g *MemoryGateway) Load(_ context.Context) (*ledger.Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.snap == nil {
		return nil, nil
	}
	copied := *g.snap
	return &copied, nil
}

func (g *MemoryGateway) Save(_ context.Context, snap ledger.Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.snap = &snap
	return nil
}

func (g *MemoryGateway) Close() error { return nil }
