package storage

import (
	"context"
	"path/filepath"
	"testing"

	"registro/internal/ledger"
)

func TestSQLiteGatewayRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	g, err := NewSQLiteGateway(path)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	defer g.Close()

	// A freshly migrated database has no snapshot.
	snap, err := g.Load(context.Background())
	if err != nil || snap != nil {
		t.Fatalf("empty load = %v, %v", snap, err)
	}

	if err := g.Save(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap, err = g.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	checkSnapshot(t, snap)

	// Save replaces, never appends.
	second := testSnapshot()
	second.Transactions = nil
	if err := g.Save(context.Background(), second); err != nil {
		t.Fatalf("second save: %v", err)
	}
	snap, err = g.Load(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(snap.Transactions) != 0 {
		t.Fatalf("stale transactions survived replace: %+v", snap.Transactions)
	}
}

func TestSQLiteGatewayEmptyRegistryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	g, err := NewSQLiteGateway(path)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	defer g.Close()

	// Every category removed: the registry is empty but the log is not.
	// The saved state must still be recognized on reload.
	saved := testSnapshot()
	saved.Categories = nil
	saved.SubHistory = nil
	if err := g.Save(context.Background(), saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	snap, err := g.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap == nil {
		t.Fatalf("Load returned (nil, nil): saved transaction silently lost")
	}
	if len(snap.Transactions) != 1 || snap.Transactions[0].ID != "tx-1" {
		t.Fatalf("transactions = %+v", snap.Transactions)
	}
	if len(snap.Categories) != 0 {
		t.Fatalf("categories = %v", snap.Categories)
	}

	// Even a fully empty snapshot counts as saved once Save ran.
	if err := g.Save(context.Background(), ledger.Snapshot{}); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	snap, err = g.Load(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if snap == nil {
		t.Fatalf("empty snapshot not recognized as saved")
	}
}
