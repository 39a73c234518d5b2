package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"registro/internal/core"
	"registro/internal/ledger"
	"registro/internal/storage"
)

type brokenGateway struct {
	loadErr error
	saves   int
}

func (g *brokenGateway) Load(context.Context) (*ledger.Snapshot, error) {
	return nil, g.loadErr
}

func (g *brokenGateway) Save(context.Context, ledger.Snapshot) error {
	g.saves++
	return errors.New("disk full")
}

func (g *brokenGateway) Close() error { return nil }

func newTestService(t *testing.T) (*LedgerService, *storage.MemoryGateway) {
	t.Helper()
	gw := storage.NewMemoryGateway()
	svc := NewLedgerService(gw, nil)
	svc.now = func() time.Time {
		return time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)
	}
	if err := svc.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	return svc, gw
}

func commit(t *testing.T, svc *LedgerService, typ, amount, date string) core.Transaction {
	t.Helper()
	tx, err := svc.Commit(context.Background(), CommitParams{
		Type:     typ,
		Amount:   amount,
		Category: "Sede principale",
		Date:     date,
	})
	if err != nil {
		t.Fatalf("commit %s %s: %v", typ, amount, err)
	}
	return tx
}

func TestCommitAndQueryDayScenario(t *testing.T) {
	svc, _ := newTestService(t)
	commit(t, svc, "income", "1000", "2025-01-05")
	commit(t, svc, "cost", "400", "2025-01-05")
	credit := commit(t, svc, "credit", "200", "2025-01-05")

	res, err := svc.Query(QueryParams{Mode: "day", Start: "2025-01-05", Category: "all"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	m := res.Metrics
	if m.Revenue.Cents != 120000 || m.Cost.Cents != 40000 || m.GrossProfit.Cents != 80000 {
		t.Fatalf("metrics = %+v", m)
	}
	if m.MarginPercent != 66.7 {
		t.Fatalf("margin = %v, want 66.7", m.MarginPercent)
	}
	if m.OutstandingCredit.Cents != 20000 || m.Count != 3 {
		t.Fatalf("metrics = %+v", m)
	}
	if res.Label != "2025-01-05" {
		t.Fatalf("label = %q", res.Label)
	}

	// Toggling the credit to paid zeroes outstanding and moves it to
	// collected without touching revenue.
	if _, err := svc.TogglePaid(context.Background(), credit.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	res, err = svc.Query(QueryParams{Mode: "day", Start: "2025-01-05"})
	if err != nil {
		t.Fatalf("query after toggle: %v", err)
	}
	if res.Metrics.OutstandingCredit.Cents != 0 {
		t.Fatalf("outstanding after toggle = %d", res.Metrics.OutstandingCredit.Cents)
	}
	if res.Metrics.Revenue.Cents != 120000 || res.Metrics.GrossProfit.Cents != 80000 {
		t.Fatalf("revenue changed on toggle: %+v", res.Metrics)
	}

	view, err := svc.Credit(QueryParams{Mode: "day", Start: "2025-01-05"})
	if err != nil {
		t.Fatalf("credit view: %v", err)
	}
	if view.Period.Collected.Cents != 20000 || view.Period.Outstanding.Cents != 0 {
		t.Fatalf("period summary = %+v", view.Period)
	}
	if view.AllTime.Collected.Cents != 20000 {
		t.Fatalf("all-time summary = %+v", view.AllTime)
	}
}

func TestCommitRejections(t *testing.T) {
	svc, _ := newTestService(t)
	base := CommitParams{Type: "income", Amount: "10", Category: "Sede principale", Date: "2025-01-05"}

	cases := []struct {
		name   string
		mutate func(*CommitParams)
		want   error
	}{
		{"zero amount", func(p *CommitParams) { p.Amount = "0" }, core.ErrInvalidAmount},
		{"non-numeric amount", func(p *CommitParams) { p.Amount = "dieci" }, core.ErrInvalidAmount},
		{"negative amount", func(p *CommitParams) { p.Amount = "-5" }, core.ErrInvalidAmount},
		{"bad date", func(p *CommitParams) { p.Date = "05/01/2025" }, core.ErrInvalidDate},
		{"unknown type", func(p *CommitParams) { p.Type = "loan" }, core.ErrUnknownType},
		{"unknown category", func(p *CommitParams) { p.Category = "Magazzino" }, core.ErrUnknownCategory},
	}
	for _, tc := range cases {
		p := base
		tc.mutate(&p)
		if _, err := svc.Commit(context.Background(), p); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}

	// No rejected entry reached the store.
	if got := svc.Recent(0); len(got) != 0 {
		t.Fatalf("store mutated by rejected commits: %v", got)
	}
}

func TestCommitNormalizesAliasAndDefaultsSub(t *testing.T) {
	svc, _ := newTestService(t)
	tx, err := svc.Commit(context.Background(), CommitParams{
		Type:     "debt",
		Amount:   "50",
		Category: "Online",
		Date:     "2025-01-05",
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if tx.Type != core.TypeCredit {
		t.Fatalf("type = %q, want credit", tx.Type)
	}
	if tx.SubCategory != "CREDIT" {
		t.Fatalf("default sub = %q", tx.SubCategory)
	}

	// An explicit sub-category lands in the suggestion history.
	if _, err := svc.Commit(context.Background(), CommitParams{
		Type: "income", Amount: "5", Category: "Online", SubCategory: "Spedizioni", Date: "2025-01-05",
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if subs := svc.SubCategories("Online"); len(subs) != 1 || subs[0] != "Spedizioni" {
		t.Fatalf("sub history = %v", subs)
	}
}

func TestDeleteTransaction(t *testing.T) {
	svc, _ := newTestService(t)
	tx := commit(t, svc, "income", "10", "2025-01-05")

	if err := svc.DeleteTransaction(context.Background(), tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteTransaction(context.Background(), tx.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := svc.TogglePaid(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("toggle missing: %v", err)
	}
}

func TestCategoryOperations(t *testing.T) {
	svc, _ := newTestService(t)
	if !svc.AddCategory(context.Background(), "Mercato") {
		t.Fatalf("add failed")
	}
	if svc.AddCategory(context.Background(), "Mercato") {
		t.Fatalf("duplicate add should be a no-op")
	}

	tx, err := svc.Commit(context.Background(), CommitParams{
		Type: "income", Amount: "10", Category: "Mercato", Date: "2025-01-05",
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if !svc.RemoveCategory(context.Background(), "Mercato") {
		t.Fatalf("remove failed")
	}
	// The orphaned label survives and still aggregates.
	res, err := svc.Query(QueryParams{Category: "Mercato"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.Metrics.Count != 1 || res.Transactions[0].ID != tx.ID {
		t.Fatalf("orphaned transaction lost: %+v", res)
	}
}

func TestQueryRecentOrderAndLimit(t *testing.T) {
	svc, _ := newTestService(t)
	base := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tick := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return tick }
		commit(t, svc, "income", "10", "2025-01-05")
	}
	got := svc.Recent(3)
	if len(got) != 3 {
		t.Fatalf("recent limit: %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Fatalf("recent not sorted newest first")
		}
	}
}

func TestQueryRejectsBadFilterInput(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Query(QueryParams{Mode: "quarter"}); !errors.Is(err, core.ErrUnknownWindowMode) {
		t.Fatalf("mode: %v", err)
	}
	if _, err := svc.Query(QueryParams{Mode: "day"}); !errors.Is(err, core.ErrMissingStartDate) {
		t.Fatalf("missing start: %v", err)
	}
	if _, err := svc.Query(QueryParams{Mode: "range", Start: "2025-01-01"}); !errors.Is(err, core.ErrMissingEndDate) {
		t.Fatalf("missing end: %v", err)
	}
	if _, err := svc.Query(QueryParams{Mode: "day", Start: "bad"}); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("bad date: %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	commit(t, svc, "income", "10", "2025-01-05")
	svc.AddCategory(context.Background(), "Mercato")

	var buf bytes.Buffer
	if err := svc.Export(&buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	other, _ := newTestService(t)
	if err := other.Import(context.Background(), &buf); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := other.Recent(0); len(got) != 1 {
		t.Fatalf("imported transactions = %d", len(got))
	}
	cats := other.Categories()
	if cats[len(cats)-1] != "Mercato" {
		t.Fatalf("imported categories = %v", cats)
	}
}

func TestImportRejectionLeavesStateUntouched(t *testing.T) {
	svc, gw := newTestService(t)
	commit(t, svc, "income", "10", "2025-01-05")

	var before bytes.Buffer
	if err := svc.Export(&before); err != nil {
		t.Fatalf("export: %v", err)
	}
	persisted, _ := gw.Load(context.Background())

	err := svc.Import(context.Background(), strings.NewReader(`{"categories":["X"]}`))
	if !errors.Is(err, ledger.ErrInvalidSnapshot) {
		t.Fatalf("import err = %v", err)
	}

	var after bytes.Buffer
	if err := svc.Export(&after); err != nil {
		t.Fatalf("export: %v", err)
	}
	if before.String() != after.String() {
		t.Fatalf("rejected import mutated the store")
	}
	persistedAfter, _ := gw.Load(context.Background())
	if len(persisted.Transactions) != len(persistedAfter.Transactions) {
		t.Fatalf("rejected import reached the gateway")
	}
}

func TestPurge(t *testing.T) {
	svc, gw := newTestService(t)
	commit(t, svc, "income", "10", "2025-01-05")
	svc.AddCategory(context.Background(), "Mercato")

	svc.Purge(context.Background())

	if got := svc.Recent(0); len(got) != 0 {
		t.Fatalf("log not purged")
	}
	if len(svc.Categories()) != len(ledger.DefaultCategories()) {
		t.Fatalf("categories not reset: %v", svc.Categories())
	}
	snap, _ := gw.Load(context.Background())
	if snap == nil || len(snap.Transactions) != 0 {
		t.Fatalf("purge not persisted: %+v", snap)
	}
}

func TestDegradedVolatileMode(t *testing.T) {
	gw := &brokenGateway{loadErr: errors.New("medium unavailable")}
	svc := NewLedgerService(gw, nil)
	svc.now = func() time.Time {
		return time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)
	}

	// Corrupt or unavailable load is not fatal; defaults apply.
	if err := svc.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(svc.Categories()) != len(ledger.DefaultCategories()) {
		t.Fatalf("defaults not applied: %v", svc.Categories())
	}

	// Mutations still succeed in memory while every save fails.
	commit(t, svc, "income", "10", "2025-01-05")
	commit(t, svc, "cost", "4", "2025-01-05")
	if got := svc.Recent(0); len(got) != 2 {
		t.Fatalf("in-memory mutation lost: %d", len(got))
	}
	if gw.saves != 2 {
		t.Fatalf("write-through attempts = %d, want 2", gw.saves)
	}
}
