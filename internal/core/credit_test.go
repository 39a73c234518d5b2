package core

import (
	"testing"
	"time"
)

func creditTx(id string, cents int64, paid bool, created time.Time) Transaction {
	return Transaction{
		ID:        id,
		Type:      TypeCredit,
		Amount:    Money{Cents: cents},
		Category:  "Sede principale",
		Date:      DateOf(created),
		CreatedAt: created,
		IsPaid:    paid,
	}
}

func TestSummarizeCredit(t *testing.T) {
	now := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)
	txs := []Transaction{
		creditTx("a", 20000, false, now),
		creditTx("b", 5000, true, now.Add(time.Minute)),
		// non-credit entries are ignored
		tx(TypeIncome, 99999, NewDate(2025, 1, 5), false),
	}
	s := SummarizeCredit(txs)
	if s.Issued.Cents != 25000 || s.Collected.Cents != 5000 || s.Outstanding.Cents != 20000 {
		t.Fatalf("summary = %+v", s)
	}
	if s.Paid != 1 || s.Unpaid != 1 {
		t.Fatalf("counts = paid %d unpaid %d", s.Paid, s.Unpaid)
	}
}

func TestOutstandingInvariantUnderToggles(t *testing.T) {
	now := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)
	txs := []Transaction{
		creditTx("a", 100, false, now),
		creditTx("b", 250, false, now),
		creditTx("c", 75, true, now),
	}
	check := func() {
		s := SummarizeCredit(txs)
		if s.Outstanding.Cents != s.Issued.Cents-s.Collected.Cents {
			t.Fatalf("outstanding != issued - collected: %+v", s)
		}
		if s.Collected.Cents+s.Outstanding.Cents != s.Issued.Cents {
			t.Fatalf("collected + outstanding != issued: %+v", s)
		}
	}
	check()
	for _, i := range []int{0, 1, 0, 2, 2, 1} {
		txs[i].IsPaid = !txs[i].IsPaid
		check()
	}
}

func TestToggleMovesOutstandingToCollected(t *testing.T) {
	now := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)
	txs := []Transaction{creditTx("a", 20000, false, now)}

	before := Aggregate(txs)
	txs[0].IsPaid = true
	after := Aggregate(txs)

	if after.OutstandingCredit.Cents != 0 {
		t.Fatalf("outstanding after toggle = %d, want 0", after.OutstandingCredit.Cents)
	}
	if s := SummarizeCredit(txs); s.Collected.Cents != 20000 {
		t.Fatalf("collected = %d, want 20000", s.Collected.Cents)
	}
	if after.Revenue != before.Revenue || after.GrossProfit != before.GrossProfit {
		t.Fatalf("toggle changed revenue or gross profit: %+v -> %+v", before, after)
	}
}

func TestSortCreditView(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []Transaction{
		creditTx("old-paid", 1, true, t0),
		creditTx("new-unpaid", 1, false, t0.Add(3*time.Hour)),
		creditTx("new-paid", 1, true, t0.Add(2*time.Hour)),
		creditTx("old-unpaid", 1, false, t0.Add(time.Hour)),
	}
	SortCreditView(txs)
	want := []string{"new-unpaid", "old-unpaid", "new-paid", "old-paid"}
	for i, id := range want {
		if txs[i].ID != id {
			t.Fatalf("position %d = %s, want %s (order %v)", i, txs[i].ID, id, ids(txs))
		}
	}
}

func TestSortRecentFirst(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []Transaction{
		creditTx("a", 1, false, t0),
		creditTx("b", 1, false, t0.Add(time.Hour)),
	}
	SortRecentFirst(txs)
	if txs[0].ID != "b" {
		t.Fatalf("order %v, want b first", ids(txs))
	}
}

func ids(txs []Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}
