// Package services orchestrates the ledger store and the durable storage
// gateway. Every mutation runs to completion, persists write-through, and
// only then returns; there is no background work and no cached aggregate.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"registro/internal/core"
	"registro/internal/ledger"
	applog "registro/internal/log"
	"registro/internal/storage"
)

// ErrNotFound marks an operation against a transaction ID that is not in
// the store.
var ErrNotFound = errors.New("transaction not found")

// LedgerService owns the store and funnels all mutation through it.
type LedgerService struct {
	store   *ledger.Store
	gateway storage.Gateway
	logger  *applog.Logger
	now     func() time.Time

	mu         sync.Mutex
	saveWarned bool
}

func NewLedgerService(gateway storage.Gateway, logger *applog.Logger) *LedgerService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &LedgerService{
		store:   ledger.NewStore(),
		gateway: gateway,
		logger:  logger.WithComponent("ledger"),
		now:     time.Now,
	}
}

// Open loads the persisted snapshot into the store. A missing snapshot
// initializes the default category set; a corrupt one is logged and likewise
// falls back to defaults. Neither is fatal.
func (s *LedgerService) Open(ctx context.Context) error {
	snap, err := s.gateway.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Snapshot load failed, starting with defaults", "error", err)
		return nil
	}
	if snap == nil {
		s.logger.InfoContext(ctx, "No snapshot found, starting with defaults")
		return nil
	}
	s.store.Restore(*snap)
	s.logger.InfoContext(ctx, "Snapshot loaded",
		"transactions", len(snap.Transactions),
		"categories", len(snap.Categories))
	return nil
}

// persist writes the snapshot through to the gateway. A failed write is not
// retried: the session degrades to in-memory only and the condition is
// surfaced once, not per mutation.
func (s *LedgerService) persist(ctx context.Context) {
	if err := s.gateway.Save(ctx, s.store.Snapshot()); err != nil {
		s.mu.Lock()
		warned := s.saveWarned
		s.saveWarned = true
		s.mu.Unlock()
		if !warned {
			s.logger.WarnContext(ctx, "Persistence failed, continuing in-memory only", "error", err)
		}
	}
}

// CommitParams is the raw entry input from the presentation layer.
type CommitParams struct {
	Type        string
	Amount      string
	Category    string
	SubCategory string
	Date        string
}

// Commit validates and normalizes a raw entry, appends it to the log and
// persists. Rejection leaves the store untouched. The sub-category defaults
// to the upper-cased type label when blank; a user-provided label is also
// recorded in the category's suggestion history.
func (s *LedgerService) Commit(ctx context.Context, p CommitParams) (core.Transaction, error) {
	typ := core.Normalize(p.Type)
	if !typ.IsKnown() {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrUnknownType, p.Type)
	}

	amount, err := core.ParseMoney(p.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	date, err := core.ParseDate(p.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	category := strings.TrimSpace(p.Category)
	if !s.store.HasCategory(category) {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrUnknownCategory, category)
	}

	sub := strings.TrimSpace(p.SubCategory)
	if sub == "" {
		sub = strings.ToUpper(string(typ))
	} else {
		s.store.RecordSubCategoryUsage(category, sub)
	}

	tx := core.Transaction{
		Type:        typ,
		Amount:      amount,
		Category:    category,
		SubCategory: sub,
		Date:        date,
		CreatedAt:   s.now().UTC(),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	id := s.store.Append(tx)
	s.persist(ctx)

	committed, _ := s.store.Find(id)
	s.logger.InfoContext(ctx, "Transaction committed",
		"id", id, "type", string(typ), "amount_cents", amount.Cents, "category", category)
	return committed, nil
}

// DeleteTransaction removes an entry by ID and persists.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if !s.store.Delete(id) {
		return ErrNotFound
	}
	s.persist(ctx)
	s.logger.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// TogglePaid flips a receivable's collected flag and persists. Aggregates
// are always derived fresh, so the change is visible to the next query with
// no invalidation step.
func (s *LedgerService) TogglePaid(ctx context.Context, id string) (core.Transaction, error) {
	tx, ok := s.store.TogglePaid(id)
	if !ok {
		return core.Transaction{}, ErrNotFound
	}
	s.persist(ctx)
	s.logger.InfoContext(ctx, "Credit status toggled", "id", id, "is_paid", tx.IsPaid)
	return tx, nil
}

// AddCategory appends a category to the registry. Blank or duplicate names
// are a no-op, mirroring the registry contract.
func (s *LedgerService) AddCategory(ctx context.Context, name string) bool {
	if !s.store.AddCategory(name) {
		return false
	}
	s.persist(ctx)
	return true
}

// RemoveCategory drops a category from the registry only; historical
// transactions keep their label.
func (s *LedgerService) RemoveCategory(ctx context.Context, name string) bool {
	if !s.store.RemoveCategory(name) {
		return false
	}
	s.persist(ctx)
	return true
}

// Categories returns the registry in insertion order.
func (s *LedgerService) Categories() []string {
	return s.store.Categories()
}

// SubCategories returns the suggestion history for a category.
func (s *LedgerService) SubCategories(category string) []string {
	return s.store.SubCategories(category)
}

// QueryParams is the raw filter input from the presentation layer.
type QueryParams struct {
	Mode     string
	Start    string
	End      string
	Category string
	Keyword  string
}

// QueryResult is the UI output contract: period label, aggregate metrics and
// the filtered list, most recent first.
type QueryResult struct {
	Label        string             `json:"label"`
	Metrics      core.Metrics       `json:"metrics"`
	Transactions []core.Transaction `json:"transactions"`
}

// CreditView reports the receivable book for a filtered period and all-time,
// both independently derived, plus the unpaid-first ordered list.
type CreditView struct {
	Label        string             `json:"label"`
	Period       core.CreditSummary `json:"period"`
	AllTime      core.CreditSummary `json:"allTime"`
	Transactions []core.Transaction `json:"transactions"`
}

func (s *LedgerService) resolveQuery(p QueryParams) (core.Query, string, error) {
	mode, err := core.ParseWindowMode(p.Mode)
	if err != nil {
		return core.Query{}, "", err
	}

	var start, end core.Date
	if strings.TrimSpace(p.Start) != "" {
		if start, err = core.ParseDate(p.Start); err != nil {
			return core.Query{}, "", err
		}
	}
	if strings.TrimSpace(p.End) != "" {
		if end, err = core.ParseDate(p.End); err != nil {
			return core.Query{}, "", err
		}
	}

	window, err := core.ResolveWindow(mode, start, end, s.now())
	if err != nil {
		return core.Query{}, "", err
	}

	label := core.LabelAllTime
	if window != nil {
		label = window.Label
	}
	return core.Query{Window: window, Category: strings.TrimSpace(p.Category), Keyword: p.Keyword}, label, nil
}

// Query filters the log and aggregates metrics over the result.
func (s *LedgerService) Query(p QueryParams) (QueryResult, error) {
	q, label, err := s.resolveQuery(p)
	if err != nil {
		return QueryResult{}, err
	}

	filtered := core.Filter(s.store.Transactions(), q)
	core.SortRecentFirst(filtered)
	return QueryResult{
		Label:        label,
		Metrics:      core.Aggregate(filtered),
		Transactions: filtered,
	}, nil
}

// Recent returns the newest entries for the console view, capped at limit.
func (s *LedgerService) Recent(limit int) []core.Transaction {
	txs := s.store.Transactions()
	core.SortRecentFirst(txs)
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs
}

// Credit builds the credit manager view over the filtered receivable subset.
func (s *LedgerService) Credit(p QueryParams) (CreditView, error) {
	q, label, err := s.resolveQuery(p)
	if err != nil {
		return CreditView{}, err
	}

	allCredit := core.FilterCredit(s.store.Transactions())
	filtered := core.Filter(allCredit, q)
	core.SortCreditView(filtered)

	return CreditView{
		Label:        label,
		Period:       core.SummarizeCredit(filtered),
		AllTime:      core.SummarizeCredit(allCredit),
		Transactions: filtered,
	}, nil
}

// Export writes the full snapshot document.
func (s *LedgerService) Export(w io.Writer) error {
	return ledger.EncodeSnapshot(w, s.store.Snapshot())
}

// Import validates a backup document and, only on success, fully replaces
// the store and persists. A rejected document leaves state untouched.
func (s *LedgerService) Import(ctx context.Context, r io.Reader) error {
	snap, err := ledger.DecodeSnapshot(r)
	if err != nil {
		return err
	}
	s.store.Restore(snap)
	s.persist(ctx)
	s.logger.InfoContext(ctx, "Snapshot imported",
		"transactions", len(snap.Transactions),
		"categories", len(snap.Categories))
	return nil
}

// Purge clears the whole ledger and resets the category registry.
func (s *LedgerService) Purge(ctx context.Context) {
	s.store.Purge()
	s.persist(ctx)
	s.logger.WarnContext(ctx, "Ledger purged")
}
