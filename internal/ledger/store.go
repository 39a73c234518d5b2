// Package ledger owns the in-process transaction store: the ordered
// transaction log, the category registry and the per-category sub-category
// history. All mutation goes through named operations on Store; persistence
// and validation are the service layer's concern.
package ledger

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"registro/internal/core"
)

// SubHistoryLimit caps the per-category sub-category history. On overflow the
// oldest entry is evicted (bounded FIFO), so recent labels stay suggestable.
const SubHistoryLimit = 10

// DefaultCategories returns the category set used when no snapshot exists.
func DefaultCategories() []string {
	return []string{"Sede principale", "Secondo punto", "Online"}
}

// Store is the single shared mutable ledger state. The logical model is
// single-writer, but the HTTP surface serves requests concurrently, so a
// mutex guards every operation.
type Store struct {
	mu   sync.Mutex
	txs  []core.Transaction // newest first
	cats []string           // insertion order, unique
	subs map[string][]string
}

// NewStore creates an empty store with the default category set.
func NewStore() *Store {
	return &Store{
		cats: DefaultCategories(),
		subs: make(map[string][]string),
	}
}

// Append inserts a transaction at the head of the log. A missing ID is
// generated and a zero CreatedAt is stamped with the current time. Returns
// the transaction ID.
func (s *Store) Append(tx core.Transaction) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	s.txs = append([]core.Transaction{tx}, s.txs...)
	return tx.ID
}

// Delete removes the transaction with the given ID. Reports whether a
// transaction was removed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, tx := range s.txs {
		if tx.ID == id {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns a copy of the transaction with the given ID.
func (s *Store) Find(id string) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range s.txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}

// SetPaid sets the isPaid flag of the transaction with the given ID.
// Reports whether the transaction exists.
func (s *Store) SetPaid(id string, paid bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.txs {
		if s.txs[i].ID == id {
			s.txs[i].IsPaid = paid
			return true
		}
	}
	return false
}

// TogglePaid flips the isPaid flag of the transaction with the given ID and
// returns the updated record.
func (s *Store) TogglePaid(id string) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.txs {
		if s.txs[i].ID == id {
			s.txs[i].IsPaid = !s.txs[i].IsPaid
			return s.txs[i], true
		}
	}
	return core.Transaction{}, false
}

// Transactions returns a copy of the log, newest first.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

// Len returns the number of transactions in the log.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}

// AddCategory appends a category, preserving insertion order. Blank names
// and exact duplicates are no-ops. Reports whether the registry changed.
func (s *Store) AddCategory(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.cats {
		if c == name {
			return false
		}
	}
	s.cats = append(s.cats, name)
	return true
}

// RemoveCategory deletes a category from the registry only. Transactions
// referencing it keep their original label permanently.
func (s *Store) RemoveCategory(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.cats {
		if c == name {
			s.cats = append(s.cats[:i], s.cats[i+1:]...)
			return true
		}
	}
	return false
}

// HasCategory reports whether name is in the registry (exact match).
func (s *Store) HasCategory(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.cats {
		if c == name {
			return true
		}
	}
	return false
}

// Categories returns the registry in insertion order.
func (s *Store) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.cats))
	copy(out, s.cats)
	return out
}

// RecordSubCategoryUsage appends sub to the category's history unless it is
// blank or already present. The history is bounded by SubHistoryLimit; the
// oldest entry is evicted on overflow.
func (s *Store) RecordSubCategoryUsage(category, sub string) {
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.subs[category]
	for _, it := range items {
		if it == sub {
			return
		}
	}
	items = append(items, sub)
	if len(items) > SubHistoryLimit {
		items = items[len(items)-SubHistoryLimit:]
	}
	s.subs[category] = items
}

// SubCategories returns the recorded sub-category labels for a category,
// oldest first.
func (s *Store) SubCategories(category string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.subs[category]
	out := make([]string, len(items))
	copy(out, items)
	return out
}

// Purge clears the log and resets the registry to the default set.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txs = nil
	s.cats = DefaultCategories()
	s.subs = make(map[string][]string)
}
