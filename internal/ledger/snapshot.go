package ledger

import (
	"encoding/json"
	"errors"
	"io"
	"sort"

	"registro/internal/core"
)

// ErrInvalidSnapshot marks a backup document that cannot replace the store.
var ErrInvalidSnapshot = errors.New("invalid snapshot document")

type (
	// SubHistory pairs a category with its recorded sub-category labels.
	SubHistory struct {
		Category string   `json:"category"`
		Items    []string `json:"items"`
	}

	// Snapshot is the full portable document representing store state: the
	// persistence format and the import/export backup format are the same
	// shape.
	Snapshot struct {
		Transactions []core.Transaction `json:"transactions"`
		Categories   []string           `json:"categories"`
		SubHistory   []SubHistory       `json:"subCategoryHistory"`
	}
)

// Snapshot captures the current store state as a portable document. The full
// sub-category history is dumped, including entries for categories no longer
// in the registry; registry order first, remaining categories sorted, so the
// document is deterministic.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Transactions: make([]core.Transaction, len(s.txs)),
		Categories:   make([]string, len(s.cats)),
	}
	copy(snap.Transactions, s.txs)
	copy(snap.Categories, s.cats)

	seen := make(map[string]bool, len(s.cats))
	for _, cat := range s.cats {
		seen[cat] = true
		if items := s.subs[cat]; len(items) > 0 {
			snap.SubHistory = append(snap.SubHistory, SubHistory{
				Category: cat,
				Items:    append([]string(nil), items...),
			})
		}
	}
	var orphaned []string
	for cat, items := range s.subs {
		if !seen[cat] && len(items) > 0 {
			orphaned = append(orphaned, cat)
		}
	}
	sort.Strings(orphaned)
	for _, cat := range orphaned {
		snap.SubHistory = append(snap.SubHistory, SubHistory{
			Category: cat,
			Items:    append([]string(nil), s.subs[cat]...),
		})
	}
	return snap
}

// Restore replaces the entire store state with the snapshot. An absent
// category list falls back to the defaults, mirroring startup behavior.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txs = make([]core.Transaction, len(snap.Transactions))
	copy(s.txs, snap.Transactions)

	if len(snap.Categories) > 0 {
		s.cats = append([]string(nil), snap.Categories...)
	} else {
		s.cats = DefaultCategories()
	}

	s.subs = make(map[string][]string)
	for _, h := range snap.SubHistory {
		items := h.Items
		if len(items) > SubHistoryLimit {
			items = items[len(items)-SubHistoryLimit:]
		}
		s.subs[h.Category] = append([]string(nil), items...)
	}
}

// DecodeSnapshot parses and validates a backup document. The transactions
// field must be present (an empty array is fine); anything else is rejected
// with ErrInvalidSnapshot so the caller's state stays untouched.
func DecodeSnapshot(r io.Reader) (Snapshot, error) {
	var probe struct {
		Transactions *json.RawMessage `json:"transactions"`
		Categories   []string         `json:"categories"`
		SubHistory   []SubHistory     `json:"subCategoryHistory"`
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&probe); err != nil {
		return Snapshot{}, ErrInvalidSnapshot
	}
	if probe.Transactions == nil {
		return Snapshot{}, ErrInvalidSnapshot
	}

	var txs []core.Transaction
	if err := json.Unmarshal(*probe.Transactions, &txs); err != nil {
		return Snapshot{}, ErrInvalidSnapshot
	}
	return Snapshot{
		Transactions: txs,
		Categories:   probe.Categories,
		SubHistory:   probe.SubHistory,
	}, nil
}

// EncodeSnapshot writes the snapshot as an indented JSON document.
func EncodeSnapshot(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
