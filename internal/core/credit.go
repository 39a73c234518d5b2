package core

import "sort"

// CreditSummary partitions a credit subset into collected and outstanding.
// Outstanding is always Issued - Collected.
type CreditSummary struct {
	Issued      Money `json:"issued"`
	Collected   Money `json:"collected"`
	Outstanding Money `json:"outstanding"`
	Paid        int   `json:"paid"`
	Unpaid      int   `json:"unpaid"`
}

// IsCredit reports whether the transaction is a receivable, aliases included.
func IsCredit(tx Transaction) bool {
	return tx.Type.Canonical() == TypeCredit
}

// FilterCredit returns only the credit-typed transactions, in input order.
func FilterCredit(txs []Transaction) []Transaction {
	var out []Transaction
	for _, tx := range txs {
		if IsCredit(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// SummarizeCredit computes issued/collected/outstanding over the credit
// subset of txs. Non-credit transactions are ignored, so the caller may pass
// any filtered slice.
func SummarizeCredit(txs []Transaction) CreditSummary {
	var s CreditSummary
	for _, tx := range txs {
		if !IsCredit(tx) {
			continue
		}
		s.Issued.Cents += tx.Amount.Cents
		if tx.IsPaid {
			s.Collected.Cents += tx.Amount.Cents
			s.Paid++
		} else {
			s.Unpaid++
		}
	}
	s.Outstanding.Cents = s.Issued.Cents - s.Collected.Cents
	return s
}

// SortCreditView orders a credit list for display: unpaid entries first,
// then most recent first within each partition. The sort is stable so equal
// timestamps keep store order.
func SortCreditView(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].IsPaid != txs[j].IsPaid {
			return !txs[i].IsPaid
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}

// SortRecentFirst orders transactions by creation time descending. Recency
// is an explicit sort key rather than an artifact of insertion position.
func SortRecentFirst(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}
