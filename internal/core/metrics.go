package core

import "math"

// Metrics is the aggregate view over a transaction subset. Revenue counts
// income and credit; credit contributes to revenue when issued, and its
// uncollected portion is tracked separately as OutstandingCredit.
type Metrics struct {
	Revenue           Money   `json:"revenue"`
	OutstandingCredit Money   `json:"outstandingCredit"`
	Cost              Money   `json:"cost"`
	Expense           Money   `json:"expense"`
	GrossProfit       Money   `json:"grossProfit"`
	NetProfit         Money   `json:"netProfit"`
	MarginPercent     float64 `json:"marginPercent"`
	Count             int     `json:"count"`
}

// Aggregate computes Metrics over the given transactions. Sums are plain
// cent accumulations, so the identities grossProfit = revenue - cost and
// netProfit = grossProfit - expense hold exactly in any order. Transactions
// with an unrecognized type are counted but land in no bucket.
func Aggregate(txs []Transaction) Metrics {
	var m Metrics
	for _, tx := range txs {
		m.Count++
		switch tx.Type.Canonical() {
		case TypeIncome:
			m.Revenue.Cents += tx.Amount.Cents
		case TypeCredit:
			m.Revenue.Cents += tx.Amount.Cents
			if !tx.IsPaid {
				m.OutstandingCredit.Cents += tx.Amount.Cents
			}
		case TypeCost:
			m.Cost.Cents += tx.Amount.Cents
		case TypeExpense:
			m.Expense.Cents += tx.Amount.Cents
		}
	}
	m.GrossProfit.Cents = m.Revenue.Cents - m.Cost.Cents
	m.NetProfit.Cents = m.GrossProfit.Cents - m.Expense.Cents
	m.MarginPercent = marginPercent(m.GrossProfit, m.Revenue)
	return m
}

// marginPercent returns gross profit as a percentage of revenue, rounded to
// one decimal. Zero revenue yields exactly 0, never a division error.
func marginPercent(grossProfit, revenue Money) float64 {
	if revenue.Cents <= 0 {
		return 0
	}
	pct := float64(grossProfit.Cents) / float64(revenue.Cents) * 100
	return math.Round(pct*10) / 10
}
