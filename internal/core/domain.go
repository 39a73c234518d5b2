package core

import (
	"errors"
	"strings"
	"time"
)

const (
	TypeCost    TxType = "cost"
	TypeExpense TxType = "expense"
	TypeIncome  TxType = "income"
	TypeCredit  TxType = "credit"
)

type (
	// TxType is the kind of a ledger transaction. The canonical values are
	// cost, expense, income and credit; legacy aliases are folded into them
	// by Normalize.
	TxType string

	// Date is a calendar day (no time component) at UTC midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64 `json:"cents"`
	}

	// Transaction is a single entry in the ledger log.
	Transaction struct {
		ID          string    `json:"id"`
		Type        TxType    `json:"type"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		SubCategory string    `json:"subCategory"`
		Date        Date      `json:"date"`
		CreatedAt   time.Time `json:"createdAt"`
		// IsPaid marks a collected receivable. Meaningful only when the
		// normalized type is credit; ignored everywhere else.
		IsPaid bool `json:"isPaid"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownType     = errors.New("unknown transaction type")
)

// Normalize maps a raw type label to its canonical TxType. The legacy
// aliases "debt" and "receivable" become credit. Unrecognized labels pass
// through unchanged so they can still be displayed and counted; they
// contribute to no metric bucket.
func Normalize(raw string) TxType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cost":
		return TypeCost
	case "expense":
		return TypeExpense
	case "income":
		return TypeIncome
	case "credit", "debt", "receivable":
		return TypeCredit
	}
	return TxType(raw)
}

// Canonical folds aliases stored in older snapshots into the canonical type.
func (t TxType) Canonical() TxType {
	return Normalize(string(t))
}

// IsKnown reports whether the type maps to one of the four canonical kinds.
func (t TxType) IsKnown() bool {
	switch t.Canonical() {
	case TypeCost, TypeExpense, TypeIncome, TypeCredit:
		return true
	}
	return false
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t.UTC()}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (tx Transaction) Validate() error {
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if err := tx.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}
