package core

import (
	"errors"
	"strings"
	"time"
)

const (
	WindowAll       WindowMode = "all"
	WindowDay       WindowMode = "day"
	WindowRange     WindowMode = "range"
	WindowMonth     WindowMode = "month"
	WindowLastMonth WindowMode = "last_month"
	WindowYear      WindowMode = "year"
)

type (
	// WindowMode names a time-window preset for filtering.
	WindowMode string

	// DateRange is an inclusive calendar interval with a display label.
	DateRange struct {
		Start Date   `json:"start"`
		End   Date   `json:"end"`
		Label string `json:"label"`
	}

	// Query is the resolved filter input: an optional window plus category
	// and keyword predicates. Category "all" (or empty) matches everything.
	Query struct {
		Window   *DateRange
		Category string
		Keyword  string
	}
)

var (
	ErrUnknownWindowMode = errors.New("unknown window mode")
	ErrMissingStartDate  = errors.New("missing start date")
	ErrMissingEndDate    = errors.New("missing end date")
)

// LabelAllTime is the display label when no window applies.
const LabelAllTime = "ALL TIME"

// ParseWindowMode validates a raw mode string from the UI. Empty input
// defaults to all-time.
func ParseWindowMode(raw string) (WindowMode, error) {
	switch m := WindowMode(strings.TrimSpace(raw)); m {
	case "":
		return WindowAll, nil
	case WindowAll, WindowDay, WindowRange, WindowMonth, WindowLastMonth, WindowYear:
		return m, nil
	default:
		return "", ErrUnknownWindowMode
	}
}

// ResolveWindow turns a mode plus optional explicit bounds into a concrete
// inclusive date range. A nil range means no date bound (all-time). Explicit
// bounds are required for day and range modes; range bounds are taken as
// given, the caller is responsible for start <= end.
func ResolveWindow(mode WindowMode, start, end Date, now time.Time) (*DateRange, error) {
	switch mode {
	case WindowAll:
		return nil, nil
	case WindowDay:
		if start.IsZero() {
			return nil, ErrMissingStartDate
		}
		return &DateRange{Start: start, End: start, Label: start.String()}, nil
	case WindowRange:
		if start.IsZero() {
			return nil, ErrMissingStartDate
		}
		if end.IsZero() {
			return nil, ErrMissingEndDate
		}
		return &DateRange{Start: start, End: end, Label: start.String() + " ~ " + end.String()}, nil
	case WindowMonth:
		first := NewDate(now.Year(), int(now.Month()), 1)
		last := NewDate(now.Year(), int(now.Month())+1, 0)
		return &DateRange{Start: first, End: last, Label: "THIS MONTH"}, nil
	case WindowLastMonth:
		first := NewDate(now.Year(), int(now.Month())-1, 1)
		last := NewDate(now.Year(), int(now.Month()), 0)
		return &DateRange{Start: first, End: last, Label: "LAST MONTH"}, nil
	case WindowYear:
		first := NewDate(now.Year(), 1, 1)
		last := NewDate(now.Year(), 12, 31)
		return &DateRange{Start: first, End: last, Label: "THIS YEAR"}, nil
	default:
		return nil, ErrUnknownWindowMode
	}
}

// Contains reports whether the day falls within the inclusive range.
func (r *DateRange) Contains(d Date) bool {
	if r == nil {
		return true
	}
	return !d.Before(r.Start.Time) && !d.After(r.End.Time)
}

// Filter applies the query predicates to txs and returns the matches in
// input order. All predicates must hold: exact category match unless the
// selector is "all", case-insensitive keyword substring against sub-category
// or category, and inclusive date-range membership.
func Filter(txs []Transaction, q Query) []Transaction {
	keyword := strings.ToLower(strings.TrimSpace(q.Keyword))
	var out []Transaction
	for _, tx := range txs {
		if q.Category != "" && q.Category != "all" && tx.Category != q.Category {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(tx.SubCategory), keyword) &&
			!strings.Contains(strings.ToLower(tx.Category), keyword) {
			continue
		}
		if !q.Window.Contains(tx.Date) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
