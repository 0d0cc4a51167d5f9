package reports

import (
	"time"
)

// Named report filters understood by BuildDateFilter.
const (
	FilterToday = "today"
	FilterMonth = "month"
)

// DateFilter describes a date restriction on a timestamp column.
type DateFilter struct {
	// Filter is a named filter ("today", "month") or empty.
	Filter string `form:"filter" json:"filter,omitempty"`

	// From/To are YYYY-MM-DD bounds for an inclusive custom range, used
	// when Filter is empty and both are present.
	From string `form:"from" json:"from,omitempty"`
	To   string `form:"to" json:"to,omitempty"`

	// Alias optionally prefixes the timestamp column reference.
	// Set by repositories, never bound from requests.
	Alias string `form:"-" json:"-"`
}

// DatePredicate is a storage-composable predicate with bound parameters.
// It satisfies squirrel.Sqlizer, so repositories can feed it straight into
// a query builder. Values are always bound, never interpolated.
type DatePredicate struct {
	Expression string
	Parameters []any
}

// ToSql implements squirrel.Sqlizer.
func (p DatePredicate) ToSql() (string, []any, error) {
	if p.Expression == "" {
		// Unconditional pass-through.
		return "TRUE", nil, nil
	}
	return p.Expression, p.Parameters, nil
}

// BuildDateFilter translates a named report filter into a predicate over
// the given timestamp column:
//
//   - "today": rows whose local calendar date is today
//   - "month": rows within the current local calendar month
//   - a complete from/to pair: inclusive date range
//   - otherwise: match every row
func BuildDateFilter(column string, f DateFilter) DatePredicate {
	col := column
	if f.Alias != "" {
		col = f.Alias + "." + column
	}

	now := time.Now()

	switch {
	case f.Filter == FilterToday:
		return DatePredicate{
			Expression: "DATE(" + col + ") = ?",
			Parameters: []any{now.Format("2006-01-02")},
		}

	case f.Filter == FilterMonth:
		return DatePredicate{
			Expression: "TO_CHAR(" + col + ", 'YYYY-MM') = ?",
			Parameters: []any{now.Format("2006-01")},
		}

	case f.From != "" && f.To != "":
		return DatePredicate{
			Expression: "DATE(" + col + ") BETWEEN ? AND ?",
			Parameters: []any{f.From, f.To},
		}

	default:
		return DatePredicate{}
	}
}
