// Package reports provides statutory and operational report services:
// GST-period summaries over an April-March fiscal year and date-filtered
// movement summaries.
package reports

import (
	"time"

	"shopledger/internal/core/apperror"
)

// PeriodType selects the granularity of a fiscal period.
type PeriodType string

const (
	PeriodYear    PeriodType = "year"
	PeriodQuarter PeriodType = "quarter"
	PeriodMonth   PeriodType = "month"
)

// PeriodRequest selects a concrete fiscal period.
type PeriodRequest struct {
	PeriodType PeriodType `form:"periodType" json:"periodType"`
	Year       int        `form:"year" json:"year"`

	// Month 1-12, required when PeriodType is "month".
	Month int `form:"month" json:"month,omitempty"`

	// Quarter 1-4 of the fiscal year, required when PeriodType is "quarter".
	Quarter int `form:"quarter" json:"quarter,omitempty"`
}

// Period is a derived start/end date pair, never persisted.
// Dates are YYYY-MM-DD in the local calendar.
type Period struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

const dateLayout = "2006-01-02"

// quarterStartMonth maps fiscal quarters to their starting calendar month.
// The fiscal year runs April through March, so Q4 (January-March) belongs
// to the following calendar year.
var quarterStartMonth = map[int]time.Month{
	1: time.April,
	2: time.July,
	3: time.October,
	4: time.January,
}

// ComputePeriod converts a period selector into a concrete calendar date
// range aligned to the April-March fiscal year. Local calendar components
// are used throughout to avoid timezone off-by-one shifts.
func ComputePeriod(req PeriodRequest) (Period, error) {
	if req.Year <= 0 {
		return Period{}, apperror.NewInvalidPeriod("year is required").
			WithDetail("field", "year")
	}

	switch req.PeriodType {
	case PeriodYear:
		start := time.Date(req.Year, time.April, 1, 0, 0, 0, 0, time.Local)
		end := time.Date(req.Year+1, time.March, 31, 0, 0, 0, 0, time.Local)
		return Period{StartDate: start.Format(dateLayout), EndDate: end.Format(dateLayout)}, nil

	case PeriodQuarter:
		startMonth, ok := quarterStartMonth[req.Quarter]
		if !ok {
			return Period{}, apperror.NewInvalidPeriod("quarter must be between 1 and 4").
				WithDetail("field", "quarter").
				WithDetail("value", req.Quarter)
		}
		year := req.Year
		if req.Quarter == 4 {
			year++
		}
		start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.Local)
		// Day 0 of the month three months on: the last day of the quarter,
		// correct across variable month lengths and leap years.
		end := time.Date(year, startMonth+3, 0, 0, 0, 0, 0, time.Local)
		return Period{StartDate: start.Format(dateLayout), EndDate: end.Format(dateLayout)}, nil

	case PeriodMonth:
		if req.Month < 1 || req.Month > 12 {
			return Period{}, apperror.NewInvalidPeriod("month must be between 1 and 12").
				WithDetail("field", "month").
				WithDetail("value", req.Month)
		}
		start := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.Local)
		end := time.Date(req.Year, time.Month(req.Month)+1, 0, 0, 0, 0, 0, time.Local)
		return Period{StartDate: start.Format(dateLayout), EndDate: end.Format(dateLayout)}, nil

	default:
		return Period{}, apperror.NewInvalidPeriod("unrecognized period type").
			WithDetail("field", "periodType").
			WithDetail("value", string(req.PeriodType))
	}
}
