package reports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/types"
)

type fakeReportRepo struct {
	lastStart  string
	lastEnd    string
	lastFilter DateFilter
	summary    MovementSummary
}

func (r *fakeReportRepo) MovementSummaryByPeriod(ctx context.Context, startDate, endDate string) (MovementSummary, error) {
	r.lastStart = startDate
	r.lastEnd = endDate
	return r.summary, nil
}

func (r *fakeReportRepo) MovementSummaryByFilter(ctx context.Context, filter DateFilter) (MovementSummary, error) {
	r.lastFilter = filter
	return r.summary, nil
}

func TestGSTReport_ResolvesFiscalPeriod(t *testing.T) {
	repo := &fakeReportRepo{summary: MovementSummary{
		InwardQuantity: 120,
		InwardValue:    types.MustMoney("2220"),
	}}
	svc := NewService(repo)

	summary, err := svc.GSTReport(context.Background(), PeriodRequest{
		PeriodType: PeriodQuarter,
		Year:       2025,
		Quarter:    4,
	})
	require.NoError(t, err)

	assert.Equal(t, "2026-01-01", repo.lastStart)
	assert.Equal(t, "2026-03-31", repo.lastEnd)
	assert.Equal(t, Period{StartDate: "2026-01-01", EndDate: "2026-03-31"}, summary.Period)
	assert.Equal(t, int64(120), summary.Totals.InwardQuantity)
}

func TestGSTReport_InvalidSelectorNeverHitsStorage(t *testing.T) {
	repo := &fakeReportRepo{}
	svc := NewService(repo)

	_, err := svc.GSTReport(context.Background(), PeriodRequest{PeriodType: PeriodMonth, Year: 2025, Month: 13})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidPeriod, appErr.Code)
	assert.Empty(t, repo.lastStart)
}

func TestSalesReport_PassesFilterThrough(t *testing.T) {
	repo := &fakeReportRepo{summary: MovementSummary{OutwardQuantity: 7}}
	svc := NewService(repo)

	summary, err := svc.SalesReport(context.Background(), DateFilter{Filter: FilterToday})
	require.NoError(t, err)

	assert.Equal(t, FilterToday, repo.lastFilter.Filter)
	assert.Equal(t, int64(7), summary.OutwardQuantity)
}
