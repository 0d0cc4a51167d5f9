package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
)

func TestComputePeriod_FiscalYear(t *testing.T) {
	period, err := ComputePeriod(PeriodRequest{PeriodType: PeriodYear, Year: 2024})
	require.NoError(t, err)

	assert.Equal(t, "2024-04-01", period.StartDate)
	assert.Equal(t, "2025-03-31", period.EndDate)
}

func TestComputePeriod_Quarters(t *testing.T) {
	cases := []struct {
		quarter int
		start   string
		end     string
	}{
		{1, "2025-04-01", "2025-06-30"},
		{2, "2025-07-01", "2025-09-30"},
		{3, "2025-10-01", "2025-12-31"},
		// Q4 rolls into the next calendar year.
		{4, "2026-01-01", "2026-03-31"},
	}

	for _, tc := range cases {
		period, err := ComputePeriod(PeriodRequest{
			PeriodType: PeriodQuarter,
			Year:       2025,
			Quarter:    tc.quarter,
		})
		require.NoError(t, err, "quarter %d", tc.quarter)
		assert.Equal(t, tc.start, period.StartDate, "quarter %d", tc.quarter)
		assert.Equal(t, tc.end, period.EndDate, "quarter %d", tc.quarter)
	}
}

func TestComputePeriod_MonthEndings(t *testing.T) {
	// Leap year February.
	period, err := ComputePeriod(PeriodRequest{PeriodType: PeriodMonth, Year: 2024, Month: 2})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", period.StartDate)
	assert.Equal(t, "2024-02-29", period.EndDate)

	// Non-leap February.
	period, err = ComputePeriod(PeriodRequest{PeriodType: PeriodMonth, Year: 2025, Month: 2})
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28", period.EndDate)

	// 30-day month.
	period, err = ComputePeriod(PeriodRequest{PeriodType: PeriodMonth, Year: 2025, Month: 4})
	require.NoError(t, err)
	assert.Equal(t, "2025-04-30", period.EndDate)

	// December.
	period, err = ComputePeriod(PeriodRequest{PeriodType: PeriodMonth, Year: 2025, Month: 12})
	require.NoError(t, err)
	assert.Equal(t, "2025-12-31", period.EndDate)
}

func TestComputePeriod_InvalidSelectors(t *testing.T) {
	cases := []PeriodRequest{
		{PeriodType: "week", Year: 2025},
		{PeriodType: PeriodQuarter, Year: 2025, Quarter: 0},
		{PeriodType: PeriodQuarter, Year: 2025, Quarter: 5},
		{PeriodType: PeriodMonth, Year: 2025, Month: 0},
		{PeriodType: PeriodMonth, Year: 2025, Month: 13},
		{PeriodType: PeriodYear},
		{},
	}

	for _, req := range cases {
		_, err := ComputePeriod(req)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok, "request %+v", req)
		assert.Equal(t, apperror.CodeInvalidPeriod, appErr.Code, "request %+v", req)
	}
}
