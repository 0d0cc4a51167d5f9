package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDateFilter_Today(t *testing.T) {
	p := BuildDateFilter("occurred_at", DateFilter{Filter: FilterToday})

	sql, args, err := p.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "DATE(occurred_at) = ?", sql)
	require.Len(t, args, 1)
	assert.Equal(t, time.Now().Format("2006-01-02"), args[0])
}

func TestBuildDateFilter_CurrentMonth(t *testing.T) {
	p := BuildDateFilter("occurred_at", DateFilter{Filter: FilterMonth})

	sql, args, err := p.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "TO_CHAR(occurred_at, 'YYYY-MM') = ?", sql)
	require.Len(t, args, 1)
	assert.Equal(t, time.Now().Format("2006-01"), args[0])
}

func TestBuildDateFilter_CustomRange(t *testing.T) {
	p := BuildDateFilter("occurred_at", DateFilter{From: "2025-01-01", To: "2025-01-31"})

	sql, args, err := p.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "DATE(occurred_at) BETWEEN ? AND ?", sql)
	// Bounds are bound parameters, never interpolated.
	assert.Equal(t, []any{"2025-01-01", "2025-01-31"}, args)
}

func TestBuildDateFilter_IncompleteRangePassesThrough(t *testing.T) {
	for _, f := range []DateFilter{
		{},
		{From: "2025-01-01"},
		{To: "2025-01-31"},
		{Filter: "fortnight"},
	} {
		p := BuildDateFilter("occurred_at", f)

		sql, args, err := p.ToSql()
		require.NoError(t, err)
		assert.Equal(t, "TRUE", sql, "filter %+v", f)
		assert.Empty(t, args)
	}
}

func TestBuildDateFilter_AliasPrefix(t *testing.T) {
	p := BuildDateFilter("occurred_at", DateFilter{Filter: FilterToday, Alias: "m"})

	sql, _, err := p.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "DATE(m.occurred_at) = ?", sql)
}
