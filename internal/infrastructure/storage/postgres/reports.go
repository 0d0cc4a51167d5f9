package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopledger/internal/core/types"
	"shopledger/internal/domain/reports"
)

// ReportRepo aggregates the stock movement register for reports.
type ReportRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ reports.Repository = (*ReportRepo)(nil)

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *TxManager) *ReportRepo {
	return &ReportRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// movementSummaryRow maps the aggregate query. COALESCE keeps empty
// ranges at zero instead of NULL.
type movementSummaryRow struct {
	InwardQuantity  int64       `db:"inward_quantity"`
	InwardValue     types.Money `db:"inward_value"`
	OutwardQuantity int64       `db:"outward_quantity"`
	OutwardValue    types.Money `db:"outward_value"`
}

func (r *ReportRepo) summarize(ctx context.Context, predicate squirrel.Sqlizer) (reports.MovementSummary, error) {
	q := r.builder.Select(
		"COALESCE(SUM(quantity) FILTER (WHERE direction = 'in'), 0)  AS inward_quantity",
		"COALESCE(SUM(amount)   FILTER (WHERE direction = 'in'), 0)  AS inward_value",
		"COALESCE(SUM(quantity) FILTER (WHERE direction = 'out'), 0) AS outward_quantity",
		"COALESCE(SUM(amount)   FILTER (WHERE direction = 'out'), 0) AS outward_value",
	).
		From(movementsTable).
		Where(predicate)

	sql, args, err := q.ToSql()
	if err != nil {
		return reports.MovementSummary{}, fmt.Errorf("build query: %w", err)
	}

	var row movementSummaryRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
		return reports.MovementSummary{}, fmt.Errorf("aggregate movements: %w", err)
	}

	return reports.MovementSummary{
		InwardQuantity:  row.InwardQuantity,
		InwardValue:     row.InwardValue,
		OutwardQuantity: row.OutwardQuantity,
		OutwardValue:    row.OutwardValue,
	}, nil
}

// MovementSummaryByPeriod aggregates over an inclusive date range.
func (r *ReportRepo) MovementSummaryByPeriod(ctx context.Context, startDate, endDate string) (reports.MovementSummary, error) {
	predicate := squirrel.Expr("DATE(occurred_at) BETWEEN ? AND ?", startDate, endDate)
	return r.summarize(ctx, predicate)
}

// MovementSummaryByFilter aggregates under a named date filter.
func (r *ReportRepo) MovementSummaryByFilter(ctx context.Context, filter reports.DateFilter) (reports.MovementSummary, error) {
	return r.summarize(ctx, reports.BuildDateFilter("occurred_at", filter))
}
