package reports

import (
	"context"
	"fmt"

	"shopledger/internal/core/types"
)

// Repository defines the storage queries reports need.
type Repository interface {
	// MovementSummaryByPeriod aggregates the movement register over an
	// inclusive date range (YYYY-MM-DD bounds).
	MovementSummaryByPeriod(ctx context.Context, startDate, endDate string) (MovementSummary, error)

	// MovementSummaryByFilter aggregates the movement register under a
	// date predicate built by BuildDateFilter.
	MovementSummaryByFilter(ctx context.Context, filter DateFilter) (MovementSummary, error)
}

// MovementSummary holds aggregated inward/outward totals.
type MovementSummary struct {
	InwardQuantity int64       `json:"inwardQuantity"`
	InwardValue    types.Money `json:"inwardValue"`

	OutwardQuantity int64       `json:"outwardQuantity"`
	OutwardValue    types.Money `json:"outwardValue"`
}

// GSTSummary is the statutory period report: purchases and sales totals
// over one fiscal period.
type GSTSummary struct {
	Period Period          `json:"period"`
	Totals MovementSummary `json:"totals"`
}

// Service provides report generation.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GSTReport resolves the fiscal period selector and aggregates the
// movement register over it.
func (s *Service) GSTReport(ctx context.Context, req PeriodRequest) (GSTSummary, error) {
	period, err := ComputePeriod(req)
	if err != nil {
		return GSTSummary{}, err
	}

	totals, err := s.repo.MovementSummaryByPeriod(ctx, period.StartDate, period.EndDate)
	if err != nil {
		return GSTSummary{}, fmt.Errorf("movement summary: %w", err)
	}

	return GSTSummary{Period: period, Totals: totals}, nil
}

// SalesReport aggregates the movement register under a named date filter
// (today / this month / custom range / everything).
func (s *Service) SalesReport(ctx context.Context, filter DateFilter) (MovementSummary, error) {
	summary, err := s.repo.MovementSummaryByFilter(ctx, filter)
	if err != nil {
		return MovementSummary{}, fmt.Errorf("movement summary: %w", err)
	}
	return summary, nil
}
