package handlers

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/reports"
)

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GST handles GET /reports/gst.
// Aggregates the movement register over one fiscal period
// (year / quarter / month selectors, April-to-March fiscal year).
func (h *ReportsHandler) GST(c *gin.Context) {
	var req reports.PeriodRequest
	if !h.BindQuery(c, &req) {
		return
	}

	summary, err := h.service.GSTReport(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// Sales handles GET /reports/sales.
// Aggregates the movement register under a named date filter
// (today / month / custom range / everything).
func (h *ReportsHandler) Sales(c *gin.Context) {
	var filter reports.DateFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	summary, err := h.service.SalesReport(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}
