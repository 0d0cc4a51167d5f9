package handlers

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/audit"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// AuditHandler exposes the audit trail read side.
type AuditHandler struct {
	*BaseHandler
	store audit.Store
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, store audit.Store) *AuditHandler {
	return &AuditHandler{
		BaseHandler: base,
		store:       store,
	}
}

// ListRecent handles GET /audit.
func (h *AuditHandler) ListRecent(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 100)

	entries, err := h.store.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: entries, Count: len(entries)})
}
