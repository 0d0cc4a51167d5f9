package middleware

import (
	"bytes"
	"io"

	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/audit"
)

// maxAuditBody caps how much of a request body goes into the audit trail.
const maxAuditBody = 64 * 1024

// Audit records every request to the audit trail. Recording is
// fire-and-forget: it never delays the response and its failures never
// fail the request.
func Audit(recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload string
		if c.Request.Body != nil && c.Request.ContentLength != 0 {
			body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBody))
			if err == nil {
				payload = string(body)
				// Restore the body for downstream handlers.
				c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), c.Request.Body))
			}
		}

		recorder.Record(c.Request.Method, c.Request.URL.Path, payload)

		c.Next()
	}
}
