package middleware

import (
	"strings"

	ierr "github.com/flexprice/taxledger/internal/errors"
	"github.com/flexprice/taxledger/internal/types"
	"github.com/gin-gonic/gin"
)

func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST)
	}

	c.Request = c.Request.WithContext(types.SetRequestID(c.Request.Context(), requestID))
	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}

// TenantMiddleware scopes the request to the tenant named in the X-Tenant-ID header
func TenantMiddleware(c *gin.Context) {
	tenantID := strings.TrimSpace(c.GetHeader(types.HeaderTenantID))
	if tenantID == "" {
		c.Error(ierr.NewError("tenant id is required").
			WithHintf("Please provide the %s header", types.HeaderTenantID).
			Mark(ierr.ErrValidation))
		c.Abort()
		return
	}

	c.Request = c.Request.WithContext(types.SetTenantID(c.Request.Context(), tenantID))
	c.Next()
}
