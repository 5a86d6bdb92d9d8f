package middleware

import (
	ierr "github.com/flexprice/taxledger/internal/errors"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error attached to the gin context
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		c.JSON(ierr.HTTPStatusFromErr(err), ierr.ErrorResponse{
			Success: false,
			Error:   ierr.NewErrorDetail(err),
		})
	}
}
