package middleware

import (
	"fmt"
	"net/http"

	"cellsim/internal/api/models"
	"cellsim/internal/logging"

	"github.com/gin-gonic/gin"
)

// ErrorHandler middleware turns panics into the standard error envelope
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.Logger.Error("panic recovered",
			"path", c.Request.URL.Path,
			"request_id", c.GetString(RequestIDKey),
			"panic", fmt.Sprint(recovered),
		)
		message := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			message = s
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: message,
			},
		})
	})
}
