package response

import (
	"github.com/gin-gonic/gin"
	domainerrors "pay-chain.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends the spec.md §4.7 business-code envelope: `{code, message}`.
// err is unwrapped via AsAppError, so a wrapped AppError (e.g. from
// fmt.Errorf("...: %w", appErr)) still carries its own status/code through
// instead of collapsing to a generic internal error.
func Error(c *gin.Context, err error) {
	appErr := domainerrors.AsAppError(err)
	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}
