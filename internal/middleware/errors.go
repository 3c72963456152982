package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/b3cotahist/internal/apperr"
	"github.com/guttosm/b3cotahist/internal/domain/dto"
)

// ErrorHandler renders errors attached with c.Error that no handler
// answered.
//
// Behavior:
//   - Does nothing when the response is already written.
//   - *apperr.TransientError becomes 503, anything else keeps the status
//     already set when it is an error status, or 500.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	err := c.Errors.Last().Err

	status := c.Writer.Status()
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	var te *apperr.TransientError
	if errors.As(err, &te) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.NewErrorResponse(http.StatusText(status), err))
}

// AbortWithError stops the chain and writes a dto.ErrorResponse with
// status. err is recorded on the context so RequestLogger reports it.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
