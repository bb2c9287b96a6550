package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Adham-AI-111/clinic-system-docker/internal/handler"
	apperrors "github.com/Adham-AI-111/clinic-system-docker/pkg/errors"
)

// ErrorHandler renders the last error attached with c.Error unless a
// response was already written.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		last := c.Errors.Last()
		lastErr := last.Err
		status := http.StatusInternalServerError
		message := "internal server error"

		var appErr *apperrors.AppError
		switch {
		case last.IsType(gin.ErrorTypeBind):
			status = http.StatusBadRequest
			message = "invalid request"
		case errors.As(lastErr, &appErr):
			status = appErr.StatusCode()
			if status != http.StatusInternalServerError {
				message = appErr.Message
			}
		}

		event := log.Warn()
		if status >= 500 {
			event = log.Error()
		}
		event.
			Err(lastErr).
			Str("request_id", c.GetString(ContextRequestID)).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("Request error")

		c.JSON(status, handler.NewErrorResponse(message))
	}
}
