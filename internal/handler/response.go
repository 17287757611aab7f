package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "adminconsole/internal/errors"
	"adminconsole/internal/middleware"
)

// MessageResponse is the body of every successful mutation.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ok(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: message})
}

// fail maps err to its HTTP form. Server-side failures are logged with their
// cause; the client only sees the generic message.
func fail(c echo.Context, logger *zap.Logger, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err),
		)
	}
	return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func wantsJSON(c echo.Context) bool {
	return !middleware.WantsPage(c)
}
