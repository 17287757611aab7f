package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"adminconsole/internal/middleware"
	"adminconsole/internal/model"
	"adminconsole/internal/service"
)

// DashboardHandler serves the landing page of signed-in users.
type DashboardHandler struct {
	directory service.DirectoryService
	logger    *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(directory service.DirectoryService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{directory: directory, logger: logger}
}

// StatsResponse is the JSON form of the dashboard.
type StatsResponse struct {
	Success bool         `json:"success"`
	Stats   *model.Stats `json:"stats"`
}

// Dashboard godoc
// @Summary Dashboard
// @Description Totals, today's activity count and the five newest users.
// @Tags dashboard
// @Produce json
// @Produce html
// @Success 200 {object} StatsResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /dashboard [get]
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	stats, err := h.directory.Stats(c.Request().Context(), identity)
	if err != nil {
		return fail(c, h.logger, err)
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, StatsResponse{Success: true, Stats: stats})
	}
	return c.Render(http.StatusOK, "dashboard", map[string]any{
		"User":  identity,
		"Stats": stats,
	})
}
