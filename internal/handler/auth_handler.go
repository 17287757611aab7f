package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "adminconsole/internal/errors"
	"adminconsole/internal/middleware"
	"adminconsole/internal/service"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	directory    service.DirectoryService
	cookieSecure bool
	logger       *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(directory service.DirectoryService, cookieSecure bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{directory: directory, cookieSecure: cookieSecure, logger: logger}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Root redirects to the dashboard or the login page.
func (h *AuthHandler) Root(c echo.Context) error {
	if middleware.IdentityFrom(c) != nil {
		return c.Redirect(http.StatusFound, "/dashboard")
	}
	return c.Redirect(http.StatusFound, "/login")
}

// LoginPage renders the login form, or redirects signed-in users.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	if middleware.IdentityFrom(c) != nil {
		return c.Redirect(http.StatusFound, "/dashboard")
	}
	return c.Render(http.StatusOK, "login", nil)
}

// Login godoc
// @Summary Log in
// @Description Verifies credentials and sets the session cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, h.logger, apperrors.Invalid("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, h.logger, apperrors.ErrInvalidCredentials)
	}

	result, err := h.directory.Authenticate(c.Request().Context(), req.Email, req.Password, c.RealIP())
	if err != nil {
		return fail(c, h.logger, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		MaxAge:   int(time.Until(result.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure || c.IsTLS(),
		SameSite: http.SameSiteLaxMode,
	})
	return ok(c, "Login successful")
}

// Logout godoc
// @Summary Log out
// @Description Destroys the session and clears the cookie.
// @Tags auth
// @Success 302
// @Router /logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.SessionCookie); err == nil {
		if err := h.directory.Logout(c.Request().Context(), cookie.Value, c.RealIP()); err != nil {
			h.logger.Warn("logout: session not destroyed", zap.Error(err))
		}
	}
	middleware.ClearSessionCookie(c)
	return c.Redirect(http.StatusFound, "/login")
}
