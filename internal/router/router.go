package router

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"adminconsole/internal/config"
	apperrors "adminconsole/internal/errors"
	"adminconsole/internal/handler"
	"adminconsole/internal/middleware"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth      *handler.AuthHandler
	Dashboard *handler.DashboardHandler
	Users     *handler.UserHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authn middleware.Authenticator,
	h Handlers,
	logger *zap.Logger,
) {
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.Recover())
	e.Use(echomw.SecureWithConfig(echomw.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "same-origin",
	}))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	optional := middleware.Session(authn, true, logger)
	required := middleware.Session(authn, false, logger)
	privileged := middleware.RequirePrivileged()

	// Public routes
	e.GET("/", h.Auth.Root, optional)
	e.GET("/login", h.Auth.LoginPage, optional)
	e.POST("/login", h.Auth.Login, loginLimiter(cfg.LoginRatePerMin))
	e.GET("/logout", h.Auth.Logout)

	// Secured routes
	e.GET("/dashboard", h.Dashboard.Dashboard, required)

	e.GET("/users", h.Users.ListUsers, required, privileged)
	e.POST("/users/create", h.Users.CreateUser, required, privileged)
	e.POST("/users/update", h.Users.UpdateUser, required, privileged)
	e.POST("/users/delete", h.Users.DeleteUser, required, privileged)
	e.GET("/activity", h.Users.RecentActivity, required, privileged)
}

// loginLimiter throttles login attempts per client IP. A non-positive limit disables it.
func loginLimiter(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60),
		Burst:     perMinute,
		ExpiresIn: 10 * time.Minute,
	})
	tooMany := apperrors.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts, try again later", "RATE_LIMITED")
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, apperrors.NewHTTPError(http.StatusForbidden, "Access denied", "FORBIDDEN").ToErrorResponse())
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(tooMany.StatusCode, tooMany.ToErrorResponse())
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
