// Package middleware holds the echo middleware that resolves the session
// cookie into an identity and enforces roles.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"adminconsole/internal/auth"
	apperrors "adminconsole/internal/errors"
)

const (
	// SessionCookie is the cookie carrying the signed session token.
	SessionCookie = "session_id"
	identityKey   = "identity"
	loginPath     = "/login"
)

// Authenticator resolves a session token into an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// IdentityFrom returns the identity set by Session, or nil for anonymous requests.
func IdentityFrom(c echo.Context) *auth.Identity {
	identity, _ := c.Get(identityKey).(*auth.Identity)
	return identity
}

// Session resolves the session cookie. With optional set, requests without a
// valid session continue anonymously; otherwise page requests are redirected
// to the login page and API requests get a 401.
func Session(authn Authenticator, optional bool, logger *zap.Logger) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + SessionCookie,
		ContextKey:  identityKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return authn.Authenticate(c.Request().Context(), token)
		},
		ContinueOnIgnoredError: optional,
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, apperrors.ErrStoreUnavailable) {
				logger.Error("session lookup failed", zap.Error(err))
				if optional {
					return nil
				}
				return JSONError(c, apperrors.ErrStoreUnavailable)
			}

			if _, cerr := c.Cookie(SessionCookie); cerr == nil {
				ClearSessionCookie(c)
			}
			if optional {
				return nil
			}
			if WantsPage(c) {
				return c.Redirect(http.StatusFound, loginPath)
			}
			return JSONError(c, apperrors.ErrUnauthenticated)
		},
	})
}

// RequirePrivileged rejects identities that may not manage the roster.
func RequirePrivileged() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := auth.RequirePrivileged(IdentityFrom(c)); err != nil {
				return JSONError(c, err)
			}
			return next(c)
		}
	}
}

// JSONError writes err as the standard error body with its mapped status.
func JSONError(c echo.Context, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// WantsPage reports whether the request is a browser page load rather than an API call.
func WantsPage(c echo.Context) bool {
	req := c.Request()
	if req.Method != http.MethodGet {
		return false
	}
	return !strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
