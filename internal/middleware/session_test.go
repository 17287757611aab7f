package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"adminconsole/internal/auth"
	apperrors "adminconsole/internal/errors"
	"adminconsole/internal/model"
)

type stubAuthenticator map[string]*auth.Identity

var errStoreDown = apperrors.Unavailable(errors.New("redis: connection refused"))

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*auth.Identity, error) {
	if token == "down" {
		return nil, errStoreDown
	}
	identity, ok := s[token]
	if !ok {
		return nil, auth.ErrSessionMissing
	}
	return identity, nil
}

var stub = stubAuthenticator{
	"admin-token": {UserID: 1, UserName: "A", Role: model.RoleAdmin},
	"user-token":  {UserID: 2, UserName: "U", Role: model.RoleUser},
}

func newTestServer(optional bool, extra ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	mws := append([]echo.MiddlewareFunc{Session(stub, optional, zap.NewNop())}, extra...)
	handler := func(c echo.Context) error {
		identity := IdentityFrom(c)
		if identity == nil {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.String(http.StatusOK, identity.UserName)
	}
	e.GET("/page", handler, mws...)
	e.POST("/api", handler, mws...)
	return e
}

func doRequest(e *echo.Echo, method, path, token string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSession_Required(t *testing.T) {
	e := newTestServer(false)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		headers    map[string]string
		wantStatus int
		wantBody   string
		wantCode   string
		wantLoc    string
	}{
		{name: "valid session", method: http.MethodGet, path: "/page", token: "admin-token", wantStatus: http.StatusOK, wantBody: "A"},
		{name: "page without cookie redirects", method: http.MethodGet, path: "/page", wantStatus: http.StatusFound, wantLoc: "/login"},
		{name: "page with bad cookie redirects", method: http.MethodGet, path: "/page", token: "forged", wantStatus: http.StatusFound, wantLoc: "/login"},
		{name: "json get without cookie", method: http.MethodGet, path: "/page", headers: map[string]string{echo.HeaderAccept: echo.MIMEApplicationJSON}, wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHENTICATED"},
		{name: "post without cookie", method: http.MethodPost, path: "/api", wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHENTICATED"},
		{name: "store down", method: http.MethodPost, path: "/api", token: "down", wantStatus: http.StatusServiceUnavailable, wantCode: "STORE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(e, tt.method, tt.path, tt.token, tt.headers)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantLoc != "" {
				assert.Equal(t, tt.wantLoc, rec.Header().Get(echo.HeaderLocation))
			}
			if tt.wantCode != "" {
				body := decodeError(t, rec)
				assert.False(t, body.Success)
				assert.Equal(t, tt.wantCode, body.Code)
			}
		})
	}
}

func TestSession_StoreErrorDoesNotLeakCause(t *testing.T) {
	e := newTestServer(false)

	rec := doRequest(e, http.MethodPost, "/api", "down", nil)

	assert.NotContains(t, rec.Body.String(), "redis")
}

func TestSession_InvalidCookieIsCleared(t *testing.T) {
	e := newTestServer(false)

	rec := doRequest(e, http.MethodGet, "/page", "forged", nil)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestSession_Optional(t *testing.T) {
	e := newTestServer(true)

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"no cookie", "", "anonymous"},
		{"bad cookie", "forged", "anonymous"},
		{"store down", "down", "anonymous"},
		{"valid", "user-token", "U"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(e, http.MethodGet, "/page", tt.token, nil)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestRequirePrivileged(t *testing.T) {
	e := newTestServer(false, RequirePrivileged())

	rec := doRequest(e, http.MethodPost, "/api", "admin-token", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(e, http.MethodPost, "/api", "user-token", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Access denied", body.Message)
	assert.Equal(t, "FORBIDDEN", body.Code)
}

func TestLevelForStatus(t *testing.T) {
	assert.Equal(t, "info", levelForStatus(http.StatusOK).String())
	assert.Equal(t, "info", levelForStatus(http.StatusFound).String())
	assert.Equal(t, "warn", levelForStatus(http.StatusForbidden).String())
	assert.Equal(t, "error", levelForStatus(http.StatusServiceUnavailable).String())
}
