package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "adminconsole/internal/errors"
	"adminconsole/internal/middleware"
	"adminconsole/internal/model"
	"adminconsole/internal/service"
)

const activityLimit = 50

// UserHandler serves the account roster.
type UserHandler struct {
	directory service.DirectoryService
	logger    *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(directory service.DirectoryService, logger *zap.Logger) *UserHandler {
	return &UserHandler{directory: directory, logger: logger}
}

// UserID accepts an id sent either as a JSON number or as a string, which is
// what browser form serialisation produces.
type UserID uint

func (id *UserID) UnmarshalJSON(b []byte) error {
	return id.UnmarshalParam(strings.Trim(string(b), `"`))
}

// UnmarshalParam implements echo.BindUnmarshaler for form and query binding.
func (id *UserID) UnmarshalParam(s string) error {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return apperrors.Invalid("id must be a positive integer")
	}
	*id = UserID(n)
	return nil
}

var _ json.Unmarshaler = (*UserID)(nil)

// CreateUserRequest represents an account creation request.
type CreateUserRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

// UpdateUserRequest represents an account update request.
type UpdateUserRequest struct {
	ID     UserID `json:"id" form:"id"`
	Name   string `json:"name" form:"name"`
	Email  string `json:"email" form:"email"`
	Role   string `json:"role" form:"role"`
	Status string `json:"status" form:"status"`
}

// DeleteUserRequest represents an account deletion request.
type DeleteUserRequest struct {
	ID UserID `json:"id" form:"id"`
}

// UsersResponse is the JSON form of the roster.
type UsersResponse struct {
	Success bool         `json:"success"`
	Users   []model.User `json:"users"`
}

// ActivityEntry is one audit entry with the actor's name resolved.
type ActivityEntry struct {
	ID        string `json:"id"`
	UserName  string `json:"user_name"`
	Action    string `json:"action"`
	Details   string `json:"details,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ActivityResponse is the JSON form of the recent audit trail.
type ActivityResponse struct {
	Success bool            `json:"success"`
	Entries []ActivityEntry `json:"entries"`
}

// ListUsers godoc
// @Summary List users
// @Description Renders the roster page, or returns JSON when requested.
// @Tags users
// @Produce json
// @Produce html
// @Success 200 {object} UsersResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	users, err := h.directory.List(c.Request().Context(), identity)
	if err != nil {
		return fail(c, h.logger, err)
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, UsersResponse{Success: true, Users: users})
	}
	return c.Render(http.StatusOK, "users", map[string]any{
		"User":  identity,
		"Users": users,
	})
}

// CreateUser godoc
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "Account"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/create [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, h.logger, apperrors.Invalid("invalid request body"))
	}

	_, err := h.directory.CreateAccount(c.Request().Context(), middleware.IdentityFrom(c), service.CreateAccountInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}, c.RealIP())
	if err != nil {
		return fail(c, h.logger, err)
	}
	return ok(c, "User created successfully")
}

// UpdateUser godoc
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdateUserRequest true "Account"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/update [post]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, h.logger, apperrors.Invalid("invalid request body"))
	}

	_, err := h.directory.UpdateAccount(c.Request().Context(), middleware.IdentityFrom(c), service.UpdateAccountInput{
		ID:     uint(req.ID),
		Name:   req.Name,
		Email:  req.Email,
		Role:   req.Role,
		Status: req.Status,
	}, c.RealIP())
	if err != nil {
		return fail(c, h.logger, err)
	}
	return ok(c, "User updated successfully")
}

// DeleteUser godoc
// @Summary Delete user
// @Tags users
// @Accept json
// @Produce json
// @Param request body DeleteUserRequest true "Account id"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/delete [post]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	var req DeleteUserRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, h.logger, apperrors.Invalid("invalid request body"))
	}

	err := h.directory.DeleteAccount(c.Request().Context(), middleware.IdentityFrom(c), uint(req.ID), c.RealIP())
	if err != nil {
		return fail(c, h.logger, err)
	}
	return ok(c, "User deleted successfully")
}

// RecentActivity godoc
// @Summary Recent activity
// @Description The most recent audit entries, newest first.
// @Tags activity
// @Produce json
// @Success 200 {object} ActivityResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /activity [get]
func (h *UserHandler) RecentActivity(c echo.Context) error {
	logs, err := h.directory.RecentActivity(c.Request().Context(), middleware.IdentityFrom(c), activityLimit)
	if err != nil {
		return fail(c, h.logger, err)
	}

	entries := make([]ActivityEntry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, ActivityEntry{
			ID:        l.ID.String(),
			UserName:  l.ActorName(),
			Action:    l.Action,
			Details:   l.Details,
			IPAddress: l.IPAddress,
			CreatedAt: l.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, ActivityResponse{Success: true, Entries: entries})
}
