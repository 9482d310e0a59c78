package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/repository"

	"github.com/labstack/echo/v4"
)

// ContextKeyCaller is where the authenticated caller is stored on echo.Context
const ContextKeyCaller = "caller"

// ErrInactiveUser rejects tokens whose account was disabled or deleted after issue.
var ErrInactiveUser = errors.New("account is disabled or no longer exists")

// UserLookup loads the stored account behind a token subject.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Authenticate verifies raw and returns the caller with the role currently stored
// for the account, so disabling or demoting a user takes effect immediately.
func Authenticate(ctx context.Context, tokens *TokenManager, users UserLookup, raw string) (model.Caller, error) {
	claimed, err := tokens.Parse(raw)
	if err != nil {
		return model.Caller{}, err
	}
	user, err := users.FindByID(ctx, claimed.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Caller{}, ErrInactiveUser
		}
		return model.Caller{}, err
	}
	if !user.Active {
		return model.Caller{}, ErrInactiveUser
	}
	return model.Caller{ID: user.ID, Role: user.Role}, nil
}

// Middleware requires a valid bearer token for an active account and stores the caller on the context.
func Middleware(tokens *TokenManager, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" {
				return unauthorized(c, "bearer token is required")
			}

			caller, err := Authenticate(c.Request().Context(), tokens, users, raw)
			switch {
			case errors.Is(err, ErrInvalidToken):
				return unauthorized(c, "invalid or expired token")
			case errors.Is(err, ErrInactiveUser):
				return unauthorized(c, "account is disabled")
			case err != nil:
				return c.JSON(http.StatusInternalServerError, model.ErrorResponse{
					Error: model.ErrorDetail{Code: "internal_error", Message: "failed to load account"},
				})
			}

			c.Set(ContextKeyCaller, caller)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, model.ErrorResponse{
		Error: model.ErrorDetail{Code: "unauthorized", Message: msg},
	})
}

// CallerFrom returns the caller stored by Middleware.
func CallerFrom(c echo.Context) (model.Caller, bool) {
	caller, ok := c.Get(ContextKeyCaller).(model.Caller)
	if !ok || caller.ID == "" {
		return model.Caller{}, false
	}
	return caller, true
}

// BearerToken extracts the token from an Authorization header, or "".
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
