package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"sprintdesk/internal/sprintdesk/auth"
	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/policy"
	"sprintdesk/internal/sprintdesk/repository"

	"github.com/labstack/echo/v4"
)

// RBACMiddleware handles permission checking based on JSON configuration
type RBACMiddleware struct {
	policyEngine *policy.Engine
	repo         repository.AccessRepository
	apiConfigs   map[string]*policy.APIConfig // key: "METHOD:PATH"
	logger       *slog.Logger
}

// NewRBACMiddleware creates a new RBAC middleware instance
func NewRBACMiddleware(engine *policy.Engine, repo repository.AccessRepository, logger *slog.Logger) *RBACMiddleware {
	return &RBACMiddleware{
		policyEngine: engine,
		repo:         repo,
		apiConfigs:   engine.APIConfigs(),
		logger:       logger,
	}
}

// Middleware returns the Echo middleware function. It must run after auth.Middleware.
func (m *RBACMiddleware) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Method + ":" + c.Path()

			config, exists := m.apiConfigs[key]
			if !exists {
				if isCatchAll(c) {
					return next(c)
				}
				m.logger.Warn("route has no access policy, denying", "route", key)
				return deny(c, http.StatusForbidden, "forbidden", "No access policy for this route")
			}
			if config.Policy.CheckScope == policy.CheckScopeNone {
				return next(c)
			}

			caller, ok := auth.CallerFrom(c)
			if !ok {
				return deny(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
			}

			// Parse request body only when the resource id lives there (read and restore)
			var bodyData map[string]interface{}
			if strings.HasPrefix(config.Resource, "body.") {
				bodyBytes, err := io.ReadAll(c.Request().Body)
				if err == nil && len(bodyBytes) > 0 {
					_ = json.Unmarshal(bodyBytes, &bodyData)
					c.Request().Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
				}
			}

			opReq := policy.OperationRequest{
				Caller:     caller,
				Entity:     config.Entity,
				Operation:  config.Operation,
				ResourceID: extractValue(c, config.Resource, bodyData),
			}

			allowed, err := m.policyEngine.CheckOperationPermission(c.Request().Context(), m.repo, opReq)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return deny(c, http.StatusNotFound, "not_found", "Resource not found")
				}
				m.logger.Error("permission check failed", "route", key, "caller_id", caller.ID, "error", err)
				return deny(c, http.StatusInternalServerError, "internal_error", "Permission check failed")
			}

			if !allowed {
				return deny(c, http.StatusForbidden, "forbidden", "You do not have permission to perform this action")
			}

			return next(c)
		}
	}
}

func deny(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:      code,
			Message:   msg,
			RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
		},
	})
}

// extractValue reads a request value named by a source
// e.g., "body.project_id", "query.sprint_id", "path.id", "header.x-project"
func extractValue(c echo.Context, source string, bodyData map[string]interface{}) string {
	parts := strings.SplitN(source, ".", 2)
	if len(parts) != 2 {
		return ""
	}

	sourceType := parts[0]
	field := parts[1]

	switch sourceType {
	case "body":
		if bodyData != nil {
			if v, ok := bodyData[field]; ok {
				if str, ok := v.(string); ok {
					return strings.TrimSpace(str)
				}
			}
		}
	case "query":
		return c.QueryParam(field)
	case "path":
		return c.Param(field)
	case "header":
		return c.Request().Header.Get(field)
	}

	return ""
}

// isCatchAll reports whether the request matched one of the 404 routes
// echo registers for a group with middleware.
func isCatchAll(c echo.Context) bool {
	for _, r := range c.Echo().Routes() {
		if r.Method == echo.RouteNotFound && r.Path == c.Path() {
			return true
		}
	}
	return false
}
