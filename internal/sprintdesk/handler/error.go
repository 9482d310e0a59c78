package handler

import (
	"errors"
	"net/http"

	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/repository"
	"sprintdesk/internal/sprintdesk/service"

	"github.com/labstack/echo/v4"
)

// Helper to map errors to HTTP status and body
func httpError(err error) (int, model.ErrorResponse) {
	var detail *model.ErrorDetail
	if errors.As(err, &detail) {
		return http.StatusBadRequest, model.ErrorResponse{Error: *detail}
	}

	var status int
	var code, msg string

	switch {
	case errors.Is(err, service.ErrForbidden):
		status, code, msg = http.StatusForbidden, "forbidden", "Permission denied"
	case errors.Is(err, service.ErrUnauthorized):
		status, code, msg = http.StatusUnauthorized, "unauthorized", "Unauthorized"
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		status, code, msg = http.StatusNotFound, "not_found", "Resource not found"
	case errors.Is(err, service.ErrConflict), errors.Is(err, repository.ErrDuplicate):
		status, code, msg = http.StatusConflict, "conflict", "Resource already exists"
	case errors.Is(err, service.ErrBadRequest):
		status, code, msg = http.StatusBadRequest, "bad_request", "Invalid input"
	case errors.Is(err, repository.ErrTransactionsUnsupported):
		status, code, msg = http.StatusServiceUnavailable, "transactions_unsupported",
			"Lead changes need MongoDB running as a replica set"
	default:
		return http.StatusInternalServerError, model.ErrorResponse{
			Error: model.ErrorDetail{Code: "internal_error", Message: "Internal server error"},
		}
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		msg = svcErr.Message
	}
	return status, model.ErrorResponse{Error: model.ErrorDetail{Code: code, Message: msg}}
}

// fail writes the error envelope, tagged with the request id.
func (h *Handler) fail(c echo.Context, err error) error {
	status, body := httpError(err)
	body.Error.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)
	if status >= http.StatusInternalServerError {
		h.Logger.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "route", c.Path(), "request_id", body.Error.RequestID, "error", err)
	}
	return c.JSON(status, body)
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:      "bad_request",
			Message:   "Invalid body",
			RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
		},
	})
}
