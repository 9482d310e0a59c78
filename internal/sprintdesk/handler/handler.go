package handler

import (
	"context"
	"log/slog"
	"net/http"

	"sprintdesk/internal/sprintdesk/auth"
	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/notify"
	"sprintdesk/internal/sprintdesk/scheduler"
	"sprintdesk/internal/sprintdesk/service"

	"github.com/labstack/echo/v4"
)

// Sweeper runs the status sweep on demand.
type Sweeper interface {
	RunOnce(ctx context.Context) (scheduler.Result, error)
}

type Handler struct {
	Service *service.Service
	Sweeper Sweeper
	Hub     *notify.Hub
	Tokens  *auth.TokenManager
	Logger  *slog.Logger
}

func NewHandler(svc *service.Service, sweeper Sweeper, hub *notify.Hub, tokens *auth.TokenManager, logger *slog.Logger) *Handler {
	return &Handler{Service: svc, Sweeper: sweeper, Hub: hub, Tokens: tokens, Logger: logger}
}

func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// caller returns the authenticated caller set by auth.Middleware.
func (h *Handler) caller(c echo.Context) (model.Caller, error) {
	caller, ok := auth.CallerFrom(c)
	if !ok {
		return model.Caller{}, service.ErrUnauthorized
	}
	return caller, nil
}

// pageReq binds and normalizes ?page=&size=.
func pageReq(c echo.Context) (model.PageReq, error) {
	var req model.PageReq
	if err := echo.QueryParamsBinder(c).
		Int("page", &req.Page).
		Int("size", &req.Size).
		BindError(); err != nil {
		return req, &model.ErrorDetail{Code: "bad_request", Message: "Invalid pagination parameters"}
	}
	if err := model.GetValidator().Struct(req); err != nil {
		return req, model.FormatValidationError(err)
	}
	req.Normalize()
	return req, nil
}

// PostSweep handles POST /admin/sweep
func (h *Handler) PostSweep(c echo.Context) error {
	res, err := h.Sweeper.RunOnce(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
