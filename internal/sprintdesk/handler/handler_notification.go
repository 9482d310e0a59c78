package handler

import (
	"net/http"

	"sprintdesk/internal/sprintdesk/model"

	"github.com/labstack/echo/v4"
)

func (h *Handler) GetNotifications(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.ListNotificationsReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	page, err := h.Service.ListNotifications(c.Request().Context(), caller, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) GetUnreadCount(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	count, err := h.Service.UnreadCount(c.Request().Context(), caller)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, count)
}

func (h *Handler) PutNotificationRead(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Service.MarkNotificationRead(c.Request().Context(), caller, c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) PutNotificationsReadAll(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	n, err := h.Service.MarkAllNotificationsRead(c.Request().Context(), caller)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"updated": n})
}

func (h *Handler) DeleteNotification(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Service.DeleteNotification(c.Request().Context(), caller, c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
