package handler

import (
	"net/http"

	"sprintdesk/internal/sprintdesk/model"

	"github.com/labstack/echo/v4"
)

// PostLogin handles POST /auth/login
func (h *Handler) PostLogin(c echo.Context) error {
	var req model.LoginReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	resp, err := h.Service.Login(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetUsers(c echo.Context) error {
	var req model.ListUsersReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	page, err := h.Service.ListUsers(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) GetMe(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	user, err := h.Service.GetUser(c.Request().Context(), caller.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) GetUser(c echo.Context) error {
	user, err := h.Service.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) PostUser(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.CreateUserReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	user, err := h.Service.CreateUser(c.Request().Context(), caller, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *Handler) PutUser(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.UpdateUserReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	user, err := h.Service.UpdateUser(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) PutUserPassword(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.ChangePasswordReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := h.Service.ChangePassword(c.Request().Context(), caller, c.Param("id"), req); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Service.DeleteUser(c.Request().Context(), caller, c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetMyTasks handles GET /users/me/tasks
func (h *Handler) GetMyTasks(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	req, err := pageReq(c)
	if err != nil {
		return h.fail(c, err)
	}
	page, err := h.Service.ListMyTasks(c.Request().Context(), caller, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}
