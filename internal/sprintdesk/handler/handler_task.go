package handler

import (
	"net/http"

	"sprintdesk/internal/sprintdesk/model"

	"github.com/labstack/echo/v4"
)

func (h *Handler) GetTasks(c echo.Context) error {
	req, err := pageReq(c)
	if err != nil {
		return h.fail(c, err)
	}
	page, err := h.Service.ListTasks(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) GetTask(c echo.Context) error {
	task, err := h.Service.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

// PostTask handles POST /sprints/:id/tasks
func (h *Handler) PostTask(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.CreateTaskReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	task, err := h.Service.CreateTask(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, task)
}

func (h *Handler) PutTask(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.UpdateTaskReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	task, err := h.Service.UpdateTask(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Service.DeleteTask(c.Request().Context(), caller, c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) PutTaskStatus(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.UpdateStatusReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	task, err := h.Service.UpdateTaskStatus(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) PutTaskAssignee(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.AssignTaskReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	task, err := h.Service.AssignTask(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) PostTaskExtend(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.ExtendReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	task, err := h.Service.ExtendTask(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, task)
}
