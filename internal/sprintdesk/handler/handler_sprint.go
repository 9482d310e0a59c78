package handler

import (
	"net/http"

	"sprintdesk/internal/sprintdesk/model"

	"github.com/labstack/echo/v4"
)

func (h *Handler) GetSprints(c echo.Context) error {
	req, err := pageReq(c)
	if err != nil {
		return h.fail(c, err)
	}
	page, err := h.Service.ListSprints(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) GetSprint(c echo.Context) error {
	sprint, err := h.Service.GetSprint(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, sprint)
}

// PostSprint handles POST /projects/:id/sprints
func (h *Handler) PostSprint(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.CreateSprintReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	sprint, err := h.Service.CreateSprint(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, sprint)
}

func (h *Handler) PutSprint(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.UpdateSprintReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	sprint, err := h.Service.UpdateSprint(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, sprint)
}

func (h *Handler) DeleteSprint(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Service.DeleteSprint(c.Request().Context(), caller, c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) PutSprintStatus(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.UpdateStatusReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	sprint, err := h.Service.UpdateSprintStatus(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, sprint)
}

func (h *Handler) PostSprintExtend(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.ExtendReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	sprint, err := h.Service.ExtendSprint(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, sprint)
}

func (h *Handler) GetSprintMembers(c echo.Context) error {
	members, err := h.Service.ListSprintMembers(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, members)
}

func (h *Handler) PostSprintMember(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.MemberReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	member, err := h.Service.AddSprintMember(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, member)
}

func (h *Handler) DeleteSprintMember(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Service.RemoveSprintMember(c.Request().Context(), caller, c.Param("id"), c.Param("user_id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) PutSprintLead(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.MemberReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	sprint, err := h.Service.SetSprintLead(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, sprint)
}
