package handler

import (
	"net/http"

	"sprintdesk/internal/sprintdesk/model"

	"github.com/labstack/echo/v4"
)

func (h *Handler) GetProjects(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	req, err := pageReq(c)
	if err != nil {
		return h.fail(c, err)
	}
	page, err := h.Service.ListProjects(c.Request().Context(), caller, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) GetProject(c echo.Context) error {
	project, err := h.Service.GetProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, project)
}

func (h *Handler) PostProject(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.CreateProjectReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	project, err := h.Service.CreateProject(c.Request().Context(), caller, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, project)
}

func (h *Handler) PutProject(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.UpdateProjectReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	project, err := h.Service.UpdateProject(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, project)
}

func (h *Handler) DeleteProject(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Service.DeleteProject(c.Request().Context(), caller, c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// PutProjectLead handles PUT /projects/:id/lead
func (h *Handler) PutProjectLead(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.MemberReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	project, err := h.Service.SetProjectLead(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, project)
}

func (h *Handler) GetProjectMembers(c echo.Context) error {
	members, err := h.Service.ListProjectMembers(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, members)
}

func (h *Handler) PostProjectMember(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.MemberReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	member, err := h.Service.AddProjectMember(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, member)
}

func (h *Handler) DeleteProjectMember(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Service.RemoveProjectMember(c.Request().Context(), caller, c.Param("id"), c.Param("user_id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetProjectRisks(c echo.Context) error {
	req, err := pageReq(c)
	if err != nil {
		return h.fail(c, err)
	}
	page, err := h.Service.ListProjectRisks(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) PostProjectRisk(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.CreateProjectRiskReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	risk, err := h.Service.AddProjectRisk(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, risk)
}

func (h *Handler) PutProjectRisk(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.UpdateProjectRiskReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	risk, err := h.Service.UpdateProjectRisk(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, risk)
}

func (h *Handler) DeleteProjectRisk(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Service.DeleteProjectRisk(c.Request().Context(), caller, c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
