package handler

import (
	"net/http"

	"sprintdesk/internal/sprintdesk/model"

	"github.com/labstack/echo/v4"
)

func (h *Handler) GetNodes(c echo.Context) error {
	req, err := pageReq(c)
	if err != nil {
		return h.fail(c, err)
	}
	page, err := h.Service.ListNodes(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) GetNode(c echo.Context) error {
	node, err := h.Service.GetNode(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, node)
}

func (h *Handler) PostNode(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.NodeReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	node, err := h.Service.CreateNode(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, node)
}

func (h *Handler) PutNode(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.NodeReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	node, err := h.Service.UpdateNode(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, node)
}

func (h *Handler) DeleteNode(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Service.DeleteNode(c.Request().Context(), caller, c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetInfrastructures(c echo.Context) error {
	req, err := pageReq(c)
	if err != nil {
		return h.fail(c, err)
	}
	page, err := h.Service.ListInfrastructures(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) GetInfrastructure(c echo.Context) error {
	infra, err := h.Service.GetInfrastructure(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, infra)
}

func (h *Handler) PostInfrastructure(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.InfrastructureReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	infra, err := h.Service.CreateInfrastructure(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, infra)
}

func (h *Handler) PutInfrastructure(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.InfrastructureReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	infra, err := h.Service.UpdateInfrastructure(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, infra)
}

func (h *Handler) DeleteInfrastructure(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Service.DeleteInfrastructure(c.Request().Context(), caller, c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Deployments hang off nodes; their history is append-only.

func (h *Handler) GetDeployments(c echo.Context) error {
	req, err := pageReq(c)
	if err != nil {
		return h.fail(c, err)
	}
	page, err := h.Service.ListDeployments(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) GetDeployment(c echo.Context) error {
	d, err := h.Service.GetDeployment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) PostDeployment(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.CreateDeploymentReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	d, err := h.Service.CreateDeployment(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) PutDeploymentStatus(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req model.UpdateDeploymentStatusReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	d, err := h.Service.UpdateDeploymentStatus(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetDeployHistory(c echo.Context) error {
	req, err := pageReq(c)
	if err != nil {
		return h.fail(c, err)
	}
	page, err := h.Service.ListDeployHistory(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}
