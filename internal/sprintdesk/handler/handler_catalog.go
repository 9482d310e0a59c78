package handler

import (
	"net/http"

	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/service"

	"github.com/labstack/echo/v4"
)

// CatalogEndpoints are the CRUD handlers of one reference-data collection.
type CatalogEndpoints struct {
	List   echo.HandlerFunc
	Get    echo.HandlerFunc
	Create echo.HandlerFunc
	Update echo.HandlerFunc
	Delete echo.HandlerFunc
}

func NewCatalogEndpoints[T any, P interface {
	*T
	model.CatalogEntry
}](h *Handler, catalog *service.Catalog[T, P]) CatalogEndpoints {
	return CatalogEndpoints{
		List: func(c echo.Context) error {
			req, err := pageReq(c)
			if err != nil {
				return h.fail(c, err)
			}
			page, err := catalog.List(c.Request().Context(), req)
			if err != nil {
				return h.fail(c, err)
			}
			return c.JSON(http.StatusOK, page)
		},
		Get: func(c echo.Context) error {
			item, err := catalog.Get(c.Request().Context(), c.Param("id"))
			if err != nil {
				return h.fail(c, err)
			}
			return c.JSON(http.StatusOK, item)
		},
		Create: func(c echo.Context) error {
			caller, err := h.caller(c)
			if err != nil {
				return h.fail(c, err)
			}
			entry := P(new(T))
			if err := c.Bind(entry); err != nil {
				return badBody(c)
			}
			item, err := catalog.Create(c.Request().Context(), caller, entry)
			if err != nil {
				return h.fail(c, err)
			}
			return c.JSON(http.StatusCreated, item)
		},
		Update: func(c echo.Context) error {
			caller, err := h.caller(c)
			if err != nil {
				return h.fail(c, err)
			}
			entry := P(new(T))
			if err := c.Bind(entry); err != nil {
				return badBody(c)
			}
			item, err := catalog.Update(c.Request().Context(), caller, c.Param("id"), entry)
			if err != nil {
				return h.fail(c, err)
			}
			return c.JSON(http.StatusOK, item)
		},
		Delete: func(c echo.Context) error {
			caller, err := h.caller(c)
			if err != nil {
				return h.fail(c, err)
			}
			if err := catalog.Delete(c.Request().Context(), caller, c.Param("id")); err != nil {
				return h.fail(c, err)
			}
			return c.NoContent(http.StatusNoContent)
		},
	}
}
