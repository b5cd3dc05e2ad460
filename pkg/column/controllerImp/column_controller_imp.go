package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Pushparaj13811/plant-project-v/pkg/column/controller"
	"github.com/Pushparaj13811/plant-project-v/pkg/column/service"
	"github.com/Pushparaj13811/plant-project-v/pkg/httpx"
)

type ColumnCtrl struct{ s service.ColumnService }

func New(s service.ColumnService) controller.ColumnController { return &ColumnCtrl{s} }

func (h *ColumnCtrl) List(c echo.Context) error {
	cols, err := h.s.List(c.QueryParam("table"))
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, cols)
}

func (h *ColumnCtrl) Create(c echo.Context) error {
	var in service.ColumnInput
	if err := c.Bind(&in); err != nil {
		return httpx.BadRequest(c, "bad json")
	}
	col, err := h.s.Create(in)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusCreated, col)
}

func (h *ColumnCtrl) Delete(c echo.Context) error {
	if err := h.s.Delete(c.Param("table"), c.Param("name")); err != nil {
		return httpx.Error(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
