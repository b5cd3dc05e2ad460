package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Pushparaj13811/plant-project-v/pkg/formula/controller"
	"github.com/Pushparaj13811/plant-project-v/pkg/formula/service"
	"github.com/Pushparaj13811/plant-project-v/pkg/httpx"
)

type FormulaCtrl struct{ s service.FormulaService }

func New(s service.FormulaService) controller.FormulaController { return &FormulaCtrl{s} }

func (h *FormulaCtrl) List(c echo.Context) error {
	list, err := h.s.List(c.QueryParam("table"))
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *FormulaCtrl) Create(c echo.Context) error {
	var in service.FormulaInput
	if err := c.Bind(&in); err != nil {
		return httpx.BadRequest(c, "bad json")
	}
	f, err := h.s.Create(in)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *FormulaCtrl) Get(c echo.Context) error {
	f, err := h.s.Get(c.Param("name"))
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *FormulaCtrl) Delete(c echo.Context) error {
	if err := h.s.Delete(c.Param("name")); err != nil {
		return httpx.Error(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *FormulaCtrl) Order(c echo.Context) error {
	list, err := h.s.Order(c.QueryParam("table"))
	if err != nil {
		return httpx.Error(c, err)
	}
	names := make([]string, len(list))
	for i, f := range list {
		names[i] = f.Name
	}
	return c.JSON(http.StatusOK, echo.Map{"order": names, "formulas": list})
}
