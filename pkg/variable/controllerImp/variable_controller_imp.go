package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Pushparaj13811/plant-project-v/pkg/httpx"
	"github.com/Pushparaj13811/plant-project-v/pkg/variable/controller"
	"github.com/Pushparaj13811/plant-project-v/pkg/variable/service"
)

type VariableCtrl struct{ s service.VariableService }

func New(s service.VariableService) controller.VariableController { return &VariableCtrl{s} }

func (h *VariableCtrl) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.s.List())
}

func (h *VariableCtrl) Create(c echo.Context) error {
	var in service.VariableInput
	if err := c.Bind(&in); err != nil {
		return httpx.BadRequest(c, "bad json")
	}
	v, err := h.s.Create(in)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *VariableCtrl) Get(c echo.Context) error {
	v, err := h.s.Get(c.Param("name"))
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *VariableCtrl) Update(c echo.Context) error {
	var p service.VariablePatch
	if err := c.Bind(&p); err != nil {
		return httpx.BadRequest(c, "bad json")
	}
	v, err := h.s.Update(c.Param("name"), p)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *VariableCtrl) Delete(c echo.Context) error {
	if err := h.s.Delete(c.Param("name")); err != nil {
		return httpx.Error(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *VariableCtrl) Reset(c echo.Context) error {
	v, err := h.s.Reset(c.Param("name"))
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *VariableCtrl) ResetAll(c echo.Context) error {
	vs, err := h.s.ResetAll()
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, vs)
}
