package controllerImp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Pushparaj13811/plant-project-v/entities"
	"github.com/Pushparaj13811/plant-project-v/pkg/httpx"
	"github.com/Pushparaj13811/plant-project-v/pkg/plant/controller"
	"github.com/Pushparaj13811/plant-project-v/pkg/plant/service"
)

type PlantCtrl struct{ s service.PlantService }

func New(s service.PlantService) controller.PlantController { return &PlantCtrl{s} }

type createReq struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

func (h *PlantCtrl) List(c echo.Context) error {
	var isActive *bool
	if v := c.QueryParam("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return httpx.BadRequest(c, "invalid is_active")
		}
		isActive = &b
	}
	skip, _ := strconv.Atoi(c.QueryParam("skip"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	list, err := h.s.List(isActive, skip, limit)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *PlantCtrl) Create(c echo.Context) error {
	var req createReq
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c, "bad json")
	}
	p, err := h.s.Create(&entities.Plant{Name: req.Name, Address: req.Address, Description: req.Description})
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PlantCtrl) Get(c echo.Context) error {
	id, err := httpx.ParseID(c, "id")
	if err != nil {
		return httpx.BadRequest(c, err.Error())
	}
	p, err := h.s.Get(id)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PlantCtrl) Patch(c echo.Context) error {
	id, err := httpx.ParseID(c, "id")
	if err != nil {
		return httpx.BadRequest(c, err.Error())
	}
	var patch service.PlantPatch
	if err := c.Bind(&patch); err != nil {
		return httpx.BadRequest(c, "bad json")
	}
	p, err := h.s.Update(id, patch)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PlantCtrl) Delete(c echo.Context) error {
	id, err := httpx.ParseID(c, "id")
	if err != nil {
		return httpx.BadRequest(c, err.Error())
	}
	p, err := h.s.Deactivate(id)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
