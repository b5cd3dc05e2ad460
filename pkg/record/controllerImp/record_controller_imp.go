package controllerImp

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Pushparaj13811/plant-project-v/pkg/httpx"
	"github.com/Pushparaj13811/plant-project-v/pkg/record/controller"
	"github.com/Pushparaj13811/plant-project-v/pkg/record/repository"
	"github.com/Pushparaj13811/plant-project-v/pkg/record/service"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type RecordCtrl struct{ s service.RecordService }

func New(s service.RecordService) controller.RecordController { return &RecordCtrl{s} }

// filter reads plant_id, start_date and end_date.
func filter(c echo.Context) (repository.Filter, error) {
	var f repository.Filter
	if v := c.QueryParam("plant_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return f, errors.New("invalid plant_id")
		}
		id := uint(n)
		f.PlantID = &id
	}
	for _, p := range []struct {
		key string
		dst **time.Time
	}{{"start_date", &f.From}, {"end_date", &f.To}} {
		if v := c.QueryParam(p.key); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				return f, errors.New("invalid " + p.key)
			}
			*p.dst = &t
		}
	}
	return f, nil
}

type page struct {
	Results  any   `json:"results"`
	Count    int64 `json:"count"`
	Next     bool  `json:"next"`
	Previous bool  `json:"previous"`
}

// List pages with page/per_page (headers plus a wrapped body) or skip/limit (plain array).
func (h *RecordCtrl) List(c echo.Context) error {
	f, err := filter(c)
	if err != nil {
		return httpx.BadRequest(c, err.Error())
	}
	pageN, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	paged := pageN > 0 && perPage > 0
	if paged {
		f.Offset, f.Limit = (pageN-1)*perPage, perPage
	} else {
		f.Offset, _ = strconv.Atoi(c.QueryParam("skip"))
		f.Limit = 100
		if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
			f.Limit = v
		}
	}

	list, total, err := h.s.List(c.Request().Context(), f)
	if err != nil {
		return httpx.Error(c, err)
	}
	if !paged {
		return c.JSON(http.StatusOK, list)
	}
	next := int64(pageN*perPage) < total
	prev := pageN > 1
	hdr := c.Response().Header()
	hdr.Set("X-Total-Count", strconv.FormatInt(total, 10))
	hdr.Set("X-Page", strconv.Itoa(pageN))
	hdr.Set("X-Per-Page", strconv.Itoa(perPage))
	hdr.Set("X-Next", strconv.FormatBool(next))
	hdr.Set("X-Previous", strconv.FormatBool(prev))
	return c.JSON(http.StatusOK, page{Results: list, Count: total, Next: next, Previous: prev})
}

func (h *RecordCtrl) Create(c echo.Context) error {
	var in service.RecordInput
	if err := c.Bind(&in); err != nil {
		return httpx.BadRequest(c, "bad json")
	}
	rec, err := h.s.Create(c.Request().Context(), in)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *RecordCtrl) Get(c echo.Context) error {
	id, err := httpx.ParseID(c, "id")
	if err != nil {
		return httpx.BadRequest(c, err.Error())
	}
	rec, err := h.s.Get(c.Request().Context(), id)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *RecordCtrl) Patch(c echo.Context) error {
	id, err := httpx.ParseID(c, "id")
	if err != nil {
		return httpx.BadRequest(c, err.Error())
	}
	var p service.RecordPatch
	if err := c.Bind(&p); err != nil {
		return httpx.BadRequest(c, "bad json")
	}
	rec, err := h.s.Update(c.Request().Context(), id, p)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *RecordCtrl) Delete(c echo.Context) error {
	id, err := httpx.ParseID(c, "id")
	if err != nil {
		return httpx.BadRequest(c, err.Error())
	}
	rec, err := h.s.Delete(c.Request().Context(), id)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *RecordCtrl) Statistics(c echo.Context) error {
	f, err := filter(c)
	if err != nil {
		return httpx.BadRequest(c, err.Error())
	}
	st, err := h.s.Statistics(c.Request().Context(), f)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *RecordCtrl) AvailableColumns(c echo.Context) error {
	return c.JSON(http.StatusOK, h.s.AvailableColumns())
}

func (h *RecordCtrl) Export(c echo.Context) error {
	f, err := filter(c)
	if err != nil {
		return httpx.BadRequest(c, err.Error())
	}
	var buf bytes.Buffer
	if err := h.s.Export(c.Request().Context(), f, &buf); err != nil {
		return httpx.Error(c, err)
	}
	name := "plant_records_" + time.Now().Format("20060102") + ".xlsx"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}

func (h *RecordCtrl) Recompute(c echo.Context) error {
	rep, err := h.s.Recompute(c.Request().Context())
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}
