package controller

import "github.com/labstack/echo/v4"

type RecordController interface {
	List(c echo.Context) error
	Create(c echo.Context) error
	Get(c echo.Context) error
	Patch(c echo.Context) error
	Delete(c echo.Context) error
	Statistics(c echo.Context) error
	AvailableColumns(c echo.Context) error
	Export(c echo.Context) error
	Recompute(c echo.Context) error
}
