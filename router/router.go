package router

import (
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	columnCtrl "github.com/Pushparaj13811/plant-project-v/pkg/column/controller"
	formulaCtrl "github.com/Pushparaj13811/plant-project-v/pkg/formula/controller"
	healthCtrl "github.com/Pushparaj13811/plant-project-v/pkg/health/controller"
	"github.com/Pushparaj13811/plant-project-v/pkg/middleware"
	plantCtrl "github.com/Pushparaj13811/plant-project-v/pkg/plant/controller"
	recordCtrl "github.com/Pushparaj13811/plant-project-v/pkg/record/controller"
	variableCtrl "github.com/Pushparaj13811/plant-project-v/pkg/variable/controller"
)

type Controllers struct {
	Plant    plantCtrl.PlantController
	Record   recordCtrl.RecordController
	Formula  formulaCtrl.FormulaController
	Variable variableCtrl.VariableController
	Column   columnCtrl.ColumnController
	Health   healthCtrl.HealthController
	Metrics  echo.HandlerFunc
}

func New(e *echo.Echo, log *zap.Logger, adminGuard bool, h Controllers) *echo.Echo {
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.RequestLog(log))
	admin := middleware.RequireAdmin(adminGuard)

	e.GET("/health", h.Health.Health)
	if h.Metrics != nil {
		e.GET("/metrics", h.Metrics)
	}

	api := e.Group("/api")

	api.GET("/plants", h.Plant.List)
	api.POST("/plants", h.Plant.Create, admin)
	api.GET("/plants/:id", h.Plant.Get)
	api.PATCH("/plants/:id", h.Plant.Patch, admin)
	api.DELETE("/plants/:id", h.Plant.Delete, admin)

	// static paths before /records/:id
	api.GET("/records/statistics", h.Record.Statistics)
	api.GET("/records/available_columns", h.Record.AvailableColumns)
	api.GET("/records/export", h.Record.Export)
	api.POST("/records/recompute", h.Record.Recompute, admin)
	api.GET("/records", h.Record.List)
	api.POST("/records", h.Record.Create)
	api.GET("/records/:id", h.Record.Get)
	api.PATCH("/records/:id", h.Record.Patch)
	api.DELETE("/records/:id", h.Record.Delete)

	api.GET("/formulas", h.Formula.List)
	api.GET("/formulas/order", h.Formula.Order)
	api.POST("/formulas", h.Formula.Create, admin)
	api.GET("/formulas/:name", h.Formula.Get)
	api.DELETE("/formulas/:name", h.Formula.Delete, admin)

	vars := api.Group("/formula-variables")
	vars.GET("", h.Variable.List)
	vars.POST("", h.Variable.Create, admin)
	vars.POST("/reset", h.Variable.ResetAll, admin)
	vars.POST("/reset/:name", h.Variable.Reset, admin)
	vars.GET("/:name", h.Variable.Get)
	vars.PUT("/:name", h.Variable.Update, admin)
	vars.DELETE("/:name", h.Variable.Delete, admin)

	api.GET("/columns", h.Column.List)
	api.POST("/columns", h.Column.Create, admin)
	api.DELETE("/columns/:table/:name", h.Column.Delete, admin)

	return e
}
