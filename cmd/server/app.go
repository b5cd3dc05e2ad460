package main

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Pushparaj13811/plant-project-v/config"
	"github.com/Pushparaj13811/plant-project-v/database"
	"github.com/Pushparaj13811/plant-project-v/pkg/backfill"
	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
	"github.com/Pushparaj13811/plant-project-v/pkg/metrics"
	"github.com/Pushparaj13811/plant-project-v/pkg/seed"
	"github.com/Pushparaj13811/plant-project-v/router"

	// Column
	columnCtrlImp "github.com/Pushparaj13811/plant-project-v/pkg/column/controllerImp"
	columnRepoImp "github.com/Pushparaj13811/plant-project-v/pkg/column/repositoryImp"
	columnSvcImp "github.com/Pushparaj13811/plant-project-v/pkg/column/serviceImp"

	// Formula
	formulaCtrlImp "github.com/Pushparaj13811/plant-project-v/pkg/formula/controllerImp"
	formulaRepoImp "github.com/Pushparaj13811/plant-project-v/pkg/formula/repositoryImp"
	formulaSvcImp "github.com/Pushparaj13811/plant-project-v/pkg/formula/serviceImp"

	// Variable
	variableCtrlImp "github.com/Pushparaj13811/plant-project-v/pkg/variable/controllerImp"
	variableRepoImp "github.com/Pushparaj13811/plant-project-v/pkg/variable/repositoryImp"
	variableSvcImp "github.com/Pushparaj13811/plant-project-v/pkg/variable/serviceImp"

	// Plant
	plantCtrlImp "github.com/Pushparaj13811/plant-project-v/pkg/plant/controllerImp"
	plantRepoImp "github.com/Pushparaj13811/plant-project-v/pkg/plant/repositoryImp"
	plantSvcImp "github.com/Pushparaj13811/plant-project-v/pkg/plant/serviceImp"

	// Record
	recordCtrlImp "github.com/Pushparaj13811/plant-project-v/pkg/record/controllerImp"
	recordRepoImp "github.com/Pushparaj13811/plant-project-v/pkg/record/repositoryImp"
	recordSvc "github.com/Pushparaj13811/plant-project-v/pkg/record/service"
	recordSvcImp "github.com/Pushparaj13811/plant-project-v/pkg/record/serviceImp"

	// Health
	healthCtrlImp "github.com/Pushparaj13811/plant-project-v/pkg/health/controllerImp"
)

type application struct {
	cfg     config.AppConfig
	log     *zap.Logger
	db      *gorm.DB
	eng     *engine.Engine
	metrics *metrics.Recorder
	runner  *backfill.Runner
	records recordSvc.RecordService
	echo    *echo.Echo
}

// build opens the database, restores the catalog into a fresh engine and wires the HTTP layer.
// Catalog order matters: columns, then variables, then the formulas that read them.
func build(cfg config.AppConfig, log *zap.Logger) (*application, error) {
	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, err
	}
	app, err := assemble(cfg, log, db)
	if err != nil {
		database.Close(db)
		return nil, err
	}
	return app, nil
}

func assemble(cfg config.AppConfig, log *zap.Logger, db *gorm.DB) (*application, error) {
	rec := metrics.New()
	eng := engine.New(engine.WithLogger(log.Named("engine")), engine.WithObserver(rec))

	defaults, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return nil, err
	}
	if err := defaults.RegisterColumns(eng); err != nil {
		return nil, err
	}

	recordRepo := recordRepoImp.New(db)
	runner := backfill.NewRunner(recordRepo, eng,
		backfill.WithWorkers(cfg.RecomputeWorkers),
		backfill.WithPageSize(cfg.RecomputePageSize),
		backfill.WithLogger(log.Named("backfill")),
		backfill.WithObserver(rec),
	)

	cols := columnSvcImp.NewColumnService(columnRepoImp.New(db), eng, log)
	vars := variableSvcImp.NewVariableService(variableRepoImp.New(db), eng, runner, log)
	formulas := formulaSvcImp.NewFormulaService(formulaRepoImp.New(db), eng, runner, log)
	if err := cols.Load(); err != nil {
		return nil, err
	}
	if err := vars.Load(defaults); err != nil {
		return nil, err
	}
	if err := formulas.Load(defaults); err != nil {
		return nil, err
	}

	records := recordSvcImp.NewRecordService(recordRepo, eng, runner, log)
	plants := plantSvcImp.NewPlantService(plantRepoImp.New(db))

	e := echo.New()
	e.HideBanner = true
	router.New(e, log.Named("http"), cfg.EnableAdminGuard, router.Controllers{
		Plant:    plantCtrlImp.New(plants),
		Record:   recordCtrlImp.New(records),
		Formula:  formulaCtrlImp.New(formulas),
		Variable: variableCtrlImp.New(vars),
		Column:   columnCtrlImp.New(cols),
		Health:   healthCtrlImp.NewHealthCtrl(db, eng, runner),
		Metrics:  rec.Handler(),
	})

	s := eng.Summary()
	log.Info("catalog ready",
		zap.Int("input_columns", s.InputColumns),
		zap.Int("calculated_columns", s.CalculatedColumns),
		zap.Int("variables", s.Variables),
		zap.Int("formulas", s.Formulas))

	return &application{
		cfg: cfg, log: log, db: db, eng: eng, metrics: rec,
		runner: runner, records: records, echo: e,
	}, nil
}

func (a *application) Close() {
	a.runner.Close()
	if err := database.Close(a.db); err != nil {
		a.log.Warn("close database", zap.Error(err))
	}
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if verbose {
		lvl = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zc.Level = lvl
	return zc.Build()
}
