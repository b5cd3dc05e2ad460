package controllerImp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Pushparaj13811/plant-project-v/pkg/backfill"
	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
	"github.com/Pushparaj13811/plant-project-v/pkg/health/controller"
)

var appStart = time.Now()

// Summarizer reports the engine catalog.
type Summarizer interface {
	Summary() engine.Summary
}

// LastReporter returns the most recent background backfill.
type LastReporter interface {
	Last() (backfill.Report, bool)
}

type HealthCtrl struct {
	db     *gorm.DB
	eng    Summarizer
	runner LastReporter
}

func NewHealthCtrl(db *gorm.DB, eng Summarizer, runner LastReporter) controller.HealthController {
	return &HealthCtrl{db: db, eng: eng, runner: runner}
}

func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()

	dbOK := true
	dbErr := ""
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil {
			dbOK = false
			dbErr = "db.DB(): " + err.Error()
		} else if err := sqlDB.PingContext(ctx); err != nil {
			dbOK = false
			dbErr = "ping: " + err.Error()
		}
	} else {
		dbOK = false
		dbErr = "gorm db is nil"
	}

	type sub struct {
		OK  bool   `json:"ok"`
		Err string `json:"err,omitempty"`
	}

	// a cycle in the stored formulas stops every recompute
	summary := h.eng.Summary()
	engOK := summary.OrderError == ""

	allOK := dbOK && engOK
	status := http.StatusOK
	if !allOK {
		status = http.StatusServiceUnavailable
	}

	resp := map[string]any{
		"status":     map[string]any{"ok": allOK},
		"uptime_sec": int(time.Since(appStart).Seconds()),
		"checks": map[string]any{
			"database": sub{OK: dbOK, Err: dbErr},
			"engine":   sub{OK: engOK, Err: summary.OrderError},
		},
		"engine": summary,
		"time":   time.Now().Format(time.RFC3339),
	}
	if h.runner != nil {
		if rep, ok := h.runner.Last(); ok {
			rep.Failures = nil
			resp["last_backfill"] = rep
		}
	}

	return c.JSON(status, resp)
}
