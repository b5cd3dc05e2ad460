package controllerImp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Pushparaj13811/plant-project-v/database"
	"github.com/Pushparaj13811/plant-project-v/pkg/backfill"
	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
)

type stubSummary engine.Summary

func (s stubSummary) Summary() engine.Summary { return engine.Summary(s) }

type stubRunner struct{ rep *backfill.Report }

func (s stubRunner) Last() (backfill.Report, bool) {
	if s.rep == nil {
		return backfill.Report{}, false
	}
	return *s.rep, true
}

func get(t *testing.T, h interface{ Health(echo.Context) error }) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	require.NoError(t, h.Health(c))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthOK(t *testing.T) {
	db, err := database.OpenSQLite("file:"+t.Name()+"?mode=memory&cache=shared", zap.NewNop())
	require.NoError(t, err)
	defer database.Close(db)

	rep := &backfill.Report{JobID: "j1", Succeeded: 3, Failures: []backfill.Failure{{RecordID: 1, Error: "x"}}}
	code, body := get(t, NewHealthCtrl(db, stubSummary{Formulas: 8, Variables: 5}, stubRunner{rep}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 8.0, body["engine"].(map[string]any)["formulas"])
	last := body["last_backfill"].(map[string]any)
	assert.Equal(t, "j1", last["job_id"])
	assert.NotContains(t, last, "failures")
}

func TestHealthDegraded(t *testing.T) {
	code, body := get(t, NewHealthCtrl(nil, stubSummary{OrderError: "dependency cycle: a -> a"}, stubRunner{}))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, false, checks["database"].(map[string]any)["ok"])
	assert.Equal(t, "dependency cycle: a -> a", checks["engine"].(map[string]any)["err"])
	assert.NotContains(t, body, "last_backfill")
}
