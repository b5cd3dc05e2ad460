package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Pushparaj13811/plant-project-v/config"
	"github.com/Pushparaj13811/plant-project-v/database"
	"github.com/Pushparaj13811/plant-project-v/entities"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite("file:"+t.Name()+"?mode=memory&cache=shared", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return db
}

func newApp(t *testing.T, db *gorm.DB) *application {
	t.Helper()
	cfg := config.AppConfig{RecomputeWorkers: 2, RecomputePageSize: 10, EnableAdminGuard: true}
	app, err := assemble(cfg, zap.NewNop(), db)
	require.NoError(t, err)
	t.Cleanup(app.runner.Close)
	return app
}

func do(app *application, method, target, body string, admin bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-Role", "admin")
	}
	rec := httptest.NewRecorder()
	app.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestEndToEnd(t *testing.T) {
	db := openDB(t)
	app := newApp(t, db)

	rec := do(app, http.MethodPost, "/api/plants", `{"name":"North"}`, false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(app, http.MethodPost, "/api/plants", `{"name":"North"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	plant := decode[entities.Plant](t, rec)

	rec = do(app, http.MethodPost, "/api/records",
		`{"plant_id":`+jsonUint(plant.ID)+`,"date":"2024-03-01","rate":50,"mv":10,"starch":60}`, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[entities.PlantRecord](t, rec)
	require.NotNil(t, created.Calculated)
	assert.InDelta(t, 90, *created.Calculated.Values["dm"], 1e-9)
	assert.InDelta(t, 42, *created.Calculated.Values["grain"], 1e-9)

	rec = do(app, http.MethodPut, "/api/formula-variables/dm_factor", `{"current_value":95}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	app.runner.Wait()

	rec = do(app, http.MethodGet, "/api/records/"+jsonUint(created.ID), "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[entities.PlantRecord](t, rec)
	require.NotNil(t, got.Calculated)
	assert.InDelta(t, 85, *got.Calculated.Values["dm"], 1e-9)

	rec = do(app, http.MethodPost, "/api/formulas",
		`{"name":"dm_loop","expression":"rate_on_dm + 1","output_column":"dm_loop"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(app, http.MethodPost, "/api/formulas",
		`{"name":"bad","expression":"(rate +","output_column":"bad"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	app.runner.Wait()

	rec = do(app, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(app, http.MethodGet, "/metrics", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "backfill_jobs_total")

	// a second boot restores the catalog from the database, not the seed
	app.runner.Close()
	again := newApp(t, db)
	s := again.eng.Summary()
	assert.Equal(t, 9, s.Formulas)
	v, err := again.eng.Variable("dm_factor")
	require.NoError(t, err)
	assert.Equal(t, 95.0, v.CurrentValue)

	rec = do(again, http.MethodGet, "/api/formulas/dm_loop", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCatalogSeededOnce(t *testing.T) {
	db := openDB(t)
	app := newApp(t, db)
	assert.Equal(t, 8, app.eng.Summary().Formulas)
	assert.Equal(t, 5, app.eng.Summary().Variables)

	var n int64
	require.NoError(t, db.Model(&entities.Formula{}).Count(&n).Error)
	assert.EqualValues(t, 8, n)

	newApp(t, db)
	require.NoError(t, db.Model(&entities.Formula{}).Count(&n).Error)
	assert.EqualValues(t, 8, n)
}

func TestNewLogger(t *testing.T) {
	log, err := newLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.InfoLevel))

	log, err = newLogger("warn", true)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))

	_, err = newLogger("loud", false)
	assert.Error(t, err)
}

func jsonUint(n uint) string {
	b, _ := json.Marshal(n)
	return string(b)
}
