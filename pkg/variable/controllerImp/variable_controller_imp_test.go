package controllerImp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Pushparaj13811/plant-project-v/database"
	"github.com/Pushparaj13811/plant-project-v/entities"
	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
	"github.com/Pushparaj13811/plant-project-v/pkg/seed"
	"github.com/Pushparaj13811/plant-project-v/pkg/variable/controller"
	"github.com/Pushparaj13811/plant-project-v/pkg/variable/repositoryImp"
	"github.com/Pushparaj13811/plant-project-v/pkg/variable/serviceImp"
)

type recordingScheduler struct {
	mu      sync.Mutex
	reasons []string
}

func (s *recordingScheduler) Trigger(_ engine.Table, reason string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reasons = append(s.reasons, reason)
	return "job"
}

type fixture struct {
	e     *echo.Echo
	h     controller.VariableController
	db    *gorm.DB
	eng   *engine.Engine
	sched *recordingScheduler
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite("file:"+t.Name()+"?mode=memory&cache=shared", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	f, err := seed.Load("")
	require.NoError(t, err)
	eng := engine.New()
	require.NoError(t, f.RegisterColumns(eng))
	sched := &recordingScheduler{}
	svc := serviceImp.NewVariableService(repositoryImp.New(db), eng, sched, zap.NewNop())
	require.NoError(t, svc.Load(f))
	_, err = eng.CreateFormula(engine.FormulaSpec{Name: "dm", Expression: "dm_factor - mv", OutputColumn: "dm"}, nil)
	require.NoError(t, err)
	return &fixture{e: echo.New(), h: New(svc), db: db, eng: eng, sched: sched}
}

func (fx *fixture) call(h echo.HandlerFunc, method, target, body string, params ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := fx.e.NewContext(req, rec)
	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}
	_ = h(c)
	return rec
}

func (fx *fixture) row(t *testing.T, name string) entities.FormulaVariable {
	var v entities.FormulaVariable
	require.NoError(t, fx.db.Where("name = ?", name).First(&v).Error)
	return v
}

func TestSetAndResetPersist(t *testing.T) {
	fx := setup(t)

	rec := fx.call(fx.h.Update, http.MethodPut, "/api/formula-variables/dm_factor", `{"current_value":95}`, "name", "dm_factor")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var v engine.Variable
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, 95.0, v.CurrentValue)
	assert.Equal(t, 100.0, v.DefaultValue)
	assert.Equal(t, 95.0, fx.row(t, "dm_factor").CurrentValue)

	mv := 10.0
	calc, err := fx.eng.Recompute(t.Context(), engine.InputRecord{ID: 1, Numbers: map[string]*float64{"mv": &mv}}, engine.TableInput)
	require.NoError(t, err)
	assert.Equal(t, 85.0, calc.Values["dm"])

	rec = fx.call(fx.h.Reset, http.MethodPost, "/api/formula-variables/reset/dm_factor", "", "name", "dm_factor")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100.0, fx.row(t, "dm_factor").CurrentValue)

	assert.Equal(t, []string{"variable dm_factor", "variable dm_factor reset"}, fx.sched.reasons)
}

func TestUpdateMetadata(t *testing.T) {
	fx := setup(t)
	rec := fx.call(fx.h.Update, http.MethodPut, "/api/formula-variables/grain_factor",
		`{"display_name":"Grain share","default_value":0.75}`, "name", "grain_factor")
	require.Equal(t, http.StatusOK, rec.Code)
	row := fx.row(t, "grain_factor")
	assert.Equal(t, "Grain share", row.DisplayName)
	assert.Equal(t, 0.75, row.DefaultValue)
	assert.Equal(t, 0.70, row.CurrentValue)
	assert.Empty(t, fx.sched.reasons, "metadata changes do not move values")
}

func TestResetAll(t *testing.T) {
	fx := setup(t)
	for _, name := range []string{"dm_factor", "net_factor"} {
		require.Equal(t, http.StatusOK, fx.call(fx.h.Update, http.MethodPut, "/", `{"current_value":1}`, "name", name).Code)
	}
	rec := fx.call(fx.h.ResetAll, http.MethodPost, "/api/formula-variables/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var vs []engine.Variable
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vs))
	require.Len(t, vs, 5)
	for _, v := range vs {
		assert.Equal(t, v.DefaultValue, v.CurrentValue, v.Name)
		assert.Equal(t, v.DefaultValue, fx.row(t, v.Name).CurrentValue, v.Name)
	}
}

func TestCreateAndDelete(t *testing.T) {
	fx := setup(t)

	rec := fx.call(fx.h.Create, http.MethodPost, "/api/formula-variables", `{"name":"ash_factor","default_value":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 2.0, fx.row(t, "ash_factor").CurrentValue)

	assert.Equal(t, http.StatusConflict, fx.call(fx.h.Create, http.MethodPost, "/", `{"name":"ash_factor"}`).Code)
	assert.Equal(t, http.StatusConflict, fx.call(fx.h.Create, http.MethodPost, "/", `{"name":"mv"}`).Code)
	assert.Equal(t, http.StatusBadRequest, fx.call(fx.h.Create, http.MethodPost, "/", `{"name":"Bad Name"}`).Code)

	assert.Equal(t, http.StatusConflict, fx.call(fx.h.Delete, http.MethodDelete, "/", "", "name", "dm_factor").Code)
	assert.Equal(t, http.StatusNoContent, fx.call(fx.h.Delete, http.MethodDelete, "/", "", "name", "ash_factor").Code)
	assert.Equal(t, http.StatusNotFound, fx.call(fx.h.Get, http.MethodGet, "/", "", "name", "ash_factor").Code)

	var n int64
	fx.db.Model(&entities.FormulaVariable{}).Count(&n)
	assert.Equal(t, int64(5), n)
}

func TestUnknownVariable(t *testing.T) {
	fx := setup(t)
	assert.Equal(t, http.StatusNotFound, fx.call(fx.h.Update, http.MethodPut, "/", `{"current_value":1}`, "name", "nope").Code)
	assert.Equal(t, http.StatusNotFound, fx.call(fx.h.Reset, http.MethodPost, "/", "", "name", "nope").Code)
	assert.Empty(t, fx.sched.reasons)
}
