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
	"github.com/Pushparaj13811/plant-project-v/pkg/formula/controller"
	"github.com/Pushparaj13811/plant-project-v/pkg/formula/repositoryImp"
	"github.com/Pushparaj13811/plant-project-v/pkg/formula/serviceImp"
	"github.com/Pushparaj13811/plant-project-v/pkg/formula/service"
	"github.com/Pushparaj13811/plant-project-v/pkg/seed"
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
	h     controller.FormulaController
	svc   service.FormulaService
	db    *gorm.DB
	sched *recordingScheduler
}

// newEngine registers the seeded columns and variables but no formulas.
func newEngine(t *testing.T, f *seed.File) *engine.Engine {
	t.Helper()
	eng := engine.New()
	require.NoError(t, f.RegisterColumns(eng))
	for _, v := range f.EngineVariables() {
		_, err := eng.CreateVariable(v, nil)
		require.NoError(t, err)
	}
	return eng
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite("file:"+t.Name()+"?mode=memory&cache=shared", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	f, err := seed.Load("")
	require.NoError(t, err)
	sched := &recordingScheduler{}
	svc := serviceImp.NewFormulaService(repositoryImp.New(db), newEngine(t, f), sched, zap.NewNop())
	require.NoError(t, svc.Load(f))
	return &fixture{e: echo.New(), h: New(svc), svc: svc, db: db, sched: sched}
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

func (fx *fixture) rows(t *testing.T) int64 {
	var n int64
	require.NoError(t, fx.db.Model(&entities.Formula{}).Count(&n).Error)
	return n
}

func TestLoadSeedsThenRestores(t *testing.T) {
	fx := setup(t)
	assert.Equal(t, int64(8), fx.rows(t))

	f, err := seed.Load("")
	require.NoError(t, err)
	eng := newEngine(t, f)
	svc := serviceImp.NewFormulaService(repositoryImp.New(fx.db), eng, fx.sched, zap.NewNop())
	require.NoError(t, svc.Load(f))
	assert.Equal(t, int64(8), fx.rows(t), "second load must not seed again")

	before, err := fx.svc.List("")
	require.NoError(t, err)
	after, err := svc.List("")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	order, err := svc.Order("input")
	require.NoError(t, err)
	assert.Equal(t, "dm", order[0].Name)
}

func TestCreateFormulaPersistsAndTriggers(t *testing.T) {
	fx := setup(t)
	rec := fx.call(fx.h.Create, http.MethodPost, "/api/formulas",
		`{"name":"dm_ratio","expression":"dm / 100","label":"DM Ratio"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var f engine.Formula
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, "dm_ratio", f.OutputColumn)
	assert.Equal(t, uint64(9), f.Seq)

	assert.Equal(t, int64(9), fx.rows(t))
	assert.Equal(t, []string{"formula dm_ratio created"}, fx.sched.reasons)

	rec = fx.call(fx.h.Get, http.MethodGet, "/api/formulas/dm_ratio", "", "name", "dm_ratio")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateFormulaRejections(t *testing.T) {
	fx := setup(t)

	rec := fx.call(fx.h.Create, http.MethodPost, "/api/formulas", `{"name":"bad","expression":"mv +"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "position")

	rec = fx.call(fx.h.Create, http.MethodPost, "/api/formulas", `{"name":"loop","expression":"doc + 1","output_column":"starch_per_point"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "output already produced")

	rec = fx.call(fx.h.Create, http.MethodPost, "/api/formulas", `{"name":"ghost","expression":"ash * 2"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = fx.call(fx.h.Create, http.MethodPost, "/api/formulas", `{"name":"dm","expression":"mv"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = fx.call(fx.h.Create, http.MethodPost, "/api/formulas", `{"name":"x","expression":"mv","table":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, int64(8), fx.rows(t))
	assert.Empty(t, fx.sched.reasons)
}

func TestCreateFormulaCycle(t *testing.T) {
	fx := setup(t)
	rec := fx.call(fx.h.Create, http.MethodPost, "/api/formulas", `{"name":"p","expression":"q_out + 1","output_column":"p_out"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "q_out is not known yet")

	require.Equal(t, http.StatusCreated, fx.call(fx.h.Create, http.MethodPost, "/api/formulas", `{"name":"p","expression":"mv + 1","output_column":"p_out"}`).Code)
	require.Equal(t, http.StatusCreated, fx.call(fx.h.Create, http.MethodPost, "/api/formulas", `{"name":"q","expression":"p_out * 2","output_column":"q_out"}`).Code)

	// self reference through the output column
	rec = fx.call(fx.h.Create, http.MethodPost, "/api/formulas", `{"name":"r","expression":"r_out + q_out","output_column":"r_out"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []any{"r"}, body["cycle"])
	assert.Equal(t, int64(10), fx.rows(t))
}

func TestDeleteFormula(t *testing.T) {
	fx := setup(t)

	rec := fx.call(fx.h.Delete, http.MethodDelete, "/api/formulas/dm", "", "name", "dm")
	require.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []any{"rate_on_dm"}, body["dependents"])

	rec = fx.call(fx.h.Delete, http.MethodDelete, "/api/formulas/doc", "", "name", "doc")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(7), fx.rows(t))
	assert.Equal(t, []string{"formula doc deleted"}, fx.sched.reasons)

	rec = fx.call(fx.h.Delete, http.MethodDelete, "/api/formulas/doc", "", "name", "doc")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderEndpoint(t *testing.T) {
	fx := setup(t)
	rec := fx.call(fx.h.Order, http.MethodGet, "/api/formulas/order?table=input", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Order []string `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Order, 8)
	pos := map[string]int{}
	for i, n := range body.Order {
		pos[n] = i
	}
	assert.Less(t, pos["dm"], pos["rate_on_dm"])
	assert.Less(t, pos["starch_per_point"], pos["starch_value"])
	assert.Less(t, pos["grain"], pos["doc"])
}
