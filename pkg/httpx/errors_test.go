package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{gorm.ErrRecordNotFound, http.StatusNotFound},
		{fmt.Errorf("get plant: %w", gorm.ErrRecordNotFound), http.StatusNotFound},
		{engine.ErrFormulaNotFound, http.StatusNotFound},
		{&engine.ParseError{Pos: 3, Reason: "x"}, http.StatusUnprocessableEntity},
		{&engine.CycleError{Members: []string{"a"}}, http.StatusUnprocessableEntity},
		{&engine.UnknownIdentifierError{Name: "zz"}, http.StatusUnprocessableEntity},
		{engine.ErrFormulaExists, http.StatusConflict},
		{&engine.FormulaInUseError{Name: "a", Dependents: []string{"b"}}, http.StatusConflict},
		{engine.ErrInvalidName, http.StatusBadRequest},
		{fmt.Errorf("%w: mv out of range", ErrBadRequest), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestErrorBody(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	require.NoError(t, Error(c, &engine.ParseError{Pos: 4, Reason: "unexpected end of input"}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4.0, body["position"])

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	require.NoError(t, Error(c, fmt.Errorf("create formula: %w", &engine.CycleError{Members: []string{"p", "q"}})))
	body = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []any{"p", "q"}, body["cycle"])
	assert.Contains(t, body["error"], "p -> q -> p")
}
