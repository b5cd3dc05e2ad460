package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
)

// ErrNotFound is returned by services for missing rows that are not gorm lookups.
var ErrNotFound = errors.New("not found")

// ErrBadRequest marks input rejected by a service before it reaches the engine.
var ErrBadRequest = errors.New("bad request")

// Status maps an error to its HTTP status code.
func Status(err error) int {
	var (
		pe *engine.ParseError
		ue *engine.UnknownIdentifierError
		ce *engine.CycleError
	)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, ErrNotFound),
		errors.Is(err, engine.ErrFormulaNotFound),
		errors.Is(err, engine.ErrColumnNotFound),
		errors.Is(err, engine.ErrUnknownVariable):
		return http.StatusNotFound
	case errors.As(err, &pe), errors.As(err, &ue), errors.As(err, &ce):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrDuplicateColumn),
		errors.Is(err, engine.ErrVariableExists),
		errors.Is(err, engine.ErrFormulaExists),
		errors.Is(err, engine.ErrOutputTaken),
		errors.Is(err, engine.ErrColumnInUse),
		errors.Is(err, engine.ErrVariableInUse),
		errors.Is(err, engine.ErrFormulaInUse),
		errors.Is(err, engine.ErrBuiltinColumn),
		errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest), engine.IsValidation(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Error writes err as {"error": ...}. Parse errors carry "position", cycles carry "cycle"
// and formulas still referenced carry "dependents".
func Error(c echo.Context, err error) error {
	body := echo.Map{"error": err.Error()}
	var (
		pe *engine.ParseError
		ce *engine.CycleError
		fe *engine.FormulaInUseError
	)
	if errors.As(err, &pe) {
		body["position"] = pe.Pos
	}
	if errors.As(err, &ce) {
		body["cycle"] = ce.Members
	}
	if errors.As(err, &fe) {
		body["dependents"] = fe.Dependents
	}
	return c.JSON(Status(err), body)
}

// BadRequest replies 400 with msg.
func BadRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

// ParseID reads a positive integer path parameter.
func ParseID(c echo.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(n), nil
}
