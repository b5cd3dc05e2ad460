package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors. They reject the mutating call and leave state untouched.
var (
	ErrDuplicateColumn  = errors.New("duplicate column")
	ErrColumnNotFound   = errors.New("column not found")
	ErrColumnInUse      = errors.New("column in use")
	ErrBuiltinColumn    = errors.New("built-in column cannot be removed")
	ErrNonNumericColumn = errors.New("column is not numeric")
	ErrUnknownVariable  = errors.New("unknown variable")
	ErrVariableExists   = errors.New("variable already exists")
	ErrVariableInUse    = errors.New("variable in use")
	ErrFormulaExists    = errors.New("formula already exists")
	ErrFormulaNotFound  = errors.New("formula not found")
	ErrFormulaInUse     = errors.New("formula in use")
	ErrOutputTaken      = errors.New("output column already produced by another formula")
	ErrInvalidTable     = errors.New("invalid table")
	ErrInvalidName      = errors.New("invalid name")
)

// Evaluation errors.
var (
	ErrDivisionByZero   = errors.New("division by zero")
	ErrNonFinite        = errors.New("non-finite result")
	ErrUnavailableInput = errors.New("input unavailable")
)

// ParseError reports malformed expression syntax. Pos is a 0-based byte offset.
type ParseError struct {
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Reason)
}

// UnknownIdentifierError is returned by Compile when an identifier is not in the known set.
type UnknownIdentifierError struct {
	Name string
}

func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("unknown identifier %q", e.Name)
}

// CycleError lists the formulas forming a dependency cycle, in dependency order.
type CycleError struct {
	Members []string
}

func (e *CycleError) Error() string {
	if len(e.Members) == 0 {
		return "dependency cycle"
	}
	return "dependency cycle: " + strings.Join(e.Members, " -> ") + " -> " + e.Members[0]
}

// FormulaInUseError is returned when deleting a formula whose output other formulas reference.
type FormulaInUseError struct {
	Name       string
	Dependents []string
}

func (e *FormulaInUseError) Error() string {
	return fmt.Sprintf("formula %q is referenced by %s", e.Name, strings.Join(e.Dependents, ", "))
}

func (e *FormulaInUseError) Is(target error) bool { return target == ErrFormulaInUse }

// MissingBindingError means the orchestrator handed the evaluator an incomplete binding.
type MissingBindingError struct {
	Name string
}

func (e *MissingBindingError) Error() string {
	return fmt.Sprintf("missing binding for %q", e.Name)
}

// EvalError is a runtime arithmetic failure for a single expression.
type EvalError struct {
	Pos int
	Err error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("eval error at %d: %v", e.Pos, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// RecomputeError aborts the recompute of one record.
type RecomputeError struct {
	RecordID uint
	Err      error
}

func (e *RecomputeError) Error() string {
	return fmt.Sprintf("recompute record %d: %v", e.RecordID, e.Err)
}

func (e *RecomputeError) Unwrap() error { return e.Err }

// IsValidation reports whether err belongs to the authoring-time validation taxonomy.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	var (
		pe *ParseError
		ue *UnknownIdentifierError
		ce *CycleError
	)
	if errors.As(err, &pe) || errors.As(err, &ue) || errors.As(err, &ce) {
		return true
	}
	for _, s := range []error{
		ErrDuplicateColumn, ErrColumnInUse, ErrBuiltinColumn, ErrNonNumericColumn,
		ErrUnknownVariable, ErrVariableExists, ErrVariableInUse, ErrFormulaExists,
		ErrFormulaInUse, ErrOutputTaken, ErrInvalidTable, ErrInvalidName,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
