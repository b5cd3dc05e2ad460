package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// InputRecord is the numeric view of one stored record. A nil value is an empty field.
type InputRecord struct {
	ID       uint
	Revision uint64
	Numbers  map[string]*float64
}

// CalculatedRecord holds the derived values for one InputRecord. Every formula output of
// the table appears in exactly one of Values or Failures.
type CalculatedRecord struct {
	RecordID        uint
	Table           Table
	Values          map[string]float64
	Failures        map[string]error
	VariableVersion uint64
	// InputRevision is the Revision of the InputRecord the values were derived from.
	InputRevision uint64
}

// Value returns the output as a pointer, nil when it failed or is unknown.
func (c CalculatedRecord) Value(output string) *float64 {
	v, ok := c.Values[output]
	if !ok {
		return nil
	}
	return &v
}

// FailureMessages flattens Failures for storage.
func (c CalculatedRecord) FailureMessages() map[string]string {
	if len(c.Failures) == 0 {
		return nil
	}
	out := make(map[string]string, len(c.Failures))
	for k, err := range c.Failures {
		var ee *EvalError
		if errors.As(err, &ee) {
			err = ee.Err
		}
		out[k] = err.Error()
	}
	return out
}

// Recompute evaluates every formula of table for rec in dependency order.
//
// Division by zero and non-finite results are recorded against the one output. An
// output whose expression reads an empty input or a failed output is recorded as
// ErrUnavailableInput. A missing binding aborts the record with a *RecomputeError.
func (e *Engine) Recompute(ctx context.Context, rec InputRecord, table Table) (CalculatedRecord, error) {
	start := time.Now()
	out, err := e.recompute(rec, table)
	e.observe(ctx, "recompute", err == nil, time.Since(start))
	if err != nil {
		e.log.Error("recompute failed", zap.Uint("record", rec.ID), zap.String("table", string(table)), zap.Error(err))
	}
	return out, err
}

func (e *Engine) recompute(rec InputRecord, table Table) (CalculatedRecord, error) {
	order, err := e.formulas.order(table)
	if err != nil {
		return CalculatedRecord{}, &RecomputeError{RecordID: rec.ID, Err: err}
	}
	snap := e.vars.Snapshot()

	bind := snap.Values()
	unavailable := map[string]bool{}
	for _, c := range e.columns.List(table) {
		if c.Type != TypeNumber {
			continue
		}
		if v := rec.Numbers[c.Name]; v != nil {
			bind[c.Name] = *v
		} else {
			unavailable[c.Name] = true
		}
	}
	// Calculated columns with no producer read as empty.
	for _, c := range e.columns.List(TableCalculated) {
		if _, ok := bind[c.Name]; !ok {
			unavailable[c.Name] = true
		}
	}

	out := CalculatedRecord{
		RecordID:        rec.ID,
		Table:           table,
		Values:          make(map[string]float64, len(order)),
		Failures:        map[string]error{},
		VariableVersion: snap.Version,
		InputRevision:   rec.Revision,
	}
	for _, sl := range order {
		delete(unavailable, sl.f.OutputColumn)
	}
	for _, sl := range order {
		name := sl.f.OutputColumn
		if missing := firstUnavailable(sl.code, unavailable); missing != "" {
			out.Failures[name] = fmt.Errorf("%w: %s", ErrUnavailableInput, missing)
			unavailable[name] = true
			continue
		}
		v, err := sl.code.Evaluate(bind)
		if err != nil {
			var mb *MissingBindingError
			if errors.As(err, &mb) {
				return CalculatedRecord{}, &RecomputeError{RecordID: rec.ID, Err: fmt.Errorf("formula %q: %w", sl.f.Name, err)}
			}
			out.Failures[name] = err
			unavailable[name] = true
			continue
		}
		bind[name] = v
		out.Values[name] = v
	}
	return out, nil
}

func firstUnavailable(c *Compiled, unavailable map[string]bool) string {
	for _, id := range c.idents {
		if unavailable[id] {
			return id
		}
	}
	return ""
}
