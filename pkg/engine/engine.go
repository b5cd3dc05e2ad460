package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Observer receives the outcome of engine operations. pkg/metrics implements it.
type Observer interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.obs = o }
}

// Engine owns the column registry, the variable store and the formula set.
//
// Catalog mutations (formulas, columns, adding and removing variables) are serialized
// by mu. Variable value changes only take that variable's lock, so updates to different
// variables proceed in parallel. Every mutation accepts a commit callback that runs after
// validation and before the in-memory change; a commit error leaves the engine untouched.
type Engine struct {
	log *zap.Logger
	obs Observer

	mu       sync.Mutex
	varLocks sync.Map

	columns  *Registry
	vars     *VariableStore
	formulas *formulaSet
}

func New(opts ...Option) *Engine {
	e := &Engine{
		log:      zap.NewNop(),
		columns:  NewRegistry(),
		vars:     NewVariableStore(),
		formulas: newFormulaSet(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) observe(ctx context.Context, op string, success bool, d time.Duration) {
	if e.obs != nil {
		e.obs.Observe(ctx, op, success, d)
	}
}

func (e *Engine) varLock(name string) *sync.Mutex {
	m, _ := e.varLocks.LoadOrStore(name, &sync.Mutex{})
	return m.(*sync.Mutex)
}

func (e *Engine) ListColumns(table Table) []ColumnInfo { return e.columns.List(table) }

func (e *Engine) ResolveColumn(table Table, name string) (ColumnInfo, error) {
	return e.columns.Resolve(table, name)
}

// RegisterColumn adds a column. Names are unique across both tables and the variables.
func (e *Engine) RegisterColumn(c ColumnInfo, commit func(ColumnInfo) error) (ColumnInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := normalizeColumn(c)
	if err != nil {
		return ColumnInfo{}, err
	}
	if err := e.nameFree(c.Name); err != nil {
		return ColumnInfo{}, err
	}
	if commit != nil {
		if err := commit(c); err != nil {
			return ColumnInfo{}, err
		}
	}
	if err := e.columns.Register(c); err != nil {
		return ColumnInfo{}, err
	}
	return c, nil
}

// RemoveColumn drops a custom column nothing reads or produces.
func (e *Engine) RemoveColumn(table Table, name string, commit func(ColumnInfo) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.columns.Resolve(table, name)
	if err != nil {
		return err
	}
	if c.Origin == OriginBuiltin {
		return fmt.Errorf("%w: %s.%s", ErrBuiltinColumn, table, name)
	}
	if refs := e.formulas.referencing(name); len(refs) > 0 {
		return fmt.Errorf("%w: %s.%s is referenced by %v", ErrColumnInUse, table, name, refs)
	}
	if table == TableCalculated {
		if f, ok := e.formulas.producer(TableInput, name); ok {
			return fmt.Errorf("%w: %s.%s is produced by formula %q", ErrColumnInUse, table, name, f.Name)
		}
	}
	if commit != nil {
		if err := commit(c); err != nil {
			return err
		}
	}
	return e.columns.remove(table, name)
}

// nameFree reports ErrDuplicateColumn when name is already a column or a variable.
func (e *Engine) nameFree(name string) error {
	for _, t := range []Table{TableInput, TableCalculated} {
		if e.columns.Has(t, name) {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateColumn, t, name)
		}
	}
	if _, ok := e.vars.Snapshot().Get(name); ok {
		return fmt.Errorf("%w: %q is a formula variable", ErrDuplicateColumn, name)
	}
	return nil
}

func (e *Engine) ListFormulas(table Table) []Formula { return e.formulas.list(table) }

func (e *Engine) Formula(name string) (Formula, error) {
	sl, ok := e.formulas.get(name)
	if !ok {
		return Formula{}, fmt.Errorf("%w: %q", ErrFormulaNotFound, name)
	}
	return sl.f, nil
}

// Order returns the formulas of table in evaluation order.
func (e *Engine) Order(table Table) ([]Formula, error) {
	slots, err := e.formulas.order(table)
	if err != nil {
		return nil, err
	}
	out := make([]Formula, len(slots))
	for i, sl := range slots {
		out[i] = sl.f
	}
	return out, nil
}

// known is the identifier universe for formulas of table: numeric columns, every
// calculated column and the variables.
func (e *Engine) known(table Table) map[string]bool {
	k := map[string]bool{}
	for _, t := range []Table{table, TableCalculated} {
		for _, c := range e.columns.List(t) {
			if c.Type == TypeNumber {
				k[c.Name] = true
			}
		}
	}
	for name := range e.vars.Snapshot().Values() {
		k[name] = true
	}
	return k
}

// CreateFormula validates spec against the registry, the variables and the other
// formulas' outputs, rejects cycles, and then commits.
func (e *Engine) CreateFormula(spec FormulaSpec, commit func(Formula) error) (Formula, error) {
	start := time.Now()
	e.mu.Lock()
	f, err := e.createFormula(spec, commit)
	e.mu.Unlock()
	e.observe(context.Background(), "create_formula", err == nil, time.Since(start))
	if err != nil {
		e.log.Debug("formula rejected", zap.String("formula", spec.Name), zap.Error(err))
		return Formula{}, err
	}
	e.log.Info("formula created",
		zap.String("formula", f.Name),
		zap.String("output", f.OutputColumn),
		zap.Uint64("seq", f.Seq))
	return f, nil
}

// LoadFormula restores a persisted formula with its stored Seq.
func (e *Engine) LoadFormula(spec FormulaSpec) (Formula, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createFormula(spec, nil)
}

func (e *Engine) createFormula(spec FormulaSpec, commit func(Formula) error) (Formula, error) {
	if spec.Table == "" {
		spec.Table = TableInput
	}
	if !validIdent(spec.Name) {
		return Formula{}, fmt.Errorf("%w: formula %q", ErrInvalidName, spec.Name)
	}
	if spec.Table != TableInput {
		return Formula{}, fmt.Errorf("%w: formulas apply to the %s table, got %q", ErrInvalidTable, TableInput, spec.Table)
	}
	if !validIdent(spec.OutputColumn) {
		return Formula{}, fmt.Errorf("%w: output column %q", ErrInvalidName, spec.OutputColumn)
	}
	if _, ok := e.formulas.get(spec.Name); ok {
		return Formula{}, fmt.Errorf("%w: %q", ErrFormulaExists, spec.Name)
	}

	out := spec.OutputColumn
	if other, ok := e.formulas.producer(spec.Table, out); ok {
		return Formula{}, fmt.Errorf("%w: %q is produced by %q", ErrOutputTaken, out, other.Name)
	}
	if e.columns.Has(TableInput, out) {
		return Formula{}, fmt.Errorf("%w: %q is an input column", ErrDuplicateColumn, out)
	}
	if _, ok := e.vars.Snapshot().Get(out); ok {
		return Formula{}, fmt.Errorf("%w: %q is a formula variable", ErrDuplicateColumn, out)
	}
	col, err := e.columns.Resolve(TableCalculated, out)
	owns := err != nil
	if !owns && col.Type != TypeNumber {
		return Formula{}, fmt.Errorf("%w: %s", ErrNonNumericColumn, out)
	}

	known := e.known(spec.Table)
	known[out] = true
	code, err := Compile(spec.Expression, known)
	if err != nil {
		var ue *UnknownIdentifierError
		if errors.As(err, &ue) && (e.columns.Has(spec.Table, ue.Name) || e.columns.Has(TableCalculated, ue.Name)) {
			return Formula{}, fmt.Errorf("%w: %s", ErrNonNumericColumn, ue.Name)
		}
		return Formula{}, err
	}

	f := Formula{
		Name:         spec.Name,
		Table:        spec.Table,
		Expression:   spec.Expression,
		OutputColumn: out,
		Seq:          e.formulas.seqFor(spec.Seq),
		Builtin:      spec.Builtin,
	}
	sl := slot{f: f, code: code, ownsColumn: owns}
	if _, err := resolve(e.formulas.candidate(sl), f.Table); err != nil {
		return Formula{}, err
	}

	if commit != nil {
		if err := commit(f); err != nil {
			return Formula{}, err
		}
	}
	if owns {
		origin := OriginCustom
		if spec.Builtin {
			origin = OriginBuiltin
		}
		c := ColumnInfo{Name: out, Label: spec.Label, Type: TypeNumber, Table: TableCalculated, Origin: origin}
		if err := e.columns.Register(c); err != nil {
			return Formula{}, err
		}
	}
	if err := e.formulas.add(sl); err != nil {
		if owns {
			_ = e.columns.remove(TableCalculated, out)
		}
		return Formula{}, err
	}
	return f, nil
}

// DeleteFormula removes a formula no other formula reads from. An output column the
// formula registered itself goes with it.
func (e *Engine) DeleteFormula(name string, commit func(Formula) error) error {
	start := time.Now()
	err := e.deleteFormula(name, commit)
	e.observe(context.Background(), "delete_formula", err == nil, time.Since(start))
	if err == nil {
		e.log.Info("formula deleted", zap.String("formula", name))
	}
	return err
}

func (e *Engine) deleteFormula(name string, commit func(Formula) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sl, ok := e.formulas.get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrFormulaNotFound, name)
	}
	var dependents []string
	for _, d := range e.formulas.referencing(sl.f.OutputColumn) {
		if d != name {
			dependents = append(dependents, d)
		}
	}
	if len(dependents) > 0 {
		return &FormulaInUseError{Name: name, Dependents: dependents}
	}
	if commit != nil {
		if err := commit(sl.f); err != nil {
			return err
		}
	}
	if _, err := e.formulas.remove(name); err != nil {
		return err
	}
	if sl.ownsColumn {
		if err := e.columns.drop(TableCalculated, sl.f.OutputColumn, true); err != nil {
			e.log.Warn("output column not removed", zap.String("column", sl.f.OutputColumn), zap.Error(err))
		}
	}
	return nil
}

func (e *Engine) ListVariables() []Variable { return e.vars.List() }

func (e *Engine) Variable(name string) (Variable, error) { return e.vars.Lookup(name) }

// Variables returns the current immutable snapshot.
func (e *Engine) Variables() *VariableSnapshot { return e.vars.Snapshot() }

// CreateVariable adds a coefficient. CurrentValue is taken as given.
func (e *Engine) CreateVariable(v Variable, commit func(Variable) error) (Variable, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !validIdent(v.Name) {
		return Variable{}, fmt.Errorf("%w: variable %q", ErrInvalidName, v.Name)
	}
	if _, ok := e.vars.Snapshot().Get(v.Name); ok {
		return Variable{}, fmt.Errorf("%w: %q", ErrVariableExists, v.Name)
	}
	if err := e.nameFree(v.Name); err != nil {
		return Variable{}, err
	}
	if v.DisplayName == "" {
		v.DisplayName = v.Name
	}
	if commit != nil {
		if err := commit(v); err != nil {
			return Variable{}, err
		}
	}
	if err := e.vars.Add(v); err != nil {
		return Variable{}, err
	}
	return v, nil
}

// DeleteVariable removes a coefficient no formula references.
func (e *Engine) DeleteVariable(name string, commit func(Variable) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	l := e.varLock(name)
	l.Lock()
	defer l.Unlock()

	v, err := e.vars.Lookup(name)
	if err != nil {
		return err
	}
	if refs := e.formulas.referencing(name); len(refs) > 0 {
		return fmt.Errorf("%w: %q is referenced by %v", ErrVariableInUse, name, refs)
	}
	if commit != nil {
		if err := commit(v); err != nil {
			return err
		}
	}
	return e.vars.remove(name)
}

// PatchVariable applies patch to the stored variable under its write lock, so fields the
// patch leaves alone keep their latest values. The name cannot change.
func (e *Engine) PatchVariable(name string, patch func(*Variable), commit func(Variable) error) (Variable, error) {
	return e.changeVariable(name, "patch_variable", commit, func(v Variable) Variable {
		patch(&v)
		v.Name = name
		return v
	})
}

// SetVariable overrides the current value. Any value is accepted.
func (e *Engine) SetVariable(name string, value float64, commit func(Variable) error) (Variable, error) {
	return e.changeVariable(name, "set_variable", commit, func(v Variable) Variable {
		v.CurrentValue = value
		return v
	})
}

// ResetVariable restores the default value.
func (e *Engine) ResetVariable(name string, commit func(Variable) error) (Variable, error) {
	return e.changeVariable(name, "reset_variable", commit, func(v Variable) Variable {
		v.CurrentValue = v.DefaultValue
		return v
	})
}

func (e *Engine) changeVariable(name, op string, commit func(Variable) error, fn func(Variable) Variable) (Variable, error) {
	start := time.Now()
	l := e.varLock(name)
	l.Lock()
	defer l.Unlock()

	v, err := e.vars.Lookup(name)
	if err == nil {
		v = fn(v)
		if commit != nil {
			err = commit(v)
		}
	}
	if err == nil {
		v, err = e.vars.Replace(v)
	}
	e.observe(context.Background(), op, err == nil, time.Since(start))
	if err != nil {
		return Variable{}, err
	}
	e.log.Info("variable changed",
		zap.String("op", op),
		zap.String("variable", v.Name),
		zap.Float64("current", v.CurrentValue))
	return v, nil
}

// ResetAllVariables restores every default in one snapshot.
func (e *Engine) ResetAllVariables(commit func([]Variable) error) ([]Variable, error) {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.vars.List()
	names := make([]string, len(current))
	for i, v := range current {
		names[i] = v.Name
	}
	sort.Strings(names)
	for _, n := range names {
		l := e.varLock(n)
		l.Lock()
		defer l.Unlock()
	}

	reset := make([]Variable, len(current))
	for i, v := range current {
		v.CurrentValue = v.DefaultValue
		reset[i] = v
	}
	if commit != nil {
		if err := commit(reset); err != nil {
			e.observe(context.Background(), "reset_all_variables", false, time.Since(start))
			return nil, err
		}
	}
	out := e.vars.ResetAll()
	e.observe(context.Background(), "reset_all_variables", true, time.Since(start))
	e.log.Info("variables reset", zap.Int("count", len(out)))
	return out, nil
}

// Summary counts the catalog for health output.
type Summary struct {
	InputColumns      int    `json:"input_columns"`
	CalculatedColumns int    `json:"calculated_columns"`
	Formulas          int    `json:"formulas"`
	Variables         int    `json:"variables"`
	VariableVersion   uint64 `json:"variable_version"`
	OrderError        string `json:"order_error,omitempty"`
}

func (e *Engine) Summary() Summary {
	snap := e.vars.Snapshot()
	s := Summary{
		InputColumns:      len(e.columns.List(TableInput)),
		CalculatedColumns: len(e.columns.List(TableCalculated)),
		Formulas:          len(e.formulas.list("")),
		Variables:         len(snap.vars),
		VariableVersion:   snap.Version,
	}
	if _, err := e.formulas.order(TableInput); err != nil {
		s.OrderError = err.Error()
	}
	return s
}
