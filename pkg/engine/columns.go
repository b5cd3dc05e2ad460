package engine

import (
	"fmt"
	"sync"
)

type Table string

const (
	TableInput      Table = "input"
	TableCalculated Table = "calculated"
)

// ParseTable accepts the short table names and their "_table" spellings.
func ParseTable(s string) (Table, error) {
	switch s {
	case "input", "input_table":
		return TableInput, nil
	case "calculated", "calculated_table":
		return TableCalculated, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTable, s)
}

type ColumnType string

const (
	TypeNumber ColumnType = "number"
	TypeText   ColumnType = "text"
	TypeDate   ColumnType = "date"
)

func (t ColumnType) valid() bool {
	return t == TypeNumber || t == TypeText || t == TypeDate
}

type Origin string

const (
	OriginBuiltin Origin = "builtin"
	OriginCustom  Origin = "custom"
)

type ColumnInfo struct {
	Name   string     `json:"name"`
	Label  string     `json:"label"`
	Type   ColumnType `json:"type"`
	Table  Table      `json:"table"`
	Origin Origin     `json:"origin"`
}

// Registry is the catalog of known columns per table, kept in registration order.
type Registry struct {
	mu     sync.RWMutex
	tables map[Table][]ColumnInfo
	index  map[Table]map[string]int
}

func NewRegistry() *Registry {
	return &Registry{
		tables: map[Table][]ColumnInfo{},
		index:  map[Table]map[string]int{},
	}
}

func (r *Registry) Register(c ColumnInfo) error {
	c, err := normalizeColumn(c)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.index[c.Table]
	if idx == nil {
		idx = map[string]int{}
		r.index[c.Table] = idx
	}
	if _, ok := idx[c.Name]; ok {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateColumn, c.Table, c.Name)
	}
	idx[c.Name] = len(r.tables[c.Table])
	r.tables[c.Table] = append(r.tables[c.Table], c)
	return nil
}

func normalizeColumn(c ColumnInfo) (ColumnInfo, error) {
	if !validIdent(c.Name) {
		return c, fmt.Errorf("%w: column %q", ErrInvalidName, c.Name)
	}
	if c.Table != TableInput && c.Table != TableCalculated {
		return c, fmt.Errorf("%w: %q", ErrInvalidTable, c.Table)
	}
	if !c.Type.valid() {
		return c, fmt.Errorf("%w: column %q has unsupported type %q", ErrInvalidName, c.Name, c.Type)
	}
	if c.Origin == "" {
		c.Origin = OriginCustom
	}
	if c.Label == "" {
		c.Label = c.Name
	}
	return c, nil
}

func (r *Registry) Resolve(table Table, name string) (ColumnInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[table][name]
	if !ok {
		return ColumnInfo{}, fmt.Errorf("%w: %s.%s", ErrColumnNotFound, table, name)
	}
	return r.tables[table][i], nil
}

func (r *Registry) Has(table Table, name string) bool {
	_, err := r.Resolve(table, name)
	return err == nil
}

func (r *Registry) List(table Table) []ColumnInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ColumnInfo, len(r.tables[table]))
	copy(out, r.tables[table])
	return out
}

// remove drops a custom column. Reference checks belong to the caller.
func (r *Registry) remove(table Table, name string) error {
	return r.drop(table, name, false)
}

func (r *Registry) drop(table Table, name string, builtinOK bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[table][name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrColumnNotFound, table, name)
	}
	if !builtinOK && r.tables[table][i].Origin == OriginBuiltin {
		return fmt.Errorf("%w: %s.%s", ErrBuiltinColumn, table, name)
	}
	cols := append(r.tables[table][:i:i], r.tables[table][i+1:]...)
	r.tables[table] = cols
	idx := make(map[string]int, len(cols))
	for j, c := range cols {
		idx[c.Name] = j
	}
	r.index[table] = idx
	return nil
}
