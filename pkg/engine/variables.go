package engine

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Variable is a named coefficient usable inside formula expressions.
type Variable struct {
	Name         string  `json:"name"`
	DisplayName  string  `json:"display_name"`
	Description  string  `json:"description"`
	DefaultValue float64 `json:"default_value"`
	CurrentValue float64 `json:"current_value"`
}

// VariableSnapshot is an immutable view of every variable at one version.
type VariableSnapshot struct {
	Version uint64
	vars    map[string]Variable
}

func (s *VariableSnapshot) Get(name string) (Variable, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Values returns name -> current value.
func (s *VariableSnapshot) Values() map[string]float64 {
	out := make(map[string]float64, len(s.vars))
	for n, v := range s.vars {
		out[n] = v.CurrentValue
	}
	return out
}

func (s *VariableSnapshot) List() []Variable {
	out := make([]Variable, 0, len(s.vars))
	for _, v := range s.vars {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// VariableStore publishes copy-on-write snapshots. Writers race with compare-and-swap
// and retry, so no writer ever holds a lock another writer waits on.
type VariableStore struct {
	cur atomic.Pointer[VariableSnapshot]
}

func NewVariableStore() *VariableStore {
	s := &VariableStore{}
	s.cur.Store(&VariableSnapshot{vars: map[string]Variable{}})
	return s
}

func (s *VariableStore) Snapshot() *VariableSnapshot { return s.cur.Load() }

func (s *VariableStore) Get(name string) (float64, error) {
	v, ok := s.cur.Load().vars[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return v.CurrentValue, nil
}

func (s *VariableStore) Lookup(name string) (Variable, error) {
	v, ok := s.cur.Load().vars[name]
	if !ok {
		return Variable{}, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return v, nil
}

func (s *VariableStore) List() []Variable { return s.cur.Load().List() }

// Add registers a new variable. CurrentValue is used as given.
func (s *VariableStore) Add(v Variable) error {
	if !validIdent(v.Name) {
		return fmt.Errorf("%w: variable %q", ErrInvalidName, v.Name)
	}
	_, err := s.update(func(m map[string]Variable) ([]Variable, error) {
		if _, ok := m[v.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrVariableExists, v.Name)
		}
		m[v.Name] = v
		return []Variable{v}, nil
	})
	return err
}

func (s *VariableStore) Set(name string, value float64) (Variable, error) {
	out, err := s.update(func(m map[string]Variable) ([]Variable, error) {
		v, ok := m[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
		}
		v.CurrentValue = value
		m[name] = v
		return []Variable{v}, nil
	})
	if err != nil {
		return Variable{}, err
	}
	return out[0], nil
}

// Replace overwrites the metadata and values of an existing variable.
func (s *VariableStore) Replace(v Variable) (Variable, error) {
	out, err := s.update(func(m map[string]Variable) ([]Variable, error) {
		if _, ok := m[v.Name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, v.Name)
		}
		m[v.Name] = v
		return []Variable{v}, nil
	})
	if err != nil {
		return Variable{}, err
	}
	return out[0], nil
}

func (s *VariableStore) Reset(name string) (Variable, error) {
	out, err := s.update(func(m map[string]Variable) ([]Variable, error) {
		v, ok := m[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
		}
		v.CurrentValue = v.DefaultValue
		m[name] = v
		return []Variable{v}, nil
	})
	if err != nil {
		return Variable{}, err
	}
	return out[0], nil
}

func (s *VariableStore) ResetAll() []Variable {
	out, _ := s.update(func(m map[string]Variable) ([]Variable, error) {
		all := make([]Variable, 0, len(m))
		for n, v := range m {
			v.CurrentValue = v.DefaultValue
			m[n] = v
			all = append(all, v)
		}
		return all, nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *VariableStore) remove(name string) error {
	_, err := s.update(func(m map[string]Variable) ([]Variable, error) {
		if _, ok := m[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
		}
		delete(m, name)
		return nil, nil
	})
	return err
}

func (s *VariableStore) update(fn func(map[string]Variable) ([]Variable, error)) ([]Variable, error) {
	for {
		old := s.cur.Load()
		next := make(map[string]Variable, len(old.vars)+1)
		for k, v := range old.vars {
			next[k] = v
		}
		changed, err := fn(next)
		if err != nil {
			return nil, err
		}
		if s.cur.CompareAndSwap(old, &VariableSnapshot{Version: old.Version + 1, vars: next}) {
			return changed, nil
		}
	}
}
