package engine

import (
	"fmt"
	"sort"
	"sync"
)

// Formula is a named expression producing one calculated column per record of Table.
type Formula struct {
	Name         string `json:"name"`
	Table        Table  `json:"table"`
	Expression   string `json:"expression"`
	OutputColumn string `json:"output_column"`
	Seq          uint64 `json:"seq"`
	Builtin      bool   `json:"builtin"`
}

// FormulaSpec is the caller-supplied part of a Formula.
type FormulaSpec struct {
	Name         string
	Table        Table
	Expression   string
	OutputColumn string
	Label        string
	Builtin      bool
	// Seq pins the creation order when reloading persisted formulas. Zero assigns the next one.
	Seq uint64
}

type slot struct {
	f    Formula
	code *Compiled
	// ownsColumn is set when creating the formula registered its output column.
	ownsColumn bool
}

// formulaSet stores formulas in a flat arena. Dependency edges are index pairs computed
// from the compiled identifiers, and the resolved order is cached per table.
type formulaSet struct {
	mu      sync.RWMutex
	slots   []slot
	byName  map[string]int
	nextSeq uint64
	orders  map[Table][]int
}

func newFormulaSet() *formulaSet {
	return &formulaSet{
		byName:  map[string]int{},
		nextSeq: 1,
		orders:  map[Table][]int{},
	}
}

func (s *formulaSet) get(name string) (slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byName[name]
	if !ok {
		return slot{}, false
	}
	return s.slots[i], true
}

// producer returns the formula writing output in table, if any.
func (s *formulaSet) producer(table Table, output string) (Formula, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sl := range s.slots {
		if sl.f.Table == table && sl.f.OutputColumn == output {
			return sl.f, true
		}
	}
	return Formula{}, false
}

// referencing lists formulas whose expression mentions name, sorted by Seq.
func (s *formulaSet) referencing(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, sl := range s.slots {
		for _, id := range sl.code.idents {
			if id == name {
				out = append(out, sl.f.Name)
				break
			}
		}
	}
	return out
}

func (s *formulaSet) list(table Table) []Formula {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Formula
	for _, sl := range s.slots {
		if table == "" || sl.f.Table == table {
			out = append(out, sl.f)
		}
	}
	return out
}

// candidate returns the arena with sl appended, leaving the live set untouched.
func (s *formulaSet) candidate(sl slot) []slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	next := make([]slot, 0, len(s.slots)+1)
	next = append(next, s.slots...)
	return append(next, sl)
}

// seqFor returns seq, or the next unused sequence number when seq is zero.
func (s *formulaSet) seqFor(seq uint64) uint64 {
	if seq != 0 {
		return seq
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSeq
}

func (s *formulaSet) add(sl slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[sl.f.Name]; ok {
		return fmt.Errorf("%w: %q", ErrFormulaExists, sl.f.Name)
	}
	if sl.f.Seq >= s.nextSeq {
		s.nextSeq = sl.f.Seq + 1
	}
	s.slots = append(s.slots, sl)
	sort.SliceStable(s.slots, func(i, j int) bool { return s.slots[i].f.Seq < s.slots[j].f.Seq })
	s.reindex()
	return nil
}

func (s *formulaSet) remove(name string) (Formula, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byName[name]
	if !ok {
		return Formula{}, fmt.Errorf("%w: %q", ErrFormulaNotFound, name)
	}
	f := s.slots[i].f
	s.slots = append(s.slots[:i:i], s.slots[i+1:]...)
	s.reindex()
	return f, nil
}

// reindex rebuilds the name index and drops every cached order, since arena
// indices shift on insert and removal.
func (s *formulaSet) reindex() {
	s.orders = map[Table][]int{}
	s.byName = make(map[string]int, len(s.slots))
	for i, sl := range s.slots {
		s.byName[sl.f.Name] = i
	}
}

// order returns the cached evaluation order for table, resolving it on a miss.
func (s *formulaSet) order(table Table) ([]slot, error) {
	s.mu.RLock()
	idx, ok := s.orders[table]
	if ok {
		out := make([]slot, len(idx))
		for i, j := range idx {
			out[i] = s.slots[j]
		}
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok = s.orders[table]
	if !ok {
		var err error
		idx, err = resolve(s.slots, table)
		if err != nil {
			return nil, err
		}
		s.orders[table] = idx
	}
	out := make([]slot, len(idx))
	for i, j := range idx {
		out[i] = s.slots[j]
	}
	return out, nil
}
