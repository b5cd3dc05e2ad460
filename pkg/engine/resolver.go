package engine

import "container/heap"

// seqHeap is a min-heap of arena indices ordered by formula Seq.
type seqHeap struct {
	idx   []int
	slots []slot
}

func (h seqHeap) Len() int           { return len(h.idx) }
func (h seqHeap) Less(i, j int) bool { return h.slots[h.idx[i]].f.Seq < h.slots[h.idx[j]].f.Seq }
func (h seqHeap) Swap(i, j int)      { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }
func (h *seqHeap) Push(x any)        { h.idx = append(h.idx, x.(int)) }
func (h *seqHeap) Pop() any {
	n := len(h.idx)
	x := h.idx[n-1]
	h.idx = h.idx[:n-1]
	return x
}

// edges returns deps[i] = arena indices of the formulas in table that slot i reads from.
func edges(slots []slot, table Table) map[int][]int {
	producers := map[string]int{}
	for i, sl := range slots {
		if sl.f.Table == table {
			producers[sl.f.OutputColumn] = i
		}
	}
	deps := map[int][]int{}
	for i, sl := range slots {
		if sl.f.Table != table {
			continue
		}
		deps[i] = nil
		for _, id := range sl.code.idents {
			if j, ok := producers[id]; ok {
				deps[i] = append(deps[i], j)
			}
		}
	}
	return deps
}

// resolve topologically sorts the formulas of table with Kahn's algorithm. Formulas that
// are ready at the same time are emitted by ascending Seq.
func resolve(slots []slot, table Table) ([]int, error) {
	deps := edges(slots, table)
	indeg := make(map[int]int, len(deps))
	dependents := map[int][]int{}
	for i, ds := range deps {
		indeg[i] = len(ds)
		for _, j := range ds {
			dependents[j] = append(dependents[j], i)
		}
	}

	h := &seqHeap{slots: slots}
	for i, d := range indeg {
		if d == 0 {
			h.idx = append(h.idx, i)
		}
	}
	heap.Init(h)

	order := make([]int, 0, len(deps))
	for h.Len() > 0 {
		i := heap.Pop(h).(int)
		order = append(order, i)
		for _, k := range dependents[i] {
			indeg[k]--
			if indeg[k] == 0 {
				heap.Push(h, k)
			}
		}
	}
	if len(order) == len(deps) {
		return order, nil
	}
	return nil, findCycle(slots, deps, indeg)
}

// findCycle walks the unresolved subgraph from its lowest-Seq node until a node repeats.
func findCycle(slots []slot, deps map[int][]int, indeg map[int]int) *CycleError {
	start := -1
	for i, d := range indeg {
		if d > 0 && (start < 0 || slots[i].f.Seq < slots[start].f.Seq) {
			start = i
		}
	}

	// Every unresolved node has at least one unresolved dependency, so the walk
	// must eventually revisit a node.
	var path []int
	pos := map[int]int{}
	cur := start
	for {
		if p, seen := pos[cur]; seen {
			path = path[p:]
			break
		}
		pos[cur] = len(path)
		path = append(path, cur)
		next := -1
		for _, j := range deps[cur] {
			if indeg[j] > 0 && (next < 0 || slots[j].f.Seq < slots[next].f.Seq) {
				next = j
			}
		}
		cur = next
	}

	low := 0
	for k, i := range path {
		if slots[i].f.Seq < slots[path[low]].f.Seq {
			low = k
		}
	}
	members := make([]string, 0, len(path))
	for k := range path {
		members = append(members, slots[path[(low+k)%len(path)]].f.Name)
	}
	return &CycleError{Members: members}
}
