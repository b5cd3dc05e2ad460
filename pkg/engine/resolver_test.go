package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkSlot(t *testing.T, name string, seq uint64, expr, out string) slot {
	t.Helper()
	c, err := Parse(expr)
	require.NoError(t, err)
	return slot{
		f:    Formula{Name: name, Table: TableInput, Expression: expr, OutputColumn: out, Seq: seq},
		code: c,
	}
}

func names(slots []slot, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = slots[j].f.Name
	}
	return out
}

func TestResolveTieBreakBySeq(t *testing.T) {
	slots := []slot{
		mkSlot(t, "c", 3, "mv * 3", "cv"),
		mkSlot(t, "a", 1, "mv + 1", "av"),
		mkSlot(t, "b", 2, "rate - 1", "bv"),
	}
	idx, err := resolve(slots, TableInput)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(slots, idx))
}

func TestResolveDependenciesBeforeSeq(t *testing.T) {
	slots := []slot{
		mkSlot(t, "total", 1, "part_a + part_b", "total_v"),
		mkSlot(t, "pb", 2, "part_a * 2", "part_b"),
		mkSlot(t, "pa", 3, "mv + 1", "part_a"),
		mkSlot(t, "other", 4, "rate", "other_v"),
	}
	idx, err := resolve(slots, TableInput)
	require.NoError(t, err)
	assert.Equal(t, []string{"pa", "pb", "total", "other"}, names(slots, idx))
}

func TestResolveIgnoresOtherTables(t *testing.T) {
	foreign := mkSlot(t, "x", 1, "mv", "a_out")
	foreign.f.Table = TableCalculated
	slots := []slot{foreign, mkSlot(t, "y", 2, "a_out + 1", "y_out")}
	idx, err := resolve(slots, TableInput)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, names(slots, idx))
}

func TestResolveCycleMembersStartAtLowestSeq(t *testing.T) {
	slots := []slot{
		mkSlot(t, "p", 3, "rv + 1", "pv"),
		mkSlot(t, "q", 1, "pv + 1", "qv"),
		mkSlot(t, "r", 2, "qv + 1", "rv"),
		mkSlot(t, "free", 4, "mv", "fv"),
	}
	_, err := resolve(slots, TableInput)
	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"q", "p", "r"}, ce.Members)
	assert.Equal(t, "dependency cycle: q -> p -> r -> q", ce.Error())
}

func TestResolveSelfCycle(t *testing.T) {
	slots := []slot{mkSlot(t, "x", 1, "x + 1", "x")}
	_, err := resolve(slots, TableInput)
	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"x"}, ce.Members)
}

func TestResolveCycleWithTail(t *testing.T) {
	// tail depends on the cycle but is not part of it.
	slots := []slot{
		mkSlot(t, "tail", 1, "av + 1", "tv"),
		mkSlot(t, "a", 2, "bv", "av"),
		mkSlot(t, "b", 3, "av", "bv"),
	}
	_, err := resolve(slots, TableInput)
	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"a", "b"}, ce.Members)
}
