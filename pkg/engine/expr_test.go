package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatePrecedence(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 - 4 - 3", 3},
		{"8 / 4 / 2", 1},
		{"-2 * 3", -6},
		{"2 * -3", -6},
		{"- -2", 2},
		{"-(1 + 2) * 2", -6},
		{"1.5 + 0.25", 1.75},
		{"  42  ", 42},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			c, err := Parse(tc.src)
			require.NoError(t, err)
			got, err := c.Evaluate(nil)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		src    string
		pos    int
		reason string
	}{
		{"", 0, "empty expression"},
		{"   ", 0, "empty expression"},
		{"1 +", 2, "trailing operator"},
		{"(1 + 2", 0, "missing ')'"},
		{"(", 0, "missing ')'"},
		{"1 + 2)", 5, "unexpected ')'"},
		{"1 + * 2", 4, "two operators in a row"},
		{"1 $ 2", 2, "unexpected character"},
		{"1..2", 0, "malformed number"},
		{"3.", 0, "malformed number"},
		{"Rate + 1", 0, "unexpected character"},
		{"a b", 2, "unexpected identifier b"},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			_, err := Parse(tc.src)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.pos, pe.Pos)
			assert.Contains(t, pe.Reason, tc.reason)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestCompileUnknownIdentifier(t *testing.T) {
	_, err := Compile("a + unknown_col", map[string]bool{"a": true})
	var ue *UnknownIdentifierError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "unknown_col", ue.Name)
}

func TestIdentifiersDistinctInOrder(t *testing.T) {
	c, err := Compile("b + a * b - c_2", map[string]bool{"a": true, "b": true, "c_2": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c_2"}, c.Identifiers())
	assert.Equal(t, "b + a * b - c_2", c.Source())
}

func TestEvaluateBindings(t *testing.T) {
	c, err := Parse("rate / dm * 100")
	require.NoError(t, err)

	got, err := c.Evaluate(map[string]float64{"rate": 50, "dm": 90})
	require.NoError(t, err)
	assert.InDelta(t, 55.55555555555556, got, 1e-9)

	_, err = c.Evaluate(map[string]float64{"rate": 50})
	var mb *MissingBindingError
	require.ErrorAs(t, err, &mb)
	assert.Equal(t, "dm", mb.Name)
}

func TestEvaluateDivisionByZero(t *testing.T) {
	c, err := Parse("oil / maize_rate")
	require.NoError(t, err)
	_, err = c.Evaluate(map[string]float64{"oil": 3, "maize_rate": 0})
	require.ErrorIs(t, err, ErrDivisionByZero)
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 4, ee.Pos)

	c, err = Parse("1 / (a - a)")
	require.NoError(t, err)
	_, err = c.Evaluate(map[string]float64{"a": 7})
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestEvaluateNonFinite(t *testing.T) {
	c, err := Parse("a * a")
	require.NoError(t, err)
	_, err = c.Evaluate(map[string]float64{"a": 1e200})
	assert.ErrorIs(t, err, ErrNonFinite)
}
