package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariableStoreSnapshotsAreImmutable(t *testing.T) {
	s := NewVariableStore()
	require.NoError(t, s.Add(Variable{Name: "grain_factor", DefaultValue: 0.7, CurrentValue: 0.7}))
	before := s.Snapshot()

	_, err := s.Set("grain_factor", 0.5)
	require.NoError(t, err)

	v, ok := before.Get("grain_factor")
	require.True(t, ok)
	assert.Equal(t, 0.7, v.CurrentValue)
	got, err := s.Get("grain_factor")
	require.NoError(t, err)
	assert.Equal(t, 0.5, got)
	assert.Equal(t, before.Version+1, s.Snapshot().Version)
}

func TestVariableStoreErrors(t *testing.T) {
	s := NewVariableStore()
	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownVariable)
	_, err = s.Reset("missing")
	assert.ErrorIs(t, err, ErrUnknownVariable)
	assert.ErrorIs(t, s.Add(Variable{Name: "Bad"}), ErrInvalidName)

	require.NoError(t, s.Add(Variable{Name: "dm_factor", DefaultValue: 100, CurrentValue: 100}))
	assert.ErrorIs(t, s.Add(Variable{Name: "dm_factor"}), ErrVariableExists)
}

func TestVariableStoreAcceptsAnyValue(t *testing.T) {
	s := NewVariableStore()
	require.NoError(t, s.Add(Variable{Name: "f", DefaultValue: 1, CurrentValue: 1}))
	for _, v := range []float64{0, -12.5, 1e9} {
		got, err := s.Set("f", v)
		require.NoError(t, err)
		assert.Equal(t, v, got.CurrentValue)
	}
}

func TestVariableStoreConcurrentWriters(t *testing.T) {
	s := NewVariableStore()
	const n = 16
	for i := 0; i < n; i++ {
		require.NoError(t, s.Add(Variable{Name: fmt.Sprintf("v%d", i)}))
	}
	start := s.Snapshot().Version

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 1; j <= 20; j++ {
				_, err := s.Set(fmt.Sprintf("v%d", i), float64(j))
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, start+n*20, snap.Version)
	for i := 0; i < n; i++ {
		v, ok := snap.Get(fmt.Sprintf("v%d", i))
		require.True(t, ok)
		assert.Equal(t, 20.0, v.CurrentValue)
	}
}
