package backfill

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
)

type memStore struct {
	mu      sync.Mutex
	records []engine.InputRecord
	saved   map[uint]engine.CalculatedRecord
	saveErr map[uint]error

	// when set, SaveCalculated signals started and blocks until release closes
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newMemStore(n int) *memStore {
	s := &memStore{saved: map[uint]engine.CalculatedRecord{}, saveErr: map[uint]error{}}
	for i := 1; i <= n; i++ {
		mv := float64(i)
		s.records = append(s.records, engine.InputRecord{ID: uint(i), Numbers: map[string]*float64{"mv": &mv}})
	}
	return s
}

func (s *memStore) ListInputs(_ context.Context, afterID uint, limit int) ([]engine.InputRecord, error) {
	var out []engine.InputRecord
	for _, r := range s.records {
		if r.ID > afterID {
			out = append(out, r)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *memStore) SaveCalculated(ctx context.Context, rec engine.CalculatedRecord) error {
	if s.release != nil {
		s.once.Do(func() { close(s.started) })
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.release:
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveErr[rec.RecordID]; err != nil {
		return err
	}
	s.saved[rec.RecordID] = rec
	return nil
}

type jobTotals struct {
	succeeded, partial, failed int
	canceled                   bool
}

type captureObserver struct {
	mu   sync.Mutex
	jobs []jobTotals
}

func (c *captureObserver) ObserveBackfill(_ string, succeeded, partial, failed int, canceled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, jobTotals{succeeded, partial, failed, canceled})
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New()
	_, err := e.RegisterColumn(engine.ColumnInfo{Name: "mv", Type: engine.TypeNumber, Table: engine.TableInput}, nil)
	require.NoError(t, err)
	_, err = e.CreateFormula(engine.FormulaSpec{Name: "dm", Expression: "100 - mv", OutputColumn: "dm"}, nil)
	require.NoError(t, err)
	return e
}

type failingRecomputer struct {
	Recomputer
	failID uint
}

func (f failingRecomputer) Recompute(ctx context.Context, rec engine.InputRecord, table engine.Table) (engine.CalculatedRecord, error) {
	if rec.ID == f.failID {
		return engine.CalculatedRecord{}, &engine.RecomputeError{RecordID: rec.ID, Err: errors.New("broken")}
	}
	return f.Recomputer.Recompute(ctx, rec, table)
}

func TestRunRecomputesEveryRecord(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newMemStore(25)
	r := NewRunner(store, newEngine(t), WithWorkers(3), WithPageSize(10))
	rep, err := r.Run(context.Background(), engine.TableInput, "test")
	require.NoError(t, err)

	assert.Equal(t, 25, rep.Total)
	assert.Equal(t, 25, rep.Succeeded)
	assert.False(t, rep.Canceled)
	assert.NotEmpty(t, rep.JobID)
	require.Len(t, store.saved, 25)
	assert.Equal(t, 99.0, store.saved[1].Values["dm"])
	assert.Equal(t, 75.0, store.saved[25].Values["dm"])
}

func TestRunCollectsFailuresWithoutAborting(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newMemStore(6)
	store.records[1].Numbers["mv"] = nil
	store.saveErr[4] = errors.New("disk full")
	obs := &captureObserver{}

	r := NewRunner(store, failingRecomputer{Recomputer: newEngine(t), failID: 3}, WithPageSize(4), WithObserver(obs))
	rep, err := r.Run(context.Background(), engine.TableInput, "test")
	require.NoError(t, err)

	assert.Equal(t, 6, rep.Total)
	assert.Equal(t, 3, rep.Succeeded)
	assert.Equal(t, 1, rep.Partial)
	assert.Equal(t, 2, rep.Failed)
	require.Len(t, rep.Failures, 2)
	ids := []uint{rep.Failures[0].RecordID, rep.Failures[1].RecordID}
	assert.ElementsMatch(t, []uint{3, 4}, ids)
	assert.Contains(t, store.saved[2].Failures, "dm")
	assert.Equal(t, []jobTotals{{3, 1, 2, false}}, obs.jobs)
}

func TestRunHonoursCanceledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(newMemStore(3), newEngine(t))
	rep, err := r.Run(ctx, engine.TableInput, "test")
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, rep.Canceled)
	assert.Zero(t, rep.Total)
}

func TestTriggerCancelsInFlightJob(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newMemStore(5)
	store.started = make(chan struct{})
	store.release = make(chan struct{})
	obs := &captureObserver{}
	r := NewRunner(store, newEngine(t), WithWorkers(1), WithObserver(obs))
	defer r.Close()

	first := r.Trigger(engine.TableInput, "variable dm_factor")
	<-store.started
	second := r.Trigger(engine.TableInput, "variable dm_factor")
	assert.NotEqual(t, first, second)
	close(store.release)
	r.Wait()

	require.Len(t, obs.jobs, 2)
	assert.True(t, obs.jobs[0].canceled)
	assert.Equal(t, jobTotals{succeeded: 5}, obs.jobs[1])

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, second, last.JobID)
	assert.Equal(t, 5, last.Succeeded)
	assert.Len(t, store.saved, 5)
}
