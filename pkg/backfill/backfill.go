package backfill

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
)

// Store pages input records and persists their calculated rows.
type Store interface {
	ListInputs(ctx context.Context, afterID uint, limit int) ([]engine.InputRecord, error)
	SaveCalculated(ctx context.Context, rec engine.CalculatedRecord) error
}

type Recomputer interface {
	Recompute(ctx context.Context, rec engine.InputRecord, table engine.Table) (engine.CalculatedRecord, error)
}

// Scheduler queues a background job. Services that change what records derive from use it.
type Scheduler interface {
	Trigger(table engine.Table, reason string) string
}

// Observer receives the totals of every finished job.
type Observer interface {
	ObserveBackfill(table string, succeeded, partial, failed int, canceled bool)
}

type Failure struct {
	RecordID uint   `json:"record_id"`
	Error    string `json:"error"`
}

// Report summarizes one job. Partial counts records saved with at least one failed output.
type Report struct {
	JobID     string        `json:"job_id"`
	Table     engine.Table  `json:"table"`
	Reason    string        `json:"reason,omitempty"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Partial   int           `json:"partial"`
	Failed    int           `json:"failed"`
	Failures  []Failure     `json:"failures,omitempty"`
	Canceled  bool          `json:"canceled"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

type Option func(*Runner)

func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

func WithPageSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(r *Runner) { r.obs = o }
}

// maxFailures caps the failures kept in a Report.
const maxFailures = 100

// Runner recomputes every record of a table. A triggered job cancels the one in flight
// and starts once it has stopped, so an older job never saves after a newer one.
type Runner struct {
	store    Store
	eng      Recomputer
	log      *zap.Logger
	obs      Observer
	workers  int
	pageSize int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	last   *Report
	wg     sync.WaitGroup
}

func NewRunner(store Store, eng Recomputer, opts ...Option) *Runner {
	r := &Runner{
		store:    store,
		eng:      eng,
		log:      zap.NewNop(),
		workers:  4,
		pageSize: 200,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Trigger cancels any running job and schedules a new one in the background.
func (r *Runner) Trigger(table engine.Table, reason string) string {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	prev := r.done
	r.cancel, r.done = cancel, done
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer close(done)
		defer cancel()
		if prev != nil {
			<-prev
		}
		rep, err := r.run(ctx, id, table, reason)
		if err != nil && !errors.Is(err, context.Canceled) {
			r.log.Error("backfill failed", zap.String("job", id), zap.Error(err))
		}
		r.mu.Lock()
		r.last = &rep
		r.mu.Unlock()
	}()
	r.log.Info("backfill scheduled", zap.String("job", id), zap.String("table", string(table)), zap.String("reason", reason))
	return id
}

// Run executes one job synchronously.
func (r *Runner) Run(ctx context.Context, table engine.Table, reason string) (Report, error) {
	return r.run(ctx, uuid.NewString(), table, reason)
}

// Wait blocks until every triggered job has finished.
func (r *Runner) Wait() { r.wg.Wait() }

// Close cancels the running job and waits for it.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// Last returns the report of the most recent triggered job.
func (r *Runner) Last() (Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return Report{}, false
	}
	return *r.last, true
}

func (r *Runner) run(ctx context.Context, id string, table engine.Table, reason string) (Report, error) {
	rep := Report{JobID: id, Table: table, Reason: reason, StartedAt: time.Now()}
	log := r.log.With(zap.String("job", id), zap.String("table", string(table)))
	defer func() {
		rep.Duration = time.Since(rep.StartedAt)
		if r.obs != nil {
			r.obs.ObserveBackfill(string(table), rep.Succeeded, rep.Partial, rep.Failed, rep.Canceled)
		}
		log.Info("backfill finished",
			zap.Int("total", rep.Total),
			zap.Int("succeeded", rep.Succeeded),
			zap.Int("partial", rep.Partial),
			zap.Int("failed", rep.Failed),
			zap.Bool("canceled", rep.Canceled),
			zap.Duration("took", rep.Duration))
	}()

	var mu sync.Mutex
	fail := func(id uint, err error) {
		mu.Lock()
		rep.Failed++
		if len(rep.Failures) < maxFailures {
			rep.Failures = append(rep.Failures, Failure{RecordID: id, Error: err.Error()})
		}
		mu.Unlock()
	}

	var after uint
	for {
		if err := ctx.Err(); err != nil {
			rep.Canceled = true
			return rep, err
		}
		page, err := r.store.ListInputs(ctx, after, r.pageSize)
		if err != nil {
			if ctx.Err() != nil {
				rep.Canceled = true
			}
			return rep, err
		}
		if len(page) == 0 {
			return rep, nil
		}

		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(r.workers)
		for _, rec := range page {
			if egCtx.Err() != nil {
				break
			}
			eg.Go(func() error {
				if egCtx.Err() != nil {
					return nil
				}
				calc, err := r.eng.Recompute(egCtx, rec, table)
				if err != nil {
					fail(rec.ID, err)
					return nil
				}
				if err := r.store.SaveCalculated(egCtx, calc); err != nil {
					if egCtx.Err() == nil {
						fail(rec.ID, err)
					}
					return nil
				}
				mu.Lock()
				if len(calc.Failures) > 0 {
					rep.Partial++
				} else {
					rep.Succeeded++
				}
				mu.Unlock()
				return nil
			})
		}
		_ = eg.Wait()
		rep.Total = rep.Succeeded + rep.Partial + rep.Failed
		after = page[len(page)-1].ID
		log.Debug("backfill page done", zap.Uint("after", after), zap.Int("total", rep.Total))
	}
}
