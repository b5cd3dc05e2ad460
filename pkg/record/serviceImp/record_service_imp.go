package serviceImp

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Pushparaj13811/plant-project-v/entities"
	"github.com/Pushparaj13811/plant-project-v/pkg/backfill"
	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
	"github.com/Pushparaj13811/plant-project-v/pkg/export"
	"github.com/Pushparaj13811/plant-project-v/pkg/httpx"
	repo "github.com/Pushparaj13811/plant-project-v/pkg/record/repository"
	"github.com/Pushparaj13811/plant-project-v/pkg/record/service"
)

const dateLayout = "2006-01-02"

// Calculator is the part of the engine the record service needs.
type Calculator interface {
	Recompute(ctx context.Context, rec engine.InputRecord, table engine.Table) (engine.CalculatedRecord, error)
	ListColumns(table engine.Table) []engine.ColumnInfo
	ResolveColumn(table engine.Table, name string) (engine.ColumnInfo, error)
}

type Backfiller interface {
	Run(ctx context.Context, table engine.Table, reason string) (backfill.Report, error)
}

type recordSvc struct {
	r      repo.RecordRepository
	calc   Calculator
	runner Backfiller
	log    *zap.Logger
}

func NewRecordService(r repo.RecordRepository, calc Calculator, runner Backfiller, log *zap.Logger) service.RecordService {
	if log == nil {
		log = zap.NewNop()
	}
	return &recordSvc{r: r, calc: calc, runner: runner, log: log}
}

func (s *recordSvc) Create(ctx context.Context, in service.RecordInput) (*entities.PlantRecord, error) {
	if in.PlantID == 0 {
		return nil, fmt.Errorf("%w: plant_id is required", httpx.ErrBadRequest)
	}
	if in.Date == "" {
		return nil, fmt.Errorf("%w: date is required", httpx.ErrBadRequest)
	}
	d, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", httpx.ErrBadRequest, in.Date)
	}
	rec := &entities.PlantRecord{
		PlantID: in.PlantID, Date: d,
		Code: in.Code, Product: in.Product, TruckNo: in.TruckNo, BillNo: in.BillNo,
		PartyName: in.PartyName, Notes: in.Notes,
		Rate: in.Rate, MV: in.MV, Oil: in.Oil, Fiber: in.Fiber, Starch: in.Starch, MaizeRate: in.MaizeRate,
	}
	if err := s.applyCustom(rec, in.Custom); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.r.Create(ctx, rec, s.derive(ctx, rec)); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	s.log.Debug("record created", zap.Uint("record", rec.ID), zap.Uint("plant", rec.PlantID))
	return rec, nil
}

func (s *recordSvc) Get(ctx context.Context, id uint) (*entities.PlantRecord, error) {
	rec, err := s.r.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return rec, nil
}

func (s *recordSvc) List(ctx context.Context, f repo.Filter) ([]entities.PlantRecord, int64, error) {
	return s.r.List(ctx, f)
}

func (s *recordSvc) Update(ctx context.Context, id uint, p service.RecordPatch) (*entities.PlantRecord, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.PlantID != nil {
		cur.PlantID = *p.PlantID
	}
	if p.Date != nil {
		d, err := time.Parse(dateLayout, *p.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q", httpx.ErrBadRequest, *p.Date)
		}
		cur.Date = d
	}
	if p.Code != nil {
		cur.Code = *p.Code
	}
	if p.Product != nil {
		cur.Product = *p.Product
	}
	if p.TruckNo != nil {
		cur.TruckNo = *p.TruckNo
	}
	if p.BillNo != nil {
		cur.BillNo = *p.BillNo
	}
	if p.PartyName != nil {
		cur.PartyName = *p.PartyName
	}
	if p.Notes != nil {
		cur.Notes = *p.Notes
	}
	p.Rate.ApplyTo(&cur.Rate)
	p.MV.ApplyTo(&cur.MV)
	p.Oil.ApplyTo(&cur.Oil)
	p.Fiber.ApplyTo(&cur.Fiber)
	p.Starch.ApplyTo(&cur.Starch)
	p.MaizeRate.ApplyTo(&cur.MaizeRate)
	if err := s.applyCustom(cur, p.Custom); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, cur); err != nil {
		return nil, err
	}
	if err := s.r.Update(ctx, cur, s.derive(ctx, cur)); err != nil {
		return nil, fmt.Errorf("update record %d: %w", id, err)
	}
	return cur, nil
}

func (s *recordSvc) Delete(ctx context.Context, id uint) (*entities.PlantRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.r.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete record %d: %w", id, err)
	}
	return rec, nil
}

// derive recomputes the calculated row. An aborted recompute leaves the record
// without one until the next backfill, on create and on update alike.
func (s *recordSvc) derive(ctx context.Context, rec *entities.PlantRecord) *entities.CalculatedRecord {
	calc, err := s.calc.Recompute(ctx, rec.Input(), engine.TableInput)
	if err != nil {
		s.log.Warn("recompute aborted", zap.Uint("record", rec.ID), zap.Error(err))
		return nil
	}
	return entities.NewCalculatedRecord(calc)
}

var percentFields = []string{"mv", "oil", "fiber", "starch"}

func (s *recordSvc) validate(ctx context.Context, rec *entities.PlantRecord) error {
	ok, err := s.r.PlantExists(ctx, rec.PlantID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: plant %d does not exist", httpx.ErrBadRequest, rec.PlantID)
	}
	nums := rec.Numbers()
	for name, v := range nums {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%w: %s must be finite", httpx.ErrBadRequest, name)
		}
	}
	for _, name := range percentFields {
		if v := nums[name]; v != nil && (*v < 0 || *v > 100) {
			return fmt.Errorf("%w: %s must be between 0 and 100", httpx.ErrBadRequest, name)
		}
	}
	for _, name := range []string{"rate", "maize_rate"} {
		if v := nums[name]; v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must not be negative", httpx.ErrBadRequest, name)
		}
	}
	return nil
}

// applyCustom merges custom column values into rec after checking them against the registry.
func (s *recordSvc) applyCustom(rec *entities.PlantRecord, custom map[string]any) error {
	for name, v := range custom {
		col, err := s.calc.ResolveColumn(engine.TableInput, name)
		if err != nil {
			return fmt.Errorf("%w: unknown input column %q", httpx.ErrBadRequest, name)
		}
		if col.Origin != engine.OriginCustom {
			return fmt.Errorf("%w: %q is a built-in column", httpx.ErrBadRequest, name)
		}
		if v == nil {
			delete(rec.Custom, name)
			continue
		}
		switch col.Type {
		case engine.TypeNumber:
			if _, ok := v.(float64); !ok {
				return fmt.Errorf("%w: %s must be a number", httpx.ErrBadRequest, name)
			}
		case engine.TypeText:
			if _, ok := v.(string); !ok {
				return fmt.Errorf("%w: %s must be text", httpx.ErrBadRequest, name)
			}
		case engine.TypeDate:
			str, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: %s must be a date", httpx.ErrBadRequest, name)
			}
			if _, err := time.Parse(dateLayout, str); err != nil {
				return fmt.Errorf("%w: %s must be a date", httpx.ErrBadRequest, name)
			}
		}
		if rec.Custom == nil {
			rec.Custom = map[string]any{}
		}
		rec.Custom[name] = v
	}
	return nil
}

func (s *recordSvc) Statistics(ctx context.Context, f repo.Filter) (*service.Statistics, error) {
	f.Offset, f.Limit = 0, 0
	records, total, err := s.r.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}

	type acc struct {
		sum float64
		n   int
	}
	inputs := numberColumns(s.calc.ListColumns(engine.TableInput))
	outputs := numberColumns(s.calc.ListColumns(engine.TableCalculated))
	sums := map[string]*acc{}
	for _, name := range append(append([]string{}, inputs...), outputs...) {
		sums[name] = &acc{}
	}
	add := func(name string, v *float64) {
		if a := sums[name]; a != nil && v != nil {
			a.sum += *v
			a.n++
		}
	}

	out := &service.Statistics{TotalRecords: total, Averages: map[string]*float64{}}
	var minD, maxD time.Time
	for i := range records {
		r := &records[i]
		if minD.IsZero() || r.Date.Before(minD) {
			minD = r.Date
		}
		if r.Date.After(maxD) {
			maxD = r.Date
		}
		nums := r.Numbers()
		for _, name := range inputs {
			add(name, nums[name])
		}
		if r.Calculated != nil {
			for _, name := range outputs {
				add(name, r.Calculated.Values[name])
			}
		}
	}
	for name, a := range sums {
		if a.n == 0 {
			out.Averages[name] = nil
			continue
		}
		avg := a.sum / float64(a.n)
		out.Averages[name] = &avg
	}
	if len(records) > 0 {
		lo, hi := minD.Format(dateLayout), maxD.Format(dateLayout)
		out.DateRange = service.DateRange{Min: &lo, Max: &hi}
	}
	return out, nil
}

func numberColumns(cols []engine.ColumnInfo) []string {
	var out []string
	for _, c := range cols {
		if c.Type == engine.TypeNumber {
			out = append(out, c.Name)
		}
	}
	return out
}

func (s *recordSvc) AvailableColumns() service.ColumnCategories {
	out := service.ColumnCategories{
		InputVariables: []engine.ColumnInfo{},
		DryVariables:   s.calc.ListColumns(engine.TableCalculated),
		GeneralInfo:    []engine.ColumnInfo{},
	}
	for _, c := range s.calc.ListColumns(engine.TableInput) {
		if c.Type == engine.TypeNumber {
			out.InputVariables = append(out.InputVariables, c)
		} else {
			out.GeneralInfo = append(out.GeneralInfo, c)
		}
	}
	return out
}

func (s *recordSvc) Recompute(ctx context.Context) (backfill.Report, error) {
	return s.runner.Run(ctx, engine.TableInput, "manual")
}

func (s *recordSvc) Export(ctx context.Context, f repo.Filter, w io.Writer) error {
	f.Offset, f.Limit = 0, 0
	records, _, err := s.r.List(ctx, f)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	layout := export.LayoutFrom(s.calc.ListColumns(engine.TableInput), s.calc.ListColumns(engine.TableCalculated))
	return export.Write(w, layout, records)
}
