package serviceImp

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Pushparaj13811/plant-project-v/entities"
	"github.com/Pushparaj13811/plant-project-v/pkg/backfill"
	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
	repo "github.com/Pushparaj13811/plant-project-v/pkg/formula/repository"
	"github.com/Pushparaj13811/plant-project-v/pkg/formula/service"
	"github.com/Pushparaj13811/plant-project-v/pkg/seed"
)

type formulaSvc struct {
	r     repo.FormulaRepository
	eng   *engine.Engine
	sched backfill.Scheduler
	log   *zap.Logger
}

func NewFormulaService(r repo.FormulaRepository, eng *engine.Engine, sched backfill.Scheduler, log *zap.Logger) service.FormulaService {
	if log == nil {
		log = zap.NewNop()
	}
	return &formulaSvc{r: r, eng: eng, sched: sched, log: log}
}

func parseTable(s string) (engine.Table, error) {
	if s == "" {
		return "", nil
	}
	return engine.ParseTable(s)
}

func (s *formulaSvc) List(table string) ([]engine.Formula, error) {
	t, err := parseTable(table)
	if err != nil {
		return nil, err
	}
	return s.eng.ListFormulas(t), nil
}

func (s *formulaSvc) Get(name string) (engine.Formula, error) {
	return s.eng.Formula(name)
}

func (s *formulaSvc) Order(table string) ([]engine.Formula, error) {
	t, err := parseTable(table)
	if err != nil {
		return nil, err
	}
	if t == "" {
		t = engine.TableInput
	}
	return s.eng.Order(t)
}

func (s *formulaSvc) Create(in service.FormulaInput) (engine.Formula, error) {
	t, err := parseTable(in.Table)
	if err != nil {
		return engine.Formula{}, err
	}
	spec := engine.FormulaSpec{
		Name:         strings.TrimSpace(in.Name),
		Table:        t,
		Expression:   in.Expression,
		OutputColumn: strings.TrimSpace(in.OutputColumn),
		Label:        in.Label,
	}
	if spec.OutputColumn == "" {
		spec.OutputColumn = spec.Name
	}
	f, err := s.eng.CreateFormula(spec, func(f engine.Formula) error {
		return s.r.Create(toRow(f, in.Label))
	})
	if err != nil {
		return engine.Formula{}, fmt.Errorf("create formula %q: %w", spec.Name, err)
	}
	s.sched.Trigger(f.Table, "formula "+f.Name+" created")
	return f, nil
}

func (s *formulaSvc) Delete(name string) error {
	var table engine.Table
	err := s.eng.DeleteFormula(name, func(f engine.Formula) error {
		table = f.Table
		return s.r.DeleteByName(f.Name)
	})
	if err != nil {
		return fmt.Errorf("delete formula %q: %w", name, err)
	}
	s.sched.Trigger(table, "formula "+name+" deleted")
	return nil
}

func toRow(f engine.Formula, label string) *entities.Formula {
	return &entities.Formula{
		Seq:          f.Seq,
		Name:         f.Name,
		Table:        string(f.Table),
		Expression:   f.Expression,
		OutputColumn: f.OutputColumn,
		Label:        label,
		Builtin:      f.Builtin,
	}
}

func (s *formulaSvc) Load(defaults *seed.File) error {
	n, err := s.r.Count()
	if err != nil {
		return fmt.Errorf("count formulas: %w", err)
	}
	if n == 0 && defaults != nil {
		specs, err := defaults.FormulaSpecs()
		if err != nil {
			return err
		}
		for _, spec := range specs {
			if _, err := s.eng.CreateFormula(spec, func(f engine.Formula) error {
				return s.r.Create(toRow(f, spec.Label))
			}); err != nil {
				return fmt.Errorf("seed formula %s: %w", spec.Name, err)
			}
		}
		s.log.Info("formulas seeded", zap.Int("count", len(specs)))
		return nil
	}

	rows, err := s.r.List()
	if err != nil {
		return fmt.Errorf("list formulas: %w", err)
	}
	for _, row := range rows {
		_, err := s.eng.LoadFormula(engine.FormulaSpec{
			Name:         row.Name,
			Table:        engine.Table(row.Table),
			Expression:   row.Expression,
			OutputColumn: row.OutputColumn,
			Label:        row.Label,
			Builtin:      row.Builtin,
			Seq:          row.Seq,
		})
		if err != nil {
			// a stored formula that no longer validates stays in the DB for inspection
			s.log.Warn("formula not loaded", zap.String("formula", row.Name), zap.Error(err))
		}
	}
	s.log.Info("formulas loaded", zap.Int("count", len(rows)))
	return nil
}
