package serviceImp

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Pushparaj13811/plant-project-v/entities"
	"github.com/Pushparaj13811/plant-project-v/pkg/backfill"
	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
	"github.com/Pushparaj13811/plant-project-v/pkg/seed"
	repo "github.com/Pushparaj13811/plant-project-v/pkg/variable/repository"
	"github.com/Pushparaj13811/plant-project-v/pkg/variable/service"
)

type variableSvc struct {
	r     repo.VariableRepository
	eng   *engine.Engine
	sched backfill.Scheduler
	log   *zap.Logger
}

func NewVariableService(r repo.VariableRepository, eng *engine.Engine, sched backfill.Scheduler, log *zap.Logger) service.VariableService {
	if log == nil {
		log = zap.NewNop()
	}
	return &variableSvc{r: r, eng: eng, sched: sched, log: log}
}

func toRow(v engine.Variable) *entities.FormulaVariable {
	return &entities.FormulaVariable{
		Name:         v.Name,
		DisplayName:  v.DisplayName,
		Description:  v.Description,
		CurrentValue: v.CurrentValue,
		DefaultValue: v.DefaultValue,
	}
}

func (s *variableSvc) save(v engine.Variable) error { return s.r.Save(toRow(v)) }

func (s *variableSvc) List() []engine.Variable { return s.eng.ListVariables() }

func (s *variableSvc) Get(name string) (engine.Variable, error) { return s.eng.Variable(name) }

func (s *variableSvc) Create(in service.VariableInput) (engine.Variable, error) {
	v := engine.Variable{
		Name:         strings.TrimSpace(in.Name),
		DisplayName:  in.DisplayName,
		Description:  in.Description,
		DefaultValue: in.DefaultValue,
		CurrentValue: in.DefaultValue,
	}
	if in.CurrentValue != nil {
		v.CurrentValue = *in.CurrentValue
	}
	out, err := s.eng.CreateVariable(v, func(v engine.Variable) error {
		return s.r.Create(toRow(v))
	})
	if err != nil {
		return engine.Variable{}, fmt.Errorf("create variable %q: %w", v.Name, err)
	}
	return out, nil
}

// Update merges the patch into the stored variable under the engine's per-variable lock.
func (s *variableSvc) Update(name string, p service.VariablePatch) (engine.Variable, error) {
	out, err := s.eng.PatchVariable(name, func(v *engine.Variable) {
		if p.DisplayName != nil {
			v.DisplayName = *p.DisplayName
		}
		if p.Description != nil {
			v.Description = *p.Description
		}
		if p.DefaultValue != nil {
			v.DefaultValue = *p.DefaultValue
		}
		if p.CurrentValue != nil {
			v.CurrentValue = *p.CurrentValue
		}
	}, s.save)
	if err != nil {
		return engine.Variable{}, fmt.Errorf("update variable %q: %w", name, err)
	}
	if p.CurrentValue != nil {
		s.sched.Trigger(engine.TableInput, "variable "+name)
	}
	return out, nil
}

func (s *variableSvc) Reset(name string) (engine.Variable, error) {
	out, err := s.eng.ResetVariable(name, s.save)
	if err != nil {
		return engine.Variable{}, fmt.Errorf("reset variable %q: %w", name, err)
	}
	s.sched.Trigger(engine.TableInput, "variable "+name+" reset")
	return out, nil
}

func (s *variableSvc) ResetAll() ([]engine.Variable, error) {
	out, err := s.eng.ResetAllVariables(func(vs []engine.Variable) error {
		rows := make([]entities.FormulaVariable, len(vs))
		for i, v := range vs {
			rows[i] = *toRow(v)
		}
		return s.r.SaveAll(rows)
	})
	if err != nil {
		return nil, fmt.Errorf("reset variables: %w", err)
	}
	s.sched.Trigger(engine.TableInput, "variables reset")
	return out, nil
}

func (s *variableSvc) Delete(name string) error {
	err := s.eng.DeleteVariable(name, func(v engine.Variable) error {
		return s.r.DeleteByName(v.Name)
	})
	if err != nil {
		return fmt.Errorf("delete variable %q: %w", name, err)
	}
	return nil
}

func (s *variableSvc) Load(defaults *seed.File) error {
	n, err := s.r.Count()
	if err != nil {
		return fmt.Errorf("count variables: %w", err)
	}
	if n == 0 && defaults != nil {
		for _, v := range defaults.EngineVariables() {
			if _, err := s.eng.CreateVariable(v, func(v engine.Variable) error {
				return s.r.Create(toRow(v))
			}); err != nil {
				return fmt.Errorf("seed variable %s: %w", v.Name, err)
			}
		}
		s.log.Info("variables seeded", zap.Int("count", len(defaults.Variables)))
		return nil
	}

	rows, err := s.r.List()
	if err != nil {
		return fmt.Errorf("list variables: %w", err)
	}
	for _, row := range rows {
		if _, err := s.eng.CreateVariable(engine.Variable{
			Name:         row.Name,
			DisplayName:  row.DisplayName,
			Description:  row.Description,
			DefaultValue: row.DefaultValue,
			CurrentValue: row.CurrentValue,
		}, nil); err != nil {
			return fmt.Errorf("load variable %s: %w", row.Name, err)
		}
	}
	s.log.Info("variables loaded", zap.Int("count", len(rows)))
	return nil
}
