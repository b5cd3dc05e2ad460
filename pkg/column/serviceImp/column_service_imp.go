package serviceImp

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Pushparaj13811/plant-project-v/entities"
	repo "github.com/Pushparaj13811/plant-project-v/pkg/column/repository"
	"github.com/Pushparaj13811/plant-project-v/pkg/column/service"
	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
)

type columnSvc struct {
	r   repo.ColumnRepository
	eng *engine.Engine
	log *zap.Logger
}

func NewColumnService(r repo.ColumnRepository, eng *engine.Engine, log *zap.Logger) service.ColumnService {
	if log == nil {
		log = zap.NewNop()
	}
	return &columnSvc{r: r, eng: eng, log: log}
}

func (s *columnSvc) List(table string) ([]engine.ColumnInfo, error) {
	if table == "" {
		return append(s.eng.ListColumns(engine.TableInput), s.eng.ListColumns(engine.TableCalculated)...), nil
	}
	t, err := engine.ParseTable(table)
	if err != nil {
		return nil, err
	}
	return s.eng.ListColumns(t), nil
}

func (s *columnSvc) Create(in service.ColumnInput) (engine.ColumnInfo, error) {
	t := engine.TableInput
	if in.Table != "" {
		var err error
		if t, err = engine.ParseTable(in.Table); err != nil {
			return engine.ColumnInfo{}, err
		}
	}
	typ := engine.ColumnType(in.Type)
	if typ == "" {
		typ = engine.TypeNumber
	}
	c := engine.ColumnInfo{
		Name:   strings.TrimSpace(in.Name),
		Label:  in.Label,
		Type:   typ,
		Table:  t,
		Origin: engine.OriginCustom,
	}
	out, err := s.eng.RegisterColumn(c, func(c engine.ColumnInfo) error {
		return s.r.Create(&entities.CustomColumn{Name: c.Name, Table: string(c.Table), Label: c.Label, Type: string(c.Type)})
	})
	if err != nil {
		return engine.ColumnInfo{}, fmt.Errorf("create column %q: %w", c.Name, err)
	}
	s.log.Info("column created", zap.String("column", out.Name), zap.String("table", string(out.Table)))
	return out, nil
}

func (s *columnSvc) Delete(table, name string) error {
	t, err := engine.ParseTable(table)
	if err != nil {
		return err
	}
	err = s.eng.RemoveColumn(t, name, func(c engine.ColumnInfo) error {
		return s.r.Delete(string(c.Table), c.Name)
	})
	if err != nil {
		return fmt.Errorf("delete column %s.%s: %w", t, name, err)
	}
	return nil
}

func (s *columnSvc) Load() error {
	rows, err := s.r.List()
	if err != nil {
		return fmt.Errorf("list columns: %w", err)
	}
	for _, row := range rows {
		_, err := s.eng.RegisterColumn(engine.ColumnInfo{
			Name:   row.Name,
			Label:  row.Label,
			Type:   engine.ColumnType(row.Type),
			Table:  engine.Table(row.Table),
			Origin: engine.OriginCustom,
		}, nil)
		if err != nil {
			return fmt.Errorf("load column %s: %w", row.Name, err)
		}
	}
	s.log.Info("custom columns loaded", zap.Int("count", len(rows)))
	return nil
}
