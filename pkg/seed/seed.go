package seed

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
)

//go:embed default.yaml
var defaultFile []byte

type Column struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
	Type  string `yaml:"type"`
	Table string `yaml:"table"`
}

type Variable struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"display_name"`
	Description string   `yaml:"description"`
	Default     float64  `yaml:"default"`
	Current     *float64 `yaml:"current,omitempty"`
}

type Formula struct {
	Name       string `yaml:"name"`
	Output     string `yaml:"output"`
	Expression string `yaml:"expression"`
	Table      string `yaml:"table,omitempty"`
}

// File is the built-in catalog: columns, variables and formulas.
type File struct {
	Columns   []Column   `yaml:"columns"`
	Variables []Variable `yaml:"variables"`
	Formulas  []Formula  `yaml:"formulas"`
}

// Load reads path, or the embedded default when path is empty.
func Load(path string) (*File, error) {
	if path == "" {
		return Parse(defaultFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

// ColumnInfos converts the seeded columns into built-in registry entries.
func (f *File) ColumnInfos() ([]engine.ColumnInfo, error) {
	out := make([]engine.ColumnInfo, 0, len(f.Columns))
	for _, c := range f.Columns {
		table, err := engine.ParseTable(c.Table)
		if err != nil {
			return nil, fmt.Errorf("seed column %s: %w", c.Name, err)
		}
		out = append(out, engine.ColumnInfo{
			Name:   c.Name,
			Label:  c.Label,
			Type:   engine.ColumnType(c.Type),
			Table:  table,
			Origin: engine.OriginBuiltin,
		})
	}
	return out, nil
}

func (f *File) EngineVariables() []engine.Variable {
	out := make([]engine.Variable, 0, len(f.Variables))
	for _, v := range f.Variables {
		cur := v.Default
		if v.Current != nil {
			cur = *v.Current
		}
		out = append(out, engine.Variable{
			Name:         v.Name,
			DisplayName:  v.DisplayName,
			Description:  v.Description,
			DefaultValue: v.Default,
			CurrentValue: cur,
		})
	}
	return out
}

func (f *File) FormulaSpecs() ([]engine.FormulaSpec, error) {
	out := make([]engine.FormulaSpec, 0, len(f.Formulas))
	for _, fm := range f.Formulas {
		table := engine.TableInput
		if fm.Table != "" {
			t, err := engine.ParseTable(fm.Table)
			if err != nil {
				return nil, fmt.Errorf("seed formula %s: %w", fm.Name, err)
			}
			table = t
		}
		out = append(out, engine.FormulaSpec{
			Name:         fm.Name,
			Table:        table,
			Expression:   fm.Expression,
			OutputColumn: fm.Output,
			Builtin:      true,
		})
	}
	return out, nil
}

// RegisterColumns adds the built-in columns to e.
func (f *File) RegisterColumns(e *engine.Engine) error {
	cols, err := f.ColumnInfos()
	if err != nil {
		return err
	}
	for _, c := range cols {
		if _, err := e.RegisterColumn(c, nil); err != nil {
			return fmt.Errorf("seed column %s: %w", c.Name, err)
		}
	}
	return nil
}

// Apply loads the whole file into e without persistence.
func (f *File) Apply(e *engine.Engine) error {
	if err := f.RegisterColumns(e); err != nil {
		return err
	}
	for _, v := range f.EngineVariables() {
		if _, err := e.CreateVariable(v, nil); err != nil {
			return fmt.Errorf("seed variable %s: %w", v.Name, err)
		}
	}
	specs, err := f.FormulaSpecs()
	if err != nil {
		return err
	}
	for _, s := range specs {
		if _, err := e.LoadFormula(s); err != nil {
			return fmt.Errorf("seed formula %s: %w", s.Name, err)
		}
	}
	return nil
}
