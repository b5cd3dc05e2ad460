package service

import (
	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
	"github.com/Pushparaj13811/plant-project-v/pkg/seed"
)

type VariableService interface {
	List() []engine.Variable
	Get(name string) (engine.Variable, error)
	Create(in VariableInput) (engine.Variable, error)
	Update(name string, patch VariablePatch) (engine.Variable, error)
	Reset(name string) (engine.Variable, error)
	ResetAll() ([]engine.Variable, error)
	Delete(name string) error
	// Load restores the persisted variables, seeding an empty table first.
	Load(defaults *seed.File) error
}

// VariableInput creates a variable. CurrentValue defaults to DefaultValue.
type VariableInput struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"display_name"`
	Description  string   `json:"description"`
	DefaultValue float64  `json:"default_value"`
	CurrentValue *float64 `json:"current_value"`
}

type VariablePatch struct {
	DisplayName  *string  `json:"display_name"`
	Description  *string  `json:"description"`
	DefaultValue *float64 `json:"default_value"`
	CurrentValue *float64 `json:"current_value"`
}
