package service

import (
	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
	"github.com/Pushparaj13811/plant-project-v/pkg/seed"
)

type FormulaService interface {
	// List returns the formulas of table in creation order; an empty table lists all.
	List(table string) ([]engine.Formula, error)
	Get(name string) (engine.Formula, error)
	// Order returns the formulas of table in evaluation order.
	Order(table string) ([]engine.Formula, error)
	Create(in FormulaInput) (engine.Formula, error)
	Delete(name string) error
	// Load restores the persisted formulas into the engine, seeding an empty table first.
	Load(defaults *seed.File) error
}

type FormulaInput struct {
	Name         string `json:"name"`
	Table        string `json:"table"`
	Expression   string `json:"expression"`
	OutputColumn string `json:"output_column"`
	Label        string `json:"label"`
}
