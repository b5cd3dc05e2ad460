package repository

import "github.com/Pushparaj13811/plant-project-v/entities"

type VariableRepository interface {
	Create(v *entities.FormulaVariable) error
	// Save writes every field of the row matched by name.
	Save(v *entities.FormulaVariable) error
	SaveAll(vs []entities.FormulaVariable) error
	DeleteByName(name string) error
	List() ([]entities.FormulaVariable, error)
	Count() (int64, error)
}
