package repository

import "github.com/Pushparaj13811/plant-project-v/entities"

type FormulaRepository interface {
	Create(f *entities.Formula) error
	DeleteByName(name string) error
	// List returns every formula in Seq order.
	List() ([]entities.Formula, error)
	Count() (int64, error)
}
