package repository

import "github.com/Pushparaj13811/plant-project-v/entities"

type ColumnRepository interface {
	Create(c *entities.CustomColumn) error
	Delete(table, name string) error
	List() ([]entities.CustomColumn, error)
}
