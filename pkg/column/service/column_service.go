package service

import "github.com/Pushparaj13811/plant-project-v/pkg/engine"

type ColumnService interface {
	// List returns the columns of table; an empty table returns input then calculated.
	List(table string) ([]engine.ColumnInfo, error)
	Create(in ColumnInput) (engine.ColumnInfo, error)
	Delete(table, name string) error
	// Load registers the persisted custom columns. Built-in columns must already be registered.
	Load() error
}

type ColumnInput struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
	Table string `json:"table"`
}
