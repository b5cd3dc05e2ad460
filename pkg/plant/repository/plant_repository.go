package repository

import "github.com/Pushparaj13811/plant-project-v/entities"

type PlantRepository interface {
	Create(p *entities.Plant) error
	Update(p *entities.Plant) error
	FindByID(id uint) (*entities.Plant, error)
	FindByName(name string) (*entities.Plant, error)
	List(isActive *bool, offset, limit int) ([]entities.Plant, error)
}
