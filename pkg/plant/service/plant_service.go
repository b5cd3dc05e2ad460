package service

import "github.com/Pushparaj13811/plant-project-v/entities"

type PlantService interface {
	Create(p *entities.Plant) (*entities.Plant, error)
	Get(id uint) (*entities.Plant, error)
	List(isActive *bool, offset, limit int) ([]entities.Plant, error)
	Update(id uint, patch PlantPatch) (*entities.Plant, error)
	// Deactivate marks the plant inactive; records keep their plant_id.
	Deactivate(id uint) (*entities.Plant, error)
}

type PlantPatch struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}
