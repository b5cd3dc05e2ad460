package serviceImp

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Pushparaj13811/plant-project-v/entities"
	"github.com/Pushparaj13811/plant-project-v/pkg/httpx"
	repo "github.com/Pushparaj13811/plant-project-v/pkg/plant/repository"
	"github.com/Pushparaj13811/plant-project-v/pkg/plant/service"
)

type plantSvc struct{ r repo.PlantRepository }

func NewPlantService(r repo.PlantRepository) service.PlantService { return &plantSvc{r} }

func (s *plantSvc) Create(p *entities.Plant) (*entities.Plant, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", httpx.ErrBadRequest)
	}
	if err := s.nameFree(p.Name, 0); err != nil {
		return nil, err
	}
	p.IsActive = true
	if err := s.r.Create(p); err != nil {
		return nil, fmt.Errorf("create plant: %w", err)
	}
	return p, nil
}

func (s *plantSvc) Get(id uint) (*entities.Plant, error) {
	p, err := s.r.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("get plant %d: %w", id, err)
	}
	return p, nil
}

func (s *plantSvc) List(isActive *bool, offset, limit int) ([]entities.Plant, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.r.List(isActive, offset, limit)
}

func (s *plantSvc) Update(id uint, patch service.PlantPatch) (*entities.Plant, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", httpx.ErrBadRequest)
		}
		if name != p.Name {
			if err := s.nameFree(name, id); err != nil {
				return nil, err
			}
		}
		p.Name = name
	}
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if err := s.r.Update(p); err != nil {
		return nil, fmt.Errorf("update plant %d: %w", id, err)
	}
	return p, nil
}

func (s *plantSvc) Deactivate(id uint) (*entities.Plant, error) {
	off := false
	return s.Update(id, service.PlantPatch{IsActive: &off})
}

func (s *plantSvc) nameFree(name string, self uint) error {
	other, err := s.r.FindByName(name)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != self:
		return fmt.Errorf("%w: plant with name %q already exists", httpx.ErrBadRequest, name)
	}
	return nil
}
