package repositoryImp

import (
	"gorm.io/gorm"

	"github.com/Pushparaj13811/plant-project-v/entities"
	"github.com/Pushparaj13811/plant-project-v/pkg/plant/repository"
)

type plantRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.PlantRepository { return &plantRepo{db} }

func (r *plantRepo) Create(p *entities.Plant) error { return r.db.Create(p).Error }

// Update saves every column so is_active=false is written too.
func (r *plantRepo) Update(p *entities.Plant) error { return r.db.Save(p).Error }

func (r *plantRepo) FindByID(id uint) (*entities.Plant, error) {
	var p entities.Plant
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *plantRepo) FindByName(name string) (*entities.Plant, error) {
	var p entities.Plant
	if err := r.db.Where("name = ?", name).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *plantRepo) List(isActive *bool, offset, limit int) ([]entities.Plant, error) {
	q := r.db.Model(&entities.Plant{})
	if isActive != nil {
		q = q.Where("is_active = ?", *isActive)
	}
	var out []entities.Plant
	return out, q.Order("name asc, id asc").Offset(offset).Limit(limit).Find(&out).Error
}
