package repositoryImp

import (
	"gorm.io/gorm"

	"github.com/Pushparaj13811/plant-project-v/entities"
	"github.com/Pushparaj13811/plant-project-v/pkg/formula/repository"
)

type formulaRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.FormulaRepository { return &formulaRepo{db} }

func (r *formulaRepo) Create(f *entities.Formula) error { return r.db.Create(f).Error }

func (r *formulaRepo) DeleteByName(name string) error {
	res := r.db.Where("name = ?", name).Delete(&entities.Formula{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *formulaRepo) List() ([]entities.Formula, error) {
	var out []entities.Formula
	return out, r.db.Order("seq asc").Find(&out).Error
}

func (r *formulaRepo) Count() (int64, error) {
	var n int64
	return n, r.db.Model(&entities.Formula{}).Count(&n).Error
}
