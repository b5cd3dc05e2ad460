package repositoryImp

import (
	"gorm.io/gorm"

	"github.com/Pushparaj13811/plant-project-v/entities"
	"github.com/Pushparaj13811/plant-project-v/pkg/column/repository"
)

type columnRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.ColumnRepository { return &columnRepo{db} }

func (r *columnRepo) Create(c *entities.CustomColumn) error { return r.db.Create(c).Error }

func (r *columnRepo) Delete(table, name string) error {
	res := r.db.Where("table_name = ? AND name = ?", table, name).Delete(&entities.CustomColumn{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *columnRepo) List() ([]entities.CustomColumn, error) {
	var out []entities.CustomColumn
	return out, r.db.Order("id asc").Find(&out).Error
}
