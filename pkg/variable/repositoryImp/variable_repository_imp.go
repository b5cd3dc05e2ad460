package repositoryImp

import (
	"gorm.io/gorm"

	"github.com/Pushparaj13811/plant-project-v/entities"
	"github.com/Pushparaj13811/plant-project-v/pkg/variable/repository"
)

type variableRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.VariableRepository { return &variableRepo{db} }

func (r *variableRepo) Create(v *entities.FormulaVariable) error { return r.db.Create(v).Error }

func (r *variableRepo) Save(v *entities.FormulaVariable) error { return save(r.db, v) }

func save(db *gorm.DB, v *entities.FormulaVariable) error {
	res := db.Model(&entities.FormulaVariable{}).Where("name = ?", v.Name).Updates(map[string]any{
		"display_name":  v.DisplayName,
		"description":   v.Description,
		"current_value": v.CurrentValue,
		"default_value": v.DefaultValue,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SaveAll writes the rows in one transaction.
func (r *variableRepo) SaveAll(vs []entities.FormulaVariable) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range vs {
			if err := save(tx, &vs[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *variableRepo) DeleteByName(name string) error {
	res := r.db.Where("name = ?", name).Delete(&entities.FormulaVariable{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *variableRepo) List() ([]entities.FormulaVariable, error) {
	var out []entities.FormulaVariable
	return out, r.db.Order("name asc").Find(&out).Error
}

func (r *variableRepo) Count() (int64, error) {
	var n int64
	return n, r.db.Model(&entities.FormulaVariable{}).Count(&n).Error
}
