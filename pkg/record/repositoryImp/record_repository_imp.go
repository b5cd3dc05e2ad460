package repositoryImp

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Pushparaj13811/plant-project-v/entities"
	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
	"github.com/Pushparaj13811/plant-project-v/pkg/record/repository"
)

type recordRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.RecordRepository { return &recordRepo{db} }

func upsertCalculated(tx *gorm.DB, calc *entities.CalculatedRecord) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"output_values", "output_errors", "variable_version", "computed_at"}),
	}).Create(calc).Error
}

func (r *recordRepo) Create(ctx context.Context, rec *entities.PlantRecord, calc *entities.CalculatedRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the calculated row is written explicitly below
		if err := tx.Omit("Calculated").Create(rec).Error; err != nil {
			return err
		}
		if calc == nil {
			return nil
		}
		calc.RecordID = rec.ID
		if err := upsertCalculated(tx, calc); err != nil {
			return err
		}
		rec.Calculated = calc
		return nil
	})
}

// Update saves rec and bumps its revision. A nil calc removes the stale calculated row.
func (r *recordRepo) Update(ctx context.Context, rec *entities.PlantRecord, calc *entities.CalculatedRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Calculated", "Revision").Save(rec).Error; err != nil {
			return err
		}
		if err := tx.Model(&entities.PlantRecord{}).Where("id = ?", rec.ID).
			UpdateColumn("revision", gorm.Expr("revision + 1")).Error; err != nil {
			return err
		}
		if err := tx.Model(&entities.PlantRecord{}).Select("revision").Where("id = ?", rec.ID).
			Scan(&rec.Revision).Error; err != nil {
			return err
		}
		if calc == nil {
			rec.Calculated = nil
			return tx.Delete(&entities.CalculatedRecord{}, "record_id = ?", rec.ID).Error
		}
		calc.RecordID = rec.ID
		if err := upsertCalculated(tx, calc); err != nil {
			return err
		}
		rec.Calculated = calc
		return nil
	})
}

func (r *recordRepo) FindByID(ctx context.Context, id uint) (*entities.PlantRecord, error) {
	var rec entities.PlantRecord
	if err := r.db.WithContext(ctx).Preload("Calculated").First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recordRepo) List(ctx context.Context, f repository.Filter) ([]entities.PlantRecord, int64, error) {
	scope := func(q *gorm.DB) *gorm.DB {
		if f.PlantID != nil {
			q = q.Where("plant_id = ?", *f.PlantID)
		}
		if f.From != nil {
			q = q.Where("date >= ?", *f.From)
		}
		if f.To != nil {
			q = q.Where("date < ?", f.To.AddDate(0, 0, 1))
		}
		return q
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.PlantRecord{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := r.db.WithContext(ctx).Scopes(scope).Preload("Calculated").Order("date desc, id desc").Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []entities.PlantRecord
	return out, total, q.Find(&out).Error
}

func (r *recordRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entities.CalculatedRecord{}, "record_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&entities.PlantRecord{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *recordRepo) PlantExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Plant{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *recordRepo) ListInputs(ctx context.Context, afterID uint, limit int) ([]engine.InputRecord, error) {
	var page []entities.PlantRecord
	err := r.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id asc").
		Limit(limit).
		Find(&page).Error
	if err != nil {
		return nil, err
	}
	out := make([]engine.InputRecord, len(page))
	for i := range page {
		out[i] = page[i].Input()
	}
	return out, nil
}

// SaveCalculated upserts the derived row only while the record still holds the revision
// it was computed from. Records deleted or edited mid-backfill are skipped: their own
// write already stored a fresher row.
func (r *recordRepo) SaveCalculated(ctx context.Context, rec engine.CalculatedRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the no-op update takes the row lock so a concurrent edit cannot slip in before the upsert
		res := tx.Model(&entities.PlantRecord{}).
			Where("id = ? AND revision = ?", rec.RecordID, rec.InputRevision).
			UpdateColumn("revision", gorm.Expr("revision"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return upsertCalculated(tx, entities.NewCalculatedRecord(rec))
	})
}
