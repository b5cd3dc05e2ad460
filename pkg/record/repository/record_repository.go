package repository

import (
	"context"
	"time"

	"github.com/Pushparaj13811/plant-project-v/entities"
	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
)

// Filter selects records. From and To are inclusive days. A zero Limit means no limit.
type Filter struct {
	PlantID *uint
	From    *time.Time
	To      *time.Time
	Offset  int
	Limit   int
}

type RecordRepository interface {
	// Create and Update write the record and its calculated row in one transaction.
	// calc may be nil when the recompute was aborted; Update then drops the old calculated row.
	Create(ctx context.Context, r *entities.PlantRecord, calc *entities.CalculatedRecord) error
	Update(ctx context.Context, r *entities.PlantRecord, calc *entities.CalculatedRecord) error
	FindByID(ctx context.Context, id uint) (*entities.PlantRecord, error)
	List(ctx context.Context, f Filter) ([]entities.PlantRecord, int64, error)
	Delete(ctx context.Context, id uint) error
	PlantExists(ctx context.Context, id uint) (bool, error)

	// backfill.Store
	ListInputs(ctx context.Context, afterID uint, limit int) ([]engine.InputRecord, error)
	SaveCalculated(ctx context.Context, rec engine.CalculatedRecord) error
}
