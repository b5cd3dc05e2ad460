package service

import (
	"context"
	"encoding/json"
	"io"

	"github.com/Pushparaj13811/plant-project-v/entities"
	"github.com/Pushparaj13811/plant-project-v/pkg/backfill"
	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
	"github.com/Pushparaj13811/plant-project-v/pkg/record/repository"
)

type RecordService interface {
	Create(ctx context.Context, in RecordInput) (*entities.PlantRecord, error)
	Get(ctx context.Context, id uint) (*entities.PlantRecord, error)
	List(ctx context.Context, f repository.Filter) ([]entities.PlantRecord, int64, error)
	Update(ctx context.Context, id uint, patch RecordPatch) (*entities.PlantRecord, error)
	Delete(ctx context.Context, id uint) (*entities.PlantRecord, error)
	Statistics(ctx context.Context, f repository.Filter) (*Statistics, error)
	AvailableColumns() ColumnCategories
	// Recompute runs one synchronous backfill over every record.
	Recompute(ctx context.Context) (backfill.Report, error)
	Export(ctx context.Context, f repository.Filter, w io.Writer) error
}

// RecordInput is the create payload. Date is YYYY-MM-DD.
type RecordInput struct {
	PlantID   uint           `json:"plant_id"`
	Date      string         `json:"date"`
	Code      string         `json:"code"`
	Product   string         `json:"product"`
	TruckNo   string         `json:"truck_no"`
	BillNo    string         `json:"bill_no"`
	PartyName string         `json:"party_name"`
	Notes     string         `json:"notes"`
	Rate      *float64       `json:"rate"`
	MV        *float64       `json:"mv"`
	Oil       *float64       `json:"oil"`
	Fiber     *float64       `json:"fiber"`
	Starch    *float64       `json:"starch"`
	MaizeRate *float64       `json:"maize_rate"`
	Custom    map[string]any `json:"custom"`
}

// RecordPatch changes only the fields present in the request. A numeric input sent as
// null is cleared, as is a nil value inside Custom.
type RecordPatch struct {
	PlantID   *uint          `json:"plant_id"`
	Date      *string        `json:"date"`
	Code      *string        `json:"code"`
	Product   *string        `json:"product"`
	TruckNo   *string        `json:"truck_no"`
	BillNo    *string        `json:"bill_no"`
	PartyName *string        `json:"party_name"`
	Notes     *string        `json:"notes"`
	Rate      OptionalFloat  `json:"rate"`
	MV        OptionalFloat  `json:"mv"`
	Oil       OptionalFloat  `json:"oil"`
	Fiber     OptionalFloat  `json:"fiber"`
	Starch    OptionalFloat  `json:"starch"`
	MaizeRate OptionalFloat  `json:"maize_rate"`
	Custom    map[string]any `json:"custom"`
}

// OptionalFloat tells an absent JSON field from an explicit null.
type OptionalFloat struct {
	Set   bool
	Value *float64
}

func (o *OptionalFloat) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// ApplyTo overwrites *dst when the field was sent.
func (o OptionalFloat) ApplyTo(dst **float64) {
	if o.Set {
		*dst = o.Value
	}
}

type DateRange struct {
	Min *string `json:"min"`
	Max *string `json:"max"`
}

// Statistics averages every numeric input and calculated column over the filtered records.
// An average is null when no record has a value for it.
type Statistics struct {
	TotalRecords int64               `json:"total_records"`
	DateRange    DateRange           `json:"date_range"`
	Averages     map[string]*float64 `json:"averages"`
}

type ColumnCategories struct {
	InputVariables []engine.ColumnInfo `json:"input_variables"`
	DryVariables   []engine.ColumnInfo `json:"dry_variables"`
	GeneralInfo    []engine.ColumnInfo `json:"general_info"`
}
