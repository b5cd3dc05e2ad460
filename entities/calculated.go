package entities

import (
	"time"

	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
)

// CalculatedRecord is the derived row for one PlantRecord. A nil value is a failed output
// whose reason is in Errors.
type CalculatedRecord struct {
	RecordID        uint                `gorm:"primaryKey;autoIncrement:false" json:"record_id"`
	Values          map[string]*float64 `gorm:"column:output_values;serializer:json" json:"values"`
	Errors          map[string]string   `gorm:"column:output_errors;serializer:json" json:"errors,omitempty"`
	VariableVersion uint64              `json:"variable_version"`
	ComputedAt      time.Time           `json:"computed_at"`
}

func NewCalculatedRecord(c engine.CalculatedRecord) *CalculatedRecord {
	values := make(map[string]*float64, len(c.Values)+len(c.Failures))
	for k, v := range c.Values {
		values[k] = &v
	}
	for k := range c.Failures {
		values[k] = nil
	}
	return &CalculatedRecord{
		RecordID:        c.RecordID,
		Values:          values,
		Errors:          c.FailureMessages(),
		VariableVersion: c.VariableVersion,
		ComputedAt:      time.Now(),
	}
}
