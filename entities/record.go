package entities

import (
	"time"

	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
)

// PlantRecord is one row of raw measurements. Derived values live in Calculated.
type PlantRecord struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	PlantID uint      `gorm:"index;not null" json:"plant_id"`
	Date    time.Time `gorm:"index" json:"date"`

	Code      string `gorm:"index;size:50" json:"code"`
	Product   string `gorm:"index;size:100" json:"product"`
	TruckNo   string `gorm:"size:50" json:"truck_no"`
	BillNo    string `gorm:"size:50" json:"bill_no"`
	PartyName string `gorm:"index;size:100" json:"party_name"`
	Notes     string `json:"notes"`

	Rate      *float64 `json:"rate"`
	MV        *float64 `gorm:"column:mv" json:"mv"`
	Oil       *float64 `json:"oil"`
	Fiber     *float64 `json:"fiber"`
	Starch    *float64 `json:"starch"`
	MaizeRate *float64 `json:"maize_rate"`

	// Custom holds values of custom input columns: numbers as float64, text and dates as strings.
	Custom map[string]any `gorm:"serializer:json" json:"custom,omitempty"`

	// Revision increases on every update; a backfill only saves rows computed from the current one.
	Revision uint64 `gorm:"not null;default:0" json:"revision"`

	Calculated *CalculatedRecord `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE" json:"calculated,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Numbers returns every numeric input keyed by column name. Empty fields map to nil.
func (r *PlantRecord) Numbers() map[string]*float64 {
	out := map[string]*float64{
		"rate":       r.Rate,
		"mv":         r.MV,
		"oil":        r.Oil,
		"fiber":      r.Fiber,
		"starch":     r.Starch,
		"maize_rate": r.MaizeRate,
	}
	for k, v := range r.Custom {
		if f, ok := v.(float64); ok {
			out[k] = &f
		}
	}
	return out
}

func (r *PlantRecord) Input() engine.InputRecord {
	return engine.InputRecord{ID: r.ID, Revision: r.Revision, Numbers: r.Numbers()}
}

// Text returns the general-information fields keyed by column name.
func (r *PlantRecord) Text() map[string]string {
	out := map[string]string{
		"date":       r.Date.Format("2006-01-02"),
		"code":       r.Code,
		"product":    r.Product,
		"truck_no":   r.TruckNo,
		"bill_no":    r.BillNo,
		"party_name": r.PartyName,
		"notes":      r.Notes,
	}
	for k, v := range r.Custom {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
