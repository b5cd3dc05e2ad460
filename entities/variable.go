package entities

import "time"

type FormulaVariable struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Name         string  `gorm:"uniqueIndex;size:100;not null" json:"name"`
	DisplayName  string  `gorm:"size:100" json:"display_name"`
	Description  string  `json:"description"`
	CurrentValue float64 `json:"current_value"`
	DefaultValue float64 `json:"default_value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
