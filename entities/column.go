package entities

import "time"

// CustomColumn persists a user-defined column. Built-in columns come from the seed file.
type CustomColumn struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"uniqueIndex:idx_custom_column;size:100;not null" json:"name"`
	Table string `gorm:"column:table_name;uniqueIndex:idx_custom_column;size:20;not null" json:"table"`
	Label string `json:"label"`
	Type  string `gorm:"size:10;not null" json:"type"`

	CreatedAt time.Time `json:"created_at"`
}
