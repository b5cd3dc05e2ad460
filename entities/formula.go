package entities

import "time"

type Formula struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Seq          uint64 `gorm:"uniqueIndex;not null" json:"seq"`
	Name         string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Table        string `gorm:"column:table_name;size:20;not null" json:"table"`
	Expression   string `gorm:"not null" json:"expression"`
	OutputColumn string `gorm:"size:100;not null" json:"output_column"`
	Label        string `json:"label"`
	Builtin      bool   `json:"builtin"`

	CreatedAt time.Time `json:"created_at"`
}
