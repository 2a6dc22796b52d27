package models

import (
	"time"

	"gorm.io/datatypes"
)

// Medicine represents a branded product built on exactly one Compound (e.g. Advil on Ibuprofen).
type Medicine struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Identity
	Name string `json:"name" gorm:"uniqueIndex;not null"`
	Slug string `json:"slug" gorm:"uniqueIndex;not null"`

	// Owning compound, required. The compound's related_medicines list mirrors this.
	CompoundID uint `json:"compound" gorm:"index;not null"`

	Description       string                      `json:"description" gorm:"type:text"`
	BrandNames        datatypes.JSONSlice[string] `json:"brand_names"`
	GeneralUsageInfo  string                      `json:"general_usage_info" gorm:"type:text"`
	GeneralDosageInfo string                      `json:"general_dosage_info" gorm:"type:text"`
	Interactions      string                      `json:"interactions" gorm:"type:text"`
	SafetyInfo        string                      `json:"safety_info" gorm:"type:text"`
}

// TableName gives the explicit table name for GORM.
func (Medicine) TableName() string {
	return "medicines"
}
