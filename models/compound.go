package models

import (
	"time"

	"gorm.io/datatypes"
)

// Compound represents a chemical substance entry in the encyclopedia (e.g. Ibuprofen).
type Compound struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Identity
	Name string `json:"name" gorm:"uniqueIndex;not null"`
	Slug string `json:"slug" gorm:"uniqueIndex;not null"` // derived from Name, see services.Slugify

	// Classification & content
	ChemicalClass     string                      `json:"chemical_class" gorm:"index"`
	Description       string                      `json:"description" gorm:"type:text"`
	MechanismOfAction string                      `json:"mechanism_of_action" gorm:"type:text"`
	CommonUses        datatypes.JSONSlice[string] `json:"common_uses"`
	CommonSideEffects datatypes.JSONSlice[string] `json:"common_side_effects"`
	Warnings          string                      `json:"warnings" gorm:"type:text"`

	// Back-references, maintained by the relationship service (set semantics, no duplicates)
	RelatedMedicines datatypes.JSONSlice[uint] `json:"related_medicines"`
}

// TableName gives the explicit table name for GORM.
func (Compound) TableName() string {
	return "compounds"
}
