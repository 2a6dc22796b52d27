package models

import (
	"time"

	"gorm.io/datatypes"
)

// ContributionType describes what a public submission proposes.
type ContributionType string

const (
	ContributionCompound   ContributionType = "compound"
	ContributionMedicine   ContributionType = "medicine"
	ContributionCorrection ContributionType = "correction"
)

// ContributionStatus is the moderation state. Transitions are
// pending -> approved or pending -> rejected, each exactly once.
type ContributionStatus string

const (
	StatusPending  ContributionStatus = "pending"
	StatusApproved ContributionStatus = "approved"
	StatusRejected ContributionStatus = "rejected"
)

// CompoundSubmission carries the compound-shaped fields of a contribution.
type CompoundSubmission struct {
	Name              string   `json:"name,omitempty"`
	ChemicalClass     string   `json:"chemical_class,omitempty"`
	MechanismOfAction string   `json:"mechanism_of_action,omitempty"`
	CommonUses        []string `json:"common_uses,omitempty"`
	CommonSideEffects []string `json:"common_side_effects,omitempty"`
	Warnings          string   `json:"warnings,omitempty"`
}

// MedicineSubmission carries the medicine-shaped fields of a contribution.
// Compound holds an id or a name; it is resolved at approval time.
type MedicineSubmission struct {
	Compound          string   `json:"compound,omitempty"`
	BrandNames        []string `json:"brand_names,omitempty"`
	GeneralUsageInfo  string   `json:"general_usage_info,omitempty"`
	GeneralDosageInfo string   `json:"general_dosage_info,omitempty"`
	Interactions      string   `json:"interactions,omitempty"`
	SafetyInfo        string   `json:"safety_info,omitempty"`
}

// Contribution is a public submission awaiting admin review.
// Exactly one of CompoundFields/MedicineFields is populated, matching Type
// (corrections may carry either, keyed by CorrectionType).
type Contribution struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Type        ContributionType `json:"type" gorm:"index;not null"`
	Title       string           `json:"title" gorm:"not null"`
	Description string           `json:"description" gorm:"type:text;not null"`

	// Correction target (id or name) and which store it points into
	RelatedID      string `json:"relatedId,omitempty"`
	CorrectionType string `json:"correctionType,omitempty"` // "compound" or "medicine"

	UserEmail string `json:"userEmail,omitempty"`

	Status     ContributionStatus `json:"status" gorm:"index;default:'pending'"`
	AdminNotes string             `json:"adminNotes,omitempty" gorm:"type:text"`

	// Set exactly once, when the contribution leaves pending
	AcceptedByName    *string `json:"acceptedByName,omitempty"`
	AcceptedByAdminID *uint   `json:"acceptedByAdminId,omitempty"`

	// Typed submitted payloads, merged into the canonical records on approval
	CompoundFields datatypes.JSONType[CompoundSubmission] `json:"compound_fields"`
	MedicineFields datatypes.JSONType[MedicineSubmission] `json:"medicine_fields"`
}

// TableName gives the explicit table name for GORM.
func (Contribution) TableName() string {
	return "contributions"
}
