package models

import "time"

// ApprovedAdmin is one entry of the flat allowlist of display names that may
// approve or reject contributions.
type ApprovedAdmin struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

// TableName gives the explicit table name for GORM.
func (ApprovedAdmin) TableName() string {
	return "approved_admins"
}
