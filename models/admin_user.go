package models

import "time"

// AdminUser is a login identity for the admin UI. It only backs the session;
// moderation authorization goes through ApprovedAdmin.
type AdminUser struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"` // bcrypt
}

// TableName gives the explicit table name for GORM.
func (AdminUser) TableName() string {
	return "admin_users"
}
