// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultProfileImage is the shared placeholder shown for accounts without an
// uploaded profile picture. It is never deleted from media storage.
const DefaultProfileImage = "default/default.png"

// User represents a registered account.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Name      string         `gorm:"not null;default:unset" json:"name"`
	Image     string         `gorm:"not null;default:'default/default.png'" json:"image"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	IsStaff   bool           `gorm:"not null;default:false" json:"is_staff"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Reviews []Review `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
}
