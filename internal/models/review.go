package models

import (
	"time"

	"gorm.io/gorm"
)

// Review is user-authored content tied to a catalog item.
type Review struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	ItemID  uint   `gorm:"not null;index" json:"item_id"`
	Item    Item   `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"item"`
	Title   string `gorm:"not null;size:200" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`
	Image   string `json:"image"`
	// FavoritesCount is denormalized and recomputed from the favorites table
	// on every toggle; it is never incremented blindly.
	FavoritesCount int  `gorm:"not null;default:0" json:"favorites_count"`
	IsEdited       bool `gorm:"not null;default:false" json:"is_edited"`
	// IsMyReview is not persisted; computed at query time relative to the
	// requesting user (false when unauthenticated).
	IsMyReview bool           `gorm:"->;-:migration" json:"is_my_review"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserReview records authorship linkage separately from Review.UserID.
// Created in the same transaction as its review.
type UserReview struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"not null;uniqueIndex:idx_userreview_user_review" json:"user_id"`
	ReviewID uint `gorm:"not null;uniqueIndex:idx_userreview_user_review" json:"review_id"`

	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Review Review `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"-"`
}

// Favorite is a user's like marker on a review.
// The combination of UserID and ReviewID must be unique.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_review" json:"user_id"`
	ReviewID  uint      `gorm:"not null;uniqueIndex:idx_favorite_user_review" json:"review_id"`
	CreatedAt time.Time `json:"created_at"`

	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Review Review `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"-"`
}
