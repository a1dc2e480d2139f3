package models

import "time"

// DefaultItemPhoto is the shared placeholder for items without a photo.
// Like DefaultProfileImage it is never deleted from media storage.
const DefaultItemPhoto = "default/default-item.jpg"

// Brand is a racket manufacturer (Yonex, Mizuno, ...).
type Brand struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null;size:20" json:"name"`
}

// Series is a product line belonging to exactly one brand.
type Series struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"not null;size:50;uniqueIndex:idx_series_name_brand" json:"name"`
	BrandID uint   `gorm:"not null;uniqueIndex:idx_series_name_brand" json:"brand_id"`
	Brand   Brand  `gorm:"foreignKey:BrandID" json:"brand"`
}

// Position is the court position a racket is designed for (forward, back, all-round).
type Position struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null;size:30" json:"name"`
}

// Item is a catalog entry reviews are written against.
type Item struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:30;index" json:"item_name"`
	BrandID     uint      `gorm:"not null" json:"brand_id"`
	Brand       Brand     `gorm:"foreignKey:BrandID" json:"brand"`
	SeriesID    uint      `gorm:"not null" json:"series_id"`
	Series      Series    `gorm:"foreignKey:SeriesID" json:"series"`
	PositionID  uint      `gorm:"not null" json:"position_id"`
	Position    Position  `gorm:"foreignKey:PositionID" json:"position"`
	Photo       string    `gorm:"not null;default:'default/default-item.jpg'" json:"item_photo"`
	ReleaseDate time.Time `json:"release_date"`
	Display     bool      `gorm:"not null;default:false" json:"display"`
}

// ItemMetadata is the aggregate payload for the catalog metadata endpoint.
type ItemMetadata struct {
	Brands    []Brand    `json:"brands"`
	Series    []Series   `json:"series"`
	Positions []Position `json:"positions"`
}
