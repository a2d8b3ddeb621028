package models

import "gorm.io/gorm"

// Game represents a catalog entry.
type Game struct {
	gorm.Model
	Title         string `gorm:"size:255;not null"`
	Developer     string `gorm:"size:255"`
	Publisher     string `gorm:"size:255"`
	ReleaseYear   *int
	Platform      string `gorm:"size:100"`
	Genre         string `gorm:"size:100"`
	Description   string
	CoverImageURL string `gorm:"size:512"`
	// Derived from reviews; nil until the first review exists.
	AverageRating *float64
	Tags          []*Tag `gorm:"many2many:game_tags;"`
}
