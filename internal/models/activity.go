package models

import "time"

// Activity types written by the list and review paths.
const (
	ActivityListUpdate = "list_update"
	ActivityReview     = "review"
)

// Activity is one append-only entry in the social stream. Rows are never
// updated or deleted by normal operation, so there is no UpdatedAt and no
// soft delete.
type Activity struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"not null;index"`
	ActivityType string `gorm:"size:50;not null"`
	GameID       *uint  `gorm:"index"`
	Description  string
	CreatedAt    time.Time

	User User  `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Game *Game `gorm:"foreignKey:GameID"`
}
