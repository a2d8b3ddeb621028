package models

import "time"

// ListStatus is the shelf a game sits on within a user's collection.
type ListStatus string

const (
	StatusWishlist         ListStatus = "wishlist"
	StatusCurrentlyPlaying ListStatus = "currently_playing"
	StatusCompleted        ListStatus = "completed"
)

// ValidListStatus reports whether s is one of the three known statuses.
func ValidListStatus(s ListStatus) bool {
	switch s {
	case StatusWishlist, StatusCurrentlyPlaying, StatusCompleted:
		return true
	}
	return false
}

// UserGame tracks one user's status for one game.
// The primary key is a composite of (UserID, GameID): at most one row per pair,
// re-adding with a different status overwrites instead of duplicating.
type UserGame struct {
	UserID uint       `gorm:"primaryKey"`
	GameID uint       `gorm:"primaryKey"`
	Status ListStatus `gorm:"type:varchar(20);not null"`
	// AddedAt is set once on insert and preserved across status updates.
	AddedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time

	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Game Game `gorm:"foreignKey:GameID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
