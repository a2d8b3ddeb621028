package models

import "gorm.io/gorm"

// Review is one user's rating and write-up for one game.
// (UserID, GameID) is unique: resubmitting replaces the previous review.
type Review struct {
	gorm.Model
	UserID      uint   `gorm:"not null;uniqueIndex:idx_reviews_user_game"`
	GameID      uint   `gorm:"not null;uniqueIndex:idx_reviews_user_game"`
	Rating      int    `gorm:"not null"` // 1..10
	ReviewText  string
	IsAnonymous bool `gorm:"not null;default:false"`

	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Game Game `gorm:"foreignKey:GameID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
