package models

import "gorm.io/gorm"

// User represents a registered account.
type User struct {
	gorm.Model
	Username     string `gorm:"size:255;unique;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Name         string `gorm:"size:255"`
	Bio          string
	// Path of the uploaded profile picture, relative to the upload route.
	ProfilePicture string `gorm:"size:512"`
	IsAdmin        bool   `gorm:"not null;default:false;index"`
}
