package models

import "time"

// Follow is a directed edge in the follow graph.
// The composite primary key keeps the pair unique; self-loops are rejected
// at the handler layer, not by the schema.
type Follow struct {
	FollowerID  uint `gorm:"primaryKey"`
	FollowingID uint `gorm:"primaryKey"`
	CreatedAt   time.Time

	Follower  User `gorm:"foreignKey:FollowerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Following User `gorm:"foreignKey:FollowingID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
