package models

import (
	"time"
)

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// VoteRecord says Username has cast a Direction vote on PostID.
// The unique index makes each fact recordable once.
type VoteRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"not null;size:191;uniqueIndex:idx_vote_identity" json:"username"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_vote_identity" json:"post_id"`
	Direction Direction `gorm:"not null;size:4;uniqueIndex:idx_vote_identity" json:"direction"`
	CreatedAt time.Time `json:"created_at"`
}
