package models

import "time"

// Follow is the edge record for a follow relationship. The users.following and
// users.followers columns are derived from these rows and written in the same
// transaction.
type Follow struct {
	FollowerID string    `json:"follower_id" db:"follower_id" gorm:"primaryKey"`
	FolloweeID string    `json:"followee_id" db:"followee_id" gorm:"primaryKey;index"`
	CreatedAt  time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for the Follow model
func (Follow) TableName() string {
	return "follows"
}
