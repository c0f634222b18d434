package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Livestream is the public listing of a broadcaster who is currently live.
// At most one row exists per owner.
type Livestream struct {
	ID              uuid.UUID      `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Name            string         `json:"name" db:"name" gorm:"not null"`
	Categories      pq.StringArray `json:"categories" db:"categories" gorm:"type:text[]"`
	UserID          string         `json:"user_id" db:"user_id" gorm:"uniqueIndex;not null"` // Owner
	ProfileImageURL string         `json:"profile_image_url" db:"profile_image_url"`
	CreatorName     string         `json:"creator_name" db:"creator_name"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the Livestream model
func (Livestream) TableName() string {
	return "livestreams"
}

// BeforeCreate assigns an id when the caller did not
func (l *Livestream) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Categories == nil {
		l.Categories = pq.StringArray{}
	}
	return nil
}
