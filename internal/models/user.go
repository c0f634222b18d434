package models

import (
	"time"

	"github.com/lib/pq"
)

// User is the viewer/broadcaster profile created at the end of onboarding
type User struct {
	UserID      string         `json:"user_id" db:"user_id" gorm:"primaryKey"` // Identity provider subject
	UserName    string         `json:"user_name" db:"user_name" gorm:"index;not null"`
	ImageURL    string         `json:"image_url" db:"image_url"`
	Mail        string         `json:"mail" db:"mail" gorm:"index"`
	DateOfBirth string         `json:"date_of_birth" db:"date_of_birth"` // YYYY-MM-DD
	Interests   pq.StringArray `json:"interests" db:"interests" gorm:"type:text[]"`
	Following   pq.StringArray `json:"following" db:"following" gorm:"type:text[]"`
	Followers   pq.StringArray `json:"followers" db:"followers" gorm:"type:text[]"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the User model
func (User) TableName() string {
	return "users"
}

// Normalize replaces NULL array columns with empty arrays so the JSON shape
// is always `[]`.
func (u *User) Normalize() {
	if u.Interests == nil {
		u.Interests = pq.StringArray{}
	}
	if u.Following == nil {
		u.Following = pq.StringArray{}
	}
	if u.Followers == nil {
		u.Followers = pq.StringArray{}
	}
}

// IsFollowing reports whether targetID is in the user's following list
func (u *User) IsFollowing(targetID string) bool {
	return containsString(u.Following, targetID)
}

// HasInterests reports whether interest selection has been completed
func (u *User) HasInterests() bool {
	return len(u.Interests) > 0
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

// WithoutString returns a copy of list with every occurrence of value removed
func WithoutString(list []string, value string) pq.StringArray {
	out := pq.StringArray{}
	for _, item := range list {
		if item != value {
			out = append(out, item)
		}
	}
	return out
}

// WithString returns a copy of list with value appended unless already present
func WithString(list []string, value string) pq.StringArray {
	out := append(pq.StringArray{}, list...)
	if !containsString(out, value) {
		out = append(out, value)
	}
	return out
}
