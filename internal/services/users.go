package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golivehub/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Match fields accepted by FetchUser
const (
	FieldUserID   = "user_id"
	FieldMail     = "mail"
	FieldUserName = "user_name"
)

// UserStore reads and writes user rows through a (scoped) database handle
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a new UserStore
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Profile holds the fields collected by the registration form
type Profile struct {
	UserID      string
	UserName    string
	ImageURL    string
	Mail        string
	DateOfBirth string
}

// FetchUser returns the user whose field equals value, or nil when none does.
// user_id and mail match exactly; user_name matches exactly but ignores case.
// If several rows match, the one with the lowest user_id is returned.
func (s *UserStore) FetchUser(ctx context.Context, value, field string) (*models.User, error) {
	if field == "" {
		field = FieldUserID
	}

	query := s.db.WithContext(ctx).Model(&models.User{})
	switch field {
	case FieldUserID, FieldMail:
		query = query.Where(field+" = ?", value)
	case FieldUserName:
		query = query.Where("LOWER(user_name) = LOWER(?)", value)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedField, field)
	}

	var users []models.User
	if err := query.Order("user_id").Limit(1).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}

	user := users[0]
	user.Normalize()
	return &user, nil
}

// CreateUser writes the profile collected at onboarding. Registering again
// updates the profile fields and leaves interests and the follow graph alone.
func (s *UserStore) CreateUser(ctx context.Context, profile Profile) (*models.User, error) {
	profile.UserID = strings.TrimSpace(profile.UserID)
	profile.UserName = cleanText(profile.UserName)
	profile.Mail = strings.TrimSpace(profile.Mail)
	profile.DateOfBirth = strings.TrimSpace(profile.DateOfBirth)

	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	user := models.User{
		UserID:      profile.UserID,
		UserName:    profile.UserName,
		ImageURL:    strings.TrimSpace(profile.ImageURL),
		Mail:        profile.Mail,
		DateOfBirth: profile.DateOfBirth,
		Interests:   pq.StringArray{},
		Following:   pq.StringArray{},
		Followers:   pq.StringArray{},
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_name", "image_url", "mail", "date_of_birth", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.mustFetch(ctx, profile.UserID)
}

// UpdateInterests replaces the interest set of userID
func (s *UserStore) UpdateInterests(ctx context.Context, userID string, interests []string) (*models.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalid("userId", "is required")
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("interests", pq.StringArray(cleanTags(interests)))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update interests: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	return s.mustFetch(ctx, userID)
}

func (s *UserStore) mustFetch(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.FetchUser(ctx, userID, FieldUserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return user, nil
}

func validateProfile(p Profile) error {
	if p.UserID == "" {
		return invalid("userId", "identity id is missing")
	}
	if p.UserName == "" {
		return invalid("userName", "is required")
	}
	if p.Mail != "" {
		if _, err := mail.ParseAddress(p.Mail); err != nil {
			return invalid("mail", "is not a valid address")
		}
	}
	if p.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", p.DateOfBirth)
		if err != nil {
			return invalid("dateOfBirth", "must be YYYY-MM-DD")
		}
		if dob.After(time.Now()) {
			return invalid("dateOfBirth", "is in the future")
		}
	}
	return nil
}
