package services

import (
	"context"
	"fmt"
	"strings"

	"golivehub/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LivestreamStore reads and writes livestream listings
type LivestreamStore struct {
	db *gorm.DB
}

// NewLivestreamStore creates a new LivestreamStore
func NewLivestreamStore(db *gorm.DB) *LivestreamStore {
	return &LivestreamStore{db: db}
}

// LivestreamInput holds the fields of a listing
type LivestreamInput struct {
	Name            string
	Categories      []string
	UserID          string
	ProfileImageURL string
	CreatorName     string
}

// List returns every listing, newest first
func (s *LivestreamStore) List(ctx context.Context) ([]models.Livestream, error) {
	livestreams := []models.Livestream{}
	if err := s.db.WithContext(ctx).Order("created_at DESC, id").Find(&livestreams).Error; err != nil {
		return nil, fmt.Errorf("failed to list livestreams: %w", err)
	}
	for i := range livestreams {
		if livestreams[i].Categories == nil {
			livestreams[i].Categories = pq.StringArray{}
		}
	}
	return livestreams, nil
}

// FindByOwner returns the listing of userID, or nil when there is none
func (s *LivestreamStore) FindByOwner(ctx context.Context, userID string) (*models.Livestream, error) {
	var livestreams []models.Livestream
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&livestreams).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch livestream: %w", err)
	}
	if len(livestreams) == 0 {
		return nil, nil
	}
	return &livestreams[0], nil
}

// Upsert writes the listing for input.UserID, replacing an existing one
func (s *LivestreamStore) Upsert(ctx context.Context, input LivestreamInput) (*models.Livestream, error) {
	input.Name = cleanText(input.Name)
	input.UserID = strings.TrimSpace(input.UserID)
	if input.UserID == "" {
		return nil, invalid("userName", "owner is required")
	}
	if input.Name == "" {
		return nil, invalid("name", "is required")
	}

	livestream := models.Livestream{
		Name:            input.Name,
		Categories:      pq.StringArray(cleanTags(input.Categories)),
		UserID:          input.UserID,
		ProfileImageURL: strings.TrimSpace(input.ProfileImageURL),
		CreatorName:     cleanText(input.CreatorName),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "categories", "profile_image_url", "creator_name", "updated_at"}),
	}).Create(&livestream).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert livestream: %w", err)
	}

	// On conflict the generated id is not the stored one
	stored, err := s.FindByOwner(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("livestream for %s vanished after upsert", input.UserID)
	}
	return stored, nil
}

// DeleteByOwner removes the listing of userID. It reports whether a row was removed.
func (s *LivestreamStore) DeleteByOwner(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, invalid("userName", "owner is required")
	}

	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Livestream{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete livestream: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// SeedMock inserts the sample listings. Rows that already exist are left alone.
func (s *LivestreamStore) SeedMock(ctx context.Context) (int, error) {
	mocks := make([]models.Livestream, len(models.MockLivestreams))
	copy(mocks, models.MockLivestreams)

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&mocks)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to insert mock livestreams: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

// RemoveMock deletes the sample listings
func (s *LivestreamStore) RemoveMock(ctx context.Context) (int, error) {
	result := s.db.WithContext(ctx).Where("id IN ?", models.MockLivestreamIDs()).Delete(&models.Livestream{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to remove mock livestreams: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}
