package services

import (
	"context"
	"fmt"
	"strings"

	"golivehub/internal/database"
	"golivehub/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SocialGraph maintains follow relationships. Each relationship is stored as
// a follows edge and mirrored into users.following / users.followers; all
// three writes commit together.
type SocialGraph struct {
	db *gorm.DB
}

// NewSocialGraph creates a new SocialGraph
func NewSocialGraph(db *gorm.DB) *SocialGraph {
	return &SocialGraph{db: db}
}

// ToggleFollow follows targetID if viewerID does not follow it yet, and
// unfollows it otherwise. It returns whether viewerID follows targetID
// afterwards. Either both user rows change or neither does.
func (g *SocialGraph) ToggleFollow(ctx context.Context, viewerID, targetID string) (bool, error) {
	viewerID = strings.TrimSpace(viewerID)
	targetID = strings.TrimSpace(targetID)
	if viewerID == "" {
		return false, invalid("currentUserId", "is required")
	}
	if targetID == "" {
		return false, invalid("userToFollowId", "is required")
	}
	if viewerID == targetID {
		return false, ErrSelfFollow
	}

	following := false
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		viewer, target, err := lockPair(tx, viewerID, targetID)
		if err != nil {
			return err
		}

		edge := models.Follow{FollowerID: viewerID, FolloweeID: targetID}
		if viewer.IsFollowing(targetID) {
			if err := tx.Where("follower_id = ? AND followee_id = ?", viewerID, targetID).
				Delete(&models.Follow{}).Error; err != nil {
				return fmt.Errorf("failed to delete follow edge: %w", err)
			}
			viewer.Following = models.WithoutString(viewer.Following, targetID)
			target.Followers = models.WithoutString(target.Followers, viewerID)
		} else {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
				return fmt.Errorf("failed to create follow edge: %w", err)
			}
			viewer.Following = models.WithString(viewer.Following, targetID)
			target.Followers = models.WithString(target.Followers, viewerID)
			following = true
		}

		if err := tx.Model(&models.User{}).Where("user_id = ?", viewerID).
			Update("following", viewer.Following).Error; err != nil {
			return fmt.Errorf("failed to update following: %w", err)
		}
		if err := tx.Model(&models.User{}).Where("user_id = ?", targetID).
			Update("followers", target.Followers).Error; err != nil {
			return fmt.Errorf("failed to update followers: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return following, nil
}

// IsFollowing reports whether viewerID follows targetID
func (g *SocialGraph) IsFollowing(ctx context.Context, viewerID, targetID string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", viewerID, targetID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return count > 0, nil
}

// Followers lists the ids following userID, oldest first
func (g *SocialGraph) Followers(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := g.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followee_id = ?", userID).
		Order("created_at, follower_id").
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	return ids, nil
}

// Following lists the ids userID follows, oldest first
func (g *SocialGraph) Following(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := g.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Order("created_at, followee_id").
		Pluck("followee_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}
	return ids, nil
}

// Reconcile rewrites the following/followers columns of userID from the
// edge table, repairing rows written before edges existed or by hand.
func (g *SocialGraph) Reconcile(ctx context.Context, userID string) (*models.User, error) {
	var user *models.User
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := NewSocialGraph(tx)
		following, err := scoped.Following(ctx, userID)
		if err != nil {
			return err
		}
		followers, err := scoped.Followers(ctx, userID)
		if err != nil {
			return err
		}

		result := tx.Model(&models.User{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
			"following": pq.StringArray(append([]string{}, following...)),
			"followers": pq.StringArray(append([]string{}, followers...)),
		})
		if result.Error != nil {
			return fmt.Errorf("failed to reconcile user %s: %w", userID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}

		user, err = NewUserStore(tx).FetchUser(ctx, userID, FieldUserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// BackfillEdges creates missing edges from the list columns of every user.
// It returns the number of edges created.
func (g *SocialGraph) BackfillEdges(ctx context.Context) (int, error) {
	var users []models.User
	if err := g.db.WithContext(ctx).Select("user_id", "following").Find(&users).Error; err != nil {
		return 0, fmt.Errorf("failed to load users: %w", err)
	}

	created := 0
	for _, user := range users {
		for _, followee := range user.Following {
			if followee == "" || followee == user.UserID {
				continue
			}
			result := g.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Follow{FollowerID: user.UserID, FolloweeID: followee})
			if result.Error != nil {
				return created, fmt.Errorf("failed to backfill edge %s -> %s: %w", user.UserID, followee, result.Error)
			}
			created += int(result.RowsAffected)
		}
	}
	return created, nil
}

// lockPair loads both users, taking row locks on postgres. Rows are locked
// in user_id order so concurrent toggles on the same pair cannot deadlock.
func lockPair(tx *gorm.DB, viewerID, targetID string) (*models.User, *models.User, error) {
	query := tx.Where("user_id IN ?", []string{viewerID, targetID}).Order("user_id")
	if database.IsPostgres(tx) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load users: %w", err)
	}

	var viewer, target *models.User
	for i := range users {
		users[i].Normalize()
		switch users[i].UserID {
		case viewerID:
			viewer = &users[i]
		case targetID:
			target = &users[i]
		}
	}
	if viewer == nil {
		return nil, nil, fmt.Errorf("%w: current user %s", ErrUserNotFound, viewerID)
	}
	if target == nil {
		return nil, nil, fmt.Errorf("%w: user to follow %s", ErrUserNotFound, targetID)
	}
	return viewer, target, nil
}
