package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"golivehub/internal/models"
	"golivehub/internal/stream"

	"gorm.io/gorm"
)

// DefaultProfileImageURL is used for listings of users without an avatar
const DefaultProfileImageURL = "https://randomuser.me/api/portraits/men/1.jpg"

// VideoPlatform is the part of the video/chat platform the coordinator drives
type VideoPlatform interface {
	GetOrCreateCall(ctx context.Context, callType, id, createdBy string) (*stream.Call, error)
	GetCall(ctx context.Context, callType, id string) (*stream.Call, error)
	GoLive(ctx context.Context, callType, id string) (*stream.Call, error)
	StopLive(ctx context.Context, callType, id string) (*stream.Call, error)
	CreateChannel(ctx context.Context, channelType, id, createdBy, name string) (*stream.Channel, error)
}

// LiveCoordinator ties a broadcaster's call, listing and chat channel together.
// The call is keyed by the owner id, the chat channel by the listing id.
type LiveCoordinator struct {
	db    *gorm.DB
	video VideoPlatform
}

// NewLiveCoordinator creates a new LiveCoordinator
func NewLiveCoordinator(db *gorm.DB, video VideoPlatform) *LiveCoordinator {
	return &LiveCoordinator{db: db, video: video}
}

// GoLiveRequest holds the go-live form
type GoLiveRequest struct {
	Name       string   `json:"name" binding:"required"`
	Categories []string `json:"categories" binding:"required"`
}

// LiveSession is the result of going live
type LiveSession struct {
	Call       *stream.Call       `json:"call"`
	Livestream *models.Livestream `json:"livestream"`
	ChannelID  string             `json:"channel_id"`
}

// Channel statuses returned by ChatChannel
const (
	ChannelWaiting = "waiting"
	ChannelLive    = "live"
)

// ChannelInfo tells a viewer which chat channel to join
type ChannelInfo struct {
	Status     string             `json:"status"`
	ChannelID  string             `json:"channel_id,omitempty"`
	Livestream *models.Livestream `json:"livestream,omitempty"`
}

// GoLive starts broadcasting for ownerID: the call is created and taken
// live, then the listing is upserted and the chat channel created.
func (c *LiveCoordinator) GoLive(ctx context.Context, ownerID string, req GoLiveRequest) (*LiveSession, error) {
	categories, err := validateGoLive(req)
	if err != nil {
		return nil, err
	}

	owner, err := NewUserStore(c.db).FetchUser(ctx, ownerID, FieldUserID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, ownerID)
	}

	if _, err := c.video.GetOrCreateCall(ctx, stream.LivestreamCallType, ownerID, ownerID); err != nil {
		return nil, err
	}
	call, err := c.video.GoLive(ctx, stream.LivestreamCallType, ownerID)
	if err != nil {
		return nil, err
	}

	imageURL := owner.ImageURL
	if imageURL == "" {
		imageURL = DefaultProfileImageURL
	}
	livestream, err := NewLivestreamStore(c.db).Upsert(ctx, LivestreamInput{
		Name:            req.Name,
		Categories:      categories,
		UserID:          ownerID,
		ProfileImageURL: imageURL,
		CreatorName:     owner.UserName,
	})
	if err != nil {
		// Nobody can find an unlisted broadcast, so take it back off air
		if _, stopErr := c.video.StopLive(ctx, stream.LivestreamCallType, ownerID); stopErr != nil {
			log.Printf("⚠️  Failed to stop call for %s after listing error: %v", ownerID, stopErr)
		}
		return nil, err
	}

	channelID := livestream.ID.String()
	if _, err := c.video.CreateChannel(ctx, stream.LivestreamCallType, channelID, ownerID, owner.UserName+"'s Stream"); err != nil {
		// Viewers create the channel on join as well
		log.Printf("⚠️  Failed to create chat channel %s: %v", channelID, err)
	}

	log.Printf("🔴 %s is live: %q", ownerID, livestream.Name)
	return &LiveSession{Call: call, Livestream: livestream, ChannelID: channelID}, nil
}

// StopLive ends the broadcast of ownerID and removes the listing. The call is
// stopped first; if the delete then fails the listing outlives the call until
// the reaper removes it.
func (c *LiveCoordinator) StopLive(ctx context.Context, ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return invalid("userName", "owner is required")
	}

	if _, err := c.video.StopLive(ctx, stream.LivestreamCallType, ownerID); err != nil && !errors.Is(err, stream.ErrCallNotFound) {
		return err
	}

	deleted, err := NewLivestreamStore(c.db).DeleteByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if deleted {
		log.Printf("⚫ %s stopped streaming", ownerID)
	}
	return nil
}

// ChatChannel returns the channel viewers of ownerID should join, or the
// waiting status when ownerID has no listing yet.
func (c *LiveCoordinator) ChatChannel(ctx context.Context, ownerID string) (*ChannelInfo, error) {
	livestream, err := NewLivestreamStore(c.db).FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if livestream == nil {
		return &ChannelInfo{Status: ChannelWaiting}, nil
	}
	return &ChannelInfo{Status: ChannelLive, ChannelID: livestream.ID.String(), Livestream: livestream}, nil
}

// ReapStale deletes listings whose call is no longer live. Sample listings
// have no call and are skipped. It returns the number of listings removed.
func (c *LiveCoordinator) ReapStale(ctx context.Context) (int, error) {
	store := NewLivestreamStore(c.db)
	livestreams, err := store.List(ctx)
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, livestream := range livestreams {
		if models.IsMockLivestream(livestream.ID) {
			continue
		}

		call, err := c.video.GetCall(ctx, stream.LivestreamCallType, livestream.UserID)
		if err != nil && !errors.Is(err, stream.ErrCallNotFound) {
			log.Printf("⚠️  Failed to check call for %s: %v", livestream.UserID, err)
			continue
		}
		if err == nil && call.IsLive() {
			continue
		}

		if _, err := store.DeleteByOwner(ctx, livestream.UserID); err != nil {
			log.Printf("❌ Failed to reap livestream of %s: %v", livestream.UserID, err)
			continue
		}
		reaped++
	}
	return reaped, nil
}

func validateGoLive(req GoLiveRequest) ([]string, error) {
	if cleanText(req.Name) == "" {
		return nil, invalid("name", "please enter a stream name")
	}

	categories := make([]string, 0, len(req.Categories))
	for _, name := range cleanTags(req.Categories) {
		category, ok := models.LookupCategory(name)
		if !ok {
			return nil, invalid("categories", fmt.Sprintf("unknown category %q", name))
		}
		categories = append(categories, category.Name)
	}
	if len(categories) == 0 {
		return nil, invalid("categories", "please select at least one category")
	}
	return categories, nil
}
