package services

import (
	"context"
	"errors"
	"testing"

	"golivehub/internal/models"
	"golivehub/internal/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockVideoPlatform is a mock implementation of the video/chat platform
type MockVideoPlatform struct {
	mock.Mock
}

func (m *MockVideoPlatform) GetOrCreateCall(ctx context.Context, callType, id, createdBy string) (*stream.Call, error) {
	args := m.Called(ctx, callType, id, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stream.Call), args.Error(1)
}

func (m *MockVideoPlatform) GetCall(ctx context.Context, callType, id string) (*stream.Call, error) {
	args := m.Called(ctx, callType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stream.Call), args.Error(1)
}

func (m *MockVideoPlatform) GoLive(ctx context.Context, callType, id string) (*stream.Call, error) {
	args := m.Called(ctx, callType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stream.Call), args.Error(1)
}

func (m *MockVideoPlatform) StopLive(ctx context.Context, callType, id string) (*stream.Call, error) {
	args := m.Called(ctx, callType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stream.Call), args.Error(1)
}

func (m *MockVideoPlatform) CreateChannel(ctx context.Context, channelType, id, createdBy, name string) (*stream.Channel, error) {
	args := m.Called(ctx, channelType, id, createdBy, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stream.Channel), args.Error(1)
}

func backstageCall(id string) *stream.Call {
	return &stream.Call{Type: stream.LivestreamCallType, ID: id, Backstage: true}
}

func liveCall(id string) *stream.Call {
	return &stream.Call{Type: stream.LivestreamCallType, ID: id}
}

func TestLiveCoordinator_GoLive(t *testing.T) {
	db := setupTestDB(t)
	seedUsers(t, db, "u1")
	video := &MockVideoPlatform{}
	coordinator := NewLiveCoordinator(db, video)
	ctx := context.Background()

	video.On("GetOrCreateCall", ctx, stream.LivestreamCallType, "u1", "u1").Return(backstageCall("u1"), nil)
	video.On("GoLive", ctx, stream.LivestreamCallType, "u1").Return(liveCall("u1"), nil)
	video.On("CreateChannel", ctx, stream.LivestreamCallType, mock.AnythingOfType("string"), "u1", "u1's Stream").
		Return(&stream.Channel{}, nil)

	session, err := coordinator.GoLive(ctx, "u1", GoLiveRequest{Name: "Speedrun", Categories: []string{"gaming", "MUSIC"}})
	require.NoError(t, err)
	assert.True(t, session.Call.IsLive())
	assert.Equal(t, session.Livestream.ID.String(), session.ChannelID)
	assert.Equal(t, []string{"Gaming", "Music"}, []string(session.Livestream.Categories))
	assert.Equal(t, DefaultProfileImageURL, session.Livestream.ProfileImageURL)
	assert.Equal(t, "u1", session.Livestream.CreatorName)
	video.AssertExpectations(t)

	info, err := coordinator.ChatChannel(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, ChannelLive, info.Status)
	assert.Equal(t, session.ChannelID, info.ChannelID)
}

func TestLiveCoordinator_GoLiveValidation(t *testing.T) {
	db := setupTestDB(t)
	seedUsers(t, db, "u1")
	video := &MockVideoPlatform{}
	coordinator := NewLiveCoordinator(db, video)
	ctx := context.Background()

	tests := []struct {
		name string
		req  GoLiveRequest
	}{
		{"empty name", GoLiveRequest{Name: "  ", Categories: []string{"Gaming"}}},
		{"no categories", GoLiveRequest{Name: "x"}},
		{"unknown category", GoLiveRequest{Name: "x", Categories: []string{"Cooking"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coordinator.GoLive(ctx, "u1", tt.req)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}

	_, err := coordinator.GoLive(ctx, "ghost", GoLiveRequest{Name: "x", Categories: []string{"Art"}})
	assert.True(t, errors.Is(err, ErrUserNotFound))

	video.AssertNotCalled(t, "GoLive", mock.Anything, mock.Anything, mock.Anything)
}

func TestLiveCoordinator_GoLivePlatformFailure(t *testing.T) {
	db := setupTestDB(t)
	seedUsers(t, db, "u1")
	video := &MockVideoPlatform{}
	coordinator := NewLiveCoordinator(db, video)
	ctx := context.Background()

	video.On("GetOrCreateCall", ctx, stream.LivestreamCallType, "u1", "u1").Return(backstageCall("u1"), nil)
	video.On("GoLive", ctx, stream.LivestreamCallType, "u1").Return(nil, errors.New("platform down"))

	_, err := coordinator.GoLive(ctx, "u1", GoLiveRequest{Name: "x", Categories: []string{"Art"}})
	require.Error(t, err)

	listing, err := NewLivestreamStore(db).FindByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, listing)
}

func TestLiveCoordinator_ChannelFailureIsNotFatal(t *testing.T) {
	db := setupTestDB(t)
	seedUsers(t, db, "u1")
	video := &MockVideoPlatform{}
	coordinator := NewLiveCoordinator(db, video)
	ctx := context.Background()

	video.On("GetOrCreateCall", ctx, stream.LivestreamCallType, "u1", "u1").Return(backstageCall("u1"), nil)
	video.On("GoLive", ctx, stream.LivestreamCallType, "u1").Return(liveCall("u1"), nil)
	video.On("CreateChannel", ctx, stream.LivestreamCallType, mock.Anything, "u1", mock.Anything).
		Return(nil, errors.New("chat down"))

	session, err := coordinator.GoLive(ctx, "u1", GoLiveRequest{Name: "x", Categories: []string{"Art"}})
	require.NoError(t, err)
	assert.NotEmpty(t, session.ChannelID)
}

func TestLiveCoordinator_StopLive(t *testing.T) {
	db := setupTestDB(t)
	video := &MockVideoPlatform{}
	coordinator := NewLiveCoordinator(db, video)
	ctx := context.Background()

	_, err := NewLivestreamStore(db).Upsert(ctx, LivestreamInput{Name: "Live", UserID: "u1"})
	require.NoError(t, err)

	video.On("StopLive", ctx, stream.LivestreamCallType, "u1").Return(backstageCall("u1"), nil)
	require.NoError(t, coordinator.StopLive(ctx, "u1"))

	info, err := coordinator.ChatChannel(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, ChannelWaiting, info.Status)
	assert.Empty(t, info.ChannelID)

	// A call that never existed still clears the listing
	video.On("StopLive", ctx, stream.LivestreamCallType, "u2").Return(nil, stream.ErrCallNotFound)
	assert.NoError(t, coordinator.StopLive(ctx, "u2"))

	video.On("StopLive", ctx, stream.LivestreamCallType, "u3").Return(nil, errors.New("platform down"))
	assert.Error(t, coordinator.StopLive(ctx, "u3"))
}

func TestLiveCoordinator_ReapStale(t *testing.T) {
	db := setupTestDB(t)
	video := &MockVideoPlatform{}
	coordinator := NewLiveCoordinator(db, video)
	ctx := context.Background()
	store := NewLivestreamStore(db)

	for _, owner := range []string{"live_owner", "ended_owner", "gone_owner", "flaky_owner"} {
		_, err := store.Upsert(ctx, LivestreamInput{Name: owner, UserID: owner})
		require.NoError(t, err)
	}
	_, err := store.SeedMock(ctx)
	require.NoError(t, err)

	video.On("GetCall", ctx, stream.LivestreamCallType, "live_owner").Return(liveCall("live_owner"), nil)
	video.On("GetCall", ctx, stream.LivestreamCallType, "ended_owner").Return(backstageCall("ended_owner"), nil)
	video.On("GetCall", ctx, stream.LivestreamCallType, "gone_owner").Return(nil, stream.ErrCallNotFound)
	video.On("GetCall", ctx, stream.LivestreamCallType, "flaky_owner").Return(nil, errors.New("timeout"))

	reaped, err := coordinator.ReapStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, reaped)

	all, err := store.List(ctx)
	require.NoError(t, err)
	owners := make([]string, 0, len(all))
	for _, l := range all {
		owners = append(owners, l.UserID)
	}
	assert.Contains(t, owners, "live_owner")
	assert.Contains(t, owners, "flaky_owner")
	assert.NotContains(t, owners, "ended_owner")
	assert.NotContains(t, owners, "gone_owner")
	assert.Len(t, all, 2+len(models.MockLivestreams))
}
