package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golivehub/internal/auth"
	"golivehub/internal/config"
	"golivehub/internal/database/dbtest"
	"golivehub/internal/handlers"
	"golivehub/internal/realtime"
	"golivehub/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePolicy struct {
	mu         sync.Mutex
	superseded map[string]bool
	calls      int
}

func (p *fakePolicy) Enforce(ctx context.Context, userID, sessionID string) (*services.Verdict, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	verdict := &services.Verdict{SessionID: sessionID, Revoked: []string{}}
	if p.superseded[sessionID] {
		verdict.Superseded = true
		verdict.Reason = services.ReasonNewerSession
	}
	return verdict, nil
}

func (p *fakePolicy) supersede(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.superseded[sessionID] = true
}

func (p *fakePolicy) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type testBackend struct {
	server *httptest.Server
	hub    *realtime.Hub
	policy *fakePolicy
}

func newTestBackend(t *testing.T) *testBackend {
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	cfg := &config.Config{Provider: config.ProviderConfig{URL: "https://db.example.com", AnonKey: "anon"}}
	verifier := auth.StaticVerifier{
		"tok1": {Subject: "u1", SessionID: "sess_1", Role: "authenticated", Raw: map[string]interface{}{"sub": "u1"}},
	}
	hub := realtime.NewHub()
	policy := &fakePolicy{superseded: map[string]bool{}}
	sessions := handlers.NewSessionHandler(policy, hub)

	r := gin.New()
	r.POST("/api/supabase-proxy", handlers.OptionalAuth(verifier), handlers.NewProxyHandler(db, cfg).Handle)
	r.POST("/api/session/enforce", handlers.RequireAuth(verifier), sessions.Enforce)
	r.GET("/ws/session", handlers.RequireAuth(verifier), sessions.Subscribe)

	server := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return &testBackend{server: server, hub: hub, policy: policy}
}

func TestClient_ProxyActions(t *testing.T) {
	backend := newTestBackend(t)
	c := NewClient(backend.server.URL+"/", "tok1")
	ctx := context.Background()

	user, err := c.GetUserData(ctx, "u1", "user_id")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = c.SetUserData(ctx, Profile{UserID: "u1", UserName: "alice", ImageURL: "img.png", Mail: "a@x.com", DateOfBirth: "2000-01-01"})
	require.NoError(t, err)
	assert.Empty(t, user.Following)
	assert.Empty(t, user.Interests)

	_, err = c.SetUserData(ctx, Profile{UserID: "u2", UserName: "bob"})
	require.NoError(t, err)

	user, err = c.SetUserInterests(ctx, "u1", []string{"Gaming"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Gaming"}, []string(user.Interests))

	following, err := c.FollowUser(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, following)
	following, err = c.FollowUser(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, following)

	listing, err := c.CreateLivestream(ctx, Livestream{Name: "Stream", Categories: []string{"Art"}, OwnerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", listing.UserID)

	require.NoError(t, c.SetLivestreamsMockData(ctx))
	listings, err := c.GetLivestreams(ctx)
	require.NoError(t, err)
	assert.Greater(t, len(listings), 1)

	require.NoError(t, c.RemoveLivestreamsMockData(ctx))
	require.NoError(t, c.DeleteLivestream(ctx, "u1"))
	listings, err = c.GetLivestreams(ctx)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestClient_APIError(t *testing.T) {
	backend := newTestBackend(t)
	c := NewClient(backend.server.URL, "")

	_, err := c.FollowUser(context.Background(), "u1", "u1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "you cannot follow yourself", apiErr.Message)

	bad := NewClient(backend.server.URL, "forged")
	_, err = bad.GetLivestreams(context.Background())
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestClient_SocketURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/ws/session", NewClient("http://localhost:8080", "").SocketURL())
	assert.Equal(t, "wss://live.example.com/ws/session", NewClient("https://live.example.com/", "").SocketURL())
}

func TestSessionWatcher_Push(t *testing.T) {
	backend := newTestBackend(t)
	c := NewClient(backend.server.URL, "tok1")

	reasons := make(chan string, 1)
	watcher := NewSessionWatcher(c, "sess_1", time.Hour, func(reason string) { reasons <- reason })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		watcher.Run(ctx)
		close(done)
	}()

	require.Eventually(t, watcher.Connected, 2*time.Second, 10*time.Millisecond)
	backend.hub.NotifySuperseded("sess_1", services.ReasonRevoked)

	select {
	case reason := <-reasons:
		assert.Equal(t, services.ReasonRevoked, reason)
	case <-ctx.Done():
		t.Fatal("watcher did not report supersession")
	}
	<-done
}

func TestSessionWatcher_InitialCheck(t *testing.T) {
	backend := newTestBackend(t)
	backend.policy.supersede("sess_1")
	c := NewClient(backend.server.URL, "tok1")

	var reason string
	watcher := NewSessionWatcher(c, "sess_1", time.Hour, func(r string) { reason = r })
	watcher.Run(context.Background())

	assert.Equal(t, services.ReasonNewerSession, reason)
	assert.Equal(t, 1, backend.policy.callCount())
}

func TestSessionWatcher_PollsWhileDisconnected(t *testing.T) {
	backend := newTestBackend(t)
	c := NewClient(backend.server.URL, "tok1")

	reasons := make(chan string, 1)
	watcher := NewSessionWatcher(c, "sess_1", 20*time.Millisecond, func(r string) { reasons <- r })

	// A closed hub drops every socket right after the upgrade
	backend.hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go watcher.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	backend.policy.supersede("sess_1")

	select {
	case reason := <-reasons:
		assert.Equal(t, services.ReasonNewerSession, reason)
	case <-ctx.Done():
		t.Fatal("watcher did not poll")
	}
}
