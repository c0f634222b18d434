package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golivehub/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.StreamConfig{
		APIKey:    "key",
		APISecret: "secret",
		VideoURL:  server.URL + "/video",
		ChatURL:   server.URL + "/chat",
	})
}

func TestClient_GetOrCreateCall(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/video/call/livestream/user_1", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "jwt", r.Header.Get("stream-auth-type"))

		token, err := jwt.Parse(r.Header.Get("Authorization"), func(*jwt.Token) (interface{}, error) {
			return []byte("secret"), nil
		})
		require.NoError(t, err)
		assert.Equal(t, true, token.Claims.(jwt.MapClaims)["server"])

		var body map[string]map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user_1", body["data"]["created_by_id"])

		w.Write([]byte(`{"call":{"type":"livestream","id":"user_1","cid":"livestream:user_1","backstage":true}}`))
	})

	call, err := client.GetOrCreateCall(context.Background(), LivestreamCallType, "user_1", "user_1")
	require.NoError(t, err)
	assert.Equal(t, "livestream:user_1", call.CID)
	assert.False(t, call.IsLive())
}

func TestClient_GoLiveAndStopLive(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/video/call/livestream/user_1/go_live":
			w.Write([]byte(`{"call":{"id":"user_1","backstage":false}}`))
		case "/video/call/livestream/user_1/stop_live":
			w.Write([]byte(`{"call":{"id":"user_1","backstage":true}}`))
		default:
			http.NotFound(w, r)
		}
	})

	call, err := client.GoLive(context.Background(), LivestreamCallType, "user_1")
	require.NoError(t, err)
	assert.True(t, call.IsLive())

	call, err = client.StopLive(context.Background(), LivestreamCallType, "user_1")
	require.NoError(t, err)
	assert.False(t, call.IsLive())
}

func TestClient_GetCallNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.GetCall(context.Background(), LivestreamCallType, "ghost")
	assert.True(t, errors.Is(err, ErrCallNotFound))
}

func TestClient_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"nope"}`))
	})

	_, err := client.GoLive(context.Background(), LivestreamCallType, "user_1")
	assert.ErrorContains(t, err, "403")
}

func TestClient_CreateChannelAndUpsertUser(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/chat/channels/livestream/abc/query" {
			w.Write([]byte(`{"channel":{"type":"livestream","id":"abc","cid":"livestream:abc"}}`))
			return
		}
		w.Write([]byte(`{}`))
	})

	channel, err := client.CreateChannel(context.Background(), LivestreamCallType, "abc", "user_1", "alice's Stream")
	require.NoError(t, err)
	assert.Equal(t, "livestream:abc", channel.CID)

	require.NoError(t, client.UpsertUser(context.Background(), User{ID: "user_1", Name: "alice"}))
	assert.Equal(t, []string{"/chat/channels/livestream/abc/query", "/chat/users"}, paths)
}

func TestClient_MissingKey(t *testing.T) {
	client := NewClient(config.StreamConfig{APISecret: "secret"})
	_, err := client.GetCall(context.Background(), LivestreamCallType, "x")
	assert.ErrorContains(t, err, "STREAM_API_KEY is not set")
}

func TestClient_UserToken(t *testing.T) {
	client := NewClient(config.StreamConfig{APIKey: "key", APISecret: "secret"})

	token, err := client.UserToken("user_1")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "user_1", parsed.Claims.(jwt.MapClaims)["user_id"])

	_, err = client.UserToken("")
	assert.Error(t, err)

	_, err = NewClient(config.StreamConfig{APIKey: "key"}).UserToken("user_1")
	assert.ErrorContains(t, err, "STREAM_API_SECRET")
}
