package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ListSessions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/sessions", r.URL.Path)
		assert.Equal(t, "user_1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		w.Write([]byte(`[
			{"id":"sess_a","user_id":"user_1","status":"active","last_active_at":1700000000000},
			{"id":"sess_b","user_id":"user_1","status":"revoked","last_active_at":1700000005000}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/v1", "sk_test")
	sessions, err := client.ListSessions(context.Background(), "user_1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].IsActive())
	assert.False(t, sessions[1].IsActive())
	assert.Equal(t, int64(1700000000), sessions[0].LastActive().Unix())
}

func TestClient_RevokeSession(t *testing.T) {
	var revoked string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		revoked = r.URL.Path
		w.Write([]byte(`{"id":"sess_a","status":"revoked"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test")
	require.NoError(t, client.RevokeSession(context.Background(), "sess_a"))
	assert.Equal(t, "/sessions/sess_a/revoke", revoked)
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad")
	_, err := client.ListSessions(context.Background(), "user_1")
	assert.ErrorContains(t, err, "401")

	assert.Error(t, client.RevokeSession(context.Background(), "sess_a"))
}
