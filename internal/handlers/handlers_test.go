package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golivehub/internal/auth"
	"golivehub/internal/config"
	"golivehub/internal/database/dbtest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Provider: config.ProviderConfig{URL: "https://db.example.com", AnonKey: "anon-key"},
	}
}

func testVerifier() auth.StaticVerifier {
	return auth.StaticVerifier{
		"tok1": {Subject: "u1", SessionID: "sess_1", Role: "authenticated", Raw: map[string]interface{}{"sub": "u1", "sid": "sess_1"}},
		"tok2": {Subject: "u2", SessionID: "sess_2", Role: "authenticated", Raw: map[string]interface{}{"sub": "u2", "sid": "sess_2"}},
		"tok3": {Subject: "u3", Role: "authenticated", Raw: map[string]interface{}{"sub": "u3"}},
	}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func newProxyRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.POST("/api/supabase-proxy", OptionalAuth(testVerifier()), NewProxyHandler(db, cfg).Handle)
	return r
}

func action(name string, payload interface{}) map[string]interface{} {
	return map[string]interface{}{"action": name, "payload": payload}
}

func setupDB(t *testing.T) *gorm.DB {
	return dbtest.Open(t)
}
