package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jonathan/resume-forge/internal/config"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func testAuthConfig(t *testing.T) config.AuthConfig {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("client-key"), bcrypt.MinCost)
	require.NoError(t, err)
	return config.AuthConfig{
		Enabled:         true,
		JWTSecret:       testSecret,
		ExpirationHours: 24,
		BcryptCost:      bcrypt.MinCost,
		Clients:         []config.ClientKey{{ID: "frontend", KeyHash: string(hash)}},
	}
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(config.AuthConfig{JWTSecret: testSecret, ExpirationHours: 2})

	before := time.Now()
	token, expiresAt, err := svc.GenerateToken("frontend")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)
	assert.WithinDuration(t, before.Add(2*time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "frontend", claims.GetClientID())
	assert.Equal(t, "frontend", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestJWTService_DefaultExpiration(t *testing.T) {
	svc := NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	assert.Equal(t, 24*time.Hour, svc.expiration)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(config.AuthConfig{JWTSecret: testSecret, ExpirationHours: 1})
	token, _, err := svc.GenerateToken("frontend")
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := svc.ValidateToken("")
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.jwt")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.AuthConfig{JWTSecret: "another-secret-key-that-is-long-enough", ExpirationHours: 1})
		_, err := other.ValidateToken(token)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid token signature")
	})

	t.Run("expired", func(t *testing.T) {
		later := NewJWTService(config.AuthConfig{JWTSecret: testSecret, ExpirationHours: 1})
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.ValidateToken(token)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "token expired")
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
			ClientID:         "frontend",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer},
		})
		signed, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(signed)
		assert.Error(t, err)
	})

	t.Run("empty client", func(t *testing.T) {
		_, _, err := svc.GenerateToken("")
		assert.Error(t, err)
	})
}

func TestAuthFlow(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = testAuthConfig(t)
	s := newTestServer(t, newFakeGenerator(), nil, cfg)
	h := s.Handler()

	// health and root stay public
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/health", "", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/", "", "").Code)

	rec := do(t, h, http.MethodPost, "/api/quality-score", `{"resume_text": "r", "job_title": "SRE"}`, "application/json")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/auth/token", `{"client_id": "frontend", "client_key": "wrong"}`, "application/json")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/auth/token", `{"client_id": "frontend"}`, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Client key is required", decodeBody(t, rec)["error"])

	rec = do(t, h, http.MethodPost, "/api/auth/token", `{"client_id": "frontend", "client_key": "client-key"}`, "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var token TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	assert.Equal(t, "Bearer", token.TokenType)
	assert.NotEmpty(t, token.Token)

	req := httptest.NewRequest(http.MethodPost, "/api/quality-score", strings.NewReader(`{"resume_text": "r", "job_title": "SRE"}`))
	req.Header.Set("Authorization", "Bearer "+token.Token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAuthDisabled_NoTokenRoute(t *testing.T) {
	s := newTestServer(t, newFakeGenerator(), nil, nil)
	rec := do(t, s.Handler(), http.MethodPost, "/api/auth/token", `{}`, "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit_PerAuthenticatedClient(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = true
	cfg.Auth = testAuthConfig(t)
	s := newTestServer(t, newFakeGenerator(), nil, cfg)
	h := s.Handler()

	score := func(clientID string) *httptest.ResponseRecorder {
		token, _, err := s.authHandler.jwt.GenerateToken(clientID)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/quality-score", strings.NewReader(`{"resume_text": "r", "job_title": "SRE"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	// Both clients share the test address; the burst of 2 is per client.
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, score("frontend").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, score("frontend").Code)

	rec := score("batch-job")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
}
