package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-forge/internal/config"
	"github.com/jonathan/resume-forge/internal/types"
)

// TokenResponse is returned by POST /api/auth/token.
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthHandler exchanges API client keys for tokens.
type AuthHandler struct {
	auth   *config.AuthConfig
	jwt    *JWTService
	logger *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *config.AuthConfig, jwtService *JWTService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, jwt: jwtService, logger: logger}
}

// IssueToken checks client_key against the configured bcrypt hash for client_id.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req types.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.auth.VerifyKey(req.ClientID, req.ClientKey) {
		h.logger.Warn("token request rejected", zap.String("client_id", req.ClientID))
		writeError(w, http.StatusUnauthorized, "invalid client credentials")
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(req.ClientID)
	if err != nil {
		h.logger.Error("failed to generate token", zap.String("client_id", req.ClientID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	h.logger.Info("token issued", zap.String("client_id", req.ClientID))
	writeJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	})
}
