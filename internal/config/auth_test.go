package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthConfig_HashAndVerify(t *testing.T) {
	c := &AuthConfig{BcryptCost: bcrypt.MinCost}

	hash, err := c.HashKey("s3cret-key")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-key", hash)

	c.Clients = []ClientKey{{ID: "frontend", KeyHash: hash}}

	assert.True(t, c.VerifyKey("frontend", "s3cret-key"))
	assert.False(t, c.VerifyKey("frontend", "wrong"))
	assert.False(t, c.VerifyKey("unknown", "s3cret-key"))
}

func TestAuthConfig_HashKeyEmpty(t *testing.T) {
	c := &AuthConfig{BcryptCost: bcrypt.MinCost}
	_, err := c.HashKey("")
	assert.Error(t, err)
}

func TestAuthConfig_Normalize(t *testing.T) {
	valid := AuthConfig{
		JWTSecret:       "0123456789abcdef",
		ExpirationHours: 24,
		BcryptCost:      12,
		Clients:         []ClientKey{{ID: "cli", KeyHash: "$2a$12$hash"}},
	}
	require.NoError(t, valid.normalize())

	tests := []struct {
		name    string
		mutate  func(*AuthConfig)
		wantErr string
	}{
		{name: "short secret", mutate: func(c *AuthConfig) { c.JWTSecret = "short" }, wantErr: "at least 16"},
		{name: "zero expiration", mutate: func(c *AuthConfig) { c.ExpirationHours = 0 }, wantErr: "expiration"},
		{name: "cost too high", mutate: func(c *AuthConfig) { c.BcryptCost = 20 }, wantErr: "bcrypt cost"},
		{name: "client without hash", mutate: func(c *AuthConfig) { c.Clients = []ClientKey{{ID: "x"}} }, wantErr: "key_hash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			c.Clients = append([]ClientKey(nil), valid.Clients...)
			tt.mutate(&c)
			err := c.normalize()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
