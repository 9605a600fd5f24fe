package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// AuthConfig holds token signing settings and the API clients allowed to request tokens.
type AuthConfig struct {
	Enabled         bool        `mapstructure:"enabled"`
	JWTSecret       string      `mapstructure:"jwt_secret"`
	ExpirationHours int         `mapstructure:"expiration_hours"`
	BcryptCost      int         `mapstructure:"bcrypt_cost"`
	Clients         []ClientKey `mapstructure:"clients"`
}

// ClientKey is an API client and the bcrypt hash of its key.
type ClientKey struct {
	ID      string `mapstructure:"id"`
	KeyHash string `mapstructure:"key_hash"`
}

// normalize validates the settings needed to issue and check tokens.
func (c *AuthConfig) normalize() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT secret cannot be empty when auth is enabled")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT secret must be at least 16 characters")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("token expiration must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be %d-14)", c.BcryptCost, bcrypt.MinCost)
	}
	for i, client := range c.Clients {
		if client.ID == "" || client.KeyHash == "" {
			return fmt.Errorf("auth client %d must have an id and a key_hash", i)
		}
	}
	return nil
}

// HashKey hashes a client key with the configured bcrypt cost.
func (c *AuthConfig) HashKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}
	cost := c.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}
	return string(hash), nil
}

// VerifyKey reports whether key matches the stored hash of clientID.
// Unknown clients never verify.
func (c *AuthConfig) VerifyKey(clientID, key string) bool {
	for _, client := range c.Clients {
		if client.ID != clientID {
			continue
		}
		return bcrypt.CompareHashAndPassword([]byte(client.KeyHash), []byte(key)) == nil
	}
	return false
}
