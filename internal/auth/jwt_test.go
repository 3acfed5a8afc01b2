package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nextplay-sports/platform-api/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret", AccessTokenTTL: 15 * time.Minute}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	cfg := testConfig()
	tok, err := GenerateAccessToken(cfg, "USR00AAAAA", "coach")
	assert.NoError(t, err)

	claims, err := ParseAndValidateToken(cfg, tok)
	assert.NoError(t, err)
	assert.Equal(t, "USR00AAAAA", claims.UserID)
	assert.Equal(t, "coach", claims.Role)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	tok, _ := GenerateAccessToken(testConfig(), "USR00AAAAA", "athlete")

	other := &config.Config{JWTSecret: "other-secret", AccessTokenTTL: 15 * time.Minute}
	_, err := ParseAndValidateToken(other, tok)
	assert.Error(t, err)
}

func TestAccessToken_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute
	tok, _ := GenerateAccessToken(cfg, "USR00AAAAA", "athlete")

	_, err := ParseAndValidateToken(cfg, tok)
	assert.Error(t, err)
}

func TestParseAndValidateToken_Garbage(t *testing.T) {
	_, err := ParseAndValidateToken(testConfig(), "not.a.jwt")
	assert.Error(t, err)
}
