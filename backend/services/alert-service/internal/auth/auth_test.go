package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenService("secret", time.Minute)

	raw, err := tokens.GenerateToken("operator", RoleOperator)
	require.NoError(t, err)

	claims, err := tokens.ValidateToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Login)
	assert.Equal(t, RoleOperator, claims.Role)
}

func TestTokenRejectsForeignSecretAndExpiry(t *testing.T) {
	raw, err := NewTokenService("other", time.Minute).GenerateToken("operator", RoleOperator)
	require.NoError(t, err)
	_, err = NewTokenService("secret", time.Minute).ValidateToken(raw)
	assert.Error(t, err)

	expired := NewTokenService("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err = expired.GenerateToken("operator", RoleOperator)
	require.NoError(t, err)
	_, err = expired.ValidateToken(raw)
	assert.Error(t, err)

	_, err = expired.GenerateToken("", RoleOperator)
	assert.Error(t, err)
}

func TestOperatorLogin(t *testing.T) {
	verifier := NewBcryptVerifier(bcrypt.MinCost)
	hash, err := verifier.HashPassword("s3cret")
	require.NoError(t, err)
	svc := NewOperatorService("ops", hash, verifier, NewTokenService("secret", 30*time.Minute))

	resp, err := svc.Login("ops", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(1800), resp.ExpiresIn)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = svc.Login("ops", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("admin", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestOperatorLoginDisabledWithoutHash(t *testing.T) {
	svc := NewOperatorService("ops", "", NewBcryptVerifier(0), NewTokenService("secret", 0))
	_, err := svc.Login("ops", "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestOperatorLoginMalformedHash(t *testing.T) {
	svc := NewOperatorService("ops", "not-a-bcrypt-hash", NewBcryptVerifier(0), NewTokenService("secret", 0))
	_, err := svc.Login("ops", "anything")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := NewBcryptVerifier(bcrypt.MinCost).HashPassword("")
	assert.Error(t, err)
}
