package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, key *rsa.PrivateKey, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	s, err := token.SignedString(key)
	require.NoError(t, err)
	return s
}

func TestProvider_Verify(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	p := NewProviderFromKey(&key.PublicKey)

	tokenStr := signedToken(t, key, Claims{
		ReviewerID: "rev1",
		Role:       RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := p.Verify(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "rev1", claims.ReviewerID)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestProvider_Verify_Expired(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	p := NewProviderFromKey(&key.PublicKey)

	tokenStr := signedToken(t, key, Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err = p.Verify(tokenStr)
	assert.Error(t, err)
}

func TestProvider_Verify_WrongKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	p := NewProviderFromKey(&otherKey.PublicKey)

	tokenStr := signedToken(t, key, Claims{Role: RoleAdmin})
	_, err = p.Verify(tokenStr)
	assert.Error(t, err)
}

func TestProvider_Verify_RejectsHMAC(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	p := NewProviderFromKey(&key.PublicKey)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: RoleAdmin})
	tokenStr, err := token.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = p.Verify(tokenStr)
	assert.Error(t, err)
}
