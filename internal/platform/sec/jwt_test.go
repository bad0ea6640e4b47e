// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/sec"
)

func signToken(t *testing.T, key *rsa.PrivateKey, issuer, role string, expiresIn time.Duration) string {
	t.Helper()

	now := time.Now()
	claims := sec.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
		UserID: "user-1",
		Role:   role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestTokenVerifier_VerifyToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	verifier := sec.NewTokenVerifierFromKey(&key.PublicKey, "helixio.app")

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid_admin_token", signToken(t, key, "helixio.app", "admin", time.Hour), false},
		{"expired_token", signToken(t, key, "helixio.app", "admin", -time.Hour), true},
		{"wrong_issuer", signToken(t, key, "elsewhere", "admin", time.Hour), true},
		{"foreign_key", signToken(t, otherKey, "helixio.app", "admin", time.Hour), true},
		{"garbage", "not-a-token", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := verifier.VerifyToken(tt.token)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", claims.UserID)
			assert.Equal(t, "admin", claims.Role)
		})
	}
}

func TestUserRole_AtLeast(t *testing.T) {
	assert.True(t, sec.RoleAdmin.AtLeast(sec.RoleMember))
	assert.True(t, sec.RoleAdmin.AtLeast(sec.RoleAdmin))
	assert.False(t, sec.RoleMember.AtLeast(sec.RoleAdmin))
	assert.False(t, sec.UserRole("guest").AtLeast(sec.RoleMember))
}
