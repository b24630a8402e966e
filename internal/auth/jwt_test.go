package auth

import (
	"strings"
	"testing"
	"time"

	"techniknet-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = strings.Repeat("k", 32)

func TestGenerateAndParseToken(t *testing.T) {
	user := &models.User{ID: 7, Username: "anna", Role: models.RoleMember}

	token, err := GenerateToken(testSecret, user)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "anna", claims.Username)
	assert.Equal(t, models.RoleMember, claims.Role)
	assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestParseToken_Rejects(t *testing.T) {
	user := &models.User{ID: 1, Username: "root", Role: models.RoleSuperuser}
	token, err := GenerateToken(testSecret, user)
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTCustomClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expiredStr, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", strings.Repeat("x", 32), token},
		{"expired", testSecret, expiredStr},
		{"garbage", testSecret, "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.secret, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
