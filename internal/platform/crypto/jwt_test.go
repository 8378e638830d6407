package crypto

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, jti, err := GenerateToken("secret", "user-1", "USER", time.Hour)
	require.NoError(t, err)
	assert.Len(t, jti, 32)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)
	assert.Equal(t, "USER", claims.Role)
	assert.Equal(t, jti, claims.ID)
}

func TestParseToken_Rejects(t *testing.T) {
	valid, _, err := GenerateToken("secret", "user-1", "USER", time.Hour)
	require.NoError(t, err)
	expired, _, err := GenerateToken("secret", "user-1", "USER", -time.Minute)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Sub: "user-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]struct {
		secret string
		token  string
	}{
		"wrong secret": {"other", valid},
		"expired":      {"secret", expired},
		"alg none":     {"secret", none},
		"garbage":      {"secret", "not.a.token"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(tt.secret, tt.token)
			assert.Error(t, err)
		})
	}
}
