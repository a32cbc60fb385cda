package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_Verify(t *testing.T) {
	v := NewVerifier("test-secret")

	valid, err := v.Issue("user-1", time.Hour)
	require.NoError(t, err)

	expired, err := v.Issue("user-1", -time.Hour)
	require.NoError(t, err)

	otherKey, err := NewVerifier("other-secret").Issue("user-1", time.Hour)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantUID string
		wantErr bool
	}{
		{name: "valid token", token: valid, wantUID: "user-1"},
		{name: "empty token", token: "", wantErr: true},
		{name: "garbage", token: "not-a-jwt", wantErr: true},
		{name: "expired", token: expired, wantErr: true},
		{name: "wrong key", token: otherKey, wantErr: true},
		{name: "missing subject", token: noSubject, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uid, err := v.Verify(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrAuthRequired)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUID, uid)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = BearerToken("bearer xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	_, err = BearerToken("Basic dXNlcg==")
	assert.Error(t, err)

	_, err = BearerToken("")
	assert.Error(t, err)
}
