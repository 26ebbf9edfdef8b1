package auth

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issue(t *testing.T, uid string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &AppTokenClaims{
		UID:            uid,
		StandardClaims: jwt.StandardClaims{ExpiresAt: exp.Unix()},
	})
	raw, err := token.SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return raw
}

func TestBearerToken_Value(t *testing.T) {
	now := time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC)
	raw := issue(t, "u1", now.Add(time.Hour))
	bt := NewBearerToken(raw)
	bt.now = func() time.Time { return now }

	value, err := bt.Value()
	require.NoError(t, err)
	assert.Equal(t, raw, value)
	require.NotNil(t, bt.Claims())
	assert.Equal(t, "u1", bt.Claims().UID)

	bt.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = bt.Value()
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, raw, bt.Raw())
}

func TestBearerToken_Set(t *testing.T) {
	bt := NewBearerToken(issue(t, "u1", time.Now().Add(-time.Minute)))
	_, err := bt.Value()
	require.ErrorIs(t, err, domain.ErrSessionExpired)

	fresh := issue(t, "u2", time.Now().Add(time.Hour))
	bt.Set(fresh)

	value, err := bt.Value()
	require.NoError(t, err)
	assert.Equal(t, fresh, value)
	assert.Equal(t, "u2", bt.Claims().UID)
}

func TestBearerToken_OpaqueAndEmpty(t *testing.T) {
	opaque := NewBearerToken("not-a-jwt")
	value, err := opaque.Value()
	require.NoError(t, err)
	assert.Equal(t, "not-a-jwt", value)
	assert.Nil(t, opaque.Claims())

	empty := NewBearerToken("")
	value, err = empty.Value()
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestAppTokenClaims_TimeRemaining(t *testing.T) {
	now := time.Unix(1000, 0)
	tests := []struct {
		name string
		exp  int64
		want time.Duration
	}{
		{"no expiry", 0, time.Duration(1<<63 - 1)},
		{"expired", 900, 0},
		{"remaining", 1060, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := &AppTokenClaims{StandardClaims: jwt.StandardClaims{ExpiresAt: tt.exp}}
			assert.Equal(t, tt.want, claims.TimeRemaining(now))
		})
	}
}
