package crypto

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yojiquiz/domain"
)

const testKey = "a signing key that is long enough for hs256 tests"

func TestGenerate(t *testing.T) {
	t.Parallel()
	now := time.Unix(1_760_000_000, 0)
	m := NewJWTManager(testKey, 24*time.Hour)
	m.now = func() time.Time { return now }

	token, err := m.Generate("player-1", "482913")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	head, _ := base64.RawURLEncoding.DecodeString(parts[0])
	body, _ := base64.RawURLEncoding.DecodeString(parts[1])
	signature, _ := base64.RawURLEncoding.DecodeString(parts[2])

	assert.JSONEq(t, `{"alg": "HS256", "typ": "JWT"}`, string(head))
	assert.JSONEq(t, fmt.Sprintf(`{"room": "482913", "sub": "player-1", "iat": %d, "exp": %d}`, now.Unix(), now.Add(24*time.Hour).Unix()), string(body))
	assert.Len(t, signature, 256/8, "256 bits of sha256")
}

func TestVerify(t *testing.T) {
	t.Parallel()
	m := NewJWTManager(testKey, 2*time.Hour)
	now := time.Now()

	m.now = func() time.Time { return now.Add(-3 * time.Hour) }
	expired, err := m.Generate("player-1", "482913")
	require.NoError(t, err)

	m.now = func() time.Time { return now.Add(-time.Hour) }
	valid, err := m.Generate("player-1", "482913")
	require.NoError(t, err)
	m.now = time.Now

	parts := strings.Split(valid, ".")
	otherKey, err := NewJWTManager("another key entirely, also long enough", time.Hour).Generate("player-1", "482913")
	require.NoError(t, err)

	testCases := []struct {
		desc        string
		token       string
		expectedErr error
	}{
		{desc: "expired token", token: expired, expectedErr: domain.ErrExpiredToken},
		{desc: "tampered signature", token: valid + "lol", expectedErr: domain.ErrInvalidTokenSignature},
		{desc: "signed with another key", token: otherKey, expectedErr: domain.ErrInvalidTokenSignature},
		{desc: "ES512 header", token: "eyJhbGciOiJFUzUxMiIsInR5cCI6IkpXVCJ9." + parts[1] + "." + parts[2], expectedErr: domain.ErrInvalidSigningAlg},
		{desc: "none alg", token: "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." + parts[1] + ".", expectedErr: domain.ErrInvalidSigningAlg},
		{desc: "garbage", token: "stemretmretm", expectedErr: domain.ErrCorruptedToken},
	}
	for _, tc := range testCases {
		_, _, err := m.Verify(tc.token)
		assert.ErrorIs(t, err, tc.expectedErr, tc.desc)
	}

	playerID, room, err := m.Verify(valid)
	require.NoError(t, err)
	assert.Equal(t, "player-1", playerID)
	assert.Equal(t, "482913", room)
}
