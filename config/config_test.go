package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yojiquiz/game"
)

func TestParse(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000,https://yoji.example.com")
	t.Setenv("JWT_KEY", "secret")
	t.Setenv("REDIS_URL", "")

	cli, command, err := Parse([]string{"--debug"})
	require.NoError(t, err)
	assert.Equal(t, "serve", command)
	assert.True(t, cli.Debug)
	assert.Equal(t, []string{"http://localhost:3000", "https://yoji.example.com"}, cli.Serve.AllowedOrigins)
	assert.Equal(t, ":5000", cli.Serve.Addr)
	assert.Equal(t, 24*time.Hour, cli.Serve.TokenAge)
	assert.Empty(t, cli.Serve.RedisURL)

	_, command, err = Parse([]string{"settings"})
	require.NoError(t, err)
	assert.Equal(t, "settings", command)
}

func TestParse_MissingJWTKey(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000")
	t.Setenv("JWT_KEY", "")
	os.Unsetenv("JWT_KEY")

	_, _, err := Parse([]string{"serve"})
	assert.Error(t, err)
}

func TestParseSettings(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc        string
		yaml        string
		expected    func(s *game.Settings)
		expectedErr error
	}{
		{
			desc:     "empty document keeps defaults",
			yaml:     "",
			expected: func(s *game.Settings) {},
		},
		{
			desc: "overrides",
			yaml: "mode: simultaneous\ntotalQuestions: 5\nreconnectGrace: 30s\n",
			expected: func(s *game.Settings) {
				s.Mode = game.ModeSimultaneous
				s.TotalQuestions = 5
				s.ReconnectGrace = 30 * time.Second
			},
		},
		{desc: "capacity out of range", yaml: "capacity: 9\n", expectedErr: game.ErrInvalidSettings},
		{desc: "question too short", yaml: "questionSeconds: 4\n", expectedErr: game.ErrInvalidSettings},
		{desc: "unknown mode", yaml: "mode: relay\n", expectedErr: game.ErrInvalidSettings},
		{desc: "malformed yaml", yaml: "capacity: [\n", expectedErr: game.ErrInvalidSettings},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := ParseSettings([]byte(tc.yaml))
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			want := game.DefaultSettings()
			tc.expected(&want)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadSettings(t *testing.T) {
	t.Parallel()

	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, game.DefaultSettings(), s)

	var buf bytes.Buffer
	require.NoError(t, WriteDefaultSettings(&buf))
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	s, err = LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, game.DefaultSettings(), s)

	_, err = LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
