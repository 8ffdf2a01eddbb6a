package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "abc")
	t.Setenv("REPOSTER_ALLOWED_CHANNELS", "")

	c, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, "abc", c.Token)
	assert.Equal(t, DefaultPrefix, c.Prefix)
	assert.Equal(t, DefaultWebhookName, c.WebhookName)
	assert.Equal(t, DefaultMaxAttachmentSize, c.MaxAttachmentSize)
	assert.Equal(t, DefaultAttachmentTimeout, time.Duration(c.AttachmentTimeout))
	assert.Empty(t, c.AllowList())
}

func TestLoadFile(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "abc")
	t.Setenv("REPOSTER_ALLOWED_CHANNELS", "")
	t.Setenv("REPOSTER_JOURNAL_PATH", "")
	path := writeConfig(t, `{
		"shards": 2,
		"allowed_channels": ["1", " 2 ", ""],
		"prefix": "?",
		"webhook_name": "Relay",
		"journal_path": "./journal",
		"attachment_timeout": "5s"
	}`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Shards)
	assert.Equal(t, "?", c.Prefix)
	assert.Equal(t, "Relay", c.WebhookName)
	assert.Equal(t, "./journal", c.JournalPath)
	assert.Equal(t, 5*time.Second, time.Duration(c.AttachmentTimeout))
	assert.Equal(t, map[string]struct{}{"1": {}, "2": {}}, c.AllowList())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "  abc  ")
	t.Setenv("REPOSTER_ALLOWED_CHANNELS", "10, 20,,30")
	t.Setenv("REPOSTER_JOURNAL_DSN", "postgres://localhost/reposter")
	path := writeConfig(t, `{"allowed_channels": ["1"]}`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "abc", c.Token)
	assert.Equal(t, []string{"10", "20", "30"}, c.AllowedChannels)
	assert.Equal(t, "postgres://localhost/reposter", c.JournalDSN)
}

func TestLoadBadFile(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "abc")

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"invalid duration", `{"attachment_timeout": "soon"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
