package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	DefaultPath              = "./config.json"
	DefaultPrefix            = "!"
	DefaultWebhookName       = "MessageReposter"
	DefaultMaxAttachmentSize = 25 << 20
	DefaultAttachmentTimeout = 30 * time.Second
)

var ErrMissingToken = errors.New("DISCORD_TOKEN is not set")

// Config is the runtime configuration of the reposter. The token only ever comes from the
// environment; everything else may be set in the JSON file and overridden by env vars.
type Config struct {
	Token             string   `json:"-"`
	SentryDSN         string   `json:"-"`
	Shards            int      `json:"shards"`
	AllowedChannels   []string `json:"allowed_channels"`
	Prefix            string   `json:"prefix"`
	WebhookName       string   `json:"webhook_name"`
	LogLevel          string   `json:"log_level"`
	JournalPath       string   `json:"journal_path"`
	JournalDSN        string   `json:"journal_dsn"`
	MaxAttachmentSize int      `json:"max_attachment_size"`
	AttachmentTimeout Duration `json:"attachment_timeout"`
}

// Duration is a time.Duration that reads from a JSON string such as "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func Default() *Config {
	return &Config{
		Prefix:            DefaultPrefix,
		WebhookName:       DefaultWebhookName,
		LogLevel:          "info",
		MaxAttachmentSize: DefaultMaxAttachmentSize,
		AttachmentTimeout: Duration(DefaultAttachmentTimeout),
	}
}

// Load reads the config file at path if it exists, applies environment overrides and validates
// the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	c := Default()

	d, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(d, c); err != nil {
			return nil, fmt.Errorf("failed to parse config %v: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read config %v: %w", path, err)
	}

	c.applyEnv()
	c.fillDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	c.Token = strings.TrimSpace(os.Getenv("DISCORD_TOKEN"))
	c.SentryDSN = os.Getenv("SENTRY_DSN")

	if v := os.Getenv("REPOSTER_ALLOWED_CHANNELS"); v != "" {
		c.AllowedChannels = splitList(v)
	}
	if v := os.Getenv("REPOSTER_JOURNAL_PATH"); v != "" {
		c.JournalPath = v
	}
	if v := os.Getenv("REPOSTER_JOURNAL_DSN"); v != "" {
		c.JournalDSN = v
	}
}

func (c *Config) fillDefaults() {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.WebhookName == "" {
		c.WebhookName = DefaultWebhookName
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxAttachmentSize <= 0 {
		c.MaxAttachmentSize = DefaultMaxAttachmentSize
	}
	if c.AttachmentTimeout <= 0 {
		c.AttachmentTimeout = Duration(DefaultAttachmentTimeout)
	}
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	return nil
}

// AllowList returns the allowed channels as a set. An empty set means every channel.
func (c *Config) AllowList() map[string]struct{} {
	set := make(map[string]struct{}, len(c.AllowedChannels))
	for _, id := range c.AllowedChannels {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
