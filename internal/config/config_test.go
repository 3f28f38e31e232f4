package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		RoomCodeLength:         6,
		RoomCodeRetries:        5,
		GuestTokenLength:       32,
		SessionTimeoutHours:    2,
		GuestDataRetentionDays: 30,
		HeartbeatInterval:      30 * time.Second,
		HeartbeatTimeout:       60 * time.Second,
		GradingConcurrency:     2,
		GradingRuns:            3,
		LLMMaxRetries:          3,

		ShortAnswerMinKeywordMatch: 0.5,
	}
}

func TestValidateAccepts(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short room code", func(c *Config) { c.RoomCodeLength = 3 }},
		{"zero room code retries", func(c *Config) { c.RoomCodeRetries = 0 }},
		{"weak guest token", func(c *Config) { c.GuestTokenLength = 8 }},
		{"zero session timeout", func(c *Config) { c.SessionTimeoutHours = 0 }},
		{"zero retention", func(c *Config) { c.GuestDataRetentionDays = 0 }},
		{"heartbeat timeout not above interval", func(c *Config) { c.HeartbeatTimeout = c.HeartbeatInterval }},
		{"zero grading concurrency", func(c *Config) { c.GradingConcurrency = 0 }},
		{"zero grading runs", func(c *Config) { c.GradingRuns = 0 }},
		{"too many llm retries", func(c *Config) { c.LLMMaxRetries = 6 }},
		{"zero keyword match ratio", func(c *Config) { c.ShortAnswerMinKeywordMatch = 0 }},
		{"keyword match ratio above one", func(c *Config) { c.ShortAnswerMinKeywordMatch = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseOrigins(t *testing.T) {
	assert.Nil(t, parseOrigins(""))
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		parseOrigins("https://a.example, https://b.example"))
	assert.Equal(t, []string{"https://a.example"}, parseOrigins("https://a.example,,  "))
}
