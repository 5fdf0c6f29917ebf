package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var armiEnvVars = []string{
	"ARMI_MODE", "ARMI_DATA", "ARMI_DSN", "ARMI_DRIVER", "ARMI_TIMEZONE",
	"ARMI_AI_PROVIDER", "ARMI_AI_API_KEY", "ARMI_AI_BASE_URL", "ARMI_AI_MODEL",
	"ARMI_AI_MAX_TOKENS", "ARMI_AI_TIMEOUT", "ARMI_CONFIDENCE_THRESHOLD",
}

func clearEnv(t *testing.T) {
	for _, key := range armiEnvVars {
		t.Setenv(key, "")
	}
}

func TestProfileDefaults(t *testing.T) {
	clearEnv(t)

	p := &Profile{}
	p.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"Mode default", "dev", p.Mode},
		{"Driver default", "sqlite", p.Driver},
		{"DefaultTimezone default", "UTC", p.DefaultTimezone},
		{"AIProvider default", "openai", p.AIProvider},
		{"AIModel default", "gpt-4o-mini", p.AIModel},
		{"AIBaseURL default", "https://api.openai.com/v1", p.AIBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, tt.actual)
			}
		})
	}

	assert.Equal(t, 1024, p.AIMaxTokens)
	assert.Equal(t, 20*time.Second, p.AITimeout)
	assert.Equal(t, DefaultConfidenceThreshold, p.ConfidenceThreshold)
	assert.False(t, p.IsAIEnabled())
}

func TestProfileFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARMI_AI_PROVIDER", "deepseek")
	t.Setenv("ARMI_AI_API_KEY", "sk-live-1234567890")
	t.Setenv("ARMI_AI_TIMEOUT", "5s")
	t.Setenv("ARMI_CONFIDENCE_THRESHOLD", "0.8")
	t.Setenv("ARMI_TIMEZONE", "America/Chicago")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "deepseek", p.AIProvider)
	assert.Equal(t, "https://api.deepseek.com", p.AIBaseURL)
	assert.Equal(t, 5*time.Second, p.AITimeout)
	assert.Equal(t, 0.8, p.ConfidenceThreshold)
	assert.Equal(t, "America/Chicago", p.DefaultTimezone)
	assert.True(t, p.IsAIEnabled())
}

func TestProfileFromEnv_KeepsExplicitValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARMI_AI_MODEL", "from-env")

	p := &Profile{AIModel: "from-flag"}
	p.FromEnv()
	assert.Equal(t, "from-flag", p.AIModel)
}

func TestCredentialLooksValid(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"", false},
		{"short", false},
		{" sk-1234567890", false},
		{"sk-1234 567890", false},
		{"your-api-key", false},
		{"CHANGEME", false},
		{"sk-1234567890abcdef", true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, CredentialLooksValid(tt.key))
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("memory store without data dir", func(t *testing.T) {
		p := &Profile{Mode: "weird", Driver: "sqlite"}
		require.NoError(t, p.Validate())
		assert.Equal(t, "demo", p.Mode)
		assert.Equal(t, ":memory:", p.DSN)
		assert.Equal(t, DefaultConfidenceThreshold, p.ConfidenceThreshold)
	})

	t.Run("file store in data dir", func(t *testing.T) {
		dir := t.TempDir()
		p := &Profile{Mode: "dev", Driver: "sqlite", Data: dir, ConfidenceThreshold: 0.9}
		require.NoError(t, p.Validate())
		assert.Contains(t, p.DSN, "armi_dev.db")
		assert.Equal(t, 0.9, p.ConfidenceThreshold)
	})

	t.Run("missing data dir", func(t *testing.T) {
		p := &Profile{Mode: "dev", Driver: "sqlite", Data: "/definitely/not/here"}
		assert.Error(t, p.Validate())
	})

	t.Run("unsupported driver", func(t *testing.T) {
		p := &Profile{Mode: "dev", Driver: "postgres"}
		assert.Error(t, p.Validate())
	})
}
