package ai

import (
	"errors"
	"time"

	"github.com/hrygo/armi/internal/profile"
)

// DefaultTimeout bounds every backend call.
const DefaultTimeout = 20 * time.Second

// Config represents AI configuration.
type Config struct {
	Enabled bool

	LLM LLMConfig
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider    string  // openai, deepseek, ollama
	Model       string  // gpt-4o-mini
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 1024
	Temperature float32 // default: 0, decoding must be deterministic
	Timeout     time.Duration
	JSONOutput  bool // ask the backend for a JSON object response
}

// HasCredential reports whether the API key selects the real backend.
func (c *LLMConfig) HasCredential() bool {
	return profile.CredentialLooksValid(c.APIKey)
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
	}

	cfg.LLM = LLMConfig{
		Provider:    p.AIProvider,
		Model:       p.AIModel,
		APIKey:      p.AIAPIKey,
		BaseURL:     p.AIBaseURL,
		MaxTokens:   p.AIMaxTokens,
		Temperature: 0,
		Timeout:     p.AITimeout,
		JSONOutput:  true,
	}

	if cfg.LLM.MaxTokens <= 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.LLM.Timeout <= 0 {
		cfg.LLM.Timeout = DefaultTimeout
	}

	return cfg
}

// Validate validates the configuration. A disabled config is always valid:
// missing credentials mean mock mode, not a startup failure.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}

	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}

	return nil
}
