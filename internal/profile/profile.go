package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start armi.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for the HTTP API
	Addr string
	// Port is the binding port for the HTTP API
	Port int
	// Data is the data directory
	Data string
	// DSN points to where armi stores its own data
	DSN string
	// Driver is the database driver (only sqlite is supported)
	Driver string
	// Version is the current version of armi
	Version string
	// DefaultTimezone is used when neither the request nor the runtime names a zone.
	DefaultTimezone string
	// ConfidenceThreshold is the minimum confidence for executing without confirmation.
	ConfidenceThreshold float64

	// AI Configuration
	AIProvider  string        // ARMI_AI_PROVIDER (default: openai)
	AIAPIKey    string        // ARMI_AI_API_KEY, the single credential selecting real vs mock mode
	AIBaseURL   string        // ARMI_AI_BASE_URL (default depends on provider)
	AIModel     string        // ARMI_AI_MODEL (default: gpt-4o-mini)
	AIMaxTokens int           // ARMI_AI_MAX_TOKENS (default: 1024)
	AITimeout   time.Duration // ARMI_AI_TIMEOUT (default: 20s)
}

// DefaultConfidenceThreshold is the execute-without-confirmation boundary.
const DefaultConfidenceThreshold = 0.7

var defaultBaseURLs = map[string]string{
	"openai":   "https://api.openai.com/v1",
	"deepseek": "https://api.deepseek.com",
	"ollama":   "http://localhost:11434/v1",
}

// placeholderCredentials are values copied from sample configs that never work.
var placeholderCredentials = map[string]bool{
	"changeme":     true,
	"your-api-key": true,
	"your_api_key": true,
	"sk-xxx":       true,
	"none":         true,
	"null":         true,
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled reports whether the credential selects the real backend.
// An absent or malformed credential silently means mock mode.
func (p *Profile) IsAIEnabled() bool {
	return CredentialLooksValid(p.AIAPIKey)
}

// CredentialLooksValid applies cheap shape checks to an API key.
func CredentialLooksValid(key string) bool {
	if key == "" || strings.TrimSpace(key) != key {
		return false
	}
	if strings.ContainsAny(key, " \t\r\n") {
		return false
	}
	if len(key) < 8 {
		return false
	}
	return !placeholderCredentials[strings.ToLower(key)]
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
// Values already set on the profile (e.g. from flags) are kept.
func (p *Profile) FromEnv() {
	setString := func(dst *string, key, def string) {
		if *dst != "" {
			return
		}
		*dst = getEnvOrDefault(key, def)
	}

	setString(&p.Mode, "ARMI_MODE", "dev")
	setString(&p.Data, "ARMI_DATA", "")
	setString(&p.DSN, "ARMI_DSN", "")
	setString(&p.Driver, "ARMI_DRIVER", "sqlite")
	setString(&p.DefaultTimezone, "ARMI_TIMEZONE", "UTC")
	setString(&p.AIProvider, "ARMI_AI_PROVIDER", "openai")
	setString(&p.AIAPIKey, "ARMI_AI_API_KEY", "")
	setString(&p.AIModel, "ARMI_AI_MODEL", "gpt-4o-mini")
	setString(&p.AIBaseURL, "ARMI_AI_BASE_URL", defaultBaseURLs[p.AIProvider])

	if p.AIMaxTokens == 0 {
		p.AIMaxTokens = 1024
		if v, err := strconv.Atoi(os.Getenv("ARMI_AI_MAX_TOKENS")); err == nil && v > 0 {
			p.AIMaxTokens = v
		}
	}

	if p.AITimeout == 0 {
		p.AITimeout = 20 * time.Second
		if v, err := time.ParseDuration(os.Getenv("ARMI_AI_TIMEOUT")); err == nil && v > 0 {
			p.AITimeout = v
		}
	}

	if p.ConfidenceThreshold == 0 {
		p.ConfidenceThreshold = DefaultConfidenceThreshold
		if v, err := strconv.ParseFloat(os.Getenv("ARMI_CONFIDENCE_THRESHOLD"), 64); err == nil && v > 0 && v <= 1 {
			p.ConfidenceThreshold = v
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}

	if p.ConfidenceThreshold <= 0 || p.ConfidenceThreshold > 1 {
		p.ConfidenceThreshold = DefaultConfidenceThreshold
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "armi")
		} else {
			p.Data = "/var/opt/armi"
		}
		if err := os.MkdirAll(p.Data, 0770); err != nil {
			slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
	}

	if p.Data == "" {
		// Without a data directory the store lives in memory.
		if p.DSN == "" {
			p.DSN = ":memory:"
		}
		return nil
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("armi_%s.db", p.Mode))
	}

	return nil
}
