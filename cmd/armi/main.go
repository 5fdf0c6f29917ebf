package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/armi/internal/profile"
	"github.com/hrygo/armi/internal/version"
	"github.com/hrygo/armi/store"
	"github.com/hrygo/armi/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "armi",
	Short: `Turn everyday sentences into profiles, reminders and scheduled texts.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if viper.IsSet("config") && viper.GetString("config") != "" {
			viper.SetConfigFile(viper.GetString("config"))
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}
		setupLogger()
		return nil
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8081)
	viper.SetDefault("timezone", "")
	viper.SetDefault("threshold", profile.DefaultConfidenceThreshold)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "optional config file (yaml, toml or json)")
	flags.String("mode", "dev", `mode of the process, "prod", "dev" or "demo"`)
	flags.String("data", "", "data directory; empty keeps the store in memory")
	flags.String("dsn", "", "database source name")
	flags.String("driver", "sqlite", "database driver")
	flags.String("timezone", "", "default IANA timezone when none is supplied")
	flags.Float64("threshold", profile.DefaultConfidenceThreshold, "confidence needed to act without confirmation")
	flags.String("ai-provider", "", "openai, deepseek or ollama")
	flags.String("ai-model", "", "chat model name")
	flags.String("ai-base-url", "", "OpenAI compatible base URL")
	flags.String("log-level", "info", "debug, info, warn or error")

	for _, name := range []string{"config", "mode", "data", "dsn", "driver", "timezone", "threshold", "ai-provider", "ai-model", "ai-base-url", "log-level"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("armi")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(newInterpretCmd(), newChatCmd(), newServeCmd())
	rootCmd.Version = version.Version
}

func setupLogger() {
	var level slog.Level
	switch strings.ToLower(viper.GetString("log-level")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadProfile builds the profile from flags, config file and ARMI_*
// environment, in that order of precedence.
func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:                viper.GetString("mode"),
		Addr:                viper.GetString("addr"),
		Port:                viper.GetInt("port"),
		Data:                viper.GetString("data"),
		DSN:                 viper.GetString("dsn"),
		Driver:              viper.GetString("driver"),
		DefaultTimezone:     viper.GetString("timezone"),
		ConfidenceThreshold: viper.GetFloat64("threshold"),
		AIProvider:          viper.GetString("ai-provider"),
		AIModel:             viper.GetString("ai-model"),
		AIBaseURL:           viper.GetString("ai-base-url"),
		AIAPIKey:            viper.GetString("ai_api_key"),
			}
	p.FromEnv()
	p.Version = version.GetCurrentVersion(p.Mode)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// openStore opens and migrates the store described by p.
func openStore(ctx context.Context, p *profile.Profile) (*store.Store, error) {
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create db driver: %w", err)
	}
	st := store.New(driver, p)
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
