package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/hrygo/armi/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API with the notification scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := loadProfile()
			if err != nil {
				return err
			}
			st, err := openStore(ctx, p)
			if err != nil {
				return err
			}
			defer st.Close()

			s, err := server.NewServer(ctx, p, st, server.Options{
				WebhookURL:        viper.GetString("webhook-url"),
				WebhookSecret:     viper.GetString("webhook-secret"),
				SchedulerInterval: viper.GetDuration("scheduler-interval"),
				SessionIdle:       viper.GetDuration("session-idle"),
				RateLimit:         rate.Limit(viper.GetFloat64("rate-limit")),
				RateBurst:         viper.GetInt("rate-burst"),
			})
			if err != nil {
				return err
			}
			return s.Run(ctx)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", "", "address of the HTTP API")
	flags.Int("port", 8081, "port of the HTTP API")
	flags.String("webhook-url", "", "deliver due notifications to this URL")
	flags.String("webhook-secret", "", "value of the X-Webhook-Secret header")
	flags.Duration("scheduler-interval", 30*time.Second, "how often due notifications are checked")
	flags.Duration("session-idle", 30*time.Minute, "idle time after which a conversation is dropped")
	flags.Float64("rate-limit", 5, "requests per second allowed per conversation")
	flags.Int("rate-burst", 10, "burst allowed per conversation")
	for _, name := range []string{"addr", "port", "webhook-url", "webhook-secret", "scheduler-interval", "session-idle", "rate-limit", "rate-burst"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
	return cmd
}
