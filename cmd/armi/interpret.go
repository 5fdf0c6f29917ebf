package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hrygo/armi/plugin/ai/aitime"
	"github.com/hrygo/armi/plugin/ai/interpreter"
	"github.com/hrygo/armi/server"
)

func newInterpretCmd() *cobra.Command {
	var (
		tz  string
		now string
	)
	cmd := &cobra.Command{
		Use:   "interpret [text]",
		Short: "Interpret one sentence and print the result as JSON; nothing is saved",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile()
			if err != nil {
				return err
			}
			llm, err := server.NewLLM(p)
			if err != nil {
				return err
			}
			interp := interpreter.New(llm, aitime.NewResolver(p.DefaultTimezone))

			result := interp.Interpret(cmd.Context(), interpreter.Request{
				Text:         strings.Join(args, " "),
				UserTimezone: tz,
				SimulatedNow: now,
			})

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tz, "tz", "", "IANA timezone of the user")
	cmd.Flags().StringVar(&now, "now", "", "RFC 3339 instant to use as the current time")
	return cmd
}
