package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hrygo/armi/plugin/ai/conversation"
	"github.com/hrygo/armi/server"
)

func newChatCmd() *cobra.Command {
	var (
		tz  string
		now string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to armi in the terminal, confirming actions before they are saved",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := loadProfile()
			if err != nil {
				return err
			}
			st, err := openStore(ctx, p)
			if err != nil {
				return err
			}
			defer st.Close()

			s, err := server.NewServer(ctx, p, st, server.Options{})
			if err != nil {
				return err
			}
			if err := s.Scheduler.Start(ctx); err != nil {
				return err
			}
			defer s.Scheduler.Stop()

			m := conversation.NewMachine(conversation.Config{
				ID:           uuid.NewString(),
				Timezone:     tz,
				Threshold:    p.ConfidenceThreshold,
				SimulatedNow: now,
			}, s.Interpreter, s.Clock, s.Executor)

			return runChat(cmd, m, os.Stdin, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&tz, "tz", "", "IANA timezone of the user")
	cmd.Flags().StringVar(&now, "now", "", "RFC 3339 instant to use as the current time")
	return cmd
}

func runChat(cmd *cobra.Command, m *conversation.Machine, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, `Tell me about someone, or ask for a reminder. Type "exit" to quit.`)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "reset":
			m.Reset()
			fmt.Fprintln(out, "Starting over.")
			continue
		}

		reply := m.Handle(cmd.Context(), text)
		if reply.Stale {
			continue
		}
		fmt.Fprintln(out, reply.Message)
	}
}
