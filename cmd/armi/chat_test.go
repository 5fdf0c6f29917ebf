package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/armi/plugin/ai/aitime"
	"github.com/hrygo/armi/plugin/ai/conversation"
	"github.com/hrygo/armi/plugin/ai/interpreter"
)

type lowConfidence struct{}

func (lowConfidence) InterpretWithContext(context.Context, string, aitime.TimeContext) *interpreter.Result {
	return &interpreter.Result{
		Intent:     interpreter.IntentCreateProfile,
		Confidence: 0.4,
		Actions:    []interpreter.Action{interpreter.NewProfileAction(interpreter.ActionCreateProfile, interpreter.ProfilePayload{Name: "Sarah"})},
		Response:   "Adding Sarah.",
	}
}

type countingExecutor struct{ calls int }

func (e *countingExecutor) Execute(context.Context, string, []interpreter.Action) error {
	e.calls++
	return nil
}

func TestRunChat(t *testing.T) {
	exec := &countingExecutor{}
	clock := aitime.NewFixedResolver("UTC", time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
	m := conversation.NewMachine(conversation.Config{ID: "cli"}, lowConfidence{}, clock, exec)

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	err := runChat(cmd, m, strings.NewReader("add Sarah\nyes\nexit\nnever reached\n"), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Create profile: Sarah")
	assert.Contains(t, out.String(), "Is that right? (yes/no)")
	assert.Equal(t, 1, exec.calls)
}

func TestRunChat_ResetDropsPending(t *testing.T) {
	exec := &countingExecutor{}
	clock := aitime.NewFixedResolver("UTC", time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
	m := conversation.NewMachine(conversation.Config{ID: "cli"}, lowConfidence{}, clock, exec)

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	err := runChat(cmd, m, strings.NewReader("add Sarah\nreset\n"), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Starting over.")
	assert.Nil(t, m.Pending())
	assert.Equal(t, conversation.StateReady, m.State())
	assert.Zero(t, exec.calls)
}
