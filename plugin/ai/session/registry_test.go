package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/armi/plugin/ai/aitime"
	"github.com/hrygo/armi/plugin/ai/conversation"
	"github.com/hrygo/armi/plugin/ai/interpreter"
)

type clarifyInterpreter struct{}

func (clarifyInterpreter) InterpretWithContext(context.Context, string, aitime.TimeContext) *interpreter.Result {
	return &interpreter.Result{Intent: interpreter.IntentClarify, Actions: []interpreter.Action{}, Clarification: "Who?"}
}

type noopExecutor struct{}

func (noopExecutor) Execute(context.Context, string, []interpreter.Action) error { return nil }

func newTestRegistry() (*Registry, *time.Time) {
	clock := aitime.NewFixedResolver("UTC", time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
	r := NewRegistry(func(id, tz string) *conversation.Machine {
		return conversation.NewMachine(conversation.Config{ID: id, Timezone: tz}, clarifyInterpreter{}, clock, noopExecutor{})
	})
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	r.SetClock(func() time.Time { return now })
	return r, &now
}

func TestRegistry_GetReusesMachine(t *testing.T) {
	r, _ := newTestRegistry()

	a := r.Get("c1", "America/New_York")
	b := r.Get("c1", "Europe/Paris")
	assert.Same(t, a, b)
	assert.Equal(t, 1, r.Len())

	fresh := r.Get("", "")
	assert.NotEmpty(t, fresh.ID())
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_Handle(t *testing.T) {
	r, _ := newTestRegistry()

	id, reply := r.Handle(context.Background(), "", "UTC", "add sam")
	require.NotEmpty(t, id)
	assert.Equal(t, "Who?", reply.Message)
	assert.Equal(t, conversation.StateReady, reply.State)

	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, conversation.StateReady, list[0].State)
}

func TestRegistry_CleanupIdle(t *testing.T) {
	r, now := newTestRegistry()

	r.Get("old", "")
	*now = now.Add(20 * time.Minute)
	r.Get("recent", "")
	*now = now.Add(15 * time.Minute)

	removed, err := r.CleanupIdle(context.Background(), DefaultIdleTimeout)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 1, r.Len())
	assert.False(t, r.Remove("old"))
	assert.True(t, r.Remove("recent"))
}

func TestRegistry_Reset(t *testing.T) {
	r, _ := newTestRegistry()

	assert.False(t, r.Reset("missing"))
	assert.Equal(t, 0, r.Len())

	r.Get("c1", "UTC")
	assert.True(t, r.Reset("c1"))
	assert.Equal(t, conversation.StateReady, r.Get("c1", "UTC").State())
}
