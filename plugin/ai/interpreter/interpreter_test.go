package interpreter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/armi/internal/aierr"
	"github.com/hrygo/armi/internal/observability"
	"github.com/hrygo/armi/plugin/ai"
	"github.com/hrygo/armi/plugin/ai/aitime"
)

type stubLLM struct {
	content   string
	err       error
	available bool
	calls     int
	messages  []ai.Message
}

func (s *stubLLM) Chat(_ context.Context, messages []ai.Message) (string, error) {
	s.calls++
	s.messages = messages
	return s.content, s.err
}

func (s *stubLLM) IsAvailable() bool {
	return s.available
}

func newTestInterpreter(llm ai.LLMService) *Interpreter {
	in := New(llm, aitime.NewFixedResolver("UTC", time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)))
	in.SetMetrics(observability.NewMetrics(10))
	return in
}

func TestInterpret_RoundTripTomorrowMorning(t *testing.T) {
	llm := &stubLLM{available: true, content: `{
		"intent": "create_reminder",
		"confidence": 0.92,
		"actions": [{"type": "create_reminder", "payload": {"title": "Call Mom", "scheduledFor": "2025-01-11T09:00:00-05:00"}}],
		"response": "I'll remind you tomorrow at 9am.",
		"usedCurrentDatetime": "2024-06-01T00:00:00Z"
	}`}
	in := newTestInterpreter(llm)

	result := in.Interpret(context.Background(), Request{
		Text:         "remind me tomorrow at 9am",
		UserTimezone: "America/New_York",
		SimulatedNow: "2025-01-10T12:00:00Z",
	})

	require.Equal(t, IntentCreateReminder, result.Intent)
	require.Len(t, result.Actions, 1)
	reminder := result.Actions[0].Reminder
	require.NotNil(t, reminder)
	assert.Equal(t, "2025-01-11T09:00:00-05:00", reminder.ScheduledFor)
	assert.Equal(t, ReminderTypeGeneral, reminder.Type)
	assert.Empty(t, result.Note)
	assert.Equal(t, "2025-01-10T12:00:00Z", result.UsedCurrentDatetime)
	assert.Equal(t, SourceLLM, result.Source)

	require.Len(t, llm.messages, 2)
	assert.Contains(t, llm.messages[0].Content, "2025-01-10T12:00:00Z")
	assert.Contains(t, llm.messages[0].Content, "America/New_York")
	assert.Contains(t, llm.messages[0].Content, "Friday")
	assert.Equal(t, "remind me tomorrow at 9am", llm.messages[1].Content)
}

func TestInterpret_RollsPastWeekdayForward(t *testing.T) {
	llm := &stubLLM{available: true, content: "```json\n" + `{
		"intent": "create_reminder",
		"confidence": 0.9,
		"actions": [{"type": "create_reminder", "payload": {"title": "Gym", "scheduledFor": "2025-01-10T09:00:00-05:00"}}],
		"response": "Done.",
		"usedCurrentDatetime": "2025-01-10T23:00:00Z"
	}` + "\n```"}
	in := newTestInterpreter(llm)

	// Friday 18:00 in New York.
	result := in.Interpret(context.Background(), Request{
		Text:         "remind me Friday at 9am",
		UserTimezone: "America/New_York",
		SimulatedNow: "2025-01-10T23:00:00Z",
	})

	require.Len(t, result.Actions, 1)
	assert.Equal(t, "2025-01-11T09:00:00-05:00", result.Actions[0].Reminder.ScheduledFor)
	assert.NotEmpty(t, result.Note)
	assert.Contains(t, result.Note, "2025-01-10T09:00:00-05:00")
}

func TestInterpret_PromptLeavesWeekdayRollingToHardener(t *testing.T) {
	llm := &stubLLM{available: true, content: `{"intent":"clarify","confidence":0.1,"actions":[],"clarification":"Which Friday?"}`}
	in := newTestInterpreter(llm)

	in.Interpret(context.Background(), Request{
		Text:         "remind me Friday at 9am",
		UserTimezone: "America/New_York",
		SimulatedNow: "2025-01-10T23:00:00Z",
	})

	require.Len(t, llm.messages, 2)
	system := llm.messages[0].Content
	assert.Contains(t, system, "nowUtc: 2025-01-10T23:00:00Z")
	assert.Contains(t, system, "userTimezone: America/New_York")
	assert.NotContains(t, system, "next occurrence")
	assert.Equal(t, "remind me Friday at 9am", llm.messages[1].Content)
}

func TestInterpret_BackendFailuresYieldClarify(t *testing.T) {
	tests := []struct {
		name string
		llm  ai.LLMService
	}{
		{"missing credential", &stubLLM{available: false}},
		{"nil backend", nil},
		{"timeout", &stubLLM{available: true, err: context.DeadlineExceeded}},
		{"transport error", &stubLLM{available: true, err: errors.New("connection refused")}},
		{"malformed json", &stubLLM{available: true, content: `{"intent": "create_reminder", "confidence": `}},
		{"not json", &stubLLM{available: true, content: "Sure! I'll remind you."}},
		{"trailing garbage", &stubLLM{available: true, content: `{"intent":"clarify","confidence":0.2,"actions":[],"response":"?"} extra`}},
		{"unknown intent", &stubLLM{available: true, content: `{"intent":"delete_everything","confidence":0.9,"actions":[],"response":""}`}},
		{"confidence out of range", &stubLLM{available: true, content: `{"intent":"clarify","confidence":1.5,"actions":[],"response":""}`}},
		{"missing confidence", &stubLLM{available: true, content: `{"intent":"clarify","actions":[],"response":""}`}},
		{"missing reminder title", &stubLLM{available: true, content: `{"intent":"create_reminder","confidence":0.9,
			"actions":[{"type":"create_reminder","payload":{"scheduledFor":"2025-01-11T09:00:00Z"}}],"response":""}`}},
		{"unparseable scheduledFor", &stubLLM{available: true, content: `{"intent":"create_reminder","confidence":0.9,
			"actions":[{"type":"create_reminder","payload":{"title":"x","scheduledFor":"tomorrow 9am"}}],"response":""}`}},
		{"unknown action type", &stubLLM{available: true, content: `{"intent":"multi_action","confidence":0.9,
			"actions":[{"type":"send_email","payload":{}}],"response":""}`}},
		{"action intent without actions", &stubLLM{available: true, content: `{"intent":"create_profile","confidence":0.9,"actions":[],"response":""}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newTestInterpreter(tt.llm)
			var result *Result
			require.NotPanics(t, func() {
				result = in.Interpret(context.Background(), Request{Text: "remind me tomorrow"})
			})
			require.NotNil(t, result)
			assert.Equal(t, IntentClarify, result.Intent)
			assert.Zero(t, result.Confidence)
			assert.Empty(t, result.Actions)
			assert.NotNil(t, result.Actions)
			assert.NotEmpty(t, result.Clarification)
			assert.Equal(t, SourceMock, result.Source)
			assert.Equal(t, "2025-01-10T12:00:00Z", result.UsedCurrentDatetime)
		})
	}
}

func TestInterpret_UnavailableBackendIsNotCalled(t *testing.T) {
	llm := &stubLLM{available: false}
	metrics := observability.NewMetrics(10)
	in := newTestInterpreter(llm)
	in.SetMetrics(metrics)

	in.Interpret(context.Background(), Request{Text: "add Sarah"})

	assert.Zero(t, llm.calls)
	assert.EqualValues(t, 1, metrics.Snapshot().Paths[PathMockUnavailable])
}

func TestInterpret_FallbackIsCounted(t *testing.T) {
	llm := &stubLLM{available: true, content: "nope"}
	metrics := observability.NewMetrics(10)
	in := newTestInterpreter(llm)
	in.SetMetrics(metrics)

	in.Interpret(context.Background(), Request{Text: "add Sarah"})

	assert.Equal(t, 1, llm.calls)
	assert.EqualValues(t, 1, metrics.Snapshot().Paths[PathMockFallback])
}

func TestInterpret_ClarifyDropsActions(t *testing.T) {
	llm := &stubLLM{available: true, content: `{
		"intent": "clarify",
		"confidence": 0.4,
		"actions": [{"type": "create_profile", "payload": {"name": "Sam"}}],
		"response": "Which Sam?",
		"clarification": "Do you mean Sam from work?"
	}`}
	in := newTestInterpreter(llm)

	result := in.Interpret(context.Background(), Request{Text: "add sam"})

	assert.Equal(t, IntentClarify, result.Intent)
	assert.Empty(t, result.Actions)
	assert.Equal(t, "Do you mean Sam from work?", result.Clarification)
	assert.Equal(t, SourceLLM, result.Source)
}

func TestInterpret_MultiAction(t *testing.T) {
	llm := &stubLLM{available: true, content: `{
		"intent": "multi_action",
		"confidence": 0.85,
		"actions": [
			{"type": "create_profile", "payload": {"name": "Sarah", "likes": ["sushi"], "dislikes": ["cilantro"], "age": 31}},
			{"type": "schedule_text", "payload": {"phoneNumber": "+15551234567", "message": "Happy birthday!", "scheduledFor": "2025-01-17T09:00:00-05:00"}}
		],
		"response": "Added Sarah and scheduled the text.",
		"note": "Assumed 9am."
	}`}
	in := newTestInterpreter(llm)

	result := in.Interpret(context.Background(), Request{Text: "add Sarah and text her", UserTimezone: "America/New_York"})

	require.Len(t, result.Actions, 2)
	profile := result.Actions[0].Profile
	require.NotNil(t, profile)
	assert.Equal(t, "Sarah", profile.Name)
	assert.Equal(t, []string{"sushi"}, profile.Likes)
	require.NotNil(t, profile.Age)
	assert.Equal(t, 31, *profile.Age)
	require.NotNil(t, result.Actions[1].Text)
	assert.Equal(t, "+15551234567", result.Actions[1].Text.PhoneNumber)
	assert.Equal(t, "Assumed 9am.", result.Note)
}

func TestInterpretReminderResponse_EmptyTextIsMissingResponse(t *testing.T) {
	in := newTestInterpreter(&stubLLM{available: true})

	_, err := in.InterpretReminderResponse(context.Background(), "   ", Suggestion{Title: "Call"}, in.Clock().Resolve("UTC", ""))

	require.Error(t, err)
	assert.True(t, aierr.Is(err, aierr.CodeMissingResponse))
}

func TestInterpretReminderResponse_PermissiveFallback(t *testing.T) {
	tests := []struct {
		name string
		llm  ai.LLMService
	}{
		{"unavailable", &stubLLM{available: false}},
		{"backend error", &stubLLM{available: true, err: context.DeadlineExceeded}},
		{"malformed", &stubLLM{available: true, content: "{"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newTestInterpreter(tt.llm)
			tc := in.Clock().Resolve("America/New_York", "2025-01-10T12:00:00Z")

			resp, err := in.InterpretReminderResponse(context.Background(), "no thanks", Suggestion{Title: "Call Dana", Type: "follow_up", ProfileID: "p1"}, tc)

			require.NoError(t, err)
			assert.Equal(t, ReminderCreate, resp.Action)
			assert.Equal(t, "Call Dana", resp.Title)
			assert.Equal(t, "follow_up", resp.Type)
			assert.Equal(t, "p1", resp.ProfileID)
			assert.Equal(t, "2025-01-11T07:00:00-05:00", resp.ScheduledFor)
			assert.NotEmpty(t, resp.Note)
			assert.Equal(t, SourceMock, resp.Source)
		})
	}
}

func TestInterpretReminderResponse_DefaultTitle(t *testing.T) {
	in := newTestInterpreter(nil)
	tc := in.Clock().Resolve("UTC", "")

	resp, err := in.InterpretReminderResponse(context.Background(), "sure", Suggestion{}, tc)

	require.NoError(t, err)
	assert.Equal(t, "Follow up", resp.Title)
	assert.Equal(t, ReminderTypeGeneral, resp.Type)
	assert.Equal(t, "2025-01-11T12:00:00Z", resp.ScheduledFor)
}

func TestInterpretReminderResponse_LLM(t *testing.T) {
	tc := aitime.NewFixedResolver("UTC", time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)).Resolve("America/New_York", "")
	suggestion := Suggestion{Title: "Check in with Dana", ScheduledFor: "2025-01-12T10:00:00-05:00", ProfileID: "p1"}

	t.Run("create uses suggestion time when omitted", func(t *testing.T) {
		in := newTestInterpreter(&stubLLM{available: true, content: `{"action":"create","response":"Okay!"}`})
		resp, err := in.InterpretReminderResponse(context.Background(), "yes please", suggestion, tc)
		require.NoError(t, err)
		assert.Equal(t, ReminderCreate, resp.Action)
		assert.Equal(t, "Check in with Dana", resp.Title)
		assert.Equal(t, "2025-01-12T10:00:00-05:00", resp.ScheduledFor)
		assert.Equal(t, "p1", resp.ProfileID)
		assert.Equal(t, SourceLLM, resp.Source)

		action, ok := resp.ToAction()
		require.True(t, ok)
		assert.NoError(t, action.Validate())
	})

	t.Run("create with past time is rolled forward", func(t *testing.T) {
		in := newTestInterpreter(&stubLLM{available: true, content: `{"action":"create","scheduledFor":"2025-01-10T06:00:00-05:00","response":"Okay"}`})
		resp, err := in.InterpretReminderResponse(context.Background(), "yes at 6am", suggestion, tc)
		require.NoError(t, err)
		assert.Equal(t, "2025-01-11T06:00:00-05:00", resp.ScheduledFor)
		assert.NotEmpty(t, resp.Note)
	})

	t.Run("cancel", func(t *testing.T) {
		in := newTestInterpreter(&stubLLM{available: true, content: `{"action":"cancel","response":"No problem."}`})
		resp, err := in.InterpretReminderResponse(context.Background(), "no", suggestion, tc)
		require.NoError(t, err)
		assert.Equal(t, ReminderCancel, resp.Action)
		_, ok := resp.ToAction()
		assert.False(t, ok)
	})

	t.Run("unknown action falls back", func(t *testing.T) {
		in := newTestInterpreter(&stubLLM{available: true, content: `{"action":"snooze","response":""}`})
		resp, err := in.InterpretReminderResponse(context.Background(), "later", suggestion, tc)
		require.NoError(t, err)
		assert.Equal(t, SourceMock, resp.Source)
	})
}
