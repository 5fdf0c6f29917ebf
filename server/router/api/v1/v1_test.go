package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/armi/internal/observability"
	"github.com/hrygo/armi/internal/profile"
	"github.com/hrygo/armi/plugin/ai"
	"github.com/hrygo/armi/plugin/ai/aitime"
	"github.com/hrygo/armi/plugin/ai/conversation"
	"github.com/hrygo/armi/plugin/ai/executor"
	"github.com/hrygo/armi/plugin/ai/interpreter"
	"github.com/hrygo/armi/plugin/ai/reminder"
	"github.com/hrygo/armi/plugin/ai/session"
	"github.com/hrygo/armi/store"
	"github.com/hrygo/armi/store/db"
)

type scriptedLLM struct {
	replies map[string]string
}

func (s *scriptedLLM) Chat(_ context.Context, messages []ai.Message) (string, error) {
	last := messages[len(messages)-1].Content
	for key, reply := range s.replies {
		if strings.Contains(last, key) {
			return reply, nil
		}
	}
	return `{"intent":"clarify","confidence":0.2,"actions":[],"response":"","clarification":"Could you rephrase?"}`, nil
}

func (s *scriptedLLM) IsAvailable() bool { return true }

var testNow = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

type testServer struct {
	echo    *echo.Echo
	service *APIV1Service
	store   *store.Store
}

func newTestServer(t *testing.T, llm ai.LLMService, mode string) *testServer {
	t.Helper()
	ctx := context.Background()

	prof := &profile.Profile{Mode: mode, Driver: "sqlite", DSN: ":memory:"}
	driver, err := db.NewDBDriver(prof)
	require.NoError(t, err)
	st := store.New(driver, prof)
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { st.Close() })

	metrics := observability.NewMetrics(10)
	clock := aitime.NewFixedResolver("UTC", testNow)
	interp := interpreter.New(llm, clock)
	interp.SetMetrics(metrics)

	notifications := reminder.NewService(reminder.NewMemoryStore(), reminder.NewNotificationDispatcher())
	notifications.SetClock(func() time.Time { return testNow })

	exec := executor.New(st, st, st, notifications)
	exec.SetMetrics(metrics)

	sessions := session.NewRegistry(func(id, tz string) *conversation.Machine {
		m := conversation.NewMachine(conversation.Config{ID: id, Timezone: tz}, interp, clock, exec)
		m.SetMetrics(metrics)
		return m
	})

	svc := NewAPIV1Service(prof, st, interp, exec, sessions, notifications)
	svc.Metrics = metrics
	e := echo.New()
	svc.RegisterRoutes(e)
	return &testServer{echo: e, service: svc, store: st}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

const reminderReply = `{
	"intent": "create_reminder",
	"confidence": 0.95,
	"actions": [{"type": "create_reminder", "payload": {"title": "Call Mom", "scheduledFor": "2025-01-11T09:00:00-05:00"}}],
	"response": "I'll remind you tomorrow at 9am."
}`

const lowConfidenceReply = `{
	"intent": "create_profile",
	"confidence": 0.5,
	"actions": [{"type": "create_profile", "payload": {"name": "Sarah", "likes": ["sushi"]}}],
	"response": "Adding Sarah."
}`

func TestInterpret(t *testing.T) {
	ts := newTestServer(t, &scriptedLLM{replies: map[string]string{"remind me": reminderReply}}, "dev")

	rec := ts.do(t, http.MethodPost, "/api/v1/interpret",
		`{"text":"remind me to call mom tomorrow at 9am","userTimezone":"America/New_York"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result interpreter.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, interpreter.IntentCreateReminder, result.Intent)
	require.Len(t, result.Actions, 1)
	assert.Equal(t, "2025-01-11T09:00:00-05:00", result.Actions[0].Reminder.ScheduledFor)
	assert.Equal(t, "2025-01-10T12:00:00Z", result.UsedCurrentDatetime)

	// Interpretation alone never writes.
	reminders, err := ts.store.ListReminders(context.Background(), &store.FindReminder{})
	require.NoError(t, err)
	assert.Empty(t, reminders)
}

func TestInterpret_MockWhenUnavailable(t *testing.T) {
	ts := newTestServer(t, ai.NewUnavailableLLMService(), "dev")

	rec := ts.do(t, http.MethodPost, "/api/v1/interpret", `{"text":"add Sarah"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result interpreter.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, interpreter.IntentClarify, result.Intent)
	assert.Equal(t, interpreter.SourceMock, result.Source)
	assert.Empty(t, result.Actions)
}

func TestConversation_ConfirmThenExecute(t *testing.T) {
	ts := newTestServer(t, &scriptedLLM{replies: map[string]string{"Sarah": lowConfidenceReply}}, "dev")

	rec := ts.do(t, http.MethodPost, "/api/v1/conversations/c1/messages", `{"text":"Sarah likes sushi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var first MessageReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, "c1", first.ConversationID)
	assert.Equal(t, conversation.StateAwaitingConfirmation, first.State)
	assert.Equal(t, []string{"Create profile: Sarah (likes sushi)"}, first.Summary)

	rec = ts.do(t, http.MethodPost, "/api/v1/conversations/c1/messages", `{"text":"yes"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var second MessageReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.True(t, second.Executed)
	assert.Equal(t, conversation.StateReady, second.State)

	rec = ts.do(t, http.MethodGet, "/api/v1/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var profiles []Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profiles))
	require.Len(t, profiles, 1)
	assert.Equal(t, []string{"sushi"}, profiles[0].FoodLikes)

	rec = ts.do(t, http.MethodGet, "/api/v1/profiles/"+profiles[0].ID+"/interactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var interactions []Interaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &interactions))
	require.Len(t, interactions, 1)
	assert.Equal(t, "Sarah likes sushi", interactions[0].Description)
}

func TestConversation_HighConfidenceSchedulesNotification(t *testing.T) {
	ts := newTestServer(t, &scriptedLLM{replies: map[string]string{"remind me": reminderReply}}, "dev")

	rec := ts.do(t, http.MethodPost, "/api/v1/conversations", `{"text":"remind me to call mom tomorrow at 9am"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var reply MessageReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.NotEmpty(t, reply.ConversationID)
	assert.True(t, reply.Executed)

	rec = ts.do(t, http.MethodGet, "/api/v1/reminders", "")
	var reminders []Reminder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reminders))
	require.Len(t, reminders, 1)
	assert.Equal(t, "2025-01-11T14:00:00Z", reminders[0].ScheduledFor)
	assert.NotEmpty(t, reminders[0].NotificationID)

	rec = ts.do(t, http.MethodGet, "/api/v1/notifications?status=pending", "")
	var notifications []reminder.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifications))
	require.Len(t, notifications, 1)
	assert.Equal(t, reminders[0].ID, notifications[0].TargetID)

	rec = ts.do(t, http.MethodDelete, "/api/v1/conversations/"+reply.ConversationID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/api/v1/conversations/"+reply.ConversationID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConversation_ResetDropsPending(t *testing.T) {
	ts := newTestServer(t, &scriptedLLM{replies: map[string]string{"Sarah": lowConfidenceReply}}, "dev")

	rec := ts.do(t, http.MethodPost, "/api/v1/conversations/c1/messages", `{"text":"Sarah likes sushi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/conversations/c1/reset", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	// After a reset "yes" is a fresh request, not a confirmation.
	rec = ts.do(t, http.MethodPost, "/api/v1/conversations/c1/messages", `{"text":"yes"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var reply MessageReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.False(t, reply.Executed)
	assert.Equal(t, conversation.StateReady, reply.State)

	profiles, err := ts.store.ListProfiles(context.Background(), &store.FindProfile{})
	require.NoError(t, err)
	assert.Empty(t, profiles)

	rec = ts.do(t, http.MethodPost, "/api/v1/conversations/unknown/reset", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConversation_RejectsEmptyText(t *testing.T) {
	ts := newTestServer(t, ai.NewUnavailableLLMService(), "dev")
	rec := ts.do(t, http.MethodPost, "/api/v1/conversations/c1/messages", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReminderResponse(t *testing.T) {
	t.Run("missing response", func(t *testing.T) {
		ts := newTestServer(t, ai.NewUnavailableLLMService(), "dev")
		rec := ts.do(t, http.MethodPost, "/api/v1/reminder-responses", `{"text":"","suggestion":{"title":"Call Sarah"}}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "MISSING_RESPONSE", string(body.ErrorCode))
	})

	t.Run("permissive fallback executes", func(t *testing.T) {
		ts := newTestServer(t, ai.NewUnavailableLLMService(), "dev")
		rec := ts.do(t, http.MethodPost, "/api/v1/reminder-responses",
			`{"text":"sure","userTimezone":"UTC","suggestion":{"title":"Call Sarah"},"execute":true}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var body ReminderResponseReply
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, interpreter.ReminderCreate, body.Action)
		assert.Equal(t, "2025-01-11T12:00:00Z", body.ScheduledFor)
		assert.True(t, body.Executed)

		reminders, err := ts.store.ListReminders(context.Background(), &store.FindReminder{})
		require.NoError(t, err)
		assert.Len(t, reminders, 1)
	})
}

func TestHealthzAndMetrics(t *testing.T) {
	ts := newTestServer(t, ai.NewUnavailableLLMService(), "prod")

	rec := ts.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "mock", health.Interpreter)
	assert.Equal(t, store.SchemaVersion, health.SchemaVersion)

	ts.do(t, http.MethodPost, "/api/v1/interpret", `{"text":"hello"}`)
	rec = ts.do(t, http.MethodGet, "/api/v1/system/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var metrics MetricsOverviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Equal(t, int64(1), metrics.InterpretTotal)
}

func TestSimulatedNowIgnoredInProd(t *testing.T) {
	ts := newTestServer(t, ai.NewUnavailableLLMService(), "prod")
	assert.Empty(t, ts.service.simulatedNow("2030-01-01T00:00:00Z"))

	dev := newTestServer(t, ai.NewUnavailableLLMService(), "dev")
	assert.Equal(t, "2030-01-01T00:00:00Z", dev.service.simulatedNow("2030-01-01T00:00:00Z"))
}
