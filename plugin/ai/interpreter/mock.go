package interpreter

import (
	"fmt"
	"time"

	"github.com/hrygo/armi/plugin/ai/aitime"
	"github.com/hrygo/armi/server/timezone"
)

// Interpreter paths reported in logs and metrics.
const (
	PathLLM                    = "llm"
	PathMockUnavailable        = "mock_unavailable"
	PathMockFallback           = "mock_fallback"
	PathReminderLLM            = "reminder_llm"
	PathReminderMockPermissive = "reminder_mock_permissive"
)

const (
	mockResponse      = "I couldn't understand that well enough to act on it."
	mockClarification = `I can help with things like:
- "Add Sarah, she's my coworker and loves sushi"
- "Remind me to call Mom tomorrow at 6pm"
- "Text John happy birthday on Friday at 9am"`

	defaultReminderTitle = "Follow up"
	mockReminderDelay    = 24 * time.Hour
)

// mockResult is the safe degraded answer: a clarification with no actions.
func mockResult(tc aitime.TimeContext) *Result {
	return &Result{
		Intent:              IntentClarify,
		Confidence:          0,
		Actions:             []Action{},
		Response:            mockResponse,
		Clarification:       mockClarification,
		UsedCurrentDatetime: tc.NowISO(),
		Source:              SourceMock,
	}
}

// mockReminderResponse accepts the suggestion at a default time 24 hours out.
// The title and type come from the suggestion, not from the user's words.
func mockReminderResponse(s Suggestion, tc aitime.TimeContext) *ReminderResponse {
	title := s.Title
	if title == "" {
		title = defaultReminderTitle
	}
	typ := s.Type
	if typ == "" {
		typ = ReminderTypeGeneral
	}

	when := tc.NowUTC.Add(mockReminderDelay).In(tc.LocalNow().Location())
	return &ReminderResponse{
		Action:              ReminderCreate,
		Title:               title,
		Description:         s.Description,
		Type:                typ,
		ScheduledFor:        when.Format(time.RFC3339),
		ProfileID:           s.ProfileID,
		Response:            fmt.Sprintf("I'll remind you: %s on %s.", title, timezone.FormatForUser(when, when.Location())),
		UsedCurrentDatetime: tc.NowISO(),
		Note:                "Interpretation was unavailable, so the suggestion was accepted with a default time 24 hours from now.",
		Source:              SourceMock,
	}
}
