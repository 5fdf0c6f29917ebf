package interpreter

import (
	"fmt"
	"strings"

	"github.com/hrygo/armi/plugin/ai/aitime"
)

// Named times of day resolved when the user gives no clock time.
var namedTimeDefaults = []struct {
	Name  string
	Clock string
}{
	{"morning", "09:00"},
	{"noon", "12:00"},
	{"afternoon", "15:00"},
	{"evening", "19:00"},
	{"night", "20:00"},
	{"midnight", "00:00"},
}

const intentSystemPrompt = `You turn a user's message about the people in their life into structured actions.

Time ground truth (authoritative, never guess another date):
- nowUtc: %s
- userTimezone: %s
- local date: %s (%s)
- local time: %s
- UTC offset: %s

Rules:
- Resolve every relative expression ("tomorrow", "Friday", "in 2 hours") against the ground truth above in userTimezone.
- Named times without a clock time use: %s.
- Every scheduledFor MUST be RFC 3339 with an explicit offset and MUST be in the future.
- Echo nowUtc in usedCurrentDatetime.
- If the request is ambiguous or not about profiles, reminders or texts, use intent "clarify" with no actions and put your question in "clarification".
- Use "multi_action" when more than one action is needed.
- Explain any time default you applied in "note".

Respond with ONE JSON object and nothing else:
{
  "intent": "create_profile" | "update_profile" | "create_reminder" | "schedule_text" | "multi_action" | "clarify",
  "confidence": number between 0 and 1,
  "actions": [
    {"type": "create_profile" | "update_profile", "payload": {"profileId"?: string, "name": string, "age"?: number, "phone"?: string, "email"?: string, "birthday"?: string, "relationship"?: string, "occupation"?: string, "location"?: string, "notes"?: string, "likes"?: [string], "dislikes"?: [string], "interests"?: [string], "kids"?: [string], "tags"?: [string]}},
    {"type": "create_reminder", "payload": {"title": string, "description"?: string, "type"?: "general" | "birthday" | "follow_up" | "check_in" | "event", "scheduledFor": string, "profileId"?: string}},
    {"type": "schedule_text", "payload": {"phoneNumber": string, "message": string, "scheduledFor": string, "profileId"?: string}}
  ],
  "response": string,
  "clarification"?: string,
  "usedCurrentDatetime": string,
  "note"?: string
}`

const reminderResponseSystemPrompt = `The user was offered a reminder and is answering the suggestion.

Time ground truth (authoritative):
- nowUtc: %s
- userTimezone: %s
- local date: %s (%s)
- local time: %s
- UTC offset: %s

Suggested reminder:
- title: %s
- description: %s
- type: %s
- scheduledFor: %s
- person: %s

Decide:
- "create" when the user accepts, possibly with a different time or title.
- "cancel" when the user declines.
- "clarify" when the answer is unclear.
Named times without a clock time use: %s.
Any scheduledFor MUST be RFC 3339 with an explicit offset and in the future.

Respond with ONE JSON object and nothing else:
{"action": "create" | "cancel" | "clarify", "title"?: string, "description"?: string, "type"?: string, "scheduledFor"?: string, "profileId"?: string, "response": string, "usedCurrentDatetime": string, "note"?: string}`

func namedTimesText() string {
	parts := make([]string, len(namedTimeDefaults))
	for i, d := range namedTimeDefaults {
		parts[i] = d.Name + " " + d.Clock
	}
	return strings.Join(parts, ", ")
}

func buildIntentPrompt(tc aitime.TimeContext) string {
	local := tc.LocalNow()
	return fmt.Sprintf(intentSystemPrompt,
		tc.NowISO(),
		tc.UserTimezone,
		tc.LocalDate(), local.Weekday(),
		local.Format("15:04"),
		tc.UTCOffset(),
		namedTimesText(),
	)
}

func buildReminderResponsePrompt(tc aitime.TimeContext, s Suggestion) string {
	local := tc.LocalNow()
	return fmt.Sprintf(reminderResponseSystemPrompt,
		tc.NowISO(),
		tc.UserTimezone,
		tc.LocalDate(), local.Weekday(),
		local.Format("15:04"),
		tc.UTCOffset(),
		orNone(s.Title), orNone(s.Description), orNone(s.Type), orNone(s.ScheduledFor), orNone(s.ProfileName),
		namedTimesText(),
	)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
