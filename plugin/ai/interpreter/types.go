// Package interpreter turns free-form user text into validated, typed actions.
package interpreter

import (
	"encoding/json"
	"fmt"
)

// Intent is the classified purpose of an utterance.
type Intent string

const (
	IntentCreateProfile  Intent = "create_profile"
	IntentUpdateProfile  Intent = "update_profile"
	IntentCreateReminder Intent = "create_reminder"
	IntentScheduleText   Intent = "schedule_text"
	IntentMultiAction    Intent = "multi_action"
	IntentClarify        Intent = "clarify"
)

func (i Intent) valid() bool {
	switch i {
	case IntentCreateProfile, IntentUpdateProfile, IntentCreateReminder,
		IntentScheduleText, IntentMultiAction, IntentClarify:
		return true
	}
	return false
}

// ActionType tags the Action union.
type ActionType string

const (
	ActionCreateProfile  ActionType = "create_profile"
	ActionUpdateProfile  ActionType = "update_profile"
	ActionCreateReminder ActionType = "create_reminder"
	ActionScheduleText   ActionType = "schedule_text"
)

// Source records which path produced a result.
type Source string

const (
	SourceLLM  Source = "llm"
	SourceMock Source = "mock"
)

// ProfilePayload carries contact profile fields.
type ProfilePayload struct {
	ProfileID    string   `json:"profileId,omitempty"`
	Name         string   `json:"name"`
	Age          *int     `json:"age,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Email        string   `json:"email,omitempty"`
	Birthday     string   `json:"birthday,omitempty"`
	Relationship string   `json:"relationship,omitempty"`
	Occupation   string   `json:"occupation,omitempty"`
	Location     string   `json:"location,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	Likes        []string `json:"likes,omitempty"`
	Dislikes     []string `json:"dislikes,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	Kids         []string `json:"kids,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// ReminderPayload carries reminder fields.
type ReminderPayload struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Type         string `json:"type,omitempty"`
	ScheduledFor string `json:"scheduledFor"`
	ProfileID    string `json:"profileId,omitempty"`
}

// TextPayload carries scheduled text message fields.
type TextPayload struct {
	PhoneNumber  string `json:"phoneNumber"`
	Message      string `json:"message"`
	ScheduledFor string `json:"scheduledFor"`
	ProfileID    string `json:"profileId,omitempty"`
}

// Action is a tagged union; exactly one payload pointer matches Type.
type Action struct {
	Type     ActionType
	Profile  *ProfilePayload
	Reminder *ReminderPayload
	Text     *TextPayload
}

// NewProfileAction builds a create or update profile action.
func NewProfileAction(t ActionType, p ProfilePayload) Action {
	return Action{Type: t, Profile: &p}
}

// NewReminderAction builds a create reminder action.
func NewReminderAction(p ReminderPayload) Action {
	return Action{Type: ActionCreateReminder, Reminder: &p}
}

// NewTextAction builds a schedule text action.
func NewTextAction(p TextPayload) Action {
	return Action{Type: ActionScheduleText, Text: &p}
}

// ScheduledFor returns a pointer to the action's schedule field, or nil.
func (a *Action) ScheduledFor() *string {
	switch {
	case a.Type == ActionCreateReminder && a.Reminder != nil:
		return &a.Reminder.ScheduledFor
	case a.Type == ActionScheduleText && a.Text != nil:
		return &a.Text.ScheduledFor
	}
	return nil
}

type wireAction struct {
	Type    ActionType      `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalJSON encodes the action as {"type": ..., "payload": {...}}.
func (a Action) MarshalJSON() ([]byte, error) {
	var payload any
	switch a.Type {
	case ActionCreateProfile, ActionUpdateProfile:
		payload = a.Profile
	case ActionCreateReminder:
		payload = a.Reminder
	case ActionScheduleText:
		payload = a.Text
	default:
		return nil, fmt.Errorf("unknown action type %q", a.Type)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireAction{Type: a.Type, Payload: raw})
}

// UnmarshalJSON decodes the wire form into the matching payload variant.
// Required fields are checked separately by Validate.
func (a *Action) UnmarshalJSON(data []byte) error {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := decodeAction(w.Type, w.Payload)
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

func decodeAction(t ActionType, payload json.RawMessage) (Action, error) {
	if len(payload) == 0 || string(payload) == "null" {
		return Action{}, fmt.Errorf("action %q has no payload", t)
	}

	switch t {
	case ActionCreateProfile, ActionUpdateProfile:
		var p ProfilePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return Action{}, fmt.Errorf("decode %s payload: %w", t, err)
		}
		return NewProfileAction(t, p), nil
	case ActionCreateReminder:
		var p ReminderPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return Action{}, fmt.Errorf("decode %s payload: %w", t, err)
		}
		return NewReminderAction(p), nil
	case ActionScheduleText:
		var p TextPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return Action{}, fmt.Errorf("decode %s payload: %w", t, err)
		}
		return NewTextAction(p), nil
	}
	return Action{}, fmt.Errorf("unknown action type %q", t)
}

// Request is one interpretation request.
type Request struct {
	Text         string `json:"text"`
	UserTimezone string `json:"userTimezone,omitempty"`
	// SimulatedNow overrides the clock (RFC 3339); for tests and development.
	SimulatedNow string `json:"simulatedNow,omitempty"`
}

// Result is the validated output of one interpretation.
type Result struct {
	Intent              Intent   `json:"intent"`
	Confidence          float64  `json:"confidence"`
	Actions             []Action `json:"actions"`
	Response            string   `json:"response"`
	Clarification       string   `json:"clarification,omitempty"`
	UsedCurrentDatetime string   `json:"usedCurrentDatetime"`
	Note                string   `json:"note,omitempty"`
	Source              Source   `json:"source"`
}

// ReminderAction is the decision in a reminder-response turn.
type ReminderAction string

const (
	ReminderCreate  ReminderAction = "create"
	ReminderCancel  ReminderAction = "cancel"
	ReminderClarify ReminderAction = "clarify"
)

// Suggestion is the previously proposed reminder the user is answering.
type Suggestion struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Type         string `json:"type,omitempty"`
	ScheduledFor string `json:"scheduledFor,omitempty"`
	ProfileID    string `json:"profileId,omitempty"`
	ProfileName  string `json:"profileName,omitempty"`
}

// ReminderResponse is the validated output of a reminder-response turn.
type ReminderResponse struct {
	Action              ReminderAction `json:"action"`
	Title               string         `json:"title,omitempty"`
	Description         string         `json:"description,omitempty"`
	Type                string         `json:"type,omitempty"`
	ScheduledFor        string         `json:"scheduledFor,omitempty"`
	ProfileID           string         `json:"profileId,omitempty"`
	Response            string         `json:"response"`
	UsedCurrentDatetime string         `json:"usedCurrentDatetime"`
	Note                string         `json:"note,omitempty"`
	Source              Source         `json:"source"`
}

// ToAction converts an accepted reminder response into an executable action.
func (r *ReminderResponse) ToAction() (Action, bool) {
	if r.Action != ReminderCreate {
		return Action{}, false
	}
	return NewReminderAction(ReminderPayload{
		Title:        r.Title,
		Description:  r.Description,
		Type:         r.Type,
		ScheduledFor: r.ScheduledFor,
		ProfileID:    r.ProfileID,
	}), true
}
