package interpreter

import (
	"fmt"
	"math"
	"strings"

	"github.com/hrygo/armi/internal/aierr"
	"github.com/hrygo/armi/plugin/ai/schedule"
)

// ReminderTypeGeneral is applied when a reminder arrives without a type.
const ReminderTypeGeneral = "general"

// Validate checks that the action carries every field its type requires.
// It is run by the interpreter and again by the executor before any write.
func (a Action) Validate() error {
	switch a.Type {
	case ActionCreateProfile, ActionUpdateProfile:
		if a.Profile == nil {
			return aierr.ValidationFailure(fmt.Sprintf("%s action has no payload", a.Type))
		}
		if strings.TrimSpace(a.Profile.Name) == "" {
			return aierr.ValidationFailure(fmt.Sprintf("%s action requires a name", a.Type))
		}
		if a.Profile.Age != nil && *a.Profile.Age < 0 {
			return aierr.ValidationFailure("profile age cannot be negative")
		}
	case ActionCreateReminder:
		if a.Reminder == nil {
			return aierr.ValidationFailure("create_reminder action has no payload")
		}
		if strings.TrimSpace(a.Reminder.Title) == "" {
			return aierr.ValidationFailure("create_reminder action requires a title")
		}
		if err := validateScheduledFor(a.Type, a.Reminder.ScheduledFor); err != nil {
			return err
		}
	case ActionScheduleText:
		if a.Text == nil {
			return aierr.ValidationFailure("schedule_text action has no payload")
		}
		if strings.TrimSpace(a.Text.PhoneNumber) == "" {
			return aierr.ValidationFailure("schedule_text action requires a phone number")
		}
		if strings.TrimSpace(a.Text.Message) == "" {
			return aierr.ValidationFailure("schedule_text action requires a message")
		}
		if err := validateScheduledFor(a.Type, a.Text.ScheduledFor); err != nil {
			return err
		}
	default:
		return aierr.ValidationFailure(fmt.Sprintf("unknown action type %q", a.Type))
	}
	return nil
}

func validateScheduledFor(t ActionType, s string) error {
	if strings.TrimSpace(s) == "" {
		return aierr.ValidationFailure(fmt.Sprintf("%s action requires scheduledFor", t))
	}
	if _, err := schedule.ParseTimestamp(s); err != nil {
		return aierr.ValidationFailure(fmt.Sprintf("%s action has invalid scheduledFor: %v", t, err))
	}
	return nil
}

// ValidateActions validates a batch in order and reports the first failure.
func ValidateActions(actions []Action) error {
	for i, a := range actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

// validate enforces the result contract. Clarify results lose any actions.
func (r *Result) validate() error {
	if !r.Intent.valid() {
		return aierr.ValidationFailure(fmt.Sprintf("unknown intent %q", r.Intent))
	}
	if math.IsNaN(r.Confidence) || r.Confidence < 0 || r.Confidence > 1 {
		return aierr.ValidationFailure(fmt.Sprintf("confidence %v outside [0,1]", r.Confidence))
	}

	if r.Intent == IntentClarify {
		r.Actions = []Action{}
		return nil
	}
	if len(r.Actions) == 0 {
		return aierr.ValidationFailure(fmt.Sprintf("intent %s carries no actions", r.Intent))
	}
	for i := range r.Actions {
		if r.Actions[i].Type == ActionCreateReminder && r.Actions[i].Reminder != nil &&
			strings.TrimSpace(r.Actions[i].Reminder.Type) == "" {
			r.Actions[i].Reminder.Type = ReminderTypeGeneral
		}
	}
	return ValidateActions(r.Actions)
}
