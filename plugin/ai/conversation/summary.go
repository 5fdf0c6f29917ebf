package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/armi/plugin/ai/interpreter"
	"github.com/hrygo/armi/plugin/ai/schedule"
	"github.com/hrygo/armi/server/timezone"
)

// SummarizeActions renders one line per action with times in loc.
func SummarizeActions(actions []interpreter.Action, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	lines := make([]string, 0, len(actions))
	for _, a := range actions {
		lines = append(lines, summarizeAction(a, loc))
	}
	return lines
}

func summarizeAction(a interpreter.Action, loc *time.Location) string {
	switch a.Type {
	case interpreter.ActionCreateProfile:
		return "Create profile: " + profileLine(a.Profile)
	case interpreter.ActionUpdateProfile:
		return "Update profile: " + profileLine(a.Profile)
	case interpreter.ActionCreateReminder:
		if a.Reminder == nil {
			return "Reminder"
		}
		return fmt.Sprintf("Reminder: %s at %s", a.Reminder.Title, formatWhen(a.Reminder.ScheduledFor, loc))
	case interpreter.ActionScheduleText:
		if a.Text == nil {
			return "Text"
		}
		return fmt.Sprintf("Text to %s: %q at %s", a.Text.PhoneNumber, a.Text.Message, formatWhen(a.Text.ScheduledFor, loc))
	}
	return string(a.Type)
}

func profileLine(p *interpreter.ProfilePayload) string {
	if p == nil {
		return "(unnamed)"
	}
	var details []string
	if p.Relationship != "" {
		details = append(details, p.Relationship)
	}
	if len(p.Likes) > 0 {
		details = append(details, "likes "+strings.Join(p.Likes, ", "))
	}
	if len(p.Dislikes) > 0 {
		details = append(details, "dislikes "+strings.Join(p.Dislikes, ", "))
	}
	if len(details) == 0 {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, strings.Join(details, "; "))
}

func formatWhen(s string, loc *time.Location) string {
	t, err := schedule.ParseTimestamp(s)
	if err != nil {
		return s
	}
	return timezone.FormatForUser(t, loc)
}

// confirmationPrompt presents pending actions and asks for yes/no.
func confirmationPrompt(result *interpreter.Result, loc *time.Location) string {
	var b strings.Builder
	if result.Response != "" {
		b.WriteString(result.Response)
		b.WriteString("\n\n")
	}
	b.WriteString("Here's what I understood:\n")
	for _, line := range SummarizeActions(result.Actions, loc) {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	if result.Note != "" {
		b.WriteString("Note: ")
		b.WriteString(result.Note)
		b.WriteString("\n")
	}
	b.WriteString("Is that right? (yes/no)")
	return b.String()
}
