package interpreter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/armi/internal/aierr"
	"github.com/hrygo/armi/internal/observability"
	"github.com/hrygo/armi/plugin/ai"
	"github.com/hrygo/armi/plugin/ai/aitime"
	"github.com/hrygo/armi/plugin/ai/schedule"
)

// InterpretReminderResponse decides what the user's answer to a suggested
// reminder means. Empty text is the only error; any other failure falls back
// to accepting the suggestion with a default time, logged at WARN so the
// permissive path is never mistaken for real understanding.
func (i *Interpreter) InterpretReminderResponse(ctx context.Context, text string, s Suggestion, tc aitime.TimeContext) (*ReminderResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, aierr.MissingResponse("no answer was given to the suggested reminder")
	}

	reqCtx := observability.FromContextOrNew(ctx, i.logger, "reminder_response")

	if !i.Available() {
		i.recordPermissive(reqCtx, aierr.BackendUnavailable("backend not configured", ai.ErrLLMUnavailable))
		return mockReminderResponse(s, tc), nil
	}

	resp, err := i.reminderResponseWithLLM(ctx, text, s, tc)
	if err != nil {
		i.recordPermissive(reqCtx, err)
		return mockReminderResponse(s, tc), nil
	}

	i.metrics.RecordInterpretation(PathReminderLLM, time.Since(reqCtx.StartTime))
	reqCtx.Debug("Reminder response interpreted",
		slog.String(observability.LogFieldInterpreterPath, PathReminderLLM),
		slog.String("action", string(resp.Action)))
	return resp, nil
}

func (i *Interpreter) reminderResponseWithLLM(ctx context.Context, text string, s Suggestion, tc aitime.TimeContext) (*ReminderResponse, error) {
	content, err := i.llm.Chat(ctx, []ai.Message{
		ai.SystemPrompt(buildReminderResponsePrompt(tc, s)),
		ai.UserMessage(text),
	})
	if err != nil {
		return nil, aierr.BackendUnavailable("reminder response request failed", err)
	}

	resp, err := parseReminderResponse(content, s)
	if err != nil {
		return nil, err
	}

	if resp.Action == ReminderCreate {
		adjusted, changed := schedule.EnsureFuture(resp.ScheduledFor, tc.NowUTC)
		if changed {
			resp.Note = schedule.AppendNote(resp.Note, schedule.RollForwardNote("reminder scheduledFor", resp.ScheduledFor, adjusted))
			resp.ScheduledFor = adjusted
		}
	}
	resp.UsedCurrentDatetime = tc.NowISO()
	return resp, nil
}

func (i *Interpreter) recordPermissive(reqCtx *observability.RequestContext, err error) {
	i.metrics.RecordInterpretation(PathReminderMockPermissive, time.Since(reqCtx.StartTime))
	reqCtx.Warn("Reminder response fell back to permissive accept",
		slog.String(observability.LogFieldInterpreterPath, PathReminderMockPermissive),
		slog.String(observability.LogFieldErrorCode, string(aierr.CodeOf(err, aierr.CodeMalformedBackendResponse))),
		slog.String("sub_cause", string(aierr.ClassifySubCause(err))),
		slog.String("error", err.Error()))
}
