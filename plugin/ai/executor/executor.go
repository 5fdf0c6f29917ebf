// Package executor applies interpreted actions to storage and the
// notification scheduler.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/armi/internal/aierr"
	"github.com/hrygo/armi/internal/observability"
	"github.com/hrygo/armi/plugin/ai/interpreter"
	"github.com/hrygo/armi/plugin/ai/reminder"
	"github.com/hrygo/armi/plugin/ai/schedule"
	"github.com/hrygo/armi/store"
)

// ProfileStore persists profiles and their audit trail.
type ProfileStore interface {
	CreateOrUpdateProfile(ctx context.Context, upsert *store.Profile) (*store.Profile, error)
	AddInteraction(ctx context.Context, create *store.Interaction) (*store.Interaction, error)
}

// ReminderStore persists reminders.
type ReminderStore interface {
	CreateReminder(ctx context.Context, create *store.Reminder) (*store.Reminder, error)
	UpdateReminderNotificationID(ctx context.Context, reminderID, notificationID string) error
}

// TextStore persists scheduled texts.
type TextStore interface {
	CreateScheduledText(ctx context.Context, create *store.ScheduledText) (*store.ScheduledText, error)
	UpdateScheduledTextNotificationID(ctx context.Context, textID, notificationID string) error
}

// NotificationScheduler schedules device notifications.
type NotificationScheduler interface {
	ScheduleReminder(ctx context.Context, req reminder.ReminderRequest) (*reminder.Scheduled, error)
	ScheduleScheduledText(ctx context.Context, req reminder.TextRequest) (*reminder.Scheduled, error)
}

// Executor runs actions in order and stops at the first failure.
// Writes made before a failure are kept.
type Executor struct {
	profiles  ProfileStore
	reminders ReminderStore
	texts     TextStore
	notifier  NotificationScheduler

	now     func() time.Time
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an executor. notifier may be nil, in which case nothing is
// scheduled.
func New(profiles ProfileStore, reminders ReminderStore, texts TextStore, notifier NotificationScheduler) *Executor {
	return &Executor{
		profiles:  profiles,
		reminders: reminders,
		texts:     texts,
		notifier:  notifier,
		now:       time.Now,
		logger:    slog.Default(),
		metrics:   observability.GlobalMetrics(),
	}
}

// SetLogger replaces the logger.
func (e *Executor) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// SetMetrics replaces the metrics collector.
func (e *Executor) SetMetrics(metrics *observability.Metrics) {
	if metrics != nil {
		e.metrics = metrics
	}
}

// SetClock replaces the time source used for audit timestamps.
func (e *Executor) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Execute validates every action, then applies them in order. source is the
// user text that produced the actions and is recorded on profile audit
// entries. Validation errors are returned as is; any other failure is an
// aierr EXECUTION_FAILURE.
func (e *Executor) Execute(ctx context.Context, source string, actions []interpreter.Action) error {
	reqCtx := observability.FromContextOrNew(ctx, e.logger, "executor")

	if err := interpreter.ValidateActions(actions); err != nil {
		e.metrics.RecordExecution(true)
		reqCtx.Warn("Rejected invalid actions", slog.String("error", err.Error()))
		return err
	}

	for i, action := range actions {
		if err := e.apply(ctx, reqCtx, source, action); err != nil {
			e.metrics.RecordExecution(true)
			wrapped := aierr.ExecutionFailure(fmt.Sprintf("action %d (%s)", i, action.Type), err)
			reqCtx.Error("Action failed", err,
				slog.Int("index", i),
				slog.String("type", string(action.Type)),
				slog.String("sub_cause", string(wrapped.SubCause)))
			return wrapped
		}
	}

	e.metrics.RecordExecution(false)
	reqCtx.Info("Actions executed", slog.Int("count", len(actions)))
	return nil
}

func (e *Executor) apply(ctx context.Context, reqCtx *observability.RequestContext, source string, a interpreter.Action) error {
	switch a.Type {
	case interpreter.ActionCreateProfile, interpreter.ActionUpdateProfile:
		return e.upsertProfile(ctx, source, a.Profile)
	case interpreter.ActionCreateReminder:
		return e.createReminder(ctx, reqCtx, a.Reminder)
	case interpreter.ActionScheduleText:
		return e.scheduleText(ctx, reqCtx, a.Text)
	}
	return fmt.Errorf("unsupported action type %q", a.Type)
}

func (e *Executor) upsertProfile(ctx context.Context, source string, p *interpreter.ProfilePayload) error {
	saved, err := e.profiles.CreateOrUpdateProfile(ctx, profileFromPayload(p))
	if err != nil {
		return err
	}

	extracted, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = e.profiles.AddInteraction(ctx, &store.Interaction{
		ProfileID:     saved.ID,
		CreatedTs:     e.now().Unix(),
		Description:   source,
		ExtractedData: string(extracted),
	})
	return err
}

func (e *Executor) createReminder(ctx context.Context, reqCtx *observability.RequestContext, p *interpreter.ReminderPayload) error {
	when, err := schedule.ParseTimestamp(p.ScheduledFor)
	if err != nil {
		return err
	}
	kind := p.Type
	if kind == "" {
		kind = interpreter.ReminderTypeGeneral
	}

	saved, err := e.reminders.CreateReminder(ctx, &store.Reminder{
		ProfileID:   p.ProfileID,
		Title:       p.Title,
		Description: p.Description,
		Type:        kind,
		ScheduledTs: when.Unix(),
	})
	if err != nil {
		return err
	}

	if e.notifier == nil {
		return nil
	}
	scheduled, err := e.notifier.ScheduleReminder(ctx, reminder.ReminderRequest{
		Title:      p.Title,
		Body:       p.Description,
		When:       when,
		ReminderID: saved.ID,
	})
	if err != nil {
		e.notificationLost(reqCtx, "reminder", saved.ID, err)
		return nil
	}
	if err := e.reminders.UpdateReminderNotificationID(ctx, saved.ID, scheduled.ID); err != nil {
		e.notificationLost(reqCtx, "reminder", saved.ID, err)
	}
	return nil
}

func (e *Executor) scheduleText(ctx context.Context, reqCtx *observability.RequestContext, p *interpreter.TextPayload) error {
	when, err := schedule.ParseTimestamp(p.ScheduledFor)
	if err != nil {
		return err
	}

	saved, err := e.texts.CreateScheduledText(ctx, &store.ScheduledText{
		ProfileID:   p.ProfileID,
		PhoneNumber: p.PhoneNumber,
		Message:     p.Message,
		ScheduledTs: when.Unix(),
	})
	if err != nil {
		return err
	}

	if e.notifier == nil {
		return nil
	}
	scheduled, err := e.notifier.ScheduleScheduledText(ctx, reminder.TextRequest{
		MessageID:   saved.ID,
		PhoneNumber: p.PhoneNumber,
		Message:     p.Message,
		When:        when,
	})
	if err != nil {
		e.notificationLost(reqCtx, "scheduled_text", saved.ID, err)
		return nil
	}
	if err := e.texts.UpdateScheduledTextNotificationID(ctx, saved.ID, scheduled.ID); err != nil {
		e.notificationLost(reqCtx, "scheduled_text", saved.ID, err)
	}
	return nil
}

// notificationLost records a scheduling failure. The record itself is
// already saved, so the action still succeeds.
func (e *Executor) notificationLost(reqCtx *observability.RequestContext, kind, id string, err error) {
	e.metrics.RecordNotificationFailure()
	reqCtx.Warn("Notification not scheduled",
		slog.String("kind", kind),
		slog.String("record_id", id),
		slog.String(observability.LogFieldErrorCode, string(aierr.CodeOf(err, aierr.CodeNotificationSchedulingFailure))),
		slog.String("error", err.Error()))
}

func profileFromPayload(p *interpreter.ProfilePayload) *store.Profile {
	return &store.Profile{
		ID:           p.ProfileID,
		Name:         p.Name,
		Age:          p.Age,
		Phone:        p.Phone,
		Email:        p.Email,
		Birthday:     p.Birthday,
		Relationship: p.Relationship,
		Occupation:   p.Occupation,
		Location:     p.Location,
		Notes:        p.Notes,
		FoodLikes:    nonNil(p.Likes),
		FoodDislikes: nonNil(p.Dislikes),
		Interests:    nonNil(p.Interests),
		Kids:         nonNil(p.Kids),
		Tags:         nonNil(p.Tags),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
