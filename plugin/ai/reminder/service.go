// Package reminder schedules notifications for reminders and scheduled texts.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/armi/internal/aierr"
)

// Kind identifies what a notification was scheduled for.
type Kind string

const (
	KindReminder      Kind = "reminder"
	KindScheduledText Kind = "scheduled_text"
)

// Status is the delivery status of a notification.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Channel names a delivery channel.
type Channel string

const (
	ChannelLog     Channel = "log"
	ChannelWebhook Channel = "webhook"
)

// Notification is one scheduled delivery.
type Notification struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	TargetID  string         `json:"targetId"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Phone     string         `json:"phoneNumber,omitempty"`
	TriggerAt time.Time      `json:"triggerAt"`
	Channels  []Channel      `json:"channels"`
	Status    Status         `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	SentAt    *time.Time     `json:"sentAt,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ReminderRequest asks for a reminder notification.
type ReminderRequest struct {
	Title      string
	Body       string
	When       time.Time
	ReminderID string
}

// TextRequest asks for a scheduled text notification.
type TextRequest struct {
	MessageID   string
	PhoneNumber string
	Message     string
	When        time.Time
}

// Scheduled identifies a scheduled notification.
type Scheduled struct {
	ID string `json:"id"`
}

// NotificationStore persists notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id string) (*Notification, error)
	GetDue(ctx context.Context, before time.Time) ([]*Notification, error)
	List(ctx context.Context, status Status) ([]*Notification, error)
	Update(ctx context.Context, n *Notification) error
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

// Notifier delivers a notification over one channel.
type Notifier interface {
	Send(ctx context.Context, channel Channel, n *Notification) error
}

// Service schedules and delivers notifications.
type Service struct {
	store           NotificationStore
	notifier        Notifier
	defaultChannels []Channel
	now             func() time.Time
	logger          *slog.Logger
	mu              sync.Mutex
}

// NewService creates a notification service.
func NewService(store NotificationStore, notifier Notifier) *Service {
	return &Service{
		store:           store,
		notifier:        notifier,
		defaultChannels: []Channel{ChannelLog},
		now:             time.Now,
		logger:          slog.Default(),
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// SetLogger replaces the logger.
func (s *Service) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetDefaultChannels sets the channels new notifications are delivered on.
func (s *Service) SetDefaultChannels(channels []Channel) {
	if len(channels) > 0 {
		s.mu.Lock()
		s.defaultChannels = channels
		s.mu.Unlock()
	}
}

// ScheduleReminder schedules a reminder notification at req.When.
func (s *Service) ScheduleReminder(ctx context.Context, req ReminderRequest) (*Scheduled, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, aierr.NotificationSchedulingFailure("reminder notification requires a title", nil)
	}
	return s.schedule(ctx, &Notification{
		Kind:      KindReminder,
		TargetID:  req.ReminderID,
		Title:     req.Title,
		Body:      req.Body,
		TriggerAt: req.When,
	})
}

// ScheduleScheduledText schedules the delivery of a text message at req.When.
func (s *Service) ScheduleScheduledText(ctx context.Context, req TextRequest) (*Scheduled, error) {
	if strings.TrimSpace(req.PhoneNumber) == "" || strings.TrimSpace(req.Message) == "" {
		return nil, aierr.NotificationSchedulingFailure("text notification requires a phone number and message", nil)
	}
	return s.schedule(ctx, &Notification{
		Kind:      KindScheduledText,
		TargetID:  req.MessageID,
		Title:     "Text to " + req.PhoneNumber,
		Body:      req.Message,
		Phone:     req.PhoneNumber,
		TriggerAt: req.When,
	})
}

func (s *Service) schedule(ctx context.Context, n *Notification) (*Scheduled, error) {
	now := s.now()
	if n.TriggerAt.IsZero() || n.TriggerAt.Before(now) {
		return nil, aierr.NotificationSchedulingFailure(
			fmt.Sprintf("trigger time %s is in the past", n.TriggerAt.Format(time.RFC3339)), nil)
	}

	s.mu.Lock()
	channels := append([]Channel(nil), s.defaultChannels...)
	s.mu.Unlock()

	n.ID = uuid.NewString()
	n.Channels = channels
	n.Status = StatusPending
	n.CreatedAt = now
	n.TriggerAt = n.TriggerAt.UTC()

	if err := s.store.Create(ctx, n); err != nil {
		return nil, aierr.NotificationSchedulingFailure("failed to store notification", err)
	}

	s.logger.Debug("notification scheduled",
		"notification_id", n.ID,
		"kind", n.Kind,
		"target_id", n.TargetID,
		"trigger_at", n.TriggerAt)
	return &Scheduled{ID: n.ID}, nil
}

// Cancel cancels a pending notification.
func (s *Service) Cancel(ctx context.Context, id string) error {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get notification: %w", err)
	}
	if n.Status != StatusPending {
		return fmt.Errorf("cannot cancel notification with status: %s", n.Status)
	}
	n.Status = StatusCancelled
	return s.store.Update(ctx, n)
}

// Get returns a notification by id.
func (s *Service) Get(ctx context.Context, id string) (*Notification, error) {
	return s.store.Get(ctx, id)
}

// List returns notifications, filtered by status when non-empty.
func (s *Service) List(ctx context.Context, status Status) ([]*Notification, error) {
	return s.store.List(ctx, status)
}

// ProcessDue delivers every pending notification whose trigger time has
// passed. It returns the number sent and the number failed.
func (s *Service) ProcessDue(ctx context.Context) (sent int, failed int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	due, err := s.store.GetDue(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get due notifications: %w", err)
	}

	for _, n := range due {
		if err := s.deliver(ctx, n); err != nil {
			failed++
			s.logger.Warn("notification delivery failed",
				"notification_id", n.ID,
				"kind", n.Kind,
				"error", err)
			_ = s.store.MarkFailed(ctx, n.ID, err.Error())
			continue
		}
		if err := s.store.MarkSent(ctx, n.ID, now); err != nil {
			continue
		}
		sent++
	}
	return sent, failed, nil
}

func (s *Service) deliver(ctx context.Context, n *Notification) error {
	if s.notifier == nil {
		return fmt.Errorf("notifier not configured")
	}
	var lastErr error
	for _, channel := range n.Channels {
		if err := s.notifier.Send(ctx, channel, n); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
