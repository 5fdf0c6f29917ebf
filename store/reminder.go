package store

import "context"

// Reminder is a one-off nudge about a person.
type Reminder struct {
	ID        string
	ProfileID string
	CreatedTs int64

	Title       string
	Description string
	Type        string
	// ScheduledTs is unix seconds.
	ScheduledTs    int64
	NotificationID string
}

type FindReminder struct {
	ID        *string
	ProfileID *string
	// ScheduledAfter filters to reminders strictly after this unix second.
	ScheduledAfter *int64
}

type UpdateReminder struct {
	ID             string
	NotificationID *string
}

func (s *Store) CreateReminder(ctx context.Context, create *Reminder) (*Reminder, error) {
	return s.driver.CreateReminder(ctx, create)
}

func (s *Store) ListReminders(ctx context.Context, find *FindReminder) ([]*Reminder, error) {
	return s.driver.ListReminders(ctx, find)
}

func (s *Store) UpdateReminder(ctx context.Context, update *UpdateReminder) error {
	return s.driver.UpdateReminder(ctx, update)
}

// UpdateReminderNotificationID records the notification scheduled for a reminder.
func (s *Store) UpdateReminderNotificationID(ctx context.Context, reminderID, notificationID string) error {
	return s.driver.UpdateReminder(ctx, &UpdateReminder{ID: reminderID, NotificationID: &notificationID})
}
