package store

import "context"

// ScheduledText is a text message to send at a later time.
type ScheduledText struct {
	ID        string
	ProfileID string
	CreatedTs int64

	PhoneNumber string
	Message     string
	// ScheduledTs is unix seconds.
	ScheduledTs    int64
	NotificationID string
}

type FindScheduledText struct {
	ID             *string
	ProfileID      *string
	ScheduledAfter *int64
}

type UpdateScheduledText struct {
	ID             string
	NotificationID *string
}

func (s *Store) CreateScheduledText(ctx context.Context, create *ScheduledText) (*ScheduledText, error) {
	return s.driver.CreateScheduledText(ctx, create)
}

func (s *Store) ListScheduledTexts(ctx context.Context, find *FindScheduledText) ([]*ScheduledText, error) {
	return s.driver.ListScheduledTexts(ctx, find)
}

// UpdateScheduledTextNotificationID records the notification scheduled for a text.
func (s *Store) UpdateScheduledTextNotificationID(ctx context.Context, textID, notificationID string) error {
	return s.driver.UpdateScheduledText(ctx, &UpdateScheduledText{ID: textID, NotificationID: &notificationID})
}
