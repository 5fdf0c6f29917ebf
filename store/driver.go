package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Profile model related methods.
	CreateProfile(ctx context.Context, create *Profile) (*Profile, error)
	UpdateProfile(ctx context.Context, update *Profile) (*Profile, error)
	ListProfiles(ctx context.Context, find *FindProfile) ([]*Profile, error)

	// Interaction model related methods.
	CreateInteraction(ctx context.Context, create *Interaction) (*Interaction, error)
	ListInteractions(ctx context.Context, find *FindInteraction) ([]*Interaction, error)

	// Reminder model related methods.
	CreateReminder(ctx context.Context, create *Reminder) (*Reminder, error)
	ListReminders(ctx context.Context, find *FindReminder) ([]*Reminder, error)
	UpdateReminder(ctx context.Context, update *UpdateReminder) error

	// ScheduledText model related methods.
	CreateScheduledText(ctx context.Context, create *ScheduledText) (*ScheduledText, error)
	ListScheduledTexts(ctx context.Context, find *FindScheduledText) ([]*ScheduledText, error)
	UpdateScheduledText(ctx context.Context, update *UpdateScheduledText) error
}
