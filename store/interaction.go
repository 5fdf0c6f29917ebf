package store

import "context"

// Interaction is an audit entry recording the raw text behind a profile change.
type Interaction struct {
	ID        string
	ProfileID string
	CreatedTs int64

	Description string
	// ExtractedData is the JSON payload the interpreter produced.
	ExtractedData string
}

type FindInteraction struct {
	ProfileID *string
	Limit     *int
}

func (s *Store) AddInteraction(ctx context.Context, create *Interaction) (*Interaction, error) {
	return s.driver.CreateInteraction(ctx, create)
}

func (s *Store) ListInteractions(ctx context.Context, find *FindInteraction) ([]*Interaction, error) {
	return s.driver.ListInteractions(ctx, find)
}
