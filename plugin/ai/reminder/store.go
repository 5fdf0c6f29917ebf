package reminder

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process NotificationStore.
type MemoryStore struct {
	notifications map[string]*Notification
	mu            sync.RWMutex
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notifications: make(map[string]*Notification),
	}
}

// Create stores a new notification.
func (s *MemoryStore) Create(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notifications[n.ID]; exists {
		return fmt.Errorf("notification already exists: %s", n.ID)
	}
	s.notifications[n.ID] = n
	return nil
}

// Get returns a copy of the notification with id.
func (s *MemoryStore) Get(_ context.Context, id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, fmt.Errorf("notification not found: %s", id)
	}
	clone := *n
	return &clone, nil
}

// GetDue returns pending notifications due at or before the given time,
// oldest first.
func (s *MemoryStore) GetDue(_ context.Context, before time.Time) ([]*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Notification
	for _, n := range s.notifications {
		if n.Status == StatusPending && !n.TriggerAt.After(before) {
			clone := *n
			result = append(result, &clone)
		}
	}
	sortByTrigger(result)
	return result, nil
}

// List returns notifications with the given status, or all when status is empty.
func (s *MemoryStore) List(_ context.Context, status Status) ([]*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if status == "" || n.Status == status {
			clone := *n
			result = append(result, &clone)
		}
	}
	sortByTrigger(result)
	return result, nil
}

// Update replaces an existing notification.
func (s *MemoryStore) Update(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notifications[n.ID]; !exists {
		return fmt.Errorf("notification not found: %s", n.ID)
	}
	s.notifications[n.ID] = n
	return nil
}

// MarkSent marks a notification as sent.
func (s *MemoryStore) MarkSent(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return fmt.Errorf("notification not found: %s", id)
	}
	n.Status = StatusSent
	n.SentAt = &at
	return nil
}

// MarkFailed marks a notification as failed.
func (s *MemoryStore) MarkFailed(_ context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return fmt.Errorf("notification not found: %s", id)
	}
	n.Status = StatusFailed
	if n.Metadata == nil {
		n.Metadata = make(map[string]any)
	}
	n.Metadata["failure_reason"] = reason
	return nil
}

func sortByTrigger(ns []*Notification) {
	sort.Slice(ns, func(i, j int) bool {
		return ns[i].TriggerAt.Before(ns[j].TriggerAt)
	})
}
