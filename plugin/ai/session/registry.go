// Package session keeps one confirmation machine per conversation.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/armi/plugin/ai/conversation"
)

// Factory builds the machine for a new conversation.
type Factory func(id, timezone string) *conversation.Machine

// Summary describes a live conversation.
type Summary struct {
	ID       string             `json:"id"`
	State    conversation.State `json:"state"`
	Timezone string             `json:"timezone,omitempty"`
	LastUsed time.Time          `json:"lastUsed"`
}

type entry struct {
	machine  *conversation.Machine
	timezone string
	lastUsed time.Time
}

// Registry maps conversation ids to machines.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	factory  Factory
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		factory:  factory,
		now:      time.Now,
	}
}

// SetClock replaces the time source used for idle tracking.
func (r *Registry) SetClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// Get returns the machine for id, creating it on first use. An empty id
// starts a new conversation with a generated id. The timezone is bound when
// the conversation is created.
func (r *Registry) Get(id, timezone string) *conversation.Machine {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	e, ok := r.sessions[id]
	if !ok {
		e = &entry{machine: r.factory(id, timezone), timezone: timezone}
		r.sessions[id] = e
	}
	e.lastUsed = r.now()
	return e.machine
}

// Handle routes one user turn to the conversation's machine.
func (r *Registry) Handle(ctx context.Context, id, timezone, text string) (string, *conversation.Reply) {
	m := r.Get(id, timezone)
	return m.ID(), m.Handle(ctx, text)
}

// Remove drops a conversation. It reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Reset drops the pending confirmation of a conversation without removing
// it. It reports whether the conversation exists.
func (r *Registry) Reset(id string) bool {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok {
		e.lastUsed = r.now()
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	e.machine.Reset()
	return true
}

// Len returns the number of live conversations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// List returns live conversations, most recently used first.
func (r *Registry) List() []Summary {
	r.mu.Lock()
	out := make([]Summary, 0, len(r.sessions))
	machines := make([]*conversation.Machine, 0, len(r.sessions))
	for id, e := range r.sessions {
		out = append(out, Summary{ID: id, Timezone: e.timezone, LastUsed: e.lastUsed})
		machines = append(machines, e.machine)
	}
	r.mu.Unlock()

	for i, m := range machines {
		out[i].State = m.State()
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUsed.After(out[j].LastUsed)
	})
	return out
}

// CleanupIdle removes conversations unused for longer than idle and returns
// how many were removed.
func (r *Registry) CleanupIdle(_ context.Context, idle time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	var removed int64
	for id, e := range r.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}
