// Package session defines the persisted session entity and the store
// implementations behind it.
package session

import (
	"time"

	"github.com/stepsnap/stepsnap/internal/action"
)

// Session is a named, persisted collection of actions with sharing
// metadata. ActionsCount and HasCaptures are derived from Actions and
// recomputed on every write, never maintained by hand.
type Session struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Actions      []action.Action `json:"actions"`
	ActionsCount int             `json:"actionsCount"`
	HasCaptures  bool            `json:"hasCaptures"`
	IsShared     bool            `json:"isShared"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Recompute refreshes the derived fields from the action sequence.
func (s *Session) Recompute() {
	s.ActionsCount = action.Count(s.Actions)
	s.HasCaptures = action.HasCaptures(s.Actions)
}

// Copy returns a deep enough copy for handing sessions across the
// store boundary. Actions are value types, copying the slice suffices.
func (s *Session) Copy() *Session {
	c := *s
	c.Actions = make([]action.Action, len(s.Actions))
	copy(c.Actions, s.Actions)
	return &c
}

// Snapshot freezes a session for export. Exports never read live
// state, they operate on the snapshot taken at invocation.
type Snapshot struct {
	ID          string
	Title       string
	Description string
	Actions     []action.Action
	GeneratedAt time.Time
}

func (s *Session) Snapshot() *Snapshot {
	actions := make([]action.Action, len(s.Actions))
	copy(actions, s.Actions)
	return &Snapshot{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Actions:     actions,
		GeneratedAt: time.Now(),
	}
}

// Patch describes a partial update. Nil fields are left as they are.
type Patch struct {
	Title       *string
	Description *string
	Actions     *[]action.Action
}
