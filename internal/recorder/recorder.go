// Package recorder implements the in-memory recording engine. It is a
// small state machine with two states, Idle and Recording, and knows
// nothing about browsers; live capture sources feed it decoded actions.
package recorder

import (
	"errors"
	"sync"

	"github.com/stepsnap/stepsnap/internal/action"
)

var ErrAlreadyRecording = errors.New("recording already in progress")

// Engine accumulates the action sequence of the active session. It is
// safe for concurrent use, the browser event goroutine appends while
// another goroutine may stop the recording or take a snapshot.
type Engine struct {
	mu        sync.Mutex
	recording bool
	actions   []action.Action
}

func New() *Engine {
	return &Engine{}
}

// Start transitions Idle -> Recording and discards the previously
// accumulated sequence.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recording {
		return ErrAlreadyRecording
	}
	e.recording = true
	e.actions = nil
	return nil
}

// Stop transitions Recording -> Idle. The accumulated sequence is kept
// and frozen. Stopping an idle engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recording = false
}

// Append adds an action to the sequence, applying the coalescing rule:
// a text entry replaces an immediately preceding text entry wholesale,
// because every keystroke event carries the field's full current value.
// Clicks and captures never coalesce. Append reports whether the
// sequence grew; a coalesced replacement and an append on an idle
// engine both report false.
func (e *Engine) Append(a action.Action) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.recording {
		return false
	}
	if t, ok := a.(action.TypeText); ok && len(e.actions) > 0 {
		if _, ok := e.actions[len(e.actions)-1].(action.TypeText); ok {
			e.actions[len(e.actions)-1] = t
			return false
		}
	}
	e.actions = append(e.actions, a)
	return true
}

// Load installs a frozen sequence from a persisted session, replacing
// whatever the engine held. It fails while a recording is active.
func (e *Engine) Load(actions []action.Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recording {
		return ErrAlreadyRecording
	}
	e.actions = make([]action.Action, len(actions))
	copy(e.actions, actions)
	return nil
}

// Snapshot returns a copy of the current sequence. Exports operate on
// snapshots only, never on live state.
func (e *Engine) Snapshot() []action.Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := make([]action.Action, len(e.actions))
	copy(snapshot, e.actions)
	return snapshot
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.actions)
}

func (e *Engine) Recording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recording
}
