// Package action defines the recorded user interaction types and their
// wire format. An action is one unit of interaction with a web page: a
// click, a text entry or a snapshot of a DOM fragment.
package action

import "fmt"

// Type encapsulates the type of an action.
// See below constants for possible types.
type Type string

const (
	ClickType   Type = "click"
	TextType    Type = "type"
	CaptureType Type = "capture"
)

// Action is one recorded unit of user interaction. The concrete types are
// Click, TypeText and Capture; a value of any other type cannot exist.
type Action interface {
	// Kind returns the action's type tag.
	Kind() Type
	// When returns the action's timestamp in milliseconds since epoch.
	When() int64
	// Note returns the optional derived description. It may be empty, it
	// is never authoritative.
	Note() string

	isAction()
}

// Coordinates are viewport coordinates of a click.
type Coordinates struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Element is a best-effort descriptor of the clicked element. All fields
// are optional.
type Element struct {
	ID      string `json:"id,omitempty"`
	Text    string `json:"text,omitempty"`
	TagName string `json:"tagName,omitempty"`
}

// Click records a pointer click at viewport coordinates.
type Click struct {
	Timestamp   int64
	Coordinates Coordinates
	Element     *Element
	Description string
}

func (c Click) Kind() Type   { return ClickType }
func (c Click) When() int64  { return c.Timestamp }
func (c Click) Note() string { return c.Description }
func (c Click) isAction()    {}

// TypeText records text entered into an input field. Text always holds
// the field's full current value, not a delta.
type TypeText struct {
	Timestamp   int64
	Text        string
	Description string
}

func (t TypeText) Kind() Type   { return TextType }
func (t TypeText) When() int64  { return t.Timestamp }
func (t TypeText) Note() string { return t.Description }
func (t TypeText) isAction()    {}

// Capture records the serialized markup of a DOM fragment at a point in
// time.
type Capture struct {
	Timestamp   int64
	Content     string
	Description string
}

func (c Capture) Kind() Type   { return CaptureType }
func (c Capture) When() int64  { return c.Timestamp }
func (c Capture) Note() string { return c.Description }
func (c Capture) isAction()    {}

// WithNote returns a copy of a with its description replaced. The action's
// type and payload are untouched.
func WithNote(a Action, note string) Action {
	switch v := a.(type) {
	case Click:
		v.Description = note
		return v
	case TypeText:
		v.Description = note
		return v
	case Capture:
		v.Description = note
		return v
	}
	return a
}

// Count returns the number of actions. Stores use this to derive the
// actionsCount field, it must never be maintained by hand.
func Count(actions []Action) int {
	return len(actions)
}

// HasCaptures reports whether at least one action is a Capture.
func HasCaptures(actions []Action) bool {
	for _, a := range actions {
		if _, ok := a.(Capture); ok {
			return true
		}
	}
	return false
}

// ValidationError describes why a raw action was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid action: %s: %s", e.Field, e.Reason)
}
