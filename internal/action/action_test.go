package action

import (
	"testing"
)

func TestCountAndHasCaptures(t *testing.T) {
	actions := []Action{
		Click{Timestamp: 1, Coordinates: Coordinates{X: 1, Y: 2}},
		TypeText{Timestamp: 2, Text: "hi"},
		Capture{Timestamp: 3, Content: "<div></div>"},
	}
	if got := Count(actions); got != 3 {
		t.Fatalf("expected count 3 but got %d", got)
	}
	if !HasCaptures(actions) {
		t.Fatalf("expected 'true' but got 'false'")
	}
	if HasCaptures(actions[:2]) {
		t.Fatalf("expected 'false' but got 'true'")
	}
}

func TestWithNoteKeepsPayload(t *testing.T) {
	c := Click{Timestamp: 5, Coordinates: Coordinates{X: 10, Y: 20}, Element: &Element{ID: "submit"}}
	a := WithNote(c, "clicks the submit button")
	if a.Note() != "clicks the submit button" {
		t.Fatalf("expected note to be set but got %q", a.Note())
	}
	updated, ok := a.(Click)
	if !ok {
		t.Fatalf("expected a Click but got %T", a)
	}
	if updated.Coordinates != c.Coordinates || updated.Timestamp != c.Timestamp {
		t.Fatalf("expected payload to be unchanged")
	}
	if c.Description != "" {
		t.Fatalf("expected original action to be untouched but got description %q", c.Description)
	}
}

func TestKind(t *testing.T) {
	if (Click{}).Kind() != ClickType {
		t.Fatalf("unexpected kind for click")
	}
	if (TypeText{}).Kind() != TextType {
		t.Fatalf("unexpected kind for type")
	}
	if (Capture{}).Kind() != CaptureType {
		t.Fatalf("unexpected kind for capture")
	}
}
