package session

import (
	"context"
	"testing"

	"github.com/stepsnap/stepsnap/internal/action"
)

func TestCreateRecomputesDerivedFields(t *testing.T) {
	store := NewMemoryStore()
	s := &Session{
		Title: "checkout flow",
		Actions: []action.Action{
			action.Click{Timestamp: 1, Coordinates: action.Coordinates{X: 1, Y: 1}},
			action.Capture{Timestamp: 2, Content: "<div></div>"},
		},
		// lies, the store must not trust these
		ActionsCount: 99,
		HasCaptures:  false,
	}
	created, err := store.Create(context.Background(), s)
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected an id to be assigned")
	}
	if created.ActionsCount != 2 {
		t.Fatalf("expected actionsCount 2 but got %d", created.ActionsCount)
	}
	if !created.HasCaptures {
		t.Fatalf("expected hasCaptures to be true")
	}
}

func TestUpdateRecomputesDerivedFields(t *testing.T) {
	store := NewMemoryStore()
	created, err := store.Create(context.Background(), &Session{
		Title: "a",
		Actions: []action.Action{
			action.Capture{Timestamp: 1, Content: "<div></div>"},
		},
	})
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	newActions := []action.Action{
		action.TypeText{Timestamp: 1, Text: "x"},
	}
	updated, err := store.Update(context.Background(), created.ID, Patch{Actions: &newActions})
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if updated.ActionsCount != 1 {
		t.Fatalf("expected actionsCount 1 but got %d", updated.ActionsCount)
	}
	if updated.HasCaptures {
		t.Fatalf("expected hasCaptures to be false after the captures were removed")
	}
	if updated.Title != "a" {
		t.Fatalf("expected unpatched title to survive but got %q", updated.Title)
	}
}

func TestGetByIDMissing(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.GetByID(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound but got %v", err)
	}
}

func TestGetSharedHidesUnshared(t *testing.T) {
	store := NewMemoryStore()
	created, err := store.Create(context.Background(), &Session{Title: "private"})
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	_, errMissing := store.GetShared(context.Background(), "nope")
	_, errUnshared := store.GetShared(context.Background(), created.ID)
	if errMissing != ErrNotFound || errUnshared != ErrNotFound {
		t.Fatalf("expected ErrNotFound for both cases but got %v and %v", errMissing, errUnshared)
	}

	if _, err := store.SetShared(context.Background(), created.ID, true); err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	shared, err := store.GetShared(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if !shared.IsShared {
		t.Fatalf("expected isShared to be true")
	}
}

func TestDelete(t *testing.T) {
	store := NewMemoryStore()
	created, err := store.Create(context.Background(), &Session{Title: "gone soon"})
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if err := store.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if err := store.Delete(context.Background(), created.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound but got %v", err)
	}
}

func TestStoredSessionsAreCopies(t *testing.T) {
	store := NewMemoryStore()
	created, err := store.Create(context.Background(), &Session{
		Title:   "immutable",
		Actions: []action.Action{action.TypeText{Timestamp: 1, Text: "a"}},
	})
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	created.Actions[0] = action.Click{Timestamp: 9}
	created.Title = "mutated"

	fetched, err := store.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if fetched.Title != "immutable" {
		t.Fatalf("expected stored title to be unaffected but got %q", fetched.Title)
	}
	if _, ok := fetched.Actions[0].(action.TypeText); !ok {
		t.Fatalf("expected stored actions to be unaffected")
	}
}

func TestSnapshotIsFrozen(t *testing.T) {
	s := &Session{
		ID:      "abc",
		Title:   "t",
		Actions: []action.Action{action.TypeText{Timestamp: 1, Text: "a"}},
	}
	snapshot := s.Snapshot()
	s.Actions[0] = action.Click{Timestamp: 2}
	if _, ok := snapshot.Actions[0].(action.TypeText); !ok {
		t.Fatalf("expected the snapshot to be unaffected by later mutation")
	}
	if snapshot.GeneratedAt.IsZero() {
		t.Fatalf("expected a generation time")
	}
}
