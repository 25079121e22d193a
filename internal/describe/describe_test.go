package describe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stepsnap/stepsnap/internal/action"
	"github.com/stepsnap/stepsnap/internal/config"
)

func TestNewWithoutAPIKeyReturnsStatic(t *testing.T) {
	d := New(&config.DescriberConfig{})
	if _, ok := d.(Static); !ok {
		t.Fatalf("expected a Static describer but got %T", d)
	}
}

func TestStaticDescribe(t *testing.T) {
	d := Static{}
	a := action.Click{Coordinates: action.Coordinates{X: 10, Y: 20}, Element: &action.Element{ID: "submit"}}
	got, err := d.Describe(context.Background(), a)
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if got != "Click on #submit at (10, 20)" {
		t.Fatalf("expected 'Click on #submit at (10, 20)' but got %q", got)
	}
}

func TestLLMDescribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer token but got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"The user clicks the submit button."}}]}`))
	}))
	defer server.Close()

	d := New(&config.DescriberConfig{APIKey: "test-key", Endpoint: server.URL, Model: "test-model"})
	got, err := d.Describe(context.Background(), action.Click{Coordinates: action.Coordinates{X: 1, Y: 2}})
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if got != "The user clicks the submit button." {
		t.Fatalf("expected the completion text but got %q", got)
	}
}

func TestLLMFallsBackOnServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := New(&config.DescriberConfig{APIKey: "test-key", Endpoint: server.URL})
	a := action.TypeText{Text: "hello"}
	got, err := d.Describe(context.Background(), a)
	if err != nil {
		t.Fatalf("expected the fallback to swallow the error but got %v", err)
	}
	if got != "Type \"hello\" in input field" {
		t.Fatalf("expected the synthesized fallback but got %q", got)
	}
}
