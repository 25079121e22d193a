package export

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stepsnap/stepsnap/internal/action"
	"github.com/stepsnap/stepsnap/internal/render"
)

func TestHTMLExportContainsTableAndMetadata(t *testing.T) {
	actions := []action.Action{
		action.Click{Timestamp: 0, Coordinates: action.Coordinates{X: 10, Y: 20}, Element: &action.Element{ID: "submit"}},
		action.TypeText{Timestamp: 1500, Text: "hello"},
	}
	exporter := NewHTMLExporter(Options{Renderer: render.NewMockRenderer()})
	out, err := exporter.Export(context.Background(), testSnapshot(actions))
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	html := string(out)
	for _, expected := range []string{
		"<title>checkout flow</title>",
		"| 2 actions",
		"Click on #submit at (10, 20)",
		"Type &#34;hello&#34; in input field",
		"step 1: 1.5s",
	} {
		if !strings.Contains(html, expected) {
			t.Fatalf("expected document to contain %q but it does not:\n%s", expected, html)
		}
	}
	if strings.Contains(html, "<figure>") {
		t.Fatalf("expected no figures for a capture-free session")
	}
}

func TestHTMLExportCaptureIsolation(t *testing.T) {
	actions := []action.Action{
		action.Capture{Timestamp: 0, Content: "<p>one</p>"},
		action.Capture{Timestamp: 100, Content: "<p>two</p>"},
		action.Capture{Timestamp: 200, Content: "<p>three</p>"},
	}
	renderer := render.NewMockRenderer()
	renderer.Fail["<p>two</p>"] = errors.New("renderer crashed")

	exporter := NewHTMLExporter(Options{Renderer: renderer})
	out, err := exporter.Export(context.Background(), testSnapshot(actions))
	if err != nil {
		t.Fatalf("expected the export to succeed despite one bad capture but got %v", err)
	}
	html := string(out)
	if got := strings.Count(html, "<figure>"); got != 3 {
		t.Fatalf("expected 3 figures but got %d", got)
	}
	if got := strings.Count(html, "render-error"); got != 2 { // once in the css, once in the document
		t.Fatalf("expected exactly one error marker but found %d occurrences", got)
	}
	if !strings.Contains(html, "renderer crashed") {
		t.Fatalf("expected the error marker to name the failure")
	}
	if got := strings.Count(html, "data:image/png;base64,"); got != 2 {
		t.Fatalf("expected 2 embedded images but got %d", got)
	}
}

func TestHTMLExportSkipsEmptyCaptures(t *testing.T) {
	actions := []action.Action{
		action.Capture{Timestamp: 0, Content: ""},
		action.Capture{Timestamp: 100, Content: "<p>two</p>"},
	}
	exporter := NewHTMLExporter(Options{Renderer: render.NewMockRenderer()})
	out, err := exporter.Export(context.Background(), testSnapshot(actions))
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if got := strings.Count(string(out), "<figure>"); got != 1 {
		t.Fatalf("expected 1 figure but got %d", got)
	}
}

func TestHTMLExportNegativeGapRendersUnknown(t *testing.T) {
	actions := []action.Action{
		action.Click{Timestamp: 5000, Coordinates: action.Coordinates{X: 1, Y: 1}},
		action.Click{Timestamp: 1000, Coordinates: action.Coordinates{X: 2, Y: 2}},
	}
	exporter := NewHTMLExporter(Options{Renderer: render.NewMockRenderer()})
	out, err := exporter.Export(context.Background(), testSnapshot(actions))
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if !strings.Contains(string(out), "step 1: –") {
		t.Fatalf("expected the out-of-order gap to display as unknown:\n%s", out)
	}
	if strings.Contains(string(out), "-4000") {
		t.Fatalf("expected no negative duration in the document")
	}
}

func TestHTMLExportCancellation(t *testing.T) {
	actions := []action.Action{
		action.Capture{Timestamp: 0, Content: "<p>one</p>"},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exporter := NewHTMLExporter(Options{Renderer: render.NewMockRenderer()})
	if _, err := exporter.Export(ctx, testSnapshot(actions)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled but got %v", err)
	}
}
