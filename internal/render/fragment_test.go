package render

import (
	"strings"
	"testing"
)

func TestPrepareFragmentStripsScripts(t *testing.T) {
	fragment := `<div id="main"><script>alert("boom")</script><p>hello</p></div>`
	document, err := prepareFragment(fragment)
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if strings.Contains(document, "<script>") {
		t.Fatalf("expected scripts to be removed but got %s", document)
	}
	if !strings.Contains(document, "<p>hello</p>") {
		t.Fatalf("expected content to be kept but got %s", document)
	}
	if !strings.Contains(document, `<div id="main">`) {
		t.Fatalf("expected the container element to be kept but got %s", document)
	}
}

func TestPrepareFragmentEmpty(t *testing.T) {
	document, err := prepareFragment("")
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if !strings.Contains(document, "<body></body>") {
		t.Fatalf("expected an empty body but got %s", document)
	}
}
