package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stepsnap/stepsnap/internal/config"
	"github.com/stepsnap/stepsnap/internal/describe"
	"github.com/stepsnap/stepsnap/internal/render"
	"github.com/stepsnap/stepsnap/internal/session"
)

func testServer() *Server {
	cfg := &config.ServerConfig{Addr: ":0", SharedRatePerSec: 10}
	return New(cfg, session.NewMemoryStore(), render.NewMockRenderer(), describe.Static{}, "en_US")
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, router http.Handler, body string) string {
	t.Helper()
	rec := doRequest(t, router, "POST", "/v1/sessions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 but got %d: %s", rec.Code, rec.Body.String())
	}
	var created session.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	return created.ID
}

const sessionBody = `{
	"title": "checkout",
	"actions": [
		{"type": "click", "timestamp": 1000, "coordinates": {"x": 10, "y": 20}},
		{"type": "capture", "timestamp": 2000, "content": "<p>snap</p>"}
	]
}`

func TestCreateAndGetSession(t *testing.T) {
	router := testServer().Router()
	id := createSession(t, router, sessionBody)

	rec := doRequest(t, router, "GET", "/v1/sessions/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if got["actionsCount"].(float64) != 2 {
		t.Fatalf("expected actionsCount 2 but got %v", got["actionsCount"])
	}
	if got["hasCaptures"] != true {
		t.Fatalf("expected hasCaptures true but got %v", got["hasCaptures"])
	}
}

func TestCreateSessionRejectsInvalidActions(t *testing.T) {
	router := testServer().Router()
	body := `{"title": "x", "actions": [{"type": "bogus", "timestamp": 1}]}`
	rec := doRequest(t, router, "POST", "/v1/sessions", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", rec.Code)
	}
	// nothing was partially accepted
	list := doRequest(t, router, "GET", "/v1/sessions", "")
	if strings.TrimSpace(list.Body.String()) != "[]" {
		t.Fatalf("expected no sessions but got %s", list.Body.String())
	}
}

func TestGetSessionNotFound(t *testing.T) {
	router := testServer().Router()
	rec := doRequest(t, router, "GET", "/v1/sessions/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 but got %d", rec.Code)
	}
}

func TestSharedViewIndistinguishability(t *testing.T) {
	router := testServer().Router()
	id := createSession(t, router, sessionBody)

	missing := doRequest(t, router, "GET", "/v1/shared/missing", "")
	unshared := doRequest(t, router, "GET", "/v1/shared/"+id, "")
	if missing.Code != http.StatusNotFound || unshared.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for both cases but got %d and %d", missing.Code, unshared.Code)
	}
	if missing.Body.String() != unshared.Body.String() {
		t.Fatalf("expected identical bodies but got %q and %q", missing.Body.String(), unshared.Body.String())
	}

	share := doRequest(t, router, "POST", "/v1/sessions/"+id+"/share", `{"shared": true}`)
	if share.Code != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", share.Code)
	}
	shared := doRequest(t, router, "GET", "/v1/shared/"+id, "")
	if shared.Code != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", shared.Code)
	}
}

func TestPatchRecomputesDerivedFields(t *testing.T) {
	router := testServer().Router()
	id := createSession(t, router, sessionBody)

	patch := `{"actions": [{"type": "type", "timestamp": 1, "text": "x"}]}`
	rec := doRequest(t, router, "PATCH", "/v1/sessions/"+id, patch)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 but got %d: %s", rec.Code, rec.Body.String())
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if got["actionsCount"].(float64) != 1 {
		t.Fatalf("expected actionsCount 1 but got %v", got["actionsCount"])
	}
	if got["hasCaptures"] != false {
		t.Fatalf("expected hasCaptures false but got %v", got["hasCaptures"])
	}
}

func TestDeleteSession(t *testing.T) {
	router := testServer().Router()
	id := createSession(t, router, sessionBody)

	rec := doRequest(t, router, "DELETE", "/v1/sessions/"+id, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 but got %d", rec.Code)
	}
	rec = doRequest(t, router, "DELETE", "/v1/sessions/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 but got %d", rec.Code)
	}
}

func TestExportSession(t *testing.T) {
	router := testServer().Router()
	id := createSession(t, router, sessionBody)

	for format, contentType := range map[string]string{
		"json": "application/json",
		"html": "text/html; charset=utf-8",
		"pdf":  "application/pdf",
	} {
		rec := doRequest(t, router, "GET", "/v1/sessions/"+id+"/export?format="+format, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("format %s: expected status 200 but got %d: %s", format, rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get("Content-Type"); got != contentType {
			t.Fatalf("format %s: expected content type %q but got %q", format, contentType, got)
		}
		if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "action-recording-"+id+"."+format) {
			t.Fatalf("format %s: unexpected content disposition %q", format, got)
		}
	}
}

func TestExportUnknownFormat(t *testing.T) {
	router := testServer().Router()
	id := createSession(t, router, sessionBody)
	rec := doRequest(t, router, "GET", "/v1/sessions/"+id+"/export?format=docx", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", rec.Code)
	}
}

func TestExportEmptySession(t *testing.T) {
	router := testServer().Router()
	id := createSession(t, router, `{"title": "empty"}`)
	rec := doRequest(t, router, "GET", "/v1/sessions/"+id+"/export?format=json", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 but got %d", rec.Code)
	}
}

func TestExportSharedRequiresSharing(t *testing.T) {
	router := testServer().Router()
	id := createSession(t, router, sessionBody)
	rec := doRequest(t, router, "GET", "/v1/shared/"+id+"/export?format=json", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 but got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	router := testServer().Router()
	rec := doRequest(t, router, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", rec.Code)
	}
}
