package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stepsnap/stepsnap/internal/action"
	"github.com/stepsnap/stepsnap/internal/export"
	"github.com/stepsnap/stepsnap/internal/session"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	// encode first so a marshalling failure never produces a half
	// written body with a success status
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(payload); err != nil {
		http.Error(w, `{"error":"encoding failure"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buffer.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sessionRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Actions     json.RawMessage `json:"actions"`
}

// annotate fills in descriptions for actions that arrived without one.
// Describer failures are tolerated, the action is stored unannotated.
func (s *Server) annotate(ctx context.Context, actions []action.Action) []action.Action {
	if s.describer == nil {
		return actions
	}
	for i, a := range actions {
		if a.Note() != "" {
			continue
		}
		note, err := s.describer.Describe(ctx, a)
		if err != nil || note == "" {
			continue
		}
		actions[i] = action.WithNote(a, note)
	}
	return actions
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	actions := []action.Action{}
	if len(req.Actions) > 0 {
		var err error
		// boundary validation: nothing is partially accepted
		actions, err = action.DecodeSlice(req.Actions)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	created, err := s.store.Create(r.Context(), &session.Session{
		Title:       req.Title,
		Description: req.Description,
		Actions:     s.annotate(r.Context(), actions),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// listEntry is the list view of a session, without the action bodies.
type listEntry struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ActionsCount int       `json:"actionsCount"`
	HasCaptures  bool      `json:"hasCaptures"`
	IsShared     bool      `json:"isShared"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	entries := make([]listEntry, 0, len(sessions))
	for _, sess := range sessions {
		entries = append(entries, listEntry{
			ID:           sess.ID,
			Title:        sess.Title,
			Description:  sess.Description,
			ActionsCount: sess.ActionsCount,
			HasCaptures:  sess.HasCaptures,
			IsShared:     sess.IsShared,
			CreatedAt:    sess.CreatedAt,
			UpdatedAt:    sess.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleGetShared(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.GetShared(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handlePatchSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       *string          `json:"title"`
		Description *string          `json:"description"`
		Actions     *json.RawMessage `json:"actions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	patch := session.Patch{Title: req.Title, Description: req.Description}
	if req.Actions != nil {
		actions, err := action.DecodeSlice(*req.Actions)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		actions = s.annotate(r.Context(), actions)
		patch.Actions = &actions
	}
	updated, err := s.store.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShareSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Shared bool `json:"shared"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	updated, err := s.store.SetShared(r.Context(), chi.URLParam(r, "id"), req.Shared)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleExport streams an artifact for the session found by the given
// lookup, so the owned and the shared route share one implementation.
func (s *Server) handleExport(lookup func(ctx context.Context, id string) (*session.Session, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := export.Format(r.URL.Query().Get("format"))
		if format == "" {
			format = export.JSONFormat
		}
		exporter, err := export.NewExporter(format, export.Options{Renderer: s.renderer, Locale: s.locale})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sess, err := lookup(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if sess.ActionsCount == 0 {
			writeError(w, http.StatusUnprocessableEntity, export.ErrNoActions.Error())
			return
		}
		artifact, err := exporter.Export(r.Context(), sess.Snapshot())
		if err != nil {
			// a failed pipeline is a distinct failure state, never a
			// silent empty file
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		filename := export.Filename(sess.ID, time.Now(), exporter.Ext())
		w.Header().Set("Content-Type", exporter.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Write(artifact)
	}
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
