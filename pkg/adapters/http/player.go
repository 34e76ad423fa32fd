package http

import (
	"errors"
	"net/http"

	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/player"
	"github.com/go-chi/chi/v5"
)

// SessionResponse pairs a playback state with the view of its current node.
type SessionResponse struct {
	State *domain.State `json:"state"`
	View  *player.View  `json:"view"`
}

// StartSession handles POST /modules/{moduleID}/sessions. An empty module answers
// 200 with the empty state instead of opening a session.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Start(r.Context(), chi.URLParam(r, "moduleID"))
	if errors.Is(err, domain.ErrEmptyGraph) && state != nil {
		writeJSON(w, http.StatusOK, SessionResponse{
			State: state,
			View:  &player.View{Status: state.Status, Index: -1},
		})
		return
	}
	if err != nil {
		s.fail(w, "Start session failed", err)
		return
	}
	s.respondSession(w, r, state, http.StatusCreated)
}

// GetSession handles GET /sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Load(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, "Load session failed", err)
		return
	}
	s.respondSession(w, r, state, http.StatusOK)
}

// Advance handles POST /sessions/{sessionID}/advance with a domain.Response body.
func (s *Server) Advance(w http.ResponseWriter, r *http.Request) {
	var resp domain.Response
	if err := decodeJSON(r, &resp); err != nil {
		s.fail(w, "Invalid response body", err)
		return
	}
	state, err := s.sessions.Advance(r.Context(), chi.URLParam(r, "sessionID"), resp)
	if err != nil {
		s.fail(w, "Advance failed", err)
		return
	}
	s.respondSession(w, r, state, http.StatusOK)
}

// Finish handles POST /sessions/{sessionID}/finish.
func (s *Server) Finish(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Finish(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, "Finish failed", err)
		return
	}
	s.respondSession(w, r, state, http.StatusOK)
}

// GetSummary handles GET /sessions/{sessionID}/summary.
func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Load(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, "Load session failed", err)
		return
	}
	nodes, err := s.sessions.Nodes(r.Context(), state.ModuleID)
	if err != nil {
		s.fail(w, "Load module failed", err)
		return
	}
	writeJSON(w, http.StatusOK, player.Summary(nodes, state))
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.fail(w, "Delete session failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, state *domain.State, status int) {
	nodes, err := s.sessions.Nodes(r.Context(), state.ModuleID)
	if err != nil {
		s.fail(w, "Load module failed", err)
		return
	}
	view, err := s.sessions.Engine().Render(r.Context(), nodes, state)
	if err != nil {
		s.fail(w, "Render failed", err)
		return
	}
	writeJSON(w, status, SessionResponse{State: state, View: view})
}
