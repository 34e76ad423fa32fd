package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListMedia handles GET /media.
func (s *Server) ListMedia(w http.ResponseWriter, r *http.Request) {
	objects, err := s.media.List(r.Context())
	if err != nil {
		s.fail(w, "List media failed", err)
		return
	}
	writeJSON(w, http.StatusOK, objects)
}

// UploadMedia handles PUT /media/{name}. The request body is stored as-is.
func (s *Server) UploadMedia(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	obj, err := s.media.Upload(r.Context(), name, r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		s.fail(w, "Upload media failed", err)
		return
	}
	url, err := s.media.PublicURL(r.Context(), name)
	if err != nil {
		s.fail(w, "Resolve media failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"object": obj, "url": url})
}

// DeleteMedia handles DELETE /media/{name}.
func (s *Server) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	if err := s.media.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.fail(w, "Delete media failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
