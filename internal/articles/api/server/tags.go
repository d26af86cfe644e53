package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Leopold1975/articles_catalog/internal/articles/services/tagservice"
	"github.com/go-chi/chi/v5"
)

// (GET /tags/).
func (s *Server) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tagService.ListTags(r.Context())
	if err != nil {
		s.handleError(w, fmt.Errorf("list tags error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, tags)
}

// (POST /tags/).
func (s *Server) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest

	if err := s.decode(r, &req); err != nil {
		s.handleError(w, err)

		return
	}

	t, err := s.tagService.CreateTag(r.Context(), *req.Name)
	if err != nil {
		s.handleError(w, fmt.Errorf("create tag error: %w", err))

		return
	}

	writeJSON(w, http.StatusCreated, t)
}

// (GET /tags/{id}/).
func (s *Server) GetTag(w http.ResponseWriter, r *http.Request) {
	id, err := tagID(r)
	if err != nil {
		s.handleError(w, err)

		return
	}

	t, err := s.tagService.GetTag(r.Context(), id)
	if err != nil {
		s.handleError(w, fmt.Errorf("get tag error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, t)
}

// UpdateTag renames the tag. The name is the only field, so PUT and PATCH match
// (PUT|PATCH /tags/{id}/).
func (s *Server) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := tagID(r)
	if err != nil {
		s.handleError(w, err)

		return
	}

	var req TagRequest

	if err := s.decode(r, &req); err != nil {
		s.handleError(w, err)

		return
	}

	t, err := s.tagService.RenameTag(r.Context(), id, *req.Name)
	if err != nil {
		s.handleError(w, fmt.Errorf("update tag error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, t)
}

// (DELETE /tags/{id}/).
func (s *Server) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := tagID(r)
	if err != nil {
		s.handleError(w, err)

		return
	}

	if err := s.tagService.DeleteTag(r.Context(), id); err != nil {
		s.handleError(w, fmt.Errorf("delete tag error: %w", err))

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// tagID parses the path id. Ids that cannot exist are reported as not found.
func tagID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, tagservice.ErrNotFound
	}

	return id, nil
}
