package server

import (
	"fmt"
	"net/http"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/access"
	"github.com/Leopold1975/articles_catalog/internal/articles/repository/commentrepo"
	"github.com/Leopold1975/articles_catalog/internal/pkg/validate"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ListComments supports user__username and article__identifier filters
// (GET /comments/).
func (s *Server) ListComments(w http.ResponseWriter, r *http.Request) {
	var username, article *string

	q := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "user__username", q, &username); err != nil {
		s.handleError(w, validate.NewError("user__username", "Enter a valid value."))

		return
	}

	if err := runtime.BindQueryParameter("form", true, false, "article__identifier", q, &article); err != nil {
		s.handleError(w, validate.NewError("article__identifier", "Enter a valid value."))

		return
	}

	s.listComments(w, r, commentrepo.ListCommentsRequest{
		Username:          deref(username),
		ArticleIdentifier: deref(article),
	})
}

// (GET /comments/article_comments/?article_identifier=X).
func (s *Server) CommentsByArticle(w http.ResponseWriter, r *http.Request) {
	article, err := queryParam(r, "article_identifier")
	if err != nil {
		s.handleError(w, err)

		return
	}

	s.listComments(w, r, commentrepo.ListCommentsRequest{ArticleIdentifier: article})
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request, req commentrepo.ListCommentsRequest) {
	comments, err := s.commentService.ListComments(r.Context(), req)
	if err != nil {
		s.handleError(w, fmt.Errorf("list comments error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, commentsResponse(comments))
}

// CreateComment posts a comment as the requester
// (POST /comments/).
func (s *Server) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest

	if err := s.decode(r, &req); err != nil {
		s.handleError(w, err)

		return
	}

	ve := &validate.Error{}

	if req.Article == nil {
		ve.Add("article", validate.MsgRequired)
	}

	if req.Content == nil {
		ve.Add("content", validate.MsgRequired)
	}

	if !ve.Empty() {
		s.handleError(w, ve)

		return
	}

	c, err := s.commentService.CreateComment(r.Context(), principal(r), *req.Article, *req.Content)
	if err != nil {
		s.handleError(w, fmt.Errorf("create comment error: %w", err))

		return
	}

	writeJSON(w, http.StatusCreated, commentResponse(c))
}

// (GET /comments/{identifiercomment}/).
func (s *Server) GetComment(w http.ResponseWriter, r *http.Request) {
	c, err := s.commentService.GetComment(r.Context(), chi.URLParam(r, "identifiercomment"))
	if err != nil {
		s.handleError(w, fmt.Errorf("get comment error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, commentResponse(c))
}

// (PUT /comments/{identifiercomment}/).
func (s *Server) PutComment(w http.ResponseWriter, r *http.Request) {
	s.updateComment(w, r, false)
}

// (PATCH /comments/{identifiercomment}/).
func (s *Server) PatchComment(w http.ResponseWriter, r *http.Request) {
	s.updateComment(w, r, true)
}

// updateComment changes the content only; any other field in the body is ignored.
func (s *Server) updateComment(w http.ResponseWriter, r *http.Request, partial bool) {
	identifier := chi.URLParam(r, "identifiercomment")

	var req CommentRequest

	if err := s.decode(r, &req); err != nil {
		s.handleError(w, err)

		return
	}

	if req.Content == nil {
		if !partial {
			s.handleError(w, validate.NewError("content", validate.MsgRequired))

			return
		}

		c, err := s.commentService.GetComment(r.Context(), identifier)
		if err == nil {
			err = access.CheckComment(principal(r), c.UserID, access.Update)
		}

		if err != nil {
			s.handleError(w, fmt.Errorf("update comment error: %w", err))

			return
		}

		writeJSON(w, http.StatusOK, commentResponse(c))

		return
	}

	c, err := s.commentService.UpdateComment(r.Context(), principal(r), identifier, *req.Content)
	if err != nil {
		s.handleError(w, fmt.Errorf("update comment error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, commentResponse(c))
}

// (DELETE /comments/{identifiercomment}/).
func (s *Server) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := s.commentService.DeleteComment(r.Context(), principal(r), chi.URLParam(r, "identifiercomment")); err != nil {
		s.handleError(w, fmt.Errorf("delete comment error: %w", err))

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
