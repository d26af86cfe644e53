package server

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// ListArticles returns one page of the filtered articles
// (GET /articles/).
func (s *Server) ListArticles(w http.ResponseWriter, r *http.Request) {
	params, err := bindListArticlesParams(r.URL.Query())
	if err != nil {
		s.handleError(w, err)

		return
	}

	req, err := params.request()
	if err != nil {
		s.handleError(w, err)

		return
	}

	page, err := s.articleService.ListArticles(r.Context(), req)
	if err != nil {
		s.handleError(w, fmt.Errorf("list articles error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, listArticlesResponse(requestURL(r), page))
}

// (POST /articles/).
func (s *Server) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req ArticleRequest

	if err := s.decode(r, &req); err != nil {
		s.handleError(w, err)

		return
	}

	if err := req.requireAll(); err != nil {
		s.handleError(w, err)

		return
	}

	a, err := req.toArticle()
	if err != nil {
		s.handleError(w, fmt.Errorf("%w: %s", ErrBadRequest, err.Error()))

		return
	}

	a, err = s.articleService.CreateArticle(r.Context(), principal(r), a)
	if err != nil {
		s.handleError(w, fmt.Errorf("create article error: %w", err))

		return
	}

	writeJSON(w, http.StatusCreated, articleResponse(a))
}

// (GET /articles/{identifier}/).
func (s *Server) GetArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.articleService.GetArticle(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		s.handleError(w, fmt.Errorf("get article error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, articleResponse(a))
}

// PutArticle replaces every writable field
// (PUT /articles/{identifier}/).
func (s *Server) PutArticle(w http.ResponseWriter, r *http.Request) {
	s.updateArticle(w, r, false)
}

// PatchArticle changes the fields present in the body
// (PATCH /articles/{identifier}/).
func (s *Server) PatchArticle(w http.ResponseWriter, r *http.Request) {
	s.updateArticle(w, r, true)
}

func (s *Server) updateArticle(w http.ResponseWriter, r *http.Request, partial bool) {
	var req ArticleRequest

	if err := s.decode(r, &req); err != nil {
		s.handleError(w, err)

		return
	}

	if !partial {
		if err := req.requireAll(); err != nil {
			s.handleError(w, err)

			return
		}
	}

	upd, err := req.toUpdate()
	if err != nil {
		s.handleError(w, fmt.Errorf("%w: %s", ErrBadRequest, err.Error()))

		return
	}

	a, err := s.articleService.UpdateArticle(r.Context(), principal(r), chi.URLParam(r, "identifier"), upd)
	if err != nil {
		s.handleError(w, fmt.Errorf("update article error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, articleResponse(a))
}

// (DELETE /articles/{identifier}/).
func (s *Server) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	s.deleteArticle(w, r, chi.URLParam(r, "identifier"))
}

// (DELETE /articles/delete_by_identifier/?identifier=X).
func (s *Server) DeleteArticleByIdentifier(w http.ResponseWriter, r *http.Request) {
	identifier, err := queryParam(r, "identifier")
	if err != nil {
		s.handleError(w, err)

		return
	}

	s.deleteArticle(w, r, identifier)
}

func (s *Server) deleteArticle(w http.ResponseWriter, r *http.Request, identifier string) {
	if err := s.articleService.DeleteArticle(r.Context(), principal(r), identifier); err != nil {
		s.handleError(w, fmt.Errorf("delete article error: %w", err))

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DownloadCSV exports every filtered article as an attachment
// (GET /articles/download_csv/).
func (s *Server) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	params, err := bindListArticlesParams(r.URL.Query())
	if err != nil {
		s.handleError(w, err)

		return
	}

	params.Page = nil

	req, err := params.request()
	if err != nil {
		s.handleError(w, err)

		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="articles.csv"`)

	cw := &countingWriter{w: w}

	if err := s.articleService.ExportCSV(r.Context(), req, cw); err != nil {
		if cw.n == 0 {
			w.Header().Del("Content-Disposition")
			s.handleError(w, fmt.Errorf("export csv error: %w", err))

			return
		}

		s.lg.Errorf("write csv error: %s", err.Error())
	}
}

// countingWriter tells whether the response has been started.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)

	return n, err //nolint:wrapcheck
}

// (GET /articles/{identifier}/comments/).
func (s *Server) ArticleComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.articleService.ArticleComments(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		s.handleError(w, fmt.Errorf("article comments error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, commentsResponse(comments))
}

func requestURL(r *http.Request) *url.URL {
	u := *r.URL
	u.Host = r.Host
	u.Scheme = "http"

	if r.TLS != nil {
		u.Scheme = "https"
	}

	return &u
}
