package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/access"
	"github.com/Leopold1975/articles_catalog/internal/articles/services/articleservice"
	"github.com/Leopold1975/articles_catalog/internal/articles/services/authservice"
	"github.com/Leopold1975/articles_catalog/internal/articles/services/commentservice"
	"github.com/Leopold1975/articles_catalog/internal/articles/services/tagservice"
	"github.com/Leopold1975/articles_catalog/internal/pkg/validate"
)

var ErrBadRequest = errors.New("bad request")

const (
	msgInvalidInput = "invalid input"
	msgInvalidPage  = "Invalid page."
	msgInternal     = "internal server error"
)

type Error struct {
	Err    string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

func (se Error) ToJSON() []byte {
	b, err := json.Marshal(se)
	if err != nil {
		return []byte(`{"error": "marshal error"}`)
	}

	return b
}

// handleError writes err with the status its kind maps to. Unknown errors are
// logged and reported as 500 without details.
func (s *Server) handleError(w http.ResponseWriter, err error) {
	code, e := errorResponse(err)

	if code == http.StatusInternalServerError {
		s.lg.Errorf("internal error: %s", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(e.ToJSON()) //nolint:errcheck
}

func errorResponse(err error) (int, Error) {
	if fields, ok := validate.Fields(err); ok {
		return http.StatusBadRequest, Error{Err: msgInvalidInput, Fields: fields}
	}

	notFound := []error{
		articleservice.ErrNotFound,
		commentservice.ErrNotFound,
		tagservice.ErrNotFound,
		authservice.ErrNotFound,
	}

	for _, nf := range notFound {
		if errors.Is(err, nf) {
			return http.StatusNotFound, Error{Err: nf.Error()}
		}
	}

	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, Error{Err: err.Error()}
	case errors.Is(err, articleservice.ErrInvalidPage):
		return http.StatusNotFound, Error{Err: msgInvalidPage}
	case errors.Is(err, access.ErrForbidden):
		return http.StatusForbidden, Error{Err: access.ErrForbidden.Error()}
	case errors.Is(err, authservice.ErrInvalidCredentials):
		return http.StatusUnauthorized, Error{Err: authservice.ErrInvalidCredentials.Error()}
	case errors.Is(err, authservice.ErrUnauthorized):
		return http.StatusUnauthorized, Error{Err: authservice.ErrUnauthorized.Error()}
	}

	return http.StatusInternalServerError, Error{Err: msgInternal}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	bts, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(Error{Err: msgInternal}.ToJSON()) //nolint:errcheck

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(bts) //nolint:errcheck
}
