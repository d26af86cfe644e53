package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/Leopold1975/articles_catalog/internal/articles/services/articleservice"
	"github.com/Leopold1975/articles_catalog/internal/pkg/validate"
	"github.com/oapi-codegen/runtime"
)

// ListArticlesParams are the query parameters of the article list and export endpoints.
type ListArticlesParams struct {
	Year        *int
	Month       *int
	Authors     *string
	Tags        *string
	Keywords    *string
	Search      *string
	Ordering    *string
	Identifiers *string
	Page        *string
	PageSize    *int
}

func bindListArticlesParams(q url.Values) (ListArticlesParams, error) {
	var params ListArticlesParams

	// Empty values disable their filter.
	nonEmpty := make(url.Values, len(q))

	for k, vs := range q {
		if len(vs) == 1 && vs[0] == "" {
			continue
		}

		nonEmpty[k] = vs
	}

	q = nonEmpty
	ve := &validate.Error{}

	bind := func(name string, dest any) {
		if err := runtime.BindQueryParameter("form", true, false, name, q, dest); err != nil {
			ve.Add(name, "Enter a valid value.")
		}
	}

	bind("year", &params.Year)
	bind("month", &params.Month)
	bind("authors", &params.Authors)
	bind("tags", &params.Tags)
	bind("keywords", &params.Keywords)
	bind("search", &params.Search)
	bind("ordering", &params.Ordering)
	bind("identifiers", &params.Identifiers)
	bind("page", &params.Page)

	// An unusable page size falls back to the default one.
	if err := runtime.BindQueryParameter("form", true, false, "page_size", q, &params.PageSize); err != nil {
		params.PageSize = nil
	}

	if !ve.Empty() {
		return ListArticlesParams{}, ve
	}

	return params, nil
}

// request converts the params. A page that is not a number yields ErrInvalidPage.
func (p ListArticlesParams) request() (articleservice.ListArticlesRequest, error) {
	req := articleservice.ListArticlesRequest{
		Year:        deref(p.Year),
		Month:       deref(p.Month),
		Authors:     deref(p.Authors),
		Tags:        deref(p.Tags),
		Keywords:    deref(p.Keywords),
		Search:      deref(p.Search),
		Ordering:    deref(p.Ordering),
		Identifiers: deref(p.Identifiers),
		Page:        1,
		PageSize:    deref(p.PageSize),
	}

	if p.Page != nil {
		var page int
		if err := runtime.BindStringToObject(*p.Page, &page); err != nil {
			return articleservice.ListArticlesRequest{}, fmt.Errorf("page %q: %w", *p.Page, articleservice.ErrInvalidPage)
		}

		req.Page = page
	}

	return req, nil
}

// queryParam returns a required query parameter or an ErrBadRequest naming it.
func queryParam(r *http.Request, name string) (string, error) {
	var v string

	if err := runtime.BindQueryParameter("form", true, true, name, r.URL.Query(), &v); err != nil || v == "" {
		return "", fmt.Errorf("%w: %s is required", ErrBadRequest, name)
	}

	return v, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}

	return *p
}
