package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	"github.com/Leopold1975/articles_catalog/internal/articles/services/articleservice"
	"github.com/Leopold1975/articles_catalog/internal/pkg/validate"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ArticleRequest is the write representation of an article. Nil fields are
// absent from the body.
type ArticleRequest struct {
	Identifier      *string  `json:"identifier"       validate:"omitnil,min=1,max=100"`
	Title           *string  `json:"title"            validate:"omitnil,min=1,max=255"`
	Abstract        *string  `json:"abstract"         validate:"omitnil,min=1"`
	PublicationDate *string  `json:"publication_date" validate:"omitnil,datetime=2006-01-02"` //nolint:tagliatelle
	Authors         []string `json:"authors"          validate:"omitnil,dive,min=1,max=150"`
	Tags            []string `json:"tags"             validate:"omitnil,dive,min=1,max=50"`
}

// requireAll reports every absent field. Create and full update need all of them.
func (ar ArticleRequest) requireAll() error {
	e := &validate.Error{}

	missing := map[string]bool{
		"identifier":       ar.Identifier == nil,
		"title":            ar.Title == nil,
		"abstract":         ar.Abstract == nil,
		"publication_date": ar.PublicationDate == nil,
		"authors":          ar.Authors == nil,
		"tags":             ar.Tags == nil,
	}

	for field, m := range missing {
		if m {
			e.Add(field, validate.MsgRequired)
		}
	}

	if e.Empty() {
		return nil
	}

	return e
}

func (ar ArticleRequest) publicationDate() (*time.Time, error) {
	if ar.PublicationDate == nil {
		return nil, nil //nolint:nilnil
	}

	d, err := time.Parse(models.DateLayout, *ar.PublicationDate)
	if err != nil {
		return nil, fmt.Errorf("parse date error: %w", err)
	}

	return &d, nil
}

// toArticle expects a request that passed requireAll.
func (ar ArticleRequest) toArticle() (models.Article, error) {
	d, err := ar.publicationDate()
	if err != nil {
		return models.Article{}, err
	}

	return models.Article{
		Identifier:      *ar.Identifier,
		Title:           *ar.Title,
		Abstract:        *ar.Abstract,
		PublicationDate: *d,
		Authors:         ar.Authors,
		Tags:            ar.Tags,
	}, nil
}

func (ar ArticleRequest) toUpdate() (articleservice.UpdateArticleRequest, error) {
	d, err := ar.publicationDate()
	if err != nil {
		return articleservice.UpdateArticleRequest{}, err
	}

	return articleservice.UpdateArticleRequest{
		Identifier:      ar.Identifier,
		Title:           ar.Title,
		Abstract:        ar.Abstract,
		PublicationDate: d,
		Authors:         ar.Authors,
		Tags:            ar.Tags,
	}, nil
}

// CommentRequest is the write representation of a comment. The author and the
// identifier are never taken from the client.
type CommentRequest struct {
	Article *string `json:"article" validate:"omitnil,min=1"`
	Content *string `json:"content" validate:"omitnil,min=1"`
}

type TagRequest struct {
	Name *string `json:"name" validate:"required,min=1,max=50"`
}

// decode reads a JSON body into dst and checks its validate tags.
func (s *Server) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: JSON parse error - %s", ErrBadRequest, err.Error())
	}

	if err := s.validator.Struct(dst); err != nil {
		return fmt.Errorf("validate error: %w", err)
	}

	return nil
}
