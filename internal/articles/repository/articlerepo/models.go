package articlerepo

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("article not found")
	ErrAlreadyExists = errors.New("article with this identifier already exists")
	// ErrStale is returned by caches refusing a read that raced with a write.
	ErrStale = errors.New("article changed since it was read")
)

// Ordering columns accepted by Filter.Ordering, optionally prefixed with "-".
const (
	OrderPublicationDate = "publication_date"
	OrderTitle           = "title"
)

// Filter is the conjunction of article predicates. Zero values disable a predicate.
type Filter struct {
	Year        int
	Month       int
	Authors     []string
	Tags        []string
	Keywords    string
	Search      []string
	Identifiers []string
	Ordering    []string
	Offset      int
	Limit       int
	// WithComments loads the nested comment list of every article.
	WithComments bool
}

// UpdateArticleRequest carries the changed columns of an article.
// Nil relation slices leave the relation untouched, non-nil ones replace it.
type UpdateArticleRequest struct {
	ID              int64
	Identifier      *string
	Title           *string
	Abstract        *string
	PublicationDate *time.Time
	Authors         []string
	Tags            []string
}
