package articleservice

import "time"

const (
	DefaultPageSize = 100
	MaxPageSize     = 100
)

// ListArticlesRequest holds the raw filter parameters of an article list or export.
// Authors, Tags and Ordering are comma-separated; Search terms are separated by
// whitespace or commas.
type ListArticlesRequest struct {
	Year        int
	Month       int
	Authors     string
	Tags        string
	Keywords    string
	Search      string
	Ordering    string
	Identifiers string
	Page        int
	PageSize    int
}

// UpdateArticleRequest carries the fields to change. Nil fields are left untouched.
type UpdateArticleRequest struct {
	Identifier      *string
	Title           *string
	Abstract        *string
	PublicationDate *time.Time
	Authors         []string
	Tags            []string
}
