package commentrepo

import "errors"

var (
	ErrNotFound        = errors.New("comment not found")
	ErrArticleNotFound = errors.New("article not found")
)

type ListCommentsRequest struct {
	Username          string
	ArticleIdentifier string
}
