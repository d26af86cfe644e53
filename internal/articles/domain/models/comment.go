package models

import "time"

// CommentIdentifierPrefix starts every generated comment identifier.
const CommentIdentifierPrefix = "comment_"

type Comment struct {
	ID         int64     `json:"id"`
	Identifier string    `json:"identifiercomment"`
	ArticleID  int64     `json:"article_id"` //nolint:tagliatelle
	Article    string    `json:"article"`
	UserID     int64     `json:"user_id"` //nolint:tagliatelle
	User       string    `json:"user"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"` //nolint:tagliatelle
	UpdatedAt  time.Time `json:"updated_at"` //nolint:tagliatelle
}
