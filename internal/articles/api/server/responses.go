package server

import (
	"net/url"
	"strconv"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	"github.com/Leopold1975/articles_catalog/internal/articles/services/articleservice"
)

type AuthUserResponse struct {
	Token string `json:"token"`
}

type RegisterResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"` //nolint:tagliatelle
	LastName  string `json:"last_name"`  //nolint:tagliatelle
}

type UserResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"` //nolint:tagliatelle
	LastName  string `json:"last_name"`  //nolint:tagliatelle
	Username  string `json:"username"`
}

type CommentResponse struct {
	ID         int64  `json:"id"`
	Identifier string `json:"identifiercomment"`
	Article    string `json:"article"`
	User       string `json:"user"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"` //nolint:tagliatelle
	UpdatedAt  string `json:"updated_at"` //nolint:tagliatelle
}

type ArticleResponse struct {
	ID              int64             `json:"id"`
	Identifier      string            `json:"identifier"`
	Title           string            `json:"title"`
	Abstract        string            `json:"abstract"`
	PublicationDate string            `json:"publication_date"` //nolint:tagliatelle
	AuthorNames     []string          `json:"author_names"`     //nolint:tagliatelle
	TagNames        []string          `json:"tag_names"`        //nolint:tagliatelle
	Owner           string            `json:"owner"`
	Comments        []CommentResponse `json:"comments"`
}

type ListArticlesResponse struct {
	Count    int               `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []ArticleResponse `json:"results"`
}

const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func userResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

func commentResponse(c models.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		Identifier: c.Identifier,
		Article:    c.Article,
		User:       c.User,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:  c.UpdatedAt.UTC().Format(timeLayout),
	}
}

func commentsResponse(comments []models.Comment) []CommentResponse {
	res := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		res = append(res, commentResponse(c))
	}

	return res
}

func articleResponse(a models.Article) ArticleResponse {
	res := ArticleResponse{
		ID:              a.ID,
		Identifier:      a.Identifier,
		Title:           a.Title,
		Abstract:        a.Abstract,
		PublicationDate: a.PublicationDate.Format(models.DateLayout),
		AuthorNames:     a.Authors,
		TagNames:        a.Tags,
		Owner:           a.Owner,
		Comments:        commentsResponse(a.Comments),
	}

	if res.AuthorNames == nil {
		res.AuthorNames = []string{}
	}

	if res.TagNames == nil {
		res.TagNames = []string{}
	}

	return res
}

// listArticlesResponse renders page with next and previous links built from the request URL.
func listArticlesResponse(u *url.URL, page articleservice.Page) ListArticlesResponse {
	res := ListArticlesResponse{
		Count:   page.Count,
		Results: make([]ArticleResponse, 0, len(page.Articles)),
	}

	for _, a := range page.Articles {
		res.Results = append(res.Results, articleResponse(a))
	}

	if page.HasNext() {
		next := pageLink(u, page.Page+1)
		res.Next = &next
	}

	if page.HasPrevious() {
		prev := pageLink(u, page.Page-1)
		res.Previous = &prev
	}

	return res
}

func pageLink(u *url.URL, page int) string {
	link := *u
	q := link.Query()

	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}

	link.RawQuery = q.Encode()

	return link.String()
}
