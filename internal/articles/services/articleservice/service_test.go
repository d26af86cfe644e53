package articleservice

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/access"
	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	repo "github.com/Leopold1975/articles_catalog/internal/articles/repository/articlerepo"
	"github.com/Leopold1975/articles_catalog/internal/pkg/validate"
	"github.com/Leopold1975/articles_catalog/pkg/logger"
	"github.com/stretchr/testify/require"
)

type memArticles struct {
	users    map[string]bool
	articles []models.Article
	lastID   int64
	filters  []repo.Filter
	// afterRead runs once, after the next GetArticle has read its result.
	afterRead func()
}

func newMemArticles(users ...string) *memArticles {
	m := &memArticles{users: make(map[string]bool)}
	for _, u := range users {
		m.users[u] = true
	}

	return m
}

func (m *memArticles) known(names []string) []string {
	res := []string{}

	for _, n := range names {
		if m.users[n] && !slices.Contains(res, n) {
			res = append(res, n)
		}
	}

	return res
}

func dedup(names []string) []string {
	res := []string{}

	for _, n := range names {
		if !slices.Contains(res, n) {
			res = append(res, n)
		}
	}

	return res
}

func (m *memArticles) CreateArticle(_ context.Context, a models.Article) (int64, error) {
	for _, e := range m.articles {
		if e.Identifier == a.Identifier {
			return 0, repo.ErrAlreadyExists
		}
	}

	m.lastID++
	a.ID = m.lastID
	a.Authors = m.known(a.Authors)
	a.Tags = dedup(a.Tags)
	a.Comments = []models.Comment{}
	m.articles = append(m.articles, a)

	return a.ID, nil
}

func (m *memArticles) UpdateArticle(_ context.Context, req repo.UpdateArticleRequest) error {
	for i := range m.articles {
		a := &m.articles[i]
		if a.ID != req.ID {
			continue
		}

		if req.Identifier != nil {
			for _, e := range m.articles {
				if e.ID != a.ID && e.Identifier == *req.Identifier {
					return repo.ErrAlreadyExists
				}
			}

			a.Identifier = *req.Identifier
		}

		if req.Title != nil {
			a.Title = *req.Title
		}

		if req.Authors != nil {
			a.Authors = m.known(req.Authors)
		}

		if req.Tags != nil {
			a.Tags = dedup(req.Tags)
		}

		return nil
	}

	return repo.ErrNotFound
}

func (m *memArticles) DeleteArticle(_ context.Context, id int64) error {
	for i, a := range m.articles {
		if a.ID == id {
			m.articles = append(m.articles[:i], m.articles[i+1:]...)

			return nil
		}
	}

	return repo.ErrNotFound
}

func (m *memArticles) GetArticle(_ context.Context, identifier string) (models.Article, error) {
	for _, a := range m.articles {
		if a.Identifier == identifier {
			if f := m.afterRead; f != nil {
				m.afterRead = nil
				f()
			}

			return a, nil
		}
	}

	return models.Article{}, repo.ErrNotFound
}

func (m *memArticles) ListArticles(_ context.Context, f repo.Filter) ([]models.Article, int, error) {
	m.filters = append(m.filters, f)

	var res []models.Article

	for _, a := range m.articles {
		if f.Year != 0 && a.PublicationDate.Year() != f.Year {
			continue
		}

		if len(f.Identifiers) != 0 && !slices.Contains(f.Identifiers, a.Identifier) {
			continue
		}

		res = append(res, a)
	}

	count := len(res)

	if f.Offset < len(res) {
		res = res[f.Offset:]
	} else {
		res = nil
	}

	if f.Limit != 0 && len(res) > f.Limit {
		res = res[:f.Limit]
	}

	return res, count, nil
}

func (m *memArticles) Shutdown(context.Context) error {
	return nil
}

type memCache struct {
	articles map[string]models.Article
	versions map[string]int64
	err      error
}

func newMemCache() *memCache {
	return &memCache{
		articles: make(map[string]models.Article),
		versions: make(map[string]int64),
	}
}

func (c *memCache) GetArticle(_ context.Context, identifier string) (models.Article, error) {
	if c.err != nil {
		return models.Article{}, c.err
	}

	a, ok := c.articles[identifier]
	if !ok {
		return models.Article{}, repo.ErrNotFound
	}

	return a, nil
}

func (c *memCache) ArticleVersions(_ context.Context, identifiers ...string) (map[string]int64, error) {
	if c.err != nil {
		return nil, c.err
	}

	versions := make(map[string]int64, len(identifiers))
	for _, id := range identifiers {
		versions[id] = c.versions[id]
	}

	return versions, nil
}

func (c *memCache) SetArticle(_ context.Context, a models.Article, version int64) error {
	if c.versions[a.Identifier] != version {
		return repo.ErrStale
	}

	c.articles[a.Identifier] = a

	return nil
}

func (c *memCache) DeleteArticle(_ context.Context, identifiers ...string) error {
	for _, id := range identifiers {
		delete(c.articles, id)
		c.versions[id]++
	}

	return nil
}

var (
	alice = access.Principal{UserID: 1, Username: "alice"}
	bob   = access.Principal{UserID: 2, Username: "bob"}
	admin = access.Principal{UserID: 3, Username: "admin", Superuser: true}
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newService(t *testing.T) (*ArticleService, *memArticles, *memCache) {
	t.Helper()

	r := newMemArticles("alice", "bob", "carol")
	c := newMemCache()

	return New(r, c, logger.NewNop()), r, c
}

func TestCreateArticle(t *testing.T) {
	as, _, _ := newService(t)
	ctx := context.Background()

	a, err := as.CreateArticle(ctx, alice, models.Article{
		Identifier:      "a-1",
		Title:           "Go",
		PublicationDate: date(2023, time.May, 4),
		Authors:         []string{"bob", "ghost", "bob", "carol"},
		Tags:            []string{"go", "go", "db"},
		OwnerID:         42,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), a.OwnerID)
	require.Equal(t, "alice", a.Owner)
	require.Equal(t, []string{"bob", "carol"}, a.Authors)
	require.Equal(t, []string{"go", "db"}, a.Tags)

	_, err = as.CreateArticle(ctx, bob, models.Article{Identifier: "a-1"})
	fields, ok := validate.Fields(err)
	require.True(t, ok)
	require.Equal(t, []string{msgIdentifierTaken}, fields["identifier"])
}

func TestUpdateArticlePermissions(t *testing.T) {
	as, _, _ := newService(t)
	ctx := context.Background()

	_, err := as.CreateArticle(ctx, alice, models.Article{Identifier: "a-1", Authors: []string{"bob"}})
	require.NoError(t, err)

	title := "new title"

	_, err = as.UpdateArticle(ctx, bob, "a-1", UpdateArticleRequest{Title: &title})
	require.ErrorIs(t, err, access.ErrForbidden)

	_, err = as.UpdateArticle(ctx, admin, "a-1", UpdateArticleRequest{Title: &title})
	require.ErrorIs(t, err, access.ErrForbidden)

	a, err := as.UpdateArticle(ctx, alice, "a-1", UpdateArticleRequest{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "new title", a.Title)
	require.Equal(t, []string{"bob"}, a.Authors)

	_, err = as.UpdateArticle(ctx, alice, "missing", UpdateArticleRequest{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateArticleRelations(t *testing.T) {
	as, _, _ := newService(t)
	ctx := context.Background()

	_, err := as.CreateArticle(ctx, alice, models.Article{
		Identifier: "a-1",
		Authors:    []string{"bob"},
		Tags:       []string{"go"},
	})
	require.NoError(t, err)

	tags := []string{"db", "sql", "db"}

	for range 2 {
		a, err := as.UpdateArticle(ctx, alice, "a-1", UpdateArticleRequest{Tags: tags})
		require.NoError(t, err)
		require.Equal(t, []string{"db", "sql"}, a.Tags)
		require.Equal(t, []string{"bob"}, a.Authors)
	}

	a, err := as.UpdateArticle(ctx, alice, "a-1", UpdateArticleRequest{Authors: []string{}})
	require.NoError(t, err)
	require.Empty(t, a.Authors)
	require.Equal(t, []string{"db", "sql"}, a.Tags)
}

func TestUpdateArticleIdentifierInvalidatesCache(t *testing.T) {
	as, _, c := newService(t)
	ctx := context.Background()

	_, err := as.CreateArticle(ctx, alice, models.Article{Identifier: "a-1"})
	require.NoError(t, err)
	_, err = as.CreateArticle(ctx, alice, models.Article{Identifier: "a-2"})
	require.NoError(t, err)

	_, err = as.GetArticle(ctx, "a-1")
	require.NoError(t, err)
	require.Contains(t, c.articles, "a-1")

	taken := "a-2"

	_, err = as.UpdateArticle(ctx, alice, "a-1", UpdateArticleRequest{Identifier: &taken})
	_, ok := validate.Fields(err)
	require.True(t, ok)

	renamed := "a-3"

	a, err := as.UpdateArticle(ctx, alice, "a-1", UpdateArticleRequest{Identifier: &renamed})
	require.NoError(t, err)
	require.Equal(t, "a-3", a.Identifier)
	require.NotContains(t, c.articles, "a-1")

	_, err = as.GetArticle(ctx, "a-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteArticle(t *testing.T) {
	as, r, c := newService(t)
	ctx := context.Background()

	for _, id := range []string{"a-1", "a-2"} {
		_, err := as.CreateArticle(ctx, alice, models.Article{Identifier: id})
		require.NoError(t, err)
	}

	_, err := as.GetArticle(ctx, "a-1")
	require.NoError(t, err)

	require.ErrorIs(t, as.DeleteArticle(ctx, bob, "a-1"), access.ErrForbidden)
	require.NoError(t, as.DeleteArticle(ctx, alice, "a-1"))
	require.NotContains(t, c.articles, "a-1")
	require.NoError(t, as.DeleteArticle(ctx, admin, "a-2"))
	require.Empty(t, r.articles)
	require.ErrorIs(t, as.DeleteArticle(ctx, alice, "a-1"), ErrNotFound)

	_, err = as.ArticleComments(ctx, "a-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetArticleRacingDelete(t *testing.T) {
	as, r, c := newService(t)
	ctx := context.Background()

	_, err := as.CreateArticle(ctx, alice, models.Article{Identifier: "a-1"})
	require.NoError(t, err)

	r.afterRead = func() {
		require.NoError(t, as.DeleteArticle(ctx, alice, "a-1"))
	}

	_, err = as.GetArticle(ctx, "a-1")
	require.NoError(t, err)
	require.NotContains(t, c.articles, "a-1")

	_, err = as.ArticleComments(ctx, "a-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetArticleRacingUpdate(t *testing.T) {
	as, r, c := newService(t)
	ctx := context.Background()

	_, err := as.CreateArticle(ctx, alice, models.Article{Identifier: "a-1", Title: "old"})
	require.NoError(t, err)

	title := "new"
	r.afterRead = func() {
		_, err := as.UpdateArticle(ctx, alice, "a-1", UpdateArticleRequest{Title: &title})
		require.NoError(t, err)
	}

	a, err := as.GetArticle(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, "old", a.Title)
	require.NotContains(t, c.articles, "a-1")

	a, err = as.GetArticle(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, "new", a.Title)
	require.Equal(t, "new", c.articles["a-1"].Title)
}

func TestGetArticleCacheFallback(t *testing.T) {
	as, _, c := newService(t)
	ctx := context.Background()

	_, err := as.CreateArticle(ctx, alice, models.Article{Identifier: "a-1", Title: "db"})
	require.NoError(t, err)

	c.articles["a-1"] = models.Article{Identifier: "a-1", Title: "cached"}

	a, err := as.GetArticle(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, "cached", a.Title)

	c.err = errors.New("connection refused")

	a, err = as.GetArticle(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, "db", a.Title)
}

func TestListArticles(t *testing.T) {
	as, r, _ := newService(t)
	ctx := context.Background()

	for i, id := range []string{"a-1", "a-2", "a-3"} {
		_, err := as.CreateArticle(ctx, alice, models.Article{
			Identifier:      id,
			PublicationDate: date(2022+i%2, time.January, 1),
		})
		require.NoError(t, err)
	}

	page, err := as.ListArticles(ctx, ListArticlesRequest{
		Year:     2022,
		Authors:  " bob, ,carol",
		Search:   "go  db,sql",
		Ordering: "title,-publication_date",
		Page:     1,
		PageSize: 500,
	})
	require.NoError(t, err)
	require.Equal(t, 2, page.Count)
	require.Len(t, page.Articles, 2)
	require.Equal(t, MaxPageSize, page.PageSize)
	require.False(t, page.HasNext())
	require.False(t, page.HasPrevious())

	f := r.filters[len(r.filters)-1]
	require.Equal(t, []string{"bob", "carol"}, f.Authors)
	require.Equal(t, []string{"go", "db", "sql"}, f.Search)
	require.Equal(t, []string{"title", "-publication_date"}, f.Ordering)
	require.True(t, f.WithComments)

	page, err = as.ListArticles(ctx, ListArticlesRequest{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Articles, 1)
	require.True(t, page.HasPrevious())
	require.False(t, page.HasNext())

	_, err = as.ListArticles(ctx, ListArticlesRequest{Page: 3, PageSize: 2})
	require.ErrorIs(t, err, ErrInvalidPage)

	_, err = as.ListArticles(ctx, ListArticlesRequest{Page: 0})
	require.ErrorIs(t, err, ErrInvalidPage)

	page, err = as.ListArticles(ctx, ListArticlesRequest{Year: 1999, Page: 1})
	require.NoError(t, err)
	require.Empty(t, page.Articles)
}

func TestExportCSV(t *testing.T) {
	as, r, _ := newService(t)
	ctx := context.Background()

	_, err := as.CreateArticle(ctx, alice, models.Article{
		Identifier:      "a-1",
		Title:           "First, part one",
		Abstract:        "abs",
		PublicationDate: date(2023, time.March, 9),
		Authors:         []string{"bob", "carol"},
		Tags:            []string{"go", "db"},
	})
	require.NoError(t, err)

	for _, id := range []string{"a-2", "a-3"} {
		_, err = as.CreateArticle(ctx, alice, models.Article{Identifier: id, PublicationDate: date(2023, time.April, 1)})
		require.NoError(t, err)
	}

	var buf bytes.Buffer

	require.NoError(t, as.ExportCSV(ctx, ListArticlesRequest{Identifiers: "a-1, a-2"}, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, csvHeader, records[0])
	require.Equal(t, []string{"a-1", "First, part one", "bob, carol", "abs", "2023-03-09", "go, db"}, records[1])
	require.Equal(t, "a-2", records[2][0])

	f := r.filters[len(r.filters)-1]
	require.Zero(t, f.Limit)
	require.Zero(t, f.Offset)
}

func TestBackgroundRefresh(t *testing.T) {
	as, _, c := newService(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := as.CreateArticle(ctx, alice, models.Article{Identifier: "a-1"})
	require.NoError(t, err)

	done := make(chan struct{})

	go func() {
		as.BackgroundRefresh(ctx, time.Hour)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh did not stop")
	}

	require.Contains(t, c.articles, "a-1")
}
