package articleservice

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/access"
	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	repo "github.com/Leopold1975/articles_catalog/internal/articles/repository/articlerepo"
	"github.com/Leopold1975/articles_catalog/internal/pkg/validate"
	"github.com/Leopold1975/articles_catalog/pkg/logger"
)

const msgIdentifierTaken = "article with this identifier already exists."

var (
	ErrNotFound    = errors.New("article not found")
	ErrInvalidPage = errors.New("invalid page")
)

var csvHeader = []string{"Identifier", "Title", "Authors", "Abstract", "Publication Date", "Tags"} //nolint:gochecknoglobals

type ArticleService struct {
	articleRepo  Repository
	articleCache Cache
	lg           logger.Logger
}

type Repository interface {
	CreateArticle(context.Context, models.Article) (int64, error)
	UpdateArticle(context.Context, repo.UpdateArticleRequest) error
	DeleteArticle(context.Context, int64) error
	GetArticle(context.Context, string) (models.Article, error)
	ListArticles(context.Context, repo.Filter) ([]models.Article, int, error)
	Shutdown(context.Context) error
}

// Cache fills are conditional: SetArticle only succeeds under the version read
// before the database, and DeleteArticle bumps it.
type Cache interface {
	GetArticle(context.Context, string) (models.Article, error)
	ArticleVersions(context.Context, ...string) (map[string]int64, error)
	SetArticle(context.Context, models.Article, int64) error
	DeleteArticle(context.Context, ...string) error
}

// Page is one page of a filtered article list.
type Page struct {
	Articles []models.Article
	Count    int
	Page     int
	PageSize int
}

func (p Page) HasNext() bool {
	return p.Page*p.PageSize < p.Count
}

func (p Page) HasPrevious() bool {
	return p.Page > 1
}

func New(articleRepo Repository, articleCache Cache, lg logger.Logger) *ArticleService {
	return &ArticleService{
		articleRepo:  articleRepo,
		articleCache: articleCache,
		lg:           lg,
	}
}

// CreateArticle stores the article owned by p and returns its read representation.
func (as *ArticleService) CreateArticle(ctx context.Context, p access.Principal, a models.Article) (models.Article, error) {
	a.OwnerID = p.UserID
	a.Owner = p.Username

	if _, err := as.articleRepo.CreateArticle(ctx, a); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			return models.Article{}, validate.NewError("identifier", msgIdentifierTaken)
		}

		return models.Article{}, fmt.Errorf("create article error: %w", err)
	}

	return as.getFromRepo(ctx, a.Identifier)
}

func (as *ArticleService) GetArticle(ctx context.Context, identifier string) (models.Article, error) {
	a, err := as.articleCache.GetArticle(ctx, identifier)
	if err == nil {
		as.lg.Debugf("cache hit: %s", identifier)

		return a, nil
	}

	if !errors.Is(err, repo.ErrNotFound) {
		as.lg.Errorf("get article cache error: %s", err.Error())
	}

	versions, verr := as.articleCache.ArticleVersions(ctx, identifier)
	if verr != nil {
		as.lg.Errorf("get article version error: %s", verr.Error())
	}

	a, err = as.getFromRepo(ctx, identifier)
	if err != nil {
		return models.Article{}, err
	}

	if verr == nil {
		as.fill(ctx, a, versions[identifier])
	}

	return a, nil
}

// ListArticles returns the requested page of the filtered articles. Page must be
// at least 1 and, unless the result is empty, must not lie past the last page.
func (as *ArticleService) ListArticles(ctx context.Context, req ListArticlesRequest) (Page, error) {
	if req.Page < 1 {
		return Page{}, ErrInvalidPage
	}

	size := req.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	size = min(size, MaxPageSize)

	f := filter(req)
	f.Offset = (req.Page - 1) * size
	f.Limit = size
	f.WithComments = true

	articles, count, err := as.articleRepo.ListArticles(ctx, f)
	if err != nil {
		return Page{}, fmt.Errorf("list articles error: %w", err)
	}

	if req.Page > 1 && f.Offset >= count {
		return Page{}, ErrInvalidPage
	}

	return Page{
		Articles: articles,
		Count:    count,
		Page:     req.Page,
		PageSize: size,
	}, nil
}

// UpdateArticle applies req to the article if p owns it.
func (as *ArticleService) UpdateArticle(ctx context.Context, p access.Principal,
	identifier string, req UpdateArticleRequest,
) (models.Article, error) {
	current, err := as.getFromRepo(ctx, identifier)
	if err != nil {
		return models.Article{}, err
	}

	if err := access.CheckArticle(p, current.OwnerID, access.Update); err != nil {
		return models.Article{}, fmt.Errorf("update article %s error: %w", identifier, err)
	}

	err = as.articleRepo.UpdateArticle(ctx, repo.UpdateArticleRequest{
		ID:              current.ID,
		Identifier:      req.Identifier,
		Title:           req.Title,
		Abstract:        req.Abstract,
		PublicationDate: req.PublicationDate,
		Authors:         req.Authors,
		Tags:            req.Tags,
	})
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrAlreadyExists):
			return models.Article{}, validate.NewError("identifier", msgIdentifierTaken)
		case errors.Is(err, repo.ErrNotFound):
			return models.Article{}, ErrNotFound
		}

		return models.Article{}, fmt.Errorf("update article error: %w", err)
	}

	newIdentifier := identifier
	if req.Identifier != nil {
		newIdentifier = *req.Identifier
	}

	as.invalidate(ctx, identifier, newIdentifier)

	return as.getFromRepo(ctx, newIdentifier)
}

// DeleteArticle removes the article and its comments if p owns it or is a superuser.
func (as *ArticleService) DeleteArticle(ctx context.Context, p access.Principal, identifier string) error {
	current, err := as.getFromRepo(ctx, identifier)
	if err != nil {
		return err
	}

	if err := access.CheckArticle(p, current.OwnerID, access.Delete); err != nil {
		return fmt.Errorf("delete article %s error: %w", identifier, err)
	}

	if err := as.articleRepo.DeleteArticle(ctx, current.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("delete article error: %w", err)
	}

	as.invalidate(ctx, identifier)

	return nil
}

// ArticleComments returns the comments of the article, oldest first.
func (as *ArticleService) ArticleComments(ctx context.Context, identifier string) ([]models.Comment, error) {
	a, err := as.GetArticle(ctx, identifier)
	if err != nil {
		return nil, err
	}

	return a.Comments, nil
}

// ExportCSV writes every article matching req, ignoring pagination, as CSV to w.
func (as *ArticleService) ExportCSV(ctx context.Context, req ListArticlesRequest, w io.Writer) error {
	articles, _, err := as.articleRepo.ListArticles(ctx, filter(req))
	if err != nil {
		return fmt.Errorf("list articles error: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header error: %w", err)
	}

	for _, a := range articles {
		err := cw.Write([]string{
			a.Identifier,
			a.Title,
			strings.Join(a.Authors, ", "),
			a.Abstract,
			a.PublicationDate.Format(models.DateLayout),
			strings.Join(a.Tags, ", "),
		})
		if err != nil {
			return fmt.Errorf("write row error: %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush error: %w", err)
	}

	return nil
}

// BackgroundRefresh re-warms the cache with the latest page of articles every interval.
func (as *ArticleService) BackgroundRefresh(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	if err := as.refresh(ctx); err != nil {
		as.lg.Errorf("refresh error: %s", err.Error())
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := as.refresh(ctx); err != nil {
				as.lg.Errorf("refresh error: %s", err.Error())
			}
		}
	}
}

func (as *ArticleService) Shutdown(ctx context.Context) error {
	if err := as.articleRepo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown article repo error: %w", err)
	}

	return nil
}

// refresh picks the latest page, takes the cache versions of its articles and
// only then loads the representations it stores.
func (as *ArticleService) refresh(ctx context.Context) error {
	latest, _, err := as.articleRepo.ListArticles(ctx, repo.Filter{Limit: DefaultPageSize})
	if err != nil {
		return fmt.Errorf("list articles error: %w", err)
	}

	if len(latest) == 0 {
		return nil
	}

	identifiers := make([]string, 0, len(latest))
	for _, a := range latest {
		identifiers = append(identifiers, a.Identifier)
	}

	versions, err := as.articleCache.ArticleVersions(ctx, identifiers...)
	if err != nil {
		return fmt.Errorf("get article versions error: %w", err)
	}

	articles, _, err := as.articleRepo.ListArticles(ctx, repo.Filter{
		Identifiers:  identifiers,
		WithComments: true,
	})
	if err != nil {
		return fmt.Errorf("list articles error: %w", err)
	}

	for _, a := range articles {
		as.fill(ctx, a, versions[a.Identifier])
	}

	return nil
}

func (as *ArticleService) fill(ctx context.Context, a models.Article, version int64) {
	err := as.articleCache.SetArticle(ctx, a, version)

	switch {
	case errors.Is(err, repo.ErrStale):
		as.lg.Debugf("skip stale cache fill: %s", a.Identifier)
	case err != nil:
		as.lg.Errorf("set article cache error: %s", err.Error())
	}
}

func (as *ArticleService) getFromRepo(ctx context.Context, identifier string) (models.Article, error) {
	a, err := as.articleRepo.GetArticle(ctx, identifier)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Article{}, ErrNotFound
		}

		return models.Article{}, fmt.Errorf("get article error: %w", err)
	}

	return a, nil
}

func (as *ArticleService) invalidate(ctx context.Context, identifiers ...string) {
	if err := as.articleCache.DeleteArticle(ctx, identifiers...); err != nil {
		as.lg.Errorf("delete article cache error: %s", err.Error())
	}
}

func filter(req ListArticlesRequest) repo.Filter {
	return repo.Filter{
		Year:        req.Year,
		Month:       req.Month,
		Authors:     SplitList(req.Authors),
		Tags:        SplitList(req.Tags),
		Keywords:    req.Keywords,
		Search:      strings.FieldsFunc(req.Search, func(r rune) bool { return r == ',' || unicode.IsSpace(r) }),
		Identifiers: SplitList(req.Identifiers),
		Ordering:    SplitList(req.Ordering),
	}
}

// SplitList splits a comma-separated parameter, trimming blanks and dropping empty items.
func SplitList(s string) []string {
	var res []string

	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			res = append(res, item)
		}
	}

	return res
}
