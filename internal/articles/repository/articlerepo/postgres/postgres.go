package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	repo "github.com/Leopold1975/articles_catalog/internal/articles/repository/articlerepo"
	"github.com/Leopold1975/articles_catalog/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

const (
	clearAuthorsQuery = `DELETE FROM article_authors WHERE article_id = $1`
	setAuthorsQuery   = `INSERT INTO article_authors (article_id, user_id)
SELECT $1, id FROM users WHERE username = ANY($2)
ON CONFLICT DO NOTHING`
	clearTagsQuery = `DELETE FROM article_tags WHERE article_id = $1`
)

var articleColumns = []string{ //nolint:gochecknoglobals
	"a.id", "a.identifier", "a.title", "a.abstract", "a.publication_date", "a.owner_id", "u.username",
}

type ArticlesPostgresRepo struct {
	db pgtools.Pool
}

func New(db pgtools.Pool) ArticlesPostgresRepo {
	return ArticlesPostgresRepo{
		db: db,
	}
}

// CreateArticle inserts the article and links its authors and tags in one transaction.
func (ar ArticlesPostgresRepo) CreateArticle(ctx context.Context, //nolint:nonamedreturns
	article models.Article,
) (id int64, err error) {
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "create")
	}()

	query, args, err := pgtools.Psql.Insert("articles").
		Columns("identifier", "title", "abstract", "publication_date", "owner_id").
		Values(article.Identifier, article.Title, article.Abstract, article.PublicationDate, article.OwnerID).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if _, ok := pgtools.IsUniqueViolation(err); ok {
			return 0, repo.ErrAlreadyExists
		}

		return 0, fmt.Errorf("scan error: %w", err)
	}

	if err = setAuthors(ctx, tx, id, article.Authors, false); err != nil {
		return 0, err
	}

	if err = setTags(ctx, tx, id, article.Tags, false); err != nil {
		return 0, err
	}

	return id, nil
}

// UpdateArticle changes the given columns and replaces the given relations atomically.
func (ar ArticlesPostgresRepo) UpdateArticle(ctx context.Context, req repo.UpdateArticleRequest) (err error) {
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "update")
	}()

	set := make(map[string]interface{})

	if req.Identifier != nil {
		set["identifier"] = *req.Identifier
	}

	if req.Title != nil {
		set["title"] = *req.Title
	}

	if req.Abstract != nil {
		set["abstract"] = *req.Abstract
	}

	if req.PublicationDate != nil {
		set["publication_date"] = *req.PublicationDate
	}

	if len(set) != 0 {
		query, args, err := pgtools.Psql.Update("articles").
			SetMap(set).
			Where(squirrel.Eq{"id": req.ID}).ToSql()
		if err != nil {
			return fmt.Errorf("to sql error: %w", err)
		}

		ct, err := tx.Exec(ctx, query, args...)
		if err != nil {
			if _, ok := pgtools.IsUniqueViolation(err); ok {
				return repo.ErrAlreadyExists
			}

			return fmt.Errorf("exec error: %w", err)
		}

		if ct.RowsAffected() == 0 {
			return repo.ErrNotFound
		}
	}

	if req.Authors != nil {
		if err := setAuthors(ctx, tx, req.ID, req.Authors, true); err != nil {
			return err
		}
	}

	if req.Tags != nil {
		if err := setTags(ctx, tx, req.ID, req.Tags, true); err != nil {
			return err
		}
	}

	return nil
}

func (ar ArticlesPostgresRepo) DeleteArticle(ctx context.Context, articleID int64) (err error) {
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "delete")
	}()

	query, args, err := pgtools.Psql.Delete("articles").
		Where(squirrel.Eq{"id": articleID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	return nil
}

// GetArticle returns the article with its authors, tags and comments.
func (ar ArticlesPostgresRepo) GetArticle(ctx context.Context, //nolint:nonamedreturns
	identifier string,
) (article models.Article, err error) {
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return models.Article{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "get")
	}()

	query, args, err := pgtools.Psql.Select(articleColumns...).
		From("articles a").
		Join("users u ON u.id = a.owner_id").
		Where(squirrel.Eq{"a.identifier": identifier}).ToSql()
	if err != nil {
		return models.Article{}, fmt.Errorf("to sql error: %w", err)
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&article.ID, &article.Identifier, &article.Title,
		&article.Abstract, &article.PublicationDate, &article.OwnerID, &article.Owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Article{}, repo.ErrNotFound
		}

		return models.Article{}, fmt.Errorf("scan error: %w", err)
	}

	articles := []models.Article{article}
	if err = loadRelations(ctx, tx, articles, true); err != nil {
		return models.Article{}, err
	}

	return articles[0], nil
}

// ListArticles returns one page of the filtered articles and the size of the whole filtered set.
// A zero Limit returns the whole set.
func (ar ArticlesPostgresRepo) ListArticles(ctx context.Context, //nolint:nonamedreturns
	f repo.Filter,
) (articles []models.Article, count int, err error) {
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "list")
	}()

	if f.Limit != 0 {
		query, args, err := applyFilter(pgtools.Psql.Select("COUNT(*)").From("articles a"), f).ToSql()
		if err != nil {
			return nil, 0, fmt.Errorf("to sql error: %w", err)
		}

		if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
			return nil, 0, fmt.Errorf("scan count error: %w", err)
		}
	}

	sb := applyFilter(pgtools.Psql.Select(articleColumns...).
		From("articles a").
		Join("users u ON u.id = a.owner_id"), f).
		OrderBy(orderBy(f.Ordering)...)

	if f.Offset != 0 {
		sb = sb.Offset(uint64(f.Offset))
	}

	if f.Limit != 0 {
		sb = sb.Limit(uint64(f.Limit))
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query error: %w", err)
	}

	articles = make([]models.Article, 0, 10) //nolint:gomnd

	for rows.Next() {
		var a models.Article

		err = rows.Scan(&a.ID, &a.Identifier, &a.Title, &a.Abstract, &a.PublicationDate, &a.OwnerID, &a.Owner)
		if err != nil {
			rows.Close()

			return nil, 0, fmt.Errorf("scan error %w", err)
		}

		articles = append(articles, a)
	}

	rows.Close()

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	if f.Limit == 0 {
		count = len(articles)
	}

	if err = loadRelations(ctx, tx, articles, f.WithComments); err != nil {
		return nil, 0, err
	}

	return articles, count, nil
}

func (ar ArticlesPostgresRepo) Shutdown(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		ar.db.Close()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("context error: %w", ctx.Err())
	case <-done:
		return nil
	}
}

func applyFilter(sb squirrel.SelectBuilder, f repo.Filter) squirrel.SelectBuilder {
	if f.Year != 0 {
		sb = sb.Where("EXTRACT(YEAR FROM a.publication_date)::int = ?", f.Year)
	}

	if f.Month != 0 {
		sb = sb.Where("EXTRACT(MONTH FROM a.publication_date)::int = ?", f.Month)
	}

	if len(f.Authors) != 0 {
		sb = sb.Where(`EXISTS (SELECT 1 FROM article_authors aa JOIN users au ON au.id = aa.user_id
WHERE aa.article_id = a.id AND au.username = ANY(?))`, f.Authors)
	}

	if len(f.Tags) != 0 {
		sb = sb.Where(`EXISTS (SELECT 1 FROM article_tags art JOIN tags t ON t.id = art.tag_id
WHERE art.article_id = a.id AND t.name = ANY(?))`, f.Tags)
	}

	if f.Keywords != "" {
		sb = sb.Where(containsText(f.Keywords))
	}

	for _, term := range f.Search {
		sb = sb.Where(containsText(term))
	}

	if len(f.Identifiers) != 0 {
		sb = sb.Where(squirrel.Eq{"a.identifier": f.Identifiers})
	}

	return sb
}

func containsText(s string) squirrel.Or {
	pattern := "%" + pgtools.EscapeLike(s) + "%"

	return squirrel.Or{
		squirrel.ILike{"a.title": pattern},
		squirrel.ILike{"a.abstract": pattern},
	}
}

func orderBy(ordering []string) []string {
	clauses := make([]string, 0, len(ordering)+1)

	for _, o := range ordering {
		dir := "ASC"

		if strings.HasPrefix(o, "-") {
			dir = "DESC"
			o = o[1:]
		}

		switch o {
		case repo.OrderPublicationDate, repo.OrderTitle:
			clauses = append(clauses, "a."+o+" "+dir)
		}
	}

	if len(clauses) == 0 {
		clauses = append(clauses, "a.publication_date DESC")
	}

	return append(clauses, "a.id ASC")
}

func setAuthors(ctx context.Context, tx pgx.Tx, articleID int64, usernames []string, replace bool) error {
	if replace {
		if _, err := tx.Exec(ctx, clearAuthorsQuery, articleID); err != nil {
			return fmt.Errorf("clear authors error: %w", err)
		}
	}

	if len(usernames) == 0 {
		return nil
	}

	if _, err := tx.Exec(ctx, setAuthorsQuery, articleID, usernames); err != nil {
		return fmt.Errorf("set authors error: %w", err)
	}

	return nil
}

// setTags get-or-creates every named tag and links it to the article.
func setTags(ctx context.Context, tx pgx.Tx, articleID int64, names []string, replace bool) error {
	if replace {
		if _, err := tx.Exec(ctx, clearTagsQuery, articleID); err != nil {
			return fmt.Errorf("clear tags error: %w", err)
		}
	}

	names = unique(names)
	if len(names) == 0 {
		return nil
	}

	ib := pgtools.Psql.Insert("article_tags").Columns("article_id", "tag_id")

	for _, name := range names {
		query, args, err := pgtools.Psql.Insert("tags").
			Columns("name").
			Values(name).
			Suffix("ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id").ToSql()
		if err != nil {
			return fmt.Errorf("to sql error: %w", err)
		}

		var tagID int64
		if err := tx.QueryRow(ctx, query, args...).Scan(&tagID); err != nil {
			return fmt.Errorf("get or create tag %q error: %w", name, err)
		}

		ib = ib.Values(articleID, tagID)
	}

	query, args, err := ib.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("set tags error: %w", err)
	}

	return nil
}

// loadRelations fills authors, tags and optionally comments of the articles in place.
func loadRelations(ctx context.Context, tx pgx.Tx, articles []models.Article, withComments bool) error {
	if len(articles) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(articles))
	index := make(map[int64]int, len(articles))

	for i := range articles {
		ids = append(ids, articles[i].ID)
		index[articles[i].ID] = i
		articles[i].Authors = []string{}
		articles[i].Tags = []string{}

		if withComments {
			articles[i].Comments = []models.Comment{}
		}
	}

	authors := pgtools.Psql.Select("aa.article_id", "u.username").
		From("article_authors aa").
		Join("users u ON u.id = aa.user_id").
		Where("aa.article_id = ANY(?)", ids).
		OrderBy("aa.article_id", "u.id")

	err := scanNames(ctx, tx, authors, func(id int64, name string) {
		articles[index[id]].Authors = append(articles[index[id]].Authors, name)
	})
	if err != nil {
		return fmt.Errorf("load authors error: %w", err)
	}

	tags := pgtools.Psql.Select("art.article_id", "t.name").
		From("article_tags art").
		Join("tags t ON t.id = art.tag_id").
		Where("art.article_id = ANY(?)", ids).
		OrderBy("art.article_id", "t.id")

	err = scanNames(ctx, tx, tags, func(id int64, name string) {
		articles[index[id]].Tags = append(articles[index[id]].Tags, name)
	})
	if err != nil {
		return fmt.Errorf("load tags error: %w", err)
	}

	if !withComments {
		return nil
	}

	query, args, err := pgtools.Psql.Select("c.id", "c.identifiercomment", "c.article_id", "a.identifier",
		"c.user_id", "u.username", "c.content", "c.created_at", "c.updated_at").
		From("comments c").
		Join("articles a ON a.id = c.article_id").
		Join("users u ON u.id = c.user_id").
		Where("c.article_id = ANY(?)", ids).
		OrderBy("c.id").ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query comments error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Comment

		err := rows.Scan(&c.ID, &c.Identifier, &c.ArticleID, &c.Article, &c.UserID, &c.User,
			&c.Content, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("scan comment error: %w", err)
		}

		i := index[c.ArticleID]
		articles[i].Comments = append(articles[i].Comments, c)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	return nil
}

func scanNames(ctx context.Context, tx pgx.Tx, sb squirrel.SelectBuilder, add func(int64, string)) error {
	query, args, err := sb.ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			name string
		)

		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("scan error: %w", err)
		}

		add(id, name)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	return nil
}

func unique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	res := make([]string, 0, len(names))

	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}

		seen[n] = struct{}{}
		res = append(res, n)
	}

	return res
}
