package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	"github.com/Leopold1975/articles_catalog/internal/articles/repository/commentrepo"
	"github.com/Leopold1975/articles_catalog/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

const createCommentQuery = `INSERT INTO comments (identifiercomment, article_id, user_id, content, created_at, updated_at)
SELECT $1, a.id, $2, $3, $4, $4 FROM articles a WHERE a.identifier = $5
RETURNING id, article_id`

var commentColumns = []string{ //nolint:gochecknoglobals
	"c.id", "c.identifiercomment", "c.article_id", "a.identifier",
	"c.user_id", "u.username", "c.content", "c.created_at", "c.updated_at",
}

type CommentsPostgresRepo struct {
	db pgtools.Pool
}

func New(db pgtools.Pool) CommentsPostgresRepo {
	return CommentsPostgresRepo{
		db: db,
	}
}

// CreateComment stores c under the article named by c.Article and returns it with its ids set.
func (cr CommentsPostgresRepo) CreateComment(ctx context.Context, c models.Comment) (_ models.Comment, err error) {
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "create")
	}()

	err = tx.QueryRow(ctx, createCommentQuery, c.Identifier, c.UserID, c.Content, c.CreatedAt, c.Article).
		Scan(&c.ID, &c.ArticleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, commentrepo.ErrArticleNotFound
		}

		return models.Comment{}, fmt.Errorf("scan error: %w", err)
	}

	c.UpdatedAt = c.CreatedAt

	return c, nil
}

func (cr CommentsPostgresRepo) GetComment(ctx context.Context, identifier string) (c models.Comment, err error) { //nolint:nonamedreturns
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "get")
	}()

	query, args, err := selectComments().
		Where(squirrel.Eq{"c.identifiercomment": identifier}).ToSql()
	if err != nil {
		return models.Comment{}, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&c.ID, &c.Identifier, &c.ArticleID, &c.Article,
		&c.UserID, &c.User, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, commentrepo.ErrNotFound
		}

		return models.Comment{}, fmt.Errorf("scan error: %w", err)
	}

	return c, nil
}

func (cr CommentsPostgresRepo) ListComments(ctx context.Context, //nolint:nonamedreturns
	req commentrepo.ListCommentsRequest,
) (comments []models.Comment, err error) {
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "list")
	}()

	sb := selectComments()

	if req.Username != "" {
		sb = sb.Where(squirrel.Eq{"u.username": req.Username})
	}

	if req.ArticleIdentifier != "" {
		sb = sb.Where(squirrel.Eq{"a.identifier": req.ArticleIdentifier})
	}

	query, args, err := sb.OrderBy("c.id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	comments = make([]models.Comment, 0, 10) //nolint:gomnd

	for rows.Next() {
		var c models.Comment

		err = rows.Scan(&c.ID, &c.Identifier, &c.ArticleID, &c.Article,
			&c.UserID, &c.User, &c.Content, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		comments = append(comments, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return comments, nil
}

// UpdateComment changes the content only. updated_at never moves before created_at.
func (cr CommentsPostgresRepo) UpdateComment(ctx context.Context, id int64, content string, updatedAt time.Time) (err error) {
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "update")
	}()

	query, args, err := pgtools.Psql.Update("comments").
		Set("content", content).
		Set("updated_at", squirrel.Expr("GREATEST(created_at, updated_at, ?)", updatedAt)).
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return commentrepo.ErrNotFound
	}

	return nil
}

func (cr CommentsPostgresRepo) DeleteComment(ctx context.Context, id int64) (err error) {
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "delete")
	}()

	query, args, err := pgtools.Psql.Delete("comments").
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return commentrepo.ErrNotFound
	}

	return nil
}

func selectComments() squirrel.SelectBuilder {
	return pgtools.Psql.Select(commentColumns...).
		From("comments c").
		Join("articles a ON a.id = c.article_id").
		Join("users u ON u.id = c.user_id")
}
