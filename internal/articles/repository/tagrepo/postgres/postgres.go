package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	"github.com/Leopold1975/articles_catalog/internal/articles/repository/tagrepo"
	"github.com/Leopold1975/articles_catalog/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

type TagsPostgresRepo struct {
	db pgtools.Pool
}

func New(db pgtools.Pool) TagsPostgresRepo {
	return TagsPostgresRepo{
		db: db,
	}
}

func (tr TagsPostgresRepo) CreateTag(ctx context.Context, name string) (tag models.Tag, err error) { //nolint:nonamedreturns
	tx, err := tr.db.Begin(ctx)
	if err != nil {
		return models.Tag{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "create")
	}()

	query, args, err := pgtools.Psql.Insert("tags").
		Columns("name").
		Values(name).
		Suffix("RETURNING id, name").ToSql()
	if err != nil {
		return models.Tag{}, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&tag.ID, &tag.Name); err != nil {
		if _, ok := pgtools.IsUniqueViolation(err); ok {
			return models.Tag{}, tagrepo.ErrAlreadyExists
		}

		return models.Tag{}, fmt.Errorf("scan error: %w", err)
	}

	return tag, nil
}

func (tr TagsPostgresRepo) GetTag(ctx context.Context, id int64) (tag models.Tag, err error) { //nolint:nonamedreturns
	tx, err := tr.db.Begin(ctx)
	if err != nil {
		return models.Tag{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "get")
	}()

	query, args, err := pgtools.Psql.Select("id", "name").
		From("tags").
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return models.Tag{}, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&tag.ID, &tag.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tag{}, tagrepo.ErrNotFound
		}

		return models.Tag{}, fmt.Errorf("scan error: %w", err)
	}

	return tag, nil
}

func (tr TagsPostgresRepo) ListTags(ctx context.Context) (tags []models.Tag, err error) { //nolint:nonamedreturns
	tx, err := tr.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "list")
	}()

	query, args, err := pgtools.Psql.Select("id", "name").
		From("tags").
		OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	tags = make([]models.Tag, 0, 10) //nolint:gomnd

	for rows.Next() {
		var t models.Tag

		if err = rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		tags = append(tags, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tags, nil
}

func (tr TagsPostgresRepo) UpdateTag(ctx context.Context, tag models.Tag) (err error) {
	tx, err := tr.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "update")
	}()

	query, args, err := pgtools.Psql.Update("tags").
		Set("name", tag.Name).
		Where(squirrel.Eq{"id": tag.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		if _, ok := pgtools.IsUniqueViolation(err); ok {
			return tagrepo.ErrAlreadyExists
		}

		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return tagrepo.ErrNotFound
	}

	return nil
}

func (tr TagsPostgresRepo) DeleteTag(ctx context.Context, id int64) (err error) {
	tx, err := tr.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "delete")
	}()

	query, args, err := pgtools.Psql.Delete("tags").
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return tagrepo.ErrNotFound
	}

	return nil
}
