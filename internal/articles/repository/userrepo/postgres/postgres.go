package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	"github.com/Leopold1975/articles_catalog/internal/articles/repository/userrepo"
	"github.com/Leopold1975/articles_catalog/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

const emailConstraint = "users_email_key"

var userColumns = []string{ //nolint:gochecknoglobals
	"id", "username", "email", "first_name", "last_name", "password_hash", "is_superuser", "date_joined",
}

type UsersPostgresRepo struct {
	db pgtools.Pool
}

func New(db pgtools.Pool) UsersPostgresRepo {
	return UsersPostgresRepo{
		db: db,
	}
}

func (ur UsersPostgresRepo) CreateUser(ctx context.Context, u models.User) (id int64, err error) { //nolint:nonamedreturns
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "create")
	}()

	query, args, err := pgtools.Psql.Insert("users").
		Columns("username", "email", "first_name", "last_name", "password_hash", "is_superuser").
		Values(u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Superuser).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if constraint, ok := pgtools.IsUniqueViolation(err); ok {
			if constraint == emailConstraint {
				return 0, userrepo.ErrEmailAlreadyExists
			}

			return 0, userrepo.ErrAleradyExists
		}

		return 0, fmt.Errorf("scan error: %w", err)
	}

	return id, nil
}

func (ur UsersPostgresRepo) GetUser(ctx context.Context, username string) (models.User, error) {
	return ur.getUser(ctx, squirrel.Eq{"username": username})
}

func (ur UsersPostgresRepo) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	return ur.getUser(ctx, squirrel.Eq{"id": id})
}

func (ur UsersPostgresRepo) EmailExists(ctx context.Context, email string) (exists bool, err error) { //nolint:nonamedreturns
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "email exists")
	}()

	query, args, err := pgtools.Psql.Select("1").
		Prefix("SELECT EXISTS (").
		From("users").
		Where(squirrel.Eq{"email": email}).
		Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("scan error: %w", err)
	}

	return exists, nil
}

func (ur UsersPostgresRepo) ListUsers(ctx context.Context) (users []models.User, err error) { //nolint:nonamedreturns
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "list")
	}()

	query, args, err := pgtools.Psql.Select(userColumns...).
		From("users").
		OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	users = make([]models.User, 0, 10) //nolint:gomnd

	for rows.Next() {
		var u models.User

		err = rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
			&u.PasswordHash, &u.Superuser, &u.DateJoined)
		if err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		users = append(users, u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

func (ur UsersPostgresRepo) getUser(ctx context.Context, where squirrel.Eq) (u models.User, err error) { //nolint:nonamedreturns
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "get")
	}()

	query, args, err := pgtools.Psql.Select(userColumns...).
		From("users").
		Where(where).ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Username, &u.Email, &u.FirstName,
		&u.LastName, &u.PasswordHash, &u.Superuser, &u.DateJoined); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, userrepo.ErrNotFound
		}

		return models.User{}, fmt.Errorf("scan error: %w", err)
	}

	return u, nil
}
