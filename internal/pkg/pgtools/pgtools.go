package pgtools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/articles_catalog/internal/pkg/config"
	"github.com/Leopold1975/articles_catalog/migrations"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // driver for migrations
	"github.com/pressly/goose/v3"
)

const (
	uniqueViolation = "23505"
	maxDelay        = 10 * time.Second
)

// Pool is the part of *pgxpool.Pool used by repositories.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Psql is the statement builder shared by repositories.
var Psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar) //nolint:gochecknoglobals

// New connects to postgres and applies the embedded migrations.
func New(ctx context.Context, cfg config.PostgresDB) (*pgxpool.Pool, error) {
	db, err := Connect(ctx, cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("connect to db error: %w", err)
	}

	if err := ApplyMigration(cfg); err != nil {
		db.Close()

		return nil, fmt.Errorf("apply migration error: %w", err)
	}

	return db, nil
}

// Connect creates a pool and pings it with a growing delay until postgres
// answers, the delay exceeds maxDelay or ctx is done.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("cannot create db pool error: %w", err)
	}

	delay := time.Second

	for {
		err := db.Ping(ctx)
		if err == nil {
			return db, nil
		}

		if delay > maxDelay {
			db.Close()

			return nil, fmt.Errorf("cannot ping db error: %w", err)
		}

		select {
		case <-ctx.Done():
			db.Close()

			return nil, fmt.Errorf("context error: %w", ctx.Err())
		case <-time.After(delay):
			delay += time.Second
		}
	}
}

func ApplyMigration(cfg config.PostgresDB) error {
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose set dialect error: %w", err)
	}

	connString := "postgres://" + cfg.Username + ":" + cfg.Password + "@" +
		cfg.Addr + "/" + cfg.DB + "?sslmode=" + cfg.SSLmode

	dbM, err := goose.OpenDBWithDriver("pgx", connString)
	if err != nil {
		return fmt.Errorf("goose open pgx db error: %w", err)
	}
	defer dbM.Close()

	if cfg.Reload {
		if err := goose.DownTo(dbM, ".", 0); err != nil {
			return fmt.Errorf("goose down error: %w", err)
		}
	}

	if cfg.Version == 0 {
		if err := goose.Up(dbM, "."); err != nil {
			return fmt.Errorf("goose up error: %w", err)
		}

		return nil
	}

	if err := goose.UpTo(dbM, ".", int64(cfg.Version)); err != nil {
		return fmt.Errorf("goose up error: %w", err)
	}

	return nil
}

func CommitOrRollback(ctx context.Context, tx pgx.Tx, err error, where string) error {
	if err == nil {
		if errT := tx.Commit(ctx); errT != nil {
			err = fmt.Errorf("commit error: %w", errT)
		}
	} else {
		if errT := tx.Rollback(ctx); errT != nil {
			err = fmt.Errorf("%s error: %w rollback error: %w", where, err, errT)
		} else {
			err = fmt.Errorf("%s error: %w", where, err)
		}
	}

	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation,
// returning the violated constraint name.
func IsUniqueViolation(err error) (string, bool) {
	target := new(pgconn.PgError)
	if errors.As(err, &target) && target.Code == uniqueViolation {
		return target.ConstraintName, true
	}

	return "", false
}

// EscapeLike escapes LIKE wildcards so s is matched literally.
func EscapeLike(s string) string {
	r := make([]rune, 0, len(s))

	for _, c := range s {
		if c == '\\' || c == '%' || c == '_' {
			r = append(r, '\\')
		}

		r = append(r, c)
	}

	return string(r)
}
