package pgtools

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestCommitOrRollback(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, CommitOrRollback(ctx, tx, nil, "create"))

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err = mock.Begin(ctx)
	require.NoError(t, err)

	err = CommitOrRollback(ctx, tx, errBoom, "create")
	require.ErrorIs(t, err, errBoom)
	require.EqualError(t, err, "create error: boom")

	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(errors.New("conn lost"))

	tx, err = mock.Begin(ctx)
	require.NoError(t, err)

	err = CommitOrRollback(ctx, tx, errBoom, "update")
	require.ErrorIs(t, err, errBoom)
	require.Contains(t, err.Error(), "rollback error: conn lost")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("exec error: %w", &pgconn.PgError{Code: "23505", ConstraintName: "tags_name_key"})

	constraint, ok := IsUniqueViolation(err)
	require.True(t, ok)
	require.Equal(t, "tags_name_key", constraint)

	_, ok = IsUniqueViolation(&pgconn.PgError{Code: "23503"})
	require.False(t, ok)

	_, ok = IsUniqueViolation(errBoom)
	require.False(t, ok)
}

func TestEscapeLike(t *testing.T) {
	require.Equal(t, `100\%`, EscapeLike("100%"))
	require.Equal(t, `a\_b\\c`, EscapeLike(`a_b\c`))
	require.Equal(t, "plain", EscapeLike("plain"))
}
