package postgres

import (
	"context"
	"testing"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	"github.com/Leopold1975/articles_catalog/internal/articles/repository/tagrepo"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/suite"
)

type TagRepoSuite struct {
	suite.Suite
	mock pgxmock.PgxPoolIface
	tr   TagsPostgresRepo
}

func (s *TagRepoSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	s.Require().NoError(err)

	s.mock = mock
	s.tr = New(mock)
}

func (s *TagRepoSuite) TearDownTest() {
	s.Require().NoError(s.mock.ExpectationsWereMet())
	s.mock.Close()
}

func (s *TagRepoSuite) TestCreateTag() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery("INSERT INTO tags").WithArgs("go").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "go"))
	s.mock.ExpectCommit()

	tag, err := s.tr.CreateTag(context.Background(), "go")
	s.Require().NoError(err)
	s.Require().Equal(models.Tag{ID: 1, Name: "go"}, tag)
}

func (s *TagRepoSuite) TestCreateTagDuplicate() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery("INSERT INTO tags").WithArgs("go").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	s.mock.ExpectRollback()

	_, err := s.tr.CreateTag(context.Background(), "go")
	s.Require().ErrorIs(err, tagrepo.ErrAlreadyExists)
}

func (s *TagRepoSuite) TestGetTagNotFound() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery("SELECT id, name FROM tags").WithArgs(int64(4)).WillReturnError(pgx.ErrNoRows)
	s.mock.ExpectRollback()

	_, err := s.tr.GetTag(context.Background(), 4)
	s.Require().ErrorIs(err, tagrepo.ErrNotFound)
}

func (s *TagRepoSuite) TestListTags() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery("SELECT id, name FROM tags ORDER BY id ASC").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "go").AddRow(int64(2), "db"))
	s.mock.ExpectCommit()

	tags, err := s.tr.ListTags(context.Background())
	s.Require().NoError(err)
	s.Require().Len(tags, 2)
	s.Require().Equal("db", tags[1].Name)
}

func (s *TagRepoSuite) TestUpdateTag() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec("UPDATE tags SET name").WithArgs("golang", int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	s.mock.ExpectCommit()
	s.mock.ExpectBegin()
	s.mock.ExpectExec("UPDATE tags SET name").WithArgs("db", int64(1)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	s.mock.ExpectRollback()

	s.Require().NoError(s.tr.UpdateTag(context.Background(), models.Tag{ID: 1, Name: "golang"}))
	s.Require().ErrorIs(s.tr.UpdateTag(context.Background(), models.Tag{ID: 1, Name: "db"}), tagrepo.ErrAlreadyExists)
}

func (s *TagRepoSuite) TestDeleteTag() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec("DELETE FROM tags").WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	s.mock.ExpectRollback()

	s.Require().ErrorIs(s.tr.DeleteTag(context.Background(), 1), tagrepo.ErrNotFound)
}

func TestTagRepoSuite(t *testing.T) {
	suite.Run(t, new(TagRepoSuite))
}
