package authservice

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	"github.com/Leopold1975/articles_catalog/internal/articles/repository/userrepo"
	"github.com/Leopold1975/articles_catalog/internal/pkg/config"
	"github.com/Leopold1975/articles_catalog/internal/pkg/validate"
	"github.com/stretchr/testify/suite"
)

type memUsers struct {
	users []models.User
}

func (m *memUsers) CreateUser(_ context.Context, u models.User) (int64, error) {
	for _, e := range m.users {
		if e.Username == u.Username {
			return 0, userrepo.ErrAleradyExists
		}

		if e.Email == u.Email {
			return 0, userrepo.ErrEmailAlreadyExists
		}
	}

	u.ID = int64(len(m.users) + 1)
	m.users = append(m.users, u)

	return u.ID, nil
}

func (m *memUsers) GetUser(_ context.Context, username string) (models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}

	return models.User{}, userrepo.ErrNotFound
}

func (m *memUsers) GetUserByID(_ context.Context, id int64) (models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}

	return models.User{}, userrepo.ErrNotFound
}

func (m *memUsers) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}

	return false, nil
}

func (m *memUsers) ListUsers(context.Context) ([]models.User, error) {
	return m.users, nil
}

type AuthSuite struct {
	suite.Suite
	repo *memUsers
	as   *AuthService
}

func (s *AuthSuite) SetupTest() {
	s.repo = &memUsers{}
	s.as = New(s.repo, config.Auth{TTL: time.Hour, Secret: "secret"})
}

func validRegister() RegisterRequest {
	return RegisterRequest{
		Username:  "alice",
		Password:  "Tr1cky-Sentence",
		Password2: "Tr1cky-Sentence",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Liddell",
	}
}

func (s *AuthSuite) TestRegisterAndLogin() {
	ctx := context.Background()

	u, err := s.as.Register(ctx, validRegister())
	s.Require().NoError(err)
	s.Require().Equal(int64(1), u.ID)
	s.Require().NotEqual("Tr1cky-Sentence", u.PasswordHash)
	s.Require().False(u.Superuser)

	token, err := s.as.Login(ctx, "alice", "Tr1cky-Sentence")
	s.Require().NoError(err)

	p, err := s.as.Authenticate(token)
	s.Require().NoError(err)
	s.Require().Equal(u.ID, p.UserID)
	s.Require().Equal("alice", p.Username)

	_, err = s.as.Login(ctx, "alice", "wrong")
	s.Require().ErrorIs(err, ErrInvalidCredentials)

	_, err = s.as.Login(ctx, "nobody", "wrong")
	s.Require().ErrorIs(err, ErrInvalidCredentials)

	_, err = s.as.Authenticate("garbage")
	s.Require().ErrorIs(err, ErrUnauthorized)
}

func (s *AuthSuite) TestRegisterPasswordMismatch() {
	req := validRegister()
	req.Password2 = "Something-Else1"

	_, err := s.as.Register(context.Background(), req)

	fields, ok := validate.Fields(err)
	s.Require().True(ok)
	s.Require().Equal([]string{msgPasswordMismatch}, fields["password"])
	s.Require().Empty(s.repo.users)
}

func (s *AuthSuite) TestRegisterWeakPassword() {
	req := validRegister()
	req.Password = "1234"
	req.Password2 = "1234"

	_, err := s.as.Register(context.Background(), req)

	fields, ok := validate.Fields(err)
	s.Require().True(ok)
	s.Require().Len(fields["password"], 2)
}

func (s *AuthSuite) TestRegisterMissingFields() {
	_, err := s.as.Register(context.Background(), RegisterRequest{Username: "bob"})

	fields, ok := validate.Fields(err)
	s.Require().True(ok)
	s.Require().Contains(fields, "email")
	s.Require().Contains(fields, "first_name")
	s.Require().Contains(fields, "last_name")
	s.Require().Contains(fields, "password")
}

func (s *AuthSuite) TestRegisterDuplicates() {
	ctx := context.Background()

	_, err := s.as.Register(ctx, validRegister())
	s.Require().NoError(err)

	req := validRegister()
	req.Username = "alice2"

	_, err = s.as.Register(ctx, req)
	fields, ok := validate.Fields(err)
	s.Require().True(ok)
	s.Require().Equal([]string{msgUnique}, fields["email"])

	req = validRegister()
	req.Email = "other@example.com"

	_, err = s.as.Register(ctx, req)
	fields, ok = validate.Fields(err)
	s.Require().True(ok)
	s.Require().Equal([]string{msgUsernameTaken}, fields["username"])
}

func (s *AuthSuite) TestEnsureSuperuser() {
	ctx := context.Background()
	admin := config.Admin{Username: "root", Password: "root-pass", Email: "root@example.com"}

	s.Require().NoError(s.as.EnsureSuperuser(ctx, admin))
	s.Require().NoError(s.as.EnsureSuperuser(ctx, admin))
	s.Require().NoError(s.as.EnsureSuperuser(ctx, config.Admin{}))
	s.Require().Len(s.repo.users, 1)
	s.Require().True(s.repo.users[0].Superuser)

	token, err := s.as.Login(ctx, "root", "root-pass")
	s.Require().NoError(err)

	p, err := s.as.Authenticate(token)
	s.Require().NoError(err)
	s.Require().True(p.Superuser)
}

func (s *AuthSuite) TestGetAndListUsers() {
	ctx := context.Background()

	u, err := s.as.Register(ctx, validRegister())
	s.Require().NoError(err)

	got, err := s.as.GetUser(ctx, u.ID)
	s.Require().NoError(err)
	s.Require().Equal("alice", got.Username)

	_, err = s.as.GetUser(ctx, 99)
	s.Require().ErrorIs(err, ErrNotFound)

	users, err := s.as.ListUsers(ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 1)
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthSuite))
}
