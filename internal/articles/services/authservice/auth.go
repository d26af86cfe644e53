package authservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/access"
	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	"github.com/Leopold1975/articles_catalog/internal/articles/repository/userrepo"
	"github.com/Leopold1975/articles_catalog/internal/pkg/config"
	"github.com/Leopold1975/articles_catalog/internal/pkg/jwtauth"
	"github.com/Leopold1975/articles_catalog/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgUnique           = "This field must be unique."
	msgUsernameTaken    = "A user with that username already exists."
	msgPasswordMismatch = "Password fields didn't match."
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrUnauthorized       = errors.New("authentication credentials were not provided or are invalid")
)

type AuthService struct {
	userRepo  Repository
	cfg       config.Auth
	validator *validate.Validator
}

type Repository interface {
	CreateUser(context.Context, models.User) (int64, error)
	GetUser(context.Context, string) (models.User, error)
	GetUserByID(context.Context, int64) (models.User, error)
	EmailExists(context.Context, string) (bool, error)
	ListUsers(context.Context) ([]models.User, error)
}

func New(userRepo Repository, cfg config.Auth) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		cfg:       cfg,
		validator: validate.New(),
	}
}

// Register creates a regular user after validating the payload and the password strength.
func (as *AuthService) Register(ctx context.Context, req RegisterRequest) (models.User, error) {
	if err := as.validator.Struct(req); err != nil {
		return models.User{}, err //nolint:wrapcheck
	}

	ve := &validate.Error{}

	if req.Password != req.Password2 {
		ve.Add("password", msgPasswordMismatch)
	}

	for _, p := range validate.PasswordProblems(req.Password,
		validate.Attr{Name: "username", Value: req.Username},
		validate.Attr{Name: "first name", Value: req.FirstName},
		validate.Attr{Name: "last name", Value: req.LastName},
		validate.Attr{Name: "email address", Value: req.Email},
	) {
		ve.Add("password", p)
	}

	exists, err := as.userRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return models.User{}, fmt.Errorf("email exists error: %w", err)
	}

	if exists {
		ve.Add("email", msgUnique)
	}

	if !ve.Empty() {
		return models.User{}, ve
	}

	u := models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	return as.createUser(ctx, u, req.Password)
}

func (as *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := as.userRepo.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return "", ErrInvalidCredentials
		}

		return "", fmt.Errorf("get user error: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := jwtauth.GetToken(u, as.cfg.TTL, as.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("can't get token error: %w", err)
	}

	return token, nil
}

// Authenticate turns a bearer token into the requesting principal.
func (as *AuthService) Authenticate(token string) (access.Principal, error) {
	claims, err := jwtauth.ParseToken(token, as.cfg.Secret)
	if err != nil {
		return access.Principal{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	return access.Principal{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Superuser: claims.Superuser,
	}, nil
}

func (as *AuthService) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, err := as.userRepo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return models.User{}, ErrNotFound
		}

		return models.User{}, fmt.Errorf("get user error: %w", err)
	}

	return u, nil
}

func (as *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := as.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users error: %w", err)
	}

	return users, nil
}

// EnsureSuperuser creates the configured superuser unless a user with that name exists.
func (as *AuthService) EnsureSuperuser(ctx context.Context, admin config.Admin) error {
	if admin.Username == "" {
		return nil
	}

	_, err := as.userRepo.GetUser(ctx, admin.Username)
	if err == nil {
		return nil
	}

	if !errors.Is(err, userrepo.ErrNotFound) {
		return fmt.Errorf("get user error: %w", err)
	}

	u := models.User{
		Username:  admin.Username,
		Email:     admin.Email,
		Superuser: true,
	}

	if _, err := as.createUser(ctx, u, admin.Password); err != nil {
		return fmt.Errorf("create superuser error: %w", err)
	}

	return nil
}

func (as *AuthService) createUser(ctx context.Context, u models.User, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("generate from password error: %w", err)
	}

	u.PasswordHash = string(hash)

	id, err := as.userRepo.CreateUser(ctx, u)
	if err != nil {
		switch {
		case errors.Is(err, userrepo.ErrAleradyExists):
			return models.User{}, validate.NewError("username", msgUsernameTaken)
		case errors.Is(err, userrepo.ErrEmailAlreadyExists):
			return models.User{}, validate.NewError("email", msgUnique)
		}

		return models.User{}, fmt.Errorf("create user error: %w", err)
	}

	u.ID = id

	return u, nil
}
