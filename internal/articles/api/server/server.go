package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/access"
	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	"github.com/Leopold1975/articles_catalog/internal/articles/repository/commentrepo"
	"github.com/Leopold1975/articles_catalog/internal/articles/services/articleservice"
	"github.com/Leopold1975/articles_catalog/internal/articles/services/authservice"
	"github.com/Leopold1975/articles_catalog/internal/pkg/config"
	"github.com/Leopold1975/articles_catalog/internal/pkg/validate"
	"github.com/Leopold1975/articles_catalog/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	serv           *http.Server
	articleService ArticleService
	tagService     TagService
	commentService CommentService
	authService    AuthService
	validator      *validate.Validator
	lg             logger.Logger
}

type ArticleService interface {
	CreateArticle(context.Context, access.Principal, models.Article) (models.Article, error)
	GetArticle(context.Context, string) (models.Article, error)
	ListArticles(context.Context, articleservice.ListArticlesRequest) (articleservice.Page, error)
	UpdateArticle(context.Context, access.Principal, string, articleservice.UpdateArticleRequest) (models.Article, error)
	DeleteArticle(context.Context, access.Principal, string) error
	ArticleComments(context.Context, string) ([]models.Comment, error)
	ExportCSV(context.Context, articleservice.ListArticlesRequest, io.Writer) error
}

type TagService interface {
	CreateTag(context.Context, string) (models.Tag, error)
	GetTag(context.Context, int64) (models.Tag, error)
	ListTags(context.Context) ([]models.Tag, error)
	RenameTag(context.Context, int64, string) (models.Tag, error)
	DeleteTag(context.Context, int64) error
}

type CommentService interface {
	CreateComment(context.Context, access.Principal, string, string) (models.Comment, error)
	GetComment(context.Context, string) (models.Comment, error)
	ListComments(context.Context, commentrepo.ListCommentsRequest) ([]models.Comment, error)
	UpdateComment(context.Context, access.Principal, string, string) (models.Comment, error)
	DeleteComment(context.Context, access.Principal, string) error
}

type AuthService interface {
	Register(context.Context, authservice.RegisterRequest) (models.User, error)
	Login(context.Context, string, string) (string, error)
	Authenticate(string) (access.Principal, error)
	GetUser(context.Context, int64) (models.User, error)
	ListUsers(context.Context) ([]models.User, error)
}

func New(cfg config.Server, as ArticleService, ts TagService, cs CommentService,
	authService AuthService, lg logger.Logger,
) *Server {
	s := &Server{
		articleService: as,
		tagService:     ts,
		commentService: cs,
		authService:    authService,
		validator:      validate.New(),
		lg:             lg,
	}

	s.serv = &http.Server{ //nolint:exhaustruct
		Addr:         cfg.Addr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(loggingMiddleware(s.lg))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Post("/register", s.Register)
	r.Post("/login", s.Login)
	r.With(s.authenticate(false)).Get("/user", s.CurrentUser)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate(true))

		r.Get("/users", s.ListUsers)

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", s.ListArticles)
			r.Post("/", s.CreateArticle)
			r.Get("/download_csv", s.DownloadCSV)
			r.Delete("/delete_by_identifier", s.DeleteArticleByIdentifier)

			r.Route("/{identifier}", func(r chi.Router) {
				r.Get("/", s.GetArticle)
				r.Put("/", s.PutArticle)
				r.Patch("/", s.PatchArticle)
				r.Delete("/", s.DeleteArticle)
				r.Get("/comments", s.ArticleComments)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", s.ListTags)
			r.Post("/", s.CreateTag)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetTag)
				r.Put("/", s.UpdateTag)
				r.Patch("/", s.UpdateTag)
				r.Delete("/", s.DeleteTag)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/", s.ListComments)
			r.Post("/", s.CreateComment)
			r.Get("/article_comments", s.CommentsByArticle)

			r.Route("/{identifiercomment}", func(r chi.Router) {
				r.Get("/", s.GetComment)
				r.Put("/", s.PutComment)
				r.Patch("/", s.PatchComment)
				r.Delete("/", s.DeleteComment)
			})
		})
	})

	return r
}

func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case <-ctx.Done():
		ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
		defer cancel()

		if err := s.Shutdown(ctxS); err != nil { //nolint:contextcheck
			return fmt.Errorf("context error: %w server error %w", ctxS.Err(), err)
		}

		if !errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("context cancelled error: %w", ctx.Err())
		}

		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}

		return fmt.Errorf("listen and serve error: %w", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.serv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server error: %w", err)
	}

	return nil
}
