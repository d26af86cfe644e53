package commentservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/access"
	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	"github.com/Leopold1975/articles_catalog/internal/articles/repository/commentrepo"
	"github.com/Leopold1975/articles_catalog/internal/pkg/validate"
	"github.com/Leopold1975/articles_catalog/pkg/logger"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("comment not found")

type CommentService struct {
	commentRepo Repository
	cache       Cache
	lg          logger.Logger
	now         func() time.Time
}

type Repository interface {
	CreateComment(context.Context, models.Comment) (models.Comment, error)
	GetComment(context.Context, string) (models.Comment, error)
	ListComments(context.Context, commentrepo.ListCommentsRequest) ([]models.Comment, error)
	UpdateComment(context.Context, int64, string, time.Time) error
	DeleteComment(context.Context, int64) error
}

// Cache holds article read representations, which embed their comments.
type Cache interface {
	DeleteArticle(context.Context, ...string) error
}

func New(commentRepo Repository, cache Cache, lg logger.Logger) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		cache:       cache,
		lg:          lg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateComment adds a comment by p to the article with the given identifier.
// The comment identifier is generated and the author is always p.
func (cs *CommentService) CreateComment(ctx context.Context, p access.Principal,
	articleIdentifier, content string,
) (models.Comment, error) {
	c := models.Comment{
		Identifier: models.CommentIdentifierPrefix + uuid.NewString(),
		Article:    articleIdentifier,
		UserID:     p.UserID,
		User:       p.Username,
		Content:    content,
		CreatedAt:  cs.now(),
	}

	c, err := cs.commentRepo.CreateComment(ctx, c)
	if err != nil {
		if errors.Is(err, commentrepo.ErrArticleNotFound) {
			return models.Comment{}, validate.NewError("article",
				fmt.Sprintf("Object with identifier=%s does not exist.", articleIdentifier))
		}

		return models.Comment{}, fmt.Errorf("create comment error: %w", err)
	}

	cs.invalidate(ctx, articleIdentifier)

	return c, nil
}

func (cs *CommentService) GetComment(ctx context.Context, identifier string) (models.Comment, error) {
	c, err := cs.commentRepo.GetComment(ctx, identifier)
	if err != nil {
		if errors.Is(err, commentrepo.ErrNotFound) {
			return models.Comment{}, ErrNotFound
		}

		return models.Comment{}, fmt.Errorf("get comment error: %w", err)
	}

	return c, nil
}

func (cs *CommentService) ListComments(ctx context.Context, req commentrepo.ListCommentsRequest) ([]models.Comment, error) {
	comments, err := cs.commentRepo.ListComments(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list comments error: %w", err)
	}

	return comments, nil
}

// UpdateComment replaces the content of a comment written by p.
func (cs *CommentService) UpdateComment(ctx context.Context, p access.Principal,
	identifier, content string,
) (models.Comment, error) {
	c, err := cs.GetComment(ctx, identifier)
	if err != nil {
		return models.Comment{}, err
	}

	if err := access.CheckComment(p, c.UserID, access.Update); err != nil {
		return models.Comment{}, fmt.Errorf("update comment %s error: %w", identifier, err)
	}

	if err := cs.commentRepo.UpdateComment(ctx, c.ID, content, cs.now()); err != nil {
		if errors.Is(err, commentrepo.ErrNotFound) {
			return models.Comment{}, ErrNotFound
		}

		return models.Comment{}, fmt.Errorf("update comment error: %w", err)
	}

	cs.invalidate(ctx, c.Article)

	return cs.GetComment(ctx, identifier)
}

func (cs *CommentService) DeleteComment(ctx context.Context, p access.Principal, identifier string) error {
	c, err := cs.GetComment(ctx, identifier)
	if err != nil {
		return err
	}

	if err := access.CheckComment(p, c.UserID, access.Delete); err != nil {
		return fmt.Errorf("delete comment %s error: %w", identifier, err)
	}

	if err := cs.commentRepo.DeleteComment(ctx, c.ID); err != nil {
		if errors.Is(err, commentrepo.ErrNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("delete comment error: %w", err)
	}

	cs.invalidate(ctx, c.Article)

	return nil
}

func (cs *CommentService) invalidate(ctx context.Context, articleIdentifier string) {
	if err := cs.cache.DeleteArticle(ctx, articleIdentifier); err != nil {
		cs.lg.Errorf("delete article cache error: %s", err.Error())
	}
}
