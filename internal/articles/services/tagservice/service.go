package tagservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	"github.com/Leopold1975/articles_catalog/internal/articles/repository/tagrepo"
	"github.com/Leopold1975/articles_catalog/internal/pkg/validate"
	"github.com/Leopold1975/articles_catalog/pkg/logger"
)

const msgNameTaken = "tag with this name already exists."

var ErrNotFound = errors.New("tag not found")

type TagService struct {
	tagRepo Repository
	cache   Cache
	lg      logger.Logger
}

type Repository interface {
	CreateTag(context.Context, string) (models.Tag, error)
	GetTag(context.Context, int64) (models.Tag, error)
	ListTags(context.Context) ([]models.Tag, error)
	UpdateTag(context.Context, models.Tag) error
	DeleteTag(context.Context, int64) error
}

// Cache drops cached articles that carry a tag.
type Cache interface {
	InvalidateTag(context.Context, string) error
}

func New(tagRepo Repository, cache Cache, lg logger.Logger) *TagService {
	return &TagService{
		tagRepo: tagRepo,
		cache:   cache,
		lg:      lg,
	}
}

func (ts *TagService) CreateTag(ctx context.Context, name string) (models.Tag, error) {
	t, err := ts.tagRepo.CreateTag(ctx, name)
	if err != nil {
		if errors.Is(err, tagrepo.ErrAlreadyExists) {
			return models.Tag{}, validate.NewError("name", msgNameTaken)
		}

		return models.Tag{}, fmt.Errorf("create tag error: %w", err)
	}

	return t, nil
}

func (ts *TagService) GetTag(ctx context.Context, id int64) (models.Tag, error) {
	t, err := ts.tagRepo.GetTag(ctx, id)
	if err != nil {
		if errors.Is(err, tagrepo.ErrNotFound) {
			return models.Tag{}, ErrNotFound
		}

		return models.Tag{}, fmt.Errorf("get tag error: %w", err)
	}

	return t, nil
}

func (ts *TagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := ts.tagRepo.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags error: %w", err)
	}

	return tags, nil
}

// RenameTag changes the tag name. Cached articles carrying the old name are dropped.
func (ts *TagService) RenameTag(ctx context.Context, id int64, name string) (models.Tag, error) {
	old, err := ts.GetTag(ctx, id)
	if err != nil {
		return models.Tag{}, err
	}

	t := models.Tag{ID: id, Name: name}

	if err := ts.tagRepo.UpdateTag(ctx, t); err != nil {
		switch {
		case errors.Is(err, tagrepo.ErrAlreadyExists):
			return models.Tag{}, validate.NewError("name", msgNameTaken)
		case errors.Is(err, tagrepo.ErrNotFound):
			return models.Tag{}, ErrNotFound
		}

		return models.Tag{}, fmt.Errorf("update tag error: %w", err)
	}

	ts.invalidate(ctx, old.Name)

	return t, nil
}

func (ts *TagService) DeleteTag(ctx context.Context, id int64) error {
	old, err := ts.GetTag(ctx, id)
	if err != nil {
		return err
	}

	if err := ts.tagRepo.DeleteTag(ctx, id); err != nil {
		if errors.Is(err, tagrepo.ErrNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("delete tag error: %w", err)
	}

	ts.invalidate(ctx, old.Name)

	return nil
}

func (ts *TagService) invalidate(ctx context.Context, name string) {
	if err := ts.cache.InvalidateTag(ctx, name); err != nil {
		ts.lg.Errorf("invalidate tag cache error: %s", err.Error())
	}
}
