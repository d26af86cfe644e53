package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	"github.com/Leopold1975/articles_catalog/internal/articles/repository/articlerepo"
	"github.com/Leopold1975/articles_catalog/internal/pkg/config"
	"github.com/Leopold1975/articles_catalog/internal/pkg/redistools"
	"github.com/redis/go-redis/v9"
)

type ArticleCache struct {
	rdb     *redis.Client
	expTime time.Duration
}

func New(ctx context.Context, cfg config.RedisCache) (ArticleCache, error) {
	rdb := redis.NewClient(&redis.Options{ //nolint:exhaustruct
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := redistools.Connect(ctx, rdb); err != nil {
		return ArticleCache{}, fmt.Errorf("connect error: %w", err)
	}

	return NewWithClient(rdb, cfg.ExpTime), nil
}

func NewWithClient(rdb *redis.Client, expTime time.Duration) ArticleCache {
	return ArticleCache{
		rdb:     rdb,
		expTime: expTime,
	}
}

func articleKey(identifier string) string {
	return "article:" + identifier
}

func tagKey(name string) string {
	return "tag:" + name + ":articles"
}

func versionKey(identifier string) string {
	return "article:" + identifier + ":version"
}

// ArticleVersions returns the invalidation counters of the identifiers. A read
// from the database may only be cached under the version taken before it.
func (ac ArticleCache) ArticleVersions(ctx context.Context, identifiers ...string) (map[string]int64, error) {
	versions := make(map[string]int64, len(identifiers))
	if len(identifiers) == 0 {
		return versions, nil
	}

	keys := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		keys = append(keys, versionKey(id))
	}

	values, err := ac.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget error: %w", err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			versions[identifiers[i]] = 0

			continue
		}

		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse version error: %w", err)
		}

		versions[identifiers[i]] = n
	}

	return versions, nil
}

// SetArticle stores the read representation and indexes it under every tag, so
// that renaming or deleting a tag can drop the affected entries. It returns
// articlerepo.ErrStale and stores nothing if the article was invalidated after
// version was taken.
func (ac ArticleCache) SetArticle(ctx context.Context, article models.Article, version int64) error {
	articleJSON, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	vKey := versionKey(article.Identifier)

	err = ac.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("get version error: %w", err)
		}

		if current != version {
			return articlerepo.ErrStale
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, articleKey(article.Identifier), articleJSON, ac.expTime)

			for _, tag := range article.Tags {
				pipe.SAdd(ctx, tagKey(tag), article.Identifier)

				if ac.expTime > 0 {
					pipe.Expire(ctx, tagKey(tag), ac.expTime)
				}
			}

			return nil
		})

		return err
	}, vKey)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		return articlerepo.ErrStale
	case errors.Is(err, articlerepo.ErrStale):
		return err
	case err != nil:
		return fmt.Errorf("set error: %w", err)
	}

	return nil
}

func (ac ArticleCache) GetArticle(ctx context.Context, identifier string) (models.Article, error) {
	articleJSON, err := ac.rdb.Get(ctx, articleKey(identifier)).Result()
	if errors.Is(err, redis.Nil) {
		return models.Article{}, articlerepo.ErrNotFound
	} else if err != nil {
		return models.Article{}, fmt.Errorf("get error: %w", err)
	}

	var article models.Article

	if err := json.Unmarshal([]byte(articleJSON), &article); err != nil {
		return models.Article{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return article, nil
}

// DeleteArticle drops the cached articles and bumps their versions, so that
// reads which started before the call can not put them back.
func (ac ArticleCache) DeleteArticle(ctx context.Context, identifiers ...string) error {
	if len(identifiers) == 0 {
		return nil
	}

	pipe := ac.rdb.TxPipeline()

	for _, id := range identifiers {
		pipe.Del(ctx, articleKey(id))
		pipe.Incr(ctx, versionKey(id))

		if ac.expTime > 0 {
			pipe.Expire(ctx, versionKey(id), 2*ac.expTime) //nolint:gomnd
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("del error: %w", err)
	}

	return nil
}

// InvalidateTag drops every cached article indexed under the tag.
func (ac ArticleCache) InvalidateTag(ctx context.Context, name string) error {
	identifiers, err := ac.rdb.SMembers(ctx, tagKey(name)).Result()
	if err != nil {
		return fmt.Errorf("smembers error: %w", err)
	}

	if err := ac.DeleteArticle(ctx, identifiers...); err != nil {
		return err
	}

	if err := ac.rdb.Del(ctx, tagKey(name)).Err(); err != nil {
		return fmt.Errorf("del error: %w", err)
	}

	return nil
}

func (ac ArticleCache) Close() error {
	if err := ac.rdb.Close(); err != nil {
		return fmt.Errorf("close error: %w", err)
	}

	return nil
}
