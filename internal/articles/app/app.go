package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Leopold1975/articles_catalog/internal/articles/api/server"
	"github.com/Leopold1975/articles_catalog/internal/articles/repository/articlecache/redis"
	ar "github.com/Leopold1975/articles_catalog/internal/articles/repository/articlerepo/postgres"
	cr "github.com/Leopold1975/articles_catalog/internal/articles/repository/commentrepo/postgres"
	tr "github.com/Leopold1975/articles_catalog/internal/articles/repository/tagrepo/postgres"
	ur "github.com/Leopold1975/articles_catalog/internal/articles/repository/userrepo/postgres"
	"github.com/Leopold1975/articles_catalog/internal/articles/services/articleservice"
	"github.com/Leopold1975/articles_catalog/internal/articles/services/authservice"
	"github.com/Leopold1975/articles_catalog/internal/articles/services/commentservice"
	"github.com/Leopold1975/articles_catalog/internal/articles/services/tagservice"
	"github.com/Leopold1975/articles_catalog/internal/pkg/config"
	"github.com/Leopold1975/articles_catalog/internal/pkg/pgtools"
	"github.com/Leopold1975/articles_catalog/pkg/logger"
)

type Server interface {
	Start(context.Context) error
	Shutdown(context.Context) error
}

type ArticlesApp struct {
	s              Server
	articleService *articleservice.ArticleService
	cache          redis.ArticleCache
	lg             logger.Logger
	cfg            config.Config
}

func New(ctx context.Context, cfg config.Config) (ArticlesApp, error) {
	lg, err := logger.New(cfg.Logger)
	if err != nil {
		return ArticlesApp{}, fmt.Errorf("can't get logger error: %w", err)
	}

	db, err := pgtools.New(ctx, cfg.PostgresDB)
	if err != nil {
		return ArticlesApp{}, fmt.Errorf("postgres initializing error: %w", err)
	}

	ac, err := redis.New(ctx, cfg.RedisCache)
	if err != nil {
		db.Close()

		return ArticlesApp{}, fmt.Errorf("redis article cache initializing error: %w", err)
	}

	authService := authservice.New(ur.New(db), cfg.Auth)

	if err := authService.EnsureSuperuser(ctx, cfg.Admin); err != nil {
		db.Close()
		ac.Close() //nolint:errcheck

		return ArticlesApp{}, fmt.Errorf("ensure superuser error: %w", err)
	}

	articleService := articleservice.New(ar.New(db), ac, lg)

	go articleService.BackgroundRefresh(ctx, cfg.RedisCache.ExpTime)

	tagService := tagservice.New(tr.New(db), ac, lg)
	commentService := commentservice.New(cr.New(db), ac, lg)

	s := server.New(cfg.Server, articleService, tagService, commentService, authService, lg)

	return ArticlesApp{
		s:              s,
		articleService: articleService,
		cache:          ac,
		lg:             lg,
		cfg:            cfg,
	}, nil
}

func (aa *ArticlesApp) Run(ctx context.Context) {
	aa.lg.Infof("STARTED SERVER ON %s", aa.cfg.Server.Addr)

	go func() {
		if err := aa.s.Start(ctx); err != nil {
			aa.lg.Errorf("server start error: %s", err.Error())
		}
	}()

	<-ctx.Done()

	ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	if err := aa.Stop(ctxS); err != nil { //nolint:contextcheck
		aa.lg.Errorf("server shutdown error: %s", err.Error())
	}
}

func (aa *ArticlesApp) Stop(ctx context.Context) error {
	if err := aa.s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := aa.articleService.Shutdown(ctx); err != nil {
		return fmt.Errorf("article service shutdown error: %w", err)
	}

	if err := aa.cache.Close(); err != nil {
		return fmt.Errorf("cache close error: %w", err)
	}

	aa.lg.Info("Shutdowned successfully")
	aa.lg.Sync() //nolint:errcheck

	return nil
}
