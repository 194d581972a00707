package app

import (
	"context"
	"errors"
	"time"

	"github.com/LeMaitre4523/quelquechose-v6/internal/cache"
	"github.com/LeMaitre4523/quelquechose-v6/internal/config"
	"github.com/LeMaitre4523/quelquechose-v6/internal/logger"
	"github.com/LeMaitre4523/quelquechose-v6/internal/provider"
	"github.com/LeMaitre4523/quelquechose-v6/internal/repository"
	"github.com/LeMaitre4523/quelquechose-v6/internal/scheduler"
	"github.com/LeMaitre4523/quelquechose-v6/internal/service"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config   *config.Config
	Repo     repository.Repository
	Cache    cache.AppStore
	Provider provider.Client
	Service  *service.Service

	BaseCtx context.Context
	Cancel  context.CancelFunc
}

func New(cfg *config.Config, repo repository.Repository, store cache.AppStore, client provider.Client, svc *service.Service) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if repo == nil {
		return nil, errors.New("repo is nil")
	}
	if store == nil {
		return nil, errors.New("cache store is nil")
	}
	if client == nil {
		return nil, errors.New("provider is nil")
	}
	if svc == nil {
		return nil, errors.New("service is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:   cfg,
		Repo:     repo,
		Cache:    store,
		Provider: client,
		Service:  svc,
		BaseCtx:  ctx,
		Cancel:   cancel,
	}, nil
}

func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
}

// StartWatchers launches the cache-file watcher, the persistence
// scheduler and, when enabled, the periodic refresh scheduler.
func (a *App) StartWatchers() error {
	if err := a.Repo.StartWatcher(a.BaseCtx, a.Cache); err != nil {
		return err
	}

	cache.StartPersistenceScheduler(a.BaseCtx, a.Cache, a.Repo, a.Config.Cache.PersistInterval)

	if a.Config.Cache.RefreshEnabled {
		loc := time.Local
		if tz := a.Config.Cache.RefreshTZ; tz != "" && tz != "Local" {
			l, err := time.LoadLocation(tz)
			if err != nil {
				return err
			}
			loc = l
		}

		s := scheduler.NewRefreshScheduler(a.Service, a.Config.Cache.RefreshPoll, loc)
		s.Start(a.BaseCtx)
		logger.WithComponent("app").Infof("refresh scheduler enabled every %v (%s)", a.Config.Cache.RefreshPoll, loc)
	}

	return nil
}
