// Package service is the boundary the presentation layer talks to.
// Every operation converts internal failures into an empty collection,
// nil or false; no error crosses this boundary.
package service

import (
	"context"
	"errors"

	"github.com/LeMaitre4523/quelquechose-v6/internal/cache"
	"github.com/LeMaitre4523/quelquechose-v6/internal/entity"
	"github.com/LeMaitre4523/quelquechose-v6/internal/logger"
	"github.com/LeMaitre4523/quelquechose-v6/internal/provider"
)

// ErrDiscussionNotFound is returned internally when a local discussion
// id matches no thread in the fetched overview.
var ErrDiscussionNotFound = errors.New("discussion not found")

// Service bundles the cache manager, the provider session and the
// shared homework holder behind the published operations.
type Service struct {
	client  provider.Client
	manager *cache.Manager
	holder  *cache.HomeworkHolder
}

func New(client provider.Client, manager *cache.Manager, holder *cache.HomeworkHolder) *Service {
	return &Service{client: client, manager: manager, holder: holder}
}

// Holder exposes the shared homework collection for observers.
func (s *Service) Holder() *cache.HomeworkHolder {
	return s.holder
}

// LoadHomeworks returns the homework collection, serving cache when
// fresh and refetching otherwise, and publishes it to the shared
// holder. An empty result can mean either "no homework" or "first
// fetch failed"; the caller cannot tell the two apart.
func (s *Service) LoadHomeworks(ctx context.Context, force bool) []entity.Homework {
	items, err := s.manager.LoadHomework(ctx, force)
	if err != nil {
		logger.WithComponent("service").Errorf("loadHomeworks: %v", err)
		return []entity.Homework{}
	}
	if items == nil {
		items = []entity.Homework{}
	}
	s.holder.Set(items)
	return items
}

// LoadDiscussions returns the normalized discussion threads, empty on
// failure.
func (s *Service) LoadDiscussions(ctx context.Context) []entity.Discussion {
	items, err := s.manager.LoadDiscussions(ctx)
	if err != nil {
		logger.WithComponent("service").Errorf("loadDiscussions: %v", err)
		return []entity.Discussion{}
	}
	if items == nil {
		items = []entity.Discussion{}
	}
	return items
}

// LoadVieScolaire returns the vie-scolaire document, an empty document
// on failure.
func (s *Service) LoadVieScolaire(ctx context.Context, force bool) entity.VieScolaire {
	doc, err := s.manager.LoadVieScolaire(ctx, force)
	if err != nil {
		logger.WithComponent("service").Errorf("loadVieScolaire: %v", err)
		return entity.VieScolaire{
			Delays:       []entity.Delay{},
			Absences:     []entity.Absence{},
			Punishments:  []entity.Punishment{},
			Observations: []entity.Observation{},
		}
	}
	return doc
}
