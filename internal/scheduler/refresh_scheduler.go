package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/LeMaitre4523/quelquechose-v6/internal/entity"
	"github.com/LeMaitre4523/quelquechose-v6/internal/logger"
)

// Loader is the slice of the service boundary the refresher drives.
type Loader interface {
	LoadHomeworks(ctx context.Context, force bool) []entity.Homework
	LoadVieScolaire(ctx context.Context, force bool) entity.VieScolaire
}

// RefreshScheduler re-runs the daily-freshness check for the homework
// and vie-scolaire families on a fixed interval, so the cache rolls
// over to a new day without waiting for a presentation-layer request.
// Whether a tick actually reaches the provider is decided by the cache
// manager's staleness rule, not here.
//
// NOTE: the per-day flags are in-memory only.
type RefreshScheduler struct {
	loader Loader
	poll   time.Duration
	loc    *time.Location

	mu             sync.Mutex
	lastRefreshDay string
}

func NewRefreshScheduler(loader Loader, poll time.Duration, loc *time.Location) *RefreshScheduler {
	if loc == nil {
		loc = time.Local
	}

	return &RefreshScheduler{
		loader: loader,
		poll:   poll,
		loc:    loc,
	}
}

func (s *RefreshScheduler) Start(ctx context.Context) {
	logger.WithComponent("refresh").Debugf("starting refresh scheduler with interval: %v, timezone: %s", s.poll, s.loc.String())
	ticker := time.NewTicker(s.poll)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("refresh").Info("refresh scheduler stopped")
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

func (s *RefreshScheduler) tick(ctx context.Context) {
	now := time.Now().In(s.loc)
	todayKey := dayKey(now)

	s.mu.Lock()
	firstTickToday := s.lastRefreshDay != todayKey
	s.lastRefreshDay = todayKey
	s.mu.Unlock()

	if firstTickToday {
		logger.WithComponent("refresh").Infof("first refresh tick of %s", todayKey)
	}

	homeworks := s.loader.LoadHomeworks(ctx, false)
	viesco := s.loader.LoadVieScolaire(ctx, false)
	logger.WithComponent("refresh").Debugf("tick done: %d homeworks, %d absences, %d delays",
		len(homeworks), len(viesco.Absences), len(viesco.Delays))
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
