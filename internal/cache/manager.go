package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LeMaitre4523/quelquechose-v6/internal/entity"
	"github.com/LeMaitre4523/quelquechose-v6/internal/logger"
	"github.com/LeMaitre4523/quelquechose-v6/internal/provider"
)

// Manager decides cache validity per entity family and orchestrates
// fetch-or-serve against the provider.
//
// Writes are whole-collection replacements, so concurrent loads during
// the same staleness window cannot corrupt the cache: the last writer
// wins and every caller gets a valid (possibly redundant) result. No
// mutual exclusion is taken around the fetch on purpose.
type Manager struct {
	kv     KV
	client provider.Client
	loc    *time.Location
}

// NewManager wires the manager to its store and provider. loc is the
// timezone used for the daily freshness boundary; nil means time.Local.
func NewManager(kv KV, client provider.Client, loc *time.Location) *Manager {
	if loc == nil {
		loc = time.Local
	}
	return &Manager{kv: kv, client: client, loc: loc}
}

// sameLocalDay reports whether the unix-millisecond timestamp falls on
// the same calendar day as now, both truncated to local midnight.
func (m *Manager) sameLocalDay(tsMillis int64, now time.Time) bool {
	ts := time.UnixMilli(tsMillis).In(m.loc)
	y1, m1, d1 := ts.Date()
	y2, m2, d2 := now.In(m.loc).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// homeworkFresh reports whether EVERY cached item was fetched today. A
// single stale item invalidates the whole collection: homework is
// fetched as one batch per request window, so partial staleness should
// not occur, but the check stays conservative rather than assuming
// batch atomicity.
func (m *Manager) homeworkFresh(cached []entity.Homework, now time.Time) bool {
	for _, hw := range cached {
		if !m.sameLocalDay(hw.CacheTimestamp, now) {
			return false
		}
	}
	return true
}

// LoadHomework serves the homework collection, refetching when the
// cache is stale or force is set. On fetch failure it falls back to the
// last successfully cached collection, even a stale one; an error is
// returned only when there is no cache to fall back to.
func (m *Manager) LoadHomework(ctx context.Context, force bool) ([]entity.Homework, error) {
	log := logger.WithComponent("cache-homework")

	var cached []entity.Homework
	hasCache := true
	if err := m.kv.GetJSON(KeyHomework, &cached); err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			log.Warnf("unreadable homework cache, refetching: %v", err)
		}
		hasCache = false
	}

	if hasCache && !force && m.homeworkFresh(cached, time.Now()) {
		log.Debug("cache is up to date, using it")
		return cached, nil
	}

	log.Debug("fetching new data")
	remotes, err := m.client.HomeworkForInterval(ctx, m.client.FirstDate())
	if err != nil {
		if hasCache {
			log.Infof("fetch failed, recovering with cached collection: %v", err)
			return cached, nil
		}
		return nil, fmt.Errorf("load homework: %w", err)
	}

	sessionID := m.client.SessionID()
	fetchedAt := time.Now()
	data := make([]entity.Homework, 0, len(remotes))
	for _, remote := range remotes {
		hw, err := entity.NormalizeHomework(remote, sessionID, fetchedAt)
		if err != nil {
			// Resilience over completeness: drop the record, keep the batch.
			log.Errorf("skipping homework record: %v", err)
			continue
		}
		data = append(data, hw)
	}

	if err := m.kv.SetJSON(KeyHomework, data); err != nil {
		log.Errorf("failed to write homework cache: %v", err)
	}
	return data, nil
}

// LoadDiscussions fetches the full discussions overview and normalizes
// every thread. Discussions carry no daily validity rule and no cache
// fallback: every call fetches, and a fetch failure propagates so the
// boundary recovers with an empty collection. Threads with an unmapped
// recipient type are skipped; transport failures on any thread fail
// the whole batch.
func (m *Manager) LoadDiscussions(ctx context.Context) ([]entity.Discussion, error) {
	log := logger.WithComponent("cache-discussions")

	data, err := m.fetchDiscussions(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.kv.SetJSON(KeyDiscussions, data); err != nil {
		log.Errorf("failed to write discussions cache: %v", err)
	}
	return data, nil
}

func (m *Manager) fetchDiscussions(ctx context.Context) ([]entity.Discussion, error) {
	log := logger.WithComponent("cache-discussions")

	threads, err := m.client.DiscussionsOverview(ctx)
	if err != nil {
		return nil, fmt.Errorf("load discussions: %w", err)
	}

	data := make([]entity.Discussion, 0, len(threads))
	for _, thread := range threads {
		messages, err := thread.FetchMessages(ctx)
		if err != nil {
			return nil, fmt.Errorf("load discussion messages: %w", err)
		}
		recipients, err := thread.FetchRecipients(ctx)
		if err != nil {
			return nil, fmt.Errorf("load discussion recipients: %w", err)
		}

		discussion, err := entity.NormalizeDiscussion(
			thread.Subject(), thread.RecipientName(), thread.Creator(),
			thread.Closed(), thread.UnreadCount(), messages, recipients,
		)
		if err != nil {
			// Contract error on the mapping table: skip the one thread,
			// keep the batch.
			log.Errorf("skipping discussion %q: %v", thread.Subject(), err)
			continue
		}
		data = append(data, discussion)
	}
	return data, nil
}

// LoadVieScolaire serves the vie-scolaire document, refetching when the
// collection-level fetch timestamp is not from today or force is set.
// Fallback semantics match LoadHomework.
func (m *Manager) LoadVieScolaire(ctx context.Context, force bool) (entity.VieScolaire, error) {
	log := logger.WithComponent("cache-viescolaire")

	var cached entity.VieScolaire
	hasCache := true
	if err := m.kv.GetJSON(KeyVieScolaire, &cached); err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			log.Warnf("unreadable vie-scolaire cache, refetching: %v", err)
		}
		hasCache = false
	}

	if hasCache && !force && m.sameLocalDay(cached.Timestamp, time.Now()) {
		log.Debug("cache is up to date, using it")
		return cached, nil
	}

	remote, err := m.client.FetchVieScolaire(ctx)
	if err != nil {
		if hasCache {
			log.Infof("fetch failed, recovering with cached document: %v", err)
			return cached, nil
		}
		return entity.VieScolaire{}, fmt.Errorf("load vie scolaire: %w", err)
	}

	data, err := entity.NormalizeVieScolaire(remote, time.Now())
	if err != nil {
		if hasCache {
			log.Errorf("normalization failed, recovering with cached document: %v", err)
			return cached, nil
		}
		return entity.VieScolaire{}, err
	}

	if err := m.kv.SetJSON(KeyVieScolaire, data); err != nil {
		log.Errorf("failed to write vie-scolaire cache: %v", err)
	}
	return data, nil
}
