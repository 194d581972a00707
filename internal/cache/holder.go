package cache

import (
	"encoding/json"
	"sync"

	"github.com/LeMaitre4523/quelquechose-v6/internal/entity"
)

// HomeworkHolder is the process-wide observable value holder for the
// in-memory homework collection read by the presentation layer and
// mutated by the optimistic coordinator. It is injectable rather than a
// package-level singleton so tests and multiple app contexts can own
// their own instance.
type HomeworkHolder struct {
	mu          sync.RWMutex
	items       []entity.Homework
	subscribers []chan []entity.Homework
}

func NewHomeworkHolder() *HomeworkHolder {
	return &HomeworkHolder{}
}

// Get returns a deep copy of the current collection so callers cannot
// mutate shared state behind the holder's back.
func (h *HomeworkHolder) Get() []entity.Homework {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return cloneHomeworks(h.items)
}

// Set replaces the collection and publishes the new value to every
// subscriber. Slow subscribers are skipped rather than blocked on.
func (h *HomeworkHolder) Set(items []entity.Homework) {
	cloned := cloneHomeworks(items)

	h.mu.Lock()
	h.items = cloned
	subscribers := append([]chan []entity.Homework(nil), h.subscribers...)
	h.mu.Unlock()

	for _, sub := range subscribers {
		select {
		case sub <- cloneHomeworks(cloned):
		default:
		}
	}
}

// Subscribe registers an observer. The returned channel receives a deep
// copy of the collection after every Set.
func (h *HomeworkHolder) Subscribe() <-chan []entity.Homework {
	ch := make(chan []entity.Homework, 1)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers = append(h.subscribers, ch)
	return ch
}

// cloneHomeworks deep-copies the collection to avoid shared slices
// between the holder and its callers.
func cloneHomeworks(items []entity.Homework) []entity.Homework {
	if items == nil {
		return nil
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return append([]entity.Homework(nil), items...)
	}
	var out []entity.Homework
	if err := json.Unmarshal(payload, &out); err != nil {
		return append([]entity.Homework(nil), items...)
	}
	return out
}
