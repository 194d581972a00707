package service

import (
	"context"

	"github.com/LeMaitre4523/quelquechose-v6/internal/entity"
	"github.com/LeMaitre4523/quelquechose-v6/internal/logger"
)

// SetHomeworkDone flips the completion state of one homework item.
//
// The item is located by its stable localID, never by the remote id:
// remote ids are session-scoped, and if the item was cached under a
// different session the whole collection is refetched once before the
// lookup so the patch uses a currently-valid remote id.
//
// The shared collection is only mutated and published after the remote
// acknowledges the patch; on any failure it is left untouched, so the
// observable state never diverges from the remote.
func (s *Service) SetHomeworkDone(ctx context.Context, hw entity.Homework, done bool) bool {
	log := logger.WithComponent("homework-patch")

	homeworks := s.holder.Get()

	// Not on the same session, we fetch again.
	if hw.CachedSessionID != s.client.SessionID() {
		refreshed, err := s.manager.LoadHomework(ctx, true)
		if err != nil {
			log.Errorf("session mismatch refetch failed: %v", err)
			return false
		}
		homeworks = refreshed
	}

	index := -1
	for i := range homeworks {
		if homeworks[i].LocalID == hw.LocalID {
			index = i
			break
		}
	}
	if index == -1 {
		log.Warnf("homework %q not found in collection", hw.LocalID)
		return false
	}

	if err := s.client.PatchHomeworkStatus(ctx, homeworks[index].ID, done); err != nil {
		log.Errorf("remote patch failed: %v", err)
		return false
	}

	homeworks[index].Done = done
	s.holder.Set(homeworks)
	return true
}
