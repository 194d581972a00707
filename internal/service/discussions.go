package service

import (
	"context"
	"fmt"

	"github.com/LeMaitre4523/quelquechose-v6/internal/entity"
	"github.com/LeMaitre4523/quelquechose-v6/internal/logger"
	"github.com/LeMaitre4523/quelquechose-v6/internal/provider"
)

// findThread matches a local discussion id against the fetched overview
// by recomputing the id over each thread's identifying fields. The
// overview is assumed to be the complete unpaginated list; a paginating
// upstream would make this lookup silently miss later pages.
func (s *Service) findThread(ctx context.Context, localID string) (provider.Thread, error) {
	threads, err := s.client.DiscussionsOverview(ctx)
	if err != nil {
		return nil, fmt.Errorf("discussions overview: %w", err)
	}
	for _, thread := range threads {
		if entity.DiscussionLocalID(thread.Subject(), thread.RecipientName(), thread.Creator()) == localID {
			return thread, nil
		}
	}
	return nil, ErrDiscussionNotFound
}

// ReplyToDiscussion sends a message into an existing thread and returns
// the thread's updated message list. Returns nil when the thread cannot
// be found or any provider call fails; no message is sent for an
// unknown thread.
func (s *Service) ReplyToDiscussion(ctx context.Context, localID, content string) []entity.Message {
	log := logger.WithComponent("discussion-reply")

	thread, err := s.findThread(ctx, localID)
	if err != nil {
		log.Errorf("failed to send message: %v", err)
		return nil
	}

	if err := thread.Send(ctx, content); err != nil {
		log.Errorf("failed to send message: %v", err)
		return nil
	}

	messages, err := thread.FetchMessages(ctx)
	if err != nil {
		log.Errorf("message sent but refresh failed: %v", err)
		return nil
	}
	return entity.NormalizeMessages(messages)
}

// DiscussionRecipients returns the display names of everyone in the
// thread, empty on any failure.
func (s *Service) DiscussionRecipients(ctx context.Context, localID string) []string {
	log := logger.WithComponent("discussion-recipients")

	thread, err := s.findThread(ctx, localID)
	if err != nil {
		log.Warnf("error occurred, returning empty list: %v", err)
		return []string{}
	}

	recipients, err := thread.FetchRecipients(ctx)
	if err != nil {
		log.Warnf("error occurred, returning empty list: %v", err)
		return []string{}
	}

	names := make([]string, 0, len(recipients))
	for _, r := range recipients {
		names = append(names, r.Name)
	}
	return names
}

// CreationRecipients lists everyone the session is allowed to open a
// discussion with, honoring the staff/teacher authorizations. Empty on
// failure.
func (s *Service) CreationRecipients(ctx context.Context) []entity.Recipient {
	log := logger.WithComponent("discussion-recipients")

	var kinds []provider.ResourceKind
	auth := s.client.Authorizations()
	if auth.CanDiscussWithStaff {
		kinds = append(kinds, provider.ResourceKindPersonal)
	}
	if auth.CanDiscussWithTeachers {
		kinds = append(kinds, provider.ResourceKindTeacher)
	}

	out := []entity.Recipient{}
	for _, kind := range kinds {
		recipients, err := s.client.RecipientsForDiscussionCreation(ctx, kind)
		if err != nil {
			log.Warnf("error occurred, returning empty list: %v", err)
			return []entity.Recipient{}
		}
		for _, r := range recipients {
			recipient, err := entity.NormalizeRecipient(r)
			if err != nil {
				log.Errorf("skipping recipient %q: %v", r.Name, err)
				continue
			}
			out = append(out, recipient)
		}
	}
	return out
}

// CreateDiscussion opens a new thread with the given recipients.
// Returns false on failure; never raises.
func (s *Service) CreateDiscussion(ctx context.Context, subject, content string, recipients []entity.Recipient) bool {
	log := logger.WithComponent("discussion-create")

	refs := make([]provider.RecipientRef, 0, len(recipients))
	for _, r := range recipients {
		kind, err := entity.RecipientKindToProvider(r.Kind)
		if err != nil {
			log.Errorf("failed to create discussion: %v", err)
			return false
		}
		refs = append(refs, provider.RecipientRef{ID: r.ID, Kind: kind})
	}

	if err := s.client.CreateDiscussion(ctx, subject, content, refs); err != nil {
		log.Errorf("failed to create discussion: %v", err)
		return false
	}
	return true
}
