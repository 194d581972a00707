package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LeMaitre4523/quelquechose-v6/internal/logger"
)

// MemoryClient is a Client implementation that keeps everything in
// memory. It is useful for running the daemon without a gateway and
// for development tasks.
type MemoryClient struct {
	mu        sync.RWMutex
	sessionID string
	firstDate time.Time
	auth      Authorizations
	homeworks []Homework
	threads   []*MemoryThread
	viesco    VieScolaire
}

// MemoryThread is the in-memory Thread used by MemoryClient.
type MemoryThread struct {
	mu            sync.RWMutex
	subject       string
	recipientName string
	creator       string
	closed        bool
	unread        int
	messages      []Message
	recipients    []Recipient
}

func NewMemoryClient(sessionID string, firstDate time.Time) *MemoryClient {
	return &MemoryClient{
		sessionID: sessionID,
		firstDate: firstDate,
		auth: Authorizations{
			CanDiscussWithTeachers: true,
			CanDiscussWithStaff:    true,
		},
	}
}

func (m *MemoryClient) SessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// ResetSession replaces the session identifier, invalidating every
// remote id handed out so far. Used to exercise session-mismatch paths.
func (m *MemoryClient) ResetSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionID = sessionID
}

func (m *MemoryClient) FirstDate() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.firstDate
}

func (m *MemoryClient) Authorizations() Authorizations {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.auth
}

// SeedHomework replaces the homework collection.
func (m *MemoryClient) SeedHomework(homeworks []Homework) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.homeworks = append([]Homework(nil), homeworks...)
}

// SeedThread adds a discussion thread with its messages and recipients.
func (m *MemoryClient) SeedThread(subject, recipientName, creator string, messages []Message, recipients []Recipient) *MemoryThread {
	t := &MemoryThread{
		subject:       subject,
		recipientName: recipientName,
		creator:       creator,
		messages:      append([]Message(nil), messages...),
		recipients:    append([]Recipient(nil), recipients...),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads = append(m.threads, t)
	return t
}

// SeedVieScolaire replaces the vie-scolaire document.
func (m *MemoryClient) SeedVieScolaire(v VieScolaire) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viesco = v
}

func (m *MemoryClient) HomeworkForInterval(_ context.Context, start time.Time) ([]Homework, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Homework, 0, len(m.homeworks))
	for _, hw := range m.homeworks {
		if hw.Deadline.Before(start) {
			continue
		}
		out = append(out, hw)
	}
	logger.WithComponent("memory-provider").Debugf("returning %d homeworks from %s", len(out), start.Format("2006-01-02"))
	return out, nil
}

func (m *MemoryClient) PatchHomeworkStatus(_ context.Context, remoteID string, done bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.homeworks {
		if m.homeworks[i].ID == remoteID {
			m.homeworks[i].Done = done
			logger.WithComponent("memory-provider").Debugf("homework %s done=%v", remoteID, done)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown homework id %q", ErrUnavailable, remoteID)
}

func (m *MemoryClient) DiscussionsOverview(_ context.Context) ([]Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Thread, len(m.threads))
	for i, t := range m.threads {
		out[i] = t
	}
	return out, nil
}

func (m *MemoryClient) RecipientsForDiscussionCreation(_ context.Context, kind ResourceKind) ([]Recipient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Recipient
	for _, t := range m.threads {
		for _, r := range t.recipients {
			if r.Kind == kind {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (m *MemoryClient) CreateDiscussion(_ context.Context, subject, content string, recipients []RecipientRef) error {
	if subject == "" {
		return fmt.Errorf("%w: empty discussion subject", ErrUnavailable)
	}
	t := &MemoryThread{
		subject: subject,
		creator: "",
		messages: []Message{{
			ID:                 fmt.Sprintf("msg-%d", time.Now().UnixNano()),
			Content:            content,
			Created:            time.Now(),
			AmountOfRecipients: len(recipients),
		}},
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads = append(m.threads, t)
	return nil
}

func (m *MemoryClient) FetchVieScolaire(_ context.Context) (VieScolaire, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viesco, nil
}

func (t *MemoryThread) Subject() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.subject
}

func (t *MemoryThread) RecipientName() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.recipientName
}

func (t *MemoryThread) Creator() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.creator
}

// Close marks the thread closed; further sends are rejected.
func (t *MemoryThread) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

func (t *MemoryThread) Closed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

func (t *MemoryThread) UnreadCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.unread
}

func (t *MemoryThread) FetchMessages(_ context.Context) ([]Message, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Message(nil), t.messages...), nil
}

func (t *MemoryThread) FetchRecipients(_ context.Context) ([]Recipient, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Recipient(nil), t.recipients...), nil
}

func (t *MemoryThread) Send(_ context.Context, content string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("%w: thread is closed", ErrUnavailable)
	}
	t.messages = append(t.messages, Message{
		ID:      fmt.Sprintf("msg-%d", time.Now().UnixNano()),
		Content: content,
		Created: time.Now(),
	})
	return nil
}
