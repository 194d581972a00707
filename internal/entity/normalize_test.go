package entity

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/LeMaitre4523/quelquechose-v6/internal/provider"
)

var testDeadline = time.Date(2025, 9, 17, 14, 30, 0, 0, time.UTC)

func TestHomeworkLocalID_ShortDescription(t *testing.T) {
	id := HomeworkLocalID("Exercice 3 p.42", "Mathématiques", testDeadline)

	want := "Exercice 3 p.42" + "Ma" + "2025-09-17T14:30:00.000Z"
	if id != want {
		t.Errorf("expected %q, got %q", want, id)
	}
}

func TestHomeworkLocalID_TruncatesDescription(t *testing.T) {
	long := strings.Repeat("a", 50)
	id := HomeworkLocalID(long, "Histoire", testDeadline)

	if !strings.HasPrefix(id, strings.Repeat("a", 20)+"Hi") {
		t.Errorf("expected 20-char description prefix, got %q", id)
	}
	if strings.Contains(id, strings.Repeat("a", 21)) {
		t.Errorf("description not truncated to 20 characters: %q", id)
	}
}

func TestHomeworkLocalID_TruncatesOnRunes(t *testing.T) {
	// Accented characters must count as one character each.
	id := HomeworkLocalID("ééééééééééééééééééééXXX", "Français", testDeadline)

	want := strings.Repeat("é", 20) + "Fr" + "2025-09-17T14:30:00.000Z"
	if id != want {
		t.Errorf("expected %q, got %q", want, id)
	}
}

func TestHomeworkLocalID_MissingSubject(t *testing.T) {
	id := HomeworkLocalID("Lire le chapitre 4", "", testDeadline)

	want := "Lire le chapitre 4" + "??" + "2025-09-17T14:30:00.000Z"
	if id != want {
		t.Errorf("expected %q, got %q", want, id)
	}
}

func TestHomeworkLocalID_Deterministic(t *testing.T) {
	a := HomeworkLocalID("Exercice 3 p.42", "Mathématiques", testDeadline)
	b := HomeworkLocalID("Exercice 3 p.42", "Mathématiques", testDeadline)
	if a != b {
		t.Errorf("same inputs must yield the same id: %q vs %q", a, b)
	}
}

func TestHomeworkLocalID_KnownCollision(t *testing.T) {
	// Two homeworks differing only beyond the 20th character collide.
	// Documented limitation of the derivation, not a bug.
	a := HomeworkLocalID(strings.Repeat("x", 20)+"first", "Ma", testDeadline)
	b := HomeworkLocalID(strings.Repeat("x", 20)+"second", "Ma", testDeadline)
	if a != b {
		t.Errorf("expected colliding ids, got %q vs %q", a, b)
	}
}

func TestHomeworkLocalID_UTCNormalization(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatalf("cannot load location: %v", err)
	}

	utc := HomeworkLocalID("devoir", "Ma", testDeadline)
	local := HomeworkLocalID("devoir", "Ma", testDeadline.In(paris))
	if utc != local {
		t.Errorf("deadline timezone must not change the id: %q vs %q", utc, local)
	}
}

func TestDiscussionLocalID(t *testing.T) {
	tests := []struct {
		name      string
		subject   string
		recipient string
		creator   string
		want      string
	}{
		{
			name:      "with recipient",
			subject:   "Sortie scolaire",
			recipient: "M. Dupont",
			creator:   "Mme Martin",
			want:      "Sortie scolaireM. DupontMme Martin",
		},
		{
			name:    "broadcast",
			subject: "Information générale",
			creator: "Direction",
			want:    "Information générale" + BroadcastRecipient + "Direction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiscussionLocalID(tt.subject, tt.recipient, tt.creator)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalizeHomework(t *testing.T) {
	fetchedAt := time.Date(2025, 9, 16, 8, 0, 0, 0, time.UTC)
	remote := provider.Homework{
		ID:          "remote-42",
		Description: "Exercice 3 p.42",
		Subject: provider.Subject{
			ID:     "subj-1",
			Name:   "Mathématiques",
			Groups: []string{"4A"},
		},
		Deadline:        testDeadline,
		BackgroundColor: "#29947A",
		Themes:          []provider.Theme{{Name: "Fractions"}},
		Attachments: []provider.Attachment{
			{Name: "feuille.pdf", Kind: provider.AttachmentKindFile, URL: "https://files.example/feuille.pdf"},
			{Name: "rappel", Kind: provider.AttachmentKindLink, URL: "https://example.org"},
		},
		Difficulty:      2,
		LengthInMinutes: 30,
	}

	hw, err := NormalizeHomework(remote, "session-1", fetchedAt)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if hw.ID != "remote-42" {
		t.Errorf("unexpected remote id: %q", hw.ID)
	}
	if hw.LocalID != "Exercice 3 p.42Ma2025-09-17T14:30:00.000Z" {
		t.Errorf("unexpected local id: %q", hw.LocalID)
	}
	if hw.CachedSessionID != "session-1" {
		t.Errorf("unexpected session tag: %q", hw.CachedSessionID)
	}
	if hw.CacheTimestamp != fetchedAt.UnixMilli() {
		t.Errorf("unexpected cache timestamp: %d", hw.CacheTimestamp)
	}
	if hw.Date != "2025-09-17T14:30:00.000Z" {
		t.Errorf("unexpected date: %q", hw.Date)
	}
	if len(hw.Themes) != 1 || hw.Themes[0] != "Fractions" {
		t.Errorf("unexpected themes: %v", hw.Themes)
	}
	if len(hw.Attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(hw.Attachments))
	}
	if hw.Attachments[0].Kind != AttachmentFile {
		t.Errorf("expected file attachment, got %q", hw.Attachments[0].Kind)
	}
	if hw.Attachments[1].Kind != AttachmentLink {
		t.Errorf("expected link attachment, got %q", hw.Attachments[1].Kind)
	}
	if hw.Return != nil {
		t.Errorf("expected no return metadata, got %+v", hw.Return)
	}
	if hw.Difficulty != 2 || hw.LengthInMinutes != 30 {
		t.Errorf("unexpected difficulty/length: %d/%d", hw.Difficulty, hw.LengthInMinutes)
	}
}

func TestNormalizeHomework_JSONRoundTrip(t *testing.T) {
	remote := provider.Homework{
		ID:          "remote-42",
		Description: "Exercice 3 p.42",
		Subject: provider.Subject{
			ID:     "subj-1",
			Name:   "Mathématiques",
			Groups: []string{"4A", "4B"},
		},
		Deadline:        testDeadline,
		Done:            true,
		BackgroundColor: "#29947A",
		Themes:          []provider.Theme{{Name: "Fractions"}, {Name: "Décimaux"}},
		Attachments: []provider.Attachment{
			{Name: "feuille.pdf", Kind: provider.AttachmentKindFile, URL: "https://files.example/feuille.pdf"},
			{Name: "rappel", Kind: provider.AttachmentKindLink, URL: "https://example.org"},
		},
		Return:          &provider.HomeworkReturn{Kind: provider.ReturnKindFileUpload, Uploaded: true},
		Difficulty:      2,
		LengthInMinutes: 30,
	}

	hw, err := NormalizeHomework(remote, "session-1", time.Date(2025, 9, 16, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	raw, err := json.Marshal(hw)
	if err != nil {
		t.Fatalf("cannot marshal homework: %v", err)
	}

	var decoded Homework
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("cannot unmarshal homework: %v", err)
	}

	if !reflect.DeepEqual(hw, decoded) {
		t.Errorf("homework changed across a JSON cycle:\nbefore %+v\nafter  %+v", hw, decoded)
	}
	if decoded.Return == nil || decoded.Return.Uploaded == nil || !*decoded.Return.Uploaded {
		t.Errorf("return metadata lost: %+v", decoded.Return)
	}
}

func TestNormalizeHomework_MissingRequiredFields(t *testing.T) {
	base := provider.Homework{
		Description: "devoir",
		Deadline:    testDeadline,
	}

	noDescription := base
	noDescription.Description = ""
	if _, err := NormalizeHomework(noDescription, "s", time.Now()); !errors.Is(err, ErrNormalization) {
		t.Errorf("expected ErrNormalization for missing description, got %v", err)
	}

	noDeadline := base
	noDeadline.Deadline = time.Time{}
	if _, err := NormalizeHomework(noDeadline, "s", time.Now()); !errors.Is(err, ErrNormalization) {
		t.Errorf("expected ErrNormalization for missing deadline, got %v", err)
	}
}

func TestNormalizeHomework_ReturnKinds(t *testing.T) {
	base := provider.Homework{
		Description: "devoir",
		Deadline:    testDeadline,
	}

	paper := base
	paper.Return = &provider.HomeworkReturn{Kind: provider.ReturnKindPaper, Uploaded: true}
	hw, err := NormalizeHomework(paper, "s", time.Now())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if hw.Return == nil || hw.Return.Kind != ReturnPaper {
		t.Fatalf("expected paper return, got %+v", hw.Return)
	}
	if hw.Return.Uploaded != nil {
		t.Error("uploaded flag only applies to file uploads")
	}

	upload := base
	upload.Return = &provider.HomeworkReturn{Kind: provider.ReturnKindFileUpload, Uploaded: true}
	hw, err = NormalizeHomework(upload, "s", time.Now())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if hw.Return == nil || hw.Return.Kind != ReturnFileUpload {
		t.Fatalf("expected file_upload return, got %+v", hw.Return)
	}
	if hw.Return.Uploaded == nil || !*hw.Return.Uploaded {
		t.Error("expected uploaded=true")
	}
}

func TestNormalizeHomework_UnmappedAttachmentKind(t *testing.T) {
	remote := provider.Homework{
		Description: "devoir",
		Deadline:    testDeadline,
		Attachments: []provider.Attachment{
			{Name: "x", Kind: provider.AttachmentKind(99)},
		},
	}

	_, err := NormalizeHomework(remote, "s", time.Now())
	if !errors.Is(err, ErrUnmappedAttachmentKind) {
		t.Errorf("expected ErrUnmappedAttachmentKind, got %v", err)
	}
}

func TestRecipientKindMapping(t *testing.T) {
	tests := []struct {
		remote provider.ResourceKind
		local  RecipientKind
	}{
		{provider.ResourceKindTeacher, RecipientTeacher},
		{provider.ResourceKindStudent, RecipientStudent},
		{provider.ResourceKindPersonal, RecipientPersonal},
	}

	for _, tt := range tests {
		got, err := RecipientKindFromProvider(tt.remote)
		if err != nil {
			t.Errorf("kind %d: unexpected error %v", tt.remote, err)
			continue
		}
		if got != tt.local {
			t.Errorf("kind %d: expected %q, got %q", tt.remote, tt.local, got)
		}

		back, err := RecipientKindToProvider(got)
		if err != nil {
			t.Errorf("kind %q: unexpected reverse error %v", got, err)
			continue
		}
		if back != tt.remote {
			t.Errorf("kind %q: expected %d back, got %d", got, tt.remote, back)
		}
	}
}

func TestRecipientKindMapping_Unknown(t *testing.T) {
	if _, err := RecipientKindFromProvider(provider.ResourceKind(7)); !errors.Is(err, ErrUnmappedRecipientType) {
		t.Errorf("expected ErrUnmappedRecipientType, got %v", err)
	}
	if _, err := RecipientKindToProvider(RecipientKind("robot")); !errors.Is(err, ErrUnmappedRecipientType) {
		t.Errorf("expected ErrUnmappedRecipientType, got %v", err)
	}
}

func TestNormalizeRecipient(t *testing.T) {
	r, err := NormalizeRecipient(provider.Recipient{
		ID:       "r1",
		Kind:     provider.ResourceKindTeacher,
		Name:     "M. Dupont",
		Subjects: []string{"Mathématiques"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.Kind != RecipientTeacher || r.Name != "M. Dupont" {
		t.Errorf("unexpected recipient: %+v", r)
	}
	if len(r.Functions) != 1 || r.Functions[0] != "Mathématiques" {
		t.Errorf("unexpected functions: %v", r.Functions)
	}
}

func TestNormalizeRecipient_NilSubjects(t *testing.T) {
	r, err := NormalizeRecipient(provider.Recipient{ID: "r1", Kind: provider.ResourceKindPersonal, Name: "CPE"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.Functions == nil {
		t.Error("functions must serialize as [] rather than null")
	}
}

func TestNormalizeMessage(t *testing.T) {
	created := time.Date(2025, 9, 10, 9, 15, 0, 0, time.UTC)
	m := NormalizeMessage(provider.Message{
		ID:                 "m1",
		Content:            "<p>Bonjour</p>",
		Author:             "M. Dupont",
		Created:            created,
		AmountOfRecipients: 3,
		Files:              []provider.MessageFile{{Name: "doc.pdf", URL: "https://files.example/doc.pdf"}},
	})

	if m.Timestamp != created.UnixMilli() {
		t.Errorf("unexpected timestamp: %d", m.Timestamp)
	}
	if m.AmountOfRecipients != 3 {
		t.Errorf("unexpected recipient count: %d", m.AmountOfRecipients)
	}
	if len(m.Files) != 1 || m.Files[0].Name != "doc.pdf" {
		t.Errorf("unexpected files: %v", m.Files)
	}
}

func TestNormalizeDiscussion(t *testing.T) {
	first := time.Date(2025, 9, 12, 17, 0, 0, 0, time.UTC)
	messages := []provider.Message{
		{ID: "m2", Content: "réponse", Author: "Moi", Created: first},
		{ID: "m1", Content: "question", Author: "M. Dupont", Created: first.Add(-time.Hour)},
	}
	recipients := []provider.Recipient{
		{ID: "r1", Kind: provider.ResourceKindTeacher, Name: "M. Dupont"},
	}

	d, err := NormalizeDiscussion("Sortie scolaire", "M. Dupont", "Mme Martin", false, 1, messages, recipients)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if d.LocalID != "Sortie scolaireM. DupontMme Martin" {
		t.Errorf("unexpected local id: %q", d.LocalID)
	}
	if d.Timestamp != first.UnixMilli() {
		t.Errorf("thread timestamp must come from the first message, got %d", d.Timestamp)
	}
	if d.Unread != 1 || d.Closed {
		t.Errorf("unexpected flags: unread=%d closed=%v", d.Unread, d.Closed)
	}
	if len(d.Messages) != 2 || d.Messages[0].ID != "m2" {
		t.Errorf("message order must be preserved: %v", d.Messages)
	}
	if len(d.Participants) != 1 || d.Participants[0].Kind != RecipientTeacher {
		t.Errorf("unexpected participants: %v", d.Participants)
	}
}

func TestNormalizeDiscussion_UnmappedRecipientFailsThread(t *testing.T) {
	recipients := []provider.Recipient{
		{ID: "r1", Kind: provider.ResourceKind(99), Name: "???"},
	}

	_, err := NormalizeDiscussion("Sujet", "", "Quelqu'un", false, 0, nil, recipients)
	if !errors.Is(err, ErrUnmappedRecipientType) {
		t.Errorf("expected ErrUnmappedRecipientType, got %v", err)
	}
}

func TestNormalizeDiscussion_NoMessages(t *testing.T) {
	d, err := NormalizeDiscussion("Sujet", "", "Quelqu'un", true, 0, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.Timestamp != 0 {
		t.Errorf("expected zero timestamp without messages, got %d", d.Timestamp)
	}
	if d.Messages == nil || d.Participants == nil {
		t.Error("messages and participants must serialize as [] rather than null")
	}
	if !d.Closed {
		t.Error("closed flag lost")
	}
}
