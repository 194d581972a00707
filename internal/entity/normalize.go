package entity

import (
	"time"

	"github.com/LeMaitre4523/quelquechose-v6/internal/provider"
)

// BroadcastRecipient is the sentinel used in discussion local ids when
// a thread has no single recipient (broadcast to everyone).
const BroadcastRecipient = "TO_EVERYONE"

// isoMillis renders a time the way the cache has always stored
// deadlines: ISO-8601 UTC with millisecond precision.
func isoMillis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// HomeworkLocalID derives the stable cross-session key of a homework:
// the first 20 characters of the description, the first 2 characters of
// the subject name ("??" when absent) and the deadline as ISO-8601
// text. Deterministic by construction; cached and freshly fetched
// records reconcile through it.
//
// Known limitation, kept on purpose: two distinct homeworks sharing the
// same truncated description, subject prefix and deadline collide.
func HomeworkLocalID(description, subjectName string, deadline time.Time) string {
	localID := truncateRunes(description, 20)

	if subjectName == "" {
		localID += "??"
	} else {
		localID += truncateRunes(subjectName, 2)
	}

	return localID + isoMillis(deadline)
}

// DiscussionLocalID derives the stable key of a discussion thread from
// its subject, recipient name (BroadcastRecipient when absent) and
// creator.
func DiscussionLocalID(subject, recipientName, creator string) string {
	if recipientName == "" {
		recipientName = BroadcastRecipient
	}
	return subject + recipientName + creator
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// attachmentKindFromProvider is the closed attachment-type mapping.
// Unknown values fail loudly instead of defaulting.
func attachmentKindFromProvider(kind provider.AttachmentKind) (AttachmentKind, error) {
	switch kind {
	case provider.AttachmentKindLink:
		return AttachmentLink, nil
	case provider.AttachmentKindFile:
		return AttachmentFile, nil
	default:
		return "", &UnmappedAttachmentKindError{Value: kind}
	}
}

// RecipientKindFromProvider maps a provider resource type to the local
// recipient type. The table is closed: silent defaulting on unknown
// values has caused correctness bugs in this family of mapping code
// before, so unknown values error out.
func RecipientKindFromProvider(kind provider.ResourceKind) (RecipientKind, error) {
	switch kind {
	case provider.ResourceKindTeacher:
		return RecipientTeacher, nil
	case provider.ResourceKindPersonal:
		return RecipientPersonal, nil
	case provider.ResourceKindStudent:
		return RecipientStudent, nil
	default:
		return "", &UnmappedRecipientTypeError{Value: kind}
	}
}

// RecipientKindToProvider is the reverse mapping, used when addressing
// recipients on discussion creation.
func RecipientKindToProvider(kind RecipientKind) (provider.ResourceKind, error) {
	switch kind {
	case RecipientTeacher:
		return provider.ResourceKindTeacher, nil
	case RecipientPersonal:
		return provider.ResourceKindPersonal, nil
	case RecipientStudent:
		return provider.ResourceKindStudent, nil
	default:
		return 0, &UnmappedRecipientTypeError{}
	}
}

func returnKindFromProvider(kind provider.ReturnKind) ReturnKind {
	if kind == provider.ReturnKindFileUpload {
		return ReturnFileUpload
	}
	return ReturnPaper
}

// NormalizeHomework converts one provider homework record into the
// local shape, stamping it with the session it was fetched under and
// the fetch time. Description and deadline are guaranteed by the
// protocol; their absence is a contract violation reported as a
// NormalizationError.
func NormalizeHomework(remote provider.Homework, sessionID string, fetchedAt time.Time) (Homework, error) {
	if remote.Description == "" {
		return Homework{}, &NormalizationError{Entity: "homework", Field: "description"}
	}
	if remote.Deadline.IsZero() {
		return Homework{}, &NormalizationError{Entity: "homework", Field: "deadline"}
	}

	attachments := make([]Attachment, 0, len(remote.Attachments))
	for _, attachment := range remote.Attachments {
		kind, err := attachmentKindFromProvider(attachment.Kind)
		if err != nil {
			return Homework{}, err
		}
		attachments = append(attachments, Attachment{
			Name: attachment.Name,
			Kind: kind,
			URL:  attachment.URL,
		})
	}

	themes := make([]string, 0, len(remote.Themes))
	for _, theme := range remote.Themes {
		themes = append(themes, theme.Name)
	}

	hw := Homework{
		ID:      remote.ID,
		LocalID: HomeworkLocalID(remote.Description, remote.Subject.Name, remote.Deadline),

		CachedSessionID: sessionID,
		CacheTimestamp:  fetchedAt.UnixMilli(),

		Themes:      themes,
		Attachments: attachments,

		Subject: Subject{
			ID:     remote.Subject.ID,
			Name:   remote.Subject.Name,
			Groups: remote.Subject.Groups,
		},

		Description:     remote.Description,
		BackgroundColor: remote.BackgroundColor,

		Done: remote.Done,
		Date: isoMillis(remote.Deadline),

		Difficulty:      remote.Difficulty,
		LengthInMinutes: remote.LengthInMinutes,
	}

	if remote.Return != nil {
		ret := &HomeworkReturn{Kind: returnKindFromProvider(remote.Return.Kind)}
		if remote.Return.Kind == provider.ReturnKindFileUpload {
			uploaded := remote.Return.Uploaded
			ret.Uploaded = &uploaded
		}
		hw.Return = ret
	}

	return hw, nil
}

// NormalizeRecipient converts one provider recipient.
func NormalizeRecipient(remote provider.Recipient) (Recipient, error) {
	kind, err := RecipientKindFromProvider(remote.Kind)
	if err != nil {
		return Recipient{}, err
	}
	functions := remote.Subjects
	if functions == nil {
		functions = []string{}
	}
	return Recipient{
		ID:        remote.ID,
		Kind:      kind,
		Name:      remote.Name,
		Functions: functions,
	}, nil
}

// NormalizeMessage converts one provider message.
func NormalizeMessage(remote provider.Message) Message {
	files := make([]MessageFile, 0, len(remote.Files))
	for _, f := range remote.Files {
		files = append(files, MessageFile{Name: f.Name, URL: f.URL})
	}
	return Message{
		ID:                 remote.ID,
		Content:            remote.Content,
		Author:             remote.Author,
		Timestamp:          remote.Created.UnixMilli(),
		AmountOfRecipients: remote.AmountOfRecipients,
		Files:              files,
	}
}

// NormalizeMessages converts a message batch preserving order.
func NormalizeMessages(remote []provider.Message) []Message {
	out := make([]Message, 0, len(remote))
	for _, m := range remote {
		out = append(out, NormalizeMessage(m))
	}
	return out
}

// NormalizeDiscussion assembles a local discussion from an overview
// entry plus its fetched messages and recipients. The thread timestamp
// is the first (latest) message's creation time. An unmapped recipient
// type fails the whole discussion so the caller can skip it.
func NormalizeDiscussion(subject, recipientName, creator string, closed bool, unread int, messages []provider.Message, recipients []provider.Recipient) (Discussion, error) {
	participants := make([]Recipient, 0, len(recipients))
	for _, r := range recipients {
		participant, err := NormalizeRecipient(r)
		if err != nil {
			return Discussion{}, err
		}
		participants = append(participants, participant)
	}

	var timestamp int64
	if len(messages) > 0 {
		timestamp = messages[0].Created.UnixMilli()
	}

	return Discussion{
		LocalID:      DiscussionLocalID(subject, recipientName, creator),
		Subject:      subject,
		Creator:      creator,
		Timestamp:    timestamp,
		Unread:       unread,
		Closed:       closed,
		Messages:     NormalizeMessages(messages),
		Participants: participants,
	}, nil
}
