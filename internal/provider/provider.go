package provider

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps every transport-level failure coming out of a
// provider implementation so callers can fall back to cached data.
var ErrUnavailable = errors.New("provider unavailable")

// ResourceKind is the provider-side user resource type attached to
// discussion recipients. Values mirror the Pronote resource ids carried
// by the gateway.
type ResourceKind int

const (
	ResourceKindTeacher  ResourceKind = 3
	ResourceKindStudent  ResourceKind = 4
	ResourceKindPersonal ResourceKind = 34
)

// AttachmentKind tags a homework attachment as a link or an uploaded file.
type AttachmentKind int

const (
	AttachmentKindLink AttachmentKind = 0
	AttachmentKindFile AttachmentKind = 1
)

// ReturnKind describes how a homework has to be handed back.
type ReturnKind int

const (
	ReturnKindPaper      ReturnKind = 1
	ReturnKindFileUpload ReturnKind = 2
)

// Subject is the teaching subject a homework belongs to.
type Subject struct {
	ID     string
	Name   string
	Groups []string
}

// Attachment is a raw homework attachment as returned by the provider.
type Attachment struct {
	Name string
	Kind AttachmentKind
	URL  string
}

// HomeworkReturn carries return-submission metadata when present.
type HomeworkReturn struct {
	Kind     ReturnKind
	Uploaded bool
}

// Theme is a homework theme label.
type Theme struct {
	Name string
}

// Homework is a provider-shaped homework record. Field presence is
// guaranteed by the protocol for Description and Deadline; everything
// else is best effort.
type Homework struct {
	ID              string
	Description     string
	Subject         Subject
	Deadline        time.Time
	Done            bool
	BackgroundColor string
	Themes          []Theme
	Attachments     []Attachment
	Return          *HomeworkReturn
	Difficulty      int
	LengthInMinutes int
}

// Recipient is a discussion participant as seen by the provider.
type Recipient struct {
	ID       string
	Kind     ResourceKind
	Name     string
	Subjects []string // subject names taught, when the recipient is a teacher
}

// RecipientRef is the minimal reference needed to address a recipient
// when creating a discussion.
type RecipientRef struct {
	ID   string
	Kind ResourceKind
}

// MessageFile is a file attached to a discussion message.
type MessageFile struct {
	Name string
	URL  string
}

// Message is a single message inside a discussion thread.
type Message struct {
	ID                 string
	Content            string // HTML
	Author             string
	Created            time.Time
	AmountOfRecipients int
	Files              []MessageFile
}

// Thread is one discussion thread from the overview. Matching against
// local ids is done by recomputing the id over Subject/RecipientName/
// Creator, so the overview must be the complete unpaginated list.
type Thread interface {
	Subject() string
	// RecipientName is empty when the thread is broadcast to everyone.
	RecipientName() string
	Creator() string
	Closed() bool
	UnreadCount() int

	FetchMessages(ctx context.Context) ([]Message, error)
	FetchRecipients(ctx context.Context) ([]Recipient, error)
	Send(ctx context.Context, content string) error
}

// Authorizations lists what the current session is allowed to do.
type Authorizations struct {
	CanDiscussWithTeachers bool
	CanDiscussWithStaff    bool
}

// Absence is a vie-scolaire absence record.
type Absence struct {
	ID                    string
	From                  time.Time
	To                    time.Time
	Justified             bool
	Hours                 string
	AdministrativelyFixed bool
	Reasons               []string
}

// Delay is a vie-scolaire delay record. Duration is in minutes.
type Delay struct {
	ID            string
	Date          time.Time
	Duration      int
	Justified     bool
	Justification string
	Reasons       []string
}

// PunishmentSchedule is one scheduled slot of a punishment. Duration is
// in minutes.
type PunishmentSchedule struct {
	ID       string
	Start    time.Time
	Duration int
}

// Punishment is a vie-scolaire punishment record.
type Punishment struct {
	ID                  string
	Schedulable         bool
	Schedule            []PunishmentSchedule
	Date                time.Time
	GivenBy             string
	Exclusion           bool
	DuringLesson        bool
	HomeworkText        string
	HomeworkDocuments   []Attachment
	ReasonText          []string
	ReasonCircumstances string
	ReasonDocuments     []Attachment
	Nature              string
	DurationInMinutes   int
}

// ObservationKind tags the section an observation was filed under.
type ObservationKind int

const (
	ObservationKindLogBookIssue  ObservationKind = 0
	ObservationKindObservation   ObservationKind = 1
	ObservationKindEncouragement ObservationKind = 2
	ObservationKindOther         ObservationKind = 3
)

// Observation is a vie-scolaire observation record.
type Observation struct {
	ID                   string
	Date                 time.Time
	SectionName          string
	SectionKind          ObservationKind
	SubjectName          string
	ShouldParentsJustify bool
	Reasons              []string
}

// VieScolaire bundles the four vie-scolaire families fetched in one call.
type VieScolaire struct {
	Absences     []Absence
	Delays       []Delay
	Punishments  []Punishment
	Observations []Observation
}

// Client is the opaque capability surface of a school-data provider
// session. All failures it returns should wrap ErrUnavailable.
type Client interface {
	// SessionID identifies the provider session; remote ids are only
	// valid within the session they were fetched under.
	SessionID() string
	// FirstDate is the first day of the current school year, used as
	// the open-ended homework interval start.
	FirstDate() time.Time
	Authorizations() Authorizations

	HomeworkForInterval(ctx context.Context, start time.Time) ([]Homework, error)
	PatchHomeworkStatus(ctx context.Context, remoteID string, done bool) error

	DiscussionsOverview(ctx context.Context) ([]Thread, error)
	RecipientsForDiscussionCreation(ctx context.Context, kind ResourceKind) ([]Recipient, error)
	CreateDiscussion(ctx context.Context, subject, content string, recipients []RecipientRef) error

	FetchVieScolaire(ctx context.Context) (VieScolaire, error)
}
