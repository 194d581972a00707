package entity

// Normalized entity shapes. JSON field names follow the persisted cache
// layout, so a cache written by an older build deserializes unchanged.

// AttachmentKind is the local attachment type tag.
type AttachmentKind string

const (
	AttachmentLink AttachmentKind = "link"
	AttachmentFile AttachmentKind = "file"
)

// RecipientKind is the local discussion recipient type.
type RecipientKind string

const (
	RecipientTeacher  RecipientKind = "teacher"
	RecipientPersonal RecipientKind = "personal"
	RecipientStudent  RecipientKind = "student"
)

// ReturnKind is the local homework return-submission type.
type ReturnKind string

const (
	ReturnPaper      ReturnKind = "paper"
	ReturnFileUpload ReturnKind = "file_upload"
)

// Attachment is a homework or punishment attachment.
type Attachment struct {
	Name string         `json:"name"`
	Kind AttachmentKind `json:"type" validate:"oneof=link file"`
	URL  string         `json:"url"`
}

// Subject is the teaching subject a homework belongs to.
type Subject struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Groups []string `json:"groups"`
}

// HomeworkReturn is the optional return-submission metadata.
type HomeworkReturn struct {
	Kind     ReturnKind `json:"type"`
	Uploaded *bool      `json:"uploaded,omitempty"`
}

// Homework is the stable local shape of one homework item.
//
// ID is the remote identifier and is only valid within the session it
// was fetched under (CachedSessionID). LocalID is derived from content
// and stays stable across sessions; it is the reconciliation key.
type Homework struct {
	ID      string `json:"id"`
	LocalID string `json:"localID" validate:"required"`

	CachedSessionID string `json:"pronoteCachedSessionID"`
	CacheTimestamp  int64  `json:"cacheDateTimestamp"`

	Themes      []string     `json:"themes"`
	Attachments []Attachment `json:"attachments" validate:"dive"`

	Subject Subject `json:"subject"`

	Description     string `json:"description" validate:"required"`
	BackgroundColor string `json:"background_color"`

	Done bool `json:"done"`
	// Date is the deadline as ISO-8601 text with millisecond precision.
	Date   string          `json:"date" validate:"required"`
	Return *HomeworkReturn `json:"return,omitempty"`

	Difficulty      int `json:"difficulty"`
	LengthInMinutes int `json:"lengthInMinutes"`
}

// MessageFile is a file attached to a discussion message.
type MessageFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Message is one message inside a discussion thread.
type Message struct {
	ID                 string        `json:"id"`
	Content            string        `json:"content"` // HTML
	Author             string        `json:"author"`
	Timestamp          int64         `json:"timestamp"` // unix milliseconds
	AmountOfRecipients int           `json:"amountOfRecipients"`
	Files              []MessageFile `json:"files"`
}

// Recipient is a discussion participant.
type Recipient struct {
	ID   string        `json:"id"`
	Kind RecipientKind `json:"type" validate:"oneof=teacher personal student"`
	Name string        `json:"name"`
	// Functions lists the subject names a teacher recipient teaches.
	Functions []string `json:"functions"`
}

// Discussion is the stable local shape of one discussion thread. The
// remote system exposes no cross-fetch thread identifier, so LocalID is
// recomputed from content on every fetch.
type Discussion struct {
	LocalID      string       `json:"local_id" validate:"required"`
	Subject      string       `json:"subject"`
	Creator      string       `json:"creator"`
	Timestamp    int64        `json:"timestamp"` // latest message, unix milliseconds
	Unread       int          `json:"unread"`
	Closed       bool         `json:"closed"`
	Messages     []Message    `json:"messages"`
	Participants []Recipient  `json:"participants" validate:"dive"`
}

// Absence is a vie-scolaire absence. From/To are unix milliseconds.
type Absence struct {
	ID                    string   `json:"id"`
	From                  int64    `json:"from"`
	To                    int64    `json:"to"`
	Justified             bool     `json:"justified"`
	Hours                 string   `json:"hours"`
	AdministrativelyFixed bool     `json:"administrativelyFixed"`
	Reasons               []string `json:"reasons"`
}

// Delay is a vie-scolaire delay. Duration is in minutes.
type Delay struct {
	ID            string   `json:"id"`
	Date          int64    `json:"date"`
	Duration      int      `json:"duration"`
	Justified     bool     `json:"justified"`
	Justification string   `json:"justification"`
	Reasons       []string `json:"reasons"`
}

// PunishmentSchedule is one scheduled slot of a punishment.
type PunishmentSchedule struct {
	ID       string `json:"id"`
	Start    int64  `json:"start"`
	Duration int    `json:"duration"` // minutes
}

// PunishmentHomework is extra work given along a punishment.
type PunishmentHomework struct {
	Text      string       `json:"text"`
	Documents []Attachment `json:"documents"`
}

// PunishmentReason is the motive of a punishment.
type PunishmentReason struct {
	Text          []string     `json:"text"`
	Circumstances string       `json:"circumstances"`
	Documents     []Attachment `json:"documents"`
}

// Punishment is a vie-scolaire punishment.
type Punishment struct {
	ID           string               `json:"id"`
	Schedulable  bool                 `json:"schedulable"`
	Schedule     []PunishmentSchedule `json:"schedule"`
	Date         int64                `json:"date"`
	GivenBy      string               `json:"given_by"`
	Exclusion    bool                 `json:"exclusion"`
	DuringLesson bool                 `json:"during_lesson"`
	Homework     PunishmentHomework   `json:"homework"`
	Reason       PunishmentReason     `json:"reason"`
	Nature       string               `json:"nature"`
	Duration     int                  `json:"duration"` // minutes
}

// ObservationKind tags an observation's section.
type ObservationKind int

const (
	ObservationLogBookIssue  ObservationKind = 0
	ObservationObservation   ObservationKind = 1
	ObservationEncouragement ObservationKind = 2
	ObservationOther         ObservationKind = 3
)

// Observation is a vie-scolaire observation.
type Observation struct {
	ID                   string          `json:"id"`
	Date                 int64           `json:"date"`
	SectionName          string          `json:"sectionName"`
	SectionKind          ObservationKind `json:"sectionType"`
	SubjectName          string          `json:"subjectName,omitempty"`
	ShouldParentsJustify bool            `json:"shouldParentsJustify"`
	Reasons              []string        `json:"reasons"`
}

// VieScolaire bundles the four vie-scolaire families. Timestamp is the
// fetch time (unix milliseconds) used for cache freshness; remote ids
// are treated as stable within this family, so no local id is derived.
type VieScolaire struct {
	Timestamp    int64         `json:"timestamp"`
	Delays       []Delay       `json:"delays"`
	Absences     []Absence     `json:"absences"`
	Punishments  []Punishment  `json:"punishments"`
	Observations []Observation `json:"observations"`
}
