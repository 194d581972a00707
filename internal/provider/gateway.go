package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/LeMaitre4523/quelquechose-v6/internal/logger"
)

// GatewayClient talks to the legacy Pronote REST gateway. The gateway
// wraps the school-side protocol and exposes plain JSON; every call is
// authenticated with a token query parameter and the token can expire
// mid-session, in which case the gateway answers with an "expired" or
// "notfound" status and the client re-authenticates once before
// retrying.
type GatewayClient struct {
	baseURL string
	token   string
	http    *http.Client

	mu        sync.RWMutex
	sessionID string
	firstDate time.Time
	auth      Authorizations
}

type gwSession struct {
	SessionID      string    `json:"sessionID"`
	FirstDate      time.Time `json:"firstDate"`
	Authorizations struct {
		CanDiscussWithTeachers bool `json:"canDiscussWithTeachers"`
		CanDiscussWithStaff    bool `json:"canDiscussWithStaff"`
	} `json:"authorizations"`
}

type gwSubject struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Groups []string `json:"groups"`
}

type gwAttachment struct {
	Name string `json:"name"`
	Type int    `json:"type"`
	URL  string `json:"url"`
}

type gwHomework struct {
	ID              string         `json:"id"`
	Description     string         `json:"description"`
	Subject         gwSubject      `json:"subject"`
	Deadline        time.Time      `json:"deadline"`
	Done            bool           `json:"done"`
	BackgroundColor string         `json:"backgroundColor"`
	Themes          []string       `json:"themes"`
	Attachments     []gwAttachment `json:"attachments"`
	Return          *struct {
		Type     int  `json:"type"`
		Uploaded bool `json:"uploaded"`
	} `json:"return"`
	Difficulty      int `json:"difficulty"`
	LengthInMinutes int `json:"lengthInMinutes"`
}

type gwDiscussion struct {
	ID            string `json:"id"`
	Subject       string `json:"subject"`
	RecipientName string `json:"recipientName"`
	Creator       string `json:"creator"`
	Closed        bool   `json:"closed"`
	Unread        int    `json:"numberOfMessagesUnread"`
}

type gwMessage struct {
	ID                 string    `json:"id"`
	Content            string    `json:"content"`
	Author             string    `json:"author"`
	Created            time.Time `json:"created"`
	AmountOfRecipients int       `json:"amountOfRecipients"`
	Files              []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"files"`
}

type gwRecipient struct {
	ID       string   `json:"id"`
	Type     int      `json:"type"`
	Name     string   `json:"name"`
	Subjects []string `json:"subjects"`
}

type gwVieScolaire struct {
	Absences []struct {
		ID                    string    `json:"id"`
		From                  time.Time `json:"from"`
		To                    time.Time `json:"to"`
		Justified             bool      `json:"justified"`
		Hours                 string    `json:"hours"`
		AdministrativelyFixed bool      `json:"administrativelyFixed"`
		Reasons               []string  `json:"reasons"`
	} `json:"absences"`
	Delays []struct {
		ID            string    `json:"id"`
		Date          time.Time `json:"date"`
		Duration      int       `json:"duration"`
		Justified     bool      `json:"justified"`
		Justification string    `json:"justification"`
		Reasons       []string  `json:"reasons"`
	} `json:"delays"`
	Punishments []struct {
		ID          string `json:"id"`
		Schedulable bool   `json:"schedulable"`
		Schedule    []struct {
			ID       string    `json:"id"`
			Start    time.Time `json:"start"`
			Duration int       `json:"duration"`
		} `json:"schedule"`
		Date         time.Time `json:"date"`
		GivenBy      string    `json:"givenBy"`
		Exclusion    bool      `json:"exclusion"`
		DuringLesson bool      `json:"duringLesson"`
		Homework     struct {
			Text      string         `json:"text"`
			Documents []gwAttachment `json:"documents"`
		} `json:"homework"`
		Reason struct {
			Text          []string       `json:"text"`
			Circumstances string         `json:"circumstances"`
			Documents     []gwAttachment `json:"documents"`
		} `json:"reason"`
		Nature   string `json:"nature"`
		Duration int    `json:"duration"`
	} `json:"punishments"`
	Observations []struct {
		ID                   string    `json:"id"`
		Date                 time.Time `json:"date"`
		SectionName          string    `json:"sectionName"`
		SectionType          int       `json:"sectionType"`
		SubjectName          string    `json:"subjectName"`
		ShouldParentsJustify bool      `json:"shouldParentsJustify"`
		Reasons              []string  `json:"reasons"`
	} `json:"observations"`
}

// NewGatewayClient builds a client for the given gateway. Connect must
// be called before any other operation.
func NewGatewayClient(baseURL, token string, timeout time.Duration) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Connect authenticates against the gateway and caches the session
// descriptor (session id, first school day, authorizations).
func (g *GatewayClient) Connect(ctx context.Context) error {
	// canRetry=false: a rejected token on /session must not trigger
	// another reconnect cycle.
	var session gwSession
	if err := g.do(ctx, http.MethodGet, "/session", nil, nil, &session, false); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessionID = session.SessionID
	g.firstDate = session.FirstDate
	g.auth = Authorizations{
		CanDiscussWithTeachers: session.Authorizations.CanDiscussWithTeachers,
		CanDiscussWithStaff:    session.Authorizations.CanDiscussWithStaff,
	}
	logger.WithComponent("gateway").Infof("connected, session %s", session.SessionID)
	return nil
}

func (g *GatewayClient) SessionID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sessionID
}

func (g *GatewayClient) FirstDate() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.firstDate
}

func (g *GatewayClient) Authorizations() Authorizations {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.auth
}

func (g *GatewayClient) HomeworkForInterval(ctx context.Context, start time.Time) ([]Homework, error) {
	params := url.Values{"dateFrom": {start.Format("2006-01-02")}}
	var raw []gwHomework
	if err := g.getJSON(ctx, "/homework", params, &raw); err != nil {
		return nil, err
	}

	out := make([]Homework, 0, len(raw))
	for _, h := range raw {
		out = append(out, h.toHomework())
	}
	return out, nil
}

func (g *GatewayClient) PatchHomeworkStatus(ctx context.Context, remoteID string, done bool) error {
	params := url.Values{
		"homeworkId": {remoteID},
		"done":       {strconv.FormatBool(done)},
	}
	return g.postJSON(ctx, "/homework/changeState", params, nil, nil)
}

func (g *GatewayClient) DiscussionsOverview(ctx context.Context) ([]Thread, error) {
	var raw []gwDiscussion
	if err := g.getJSON(ctx, "/discussions", nil, &raw); err != nil {
		return nil, err
	}

	out := make([]Thread, 0, len(raw))
	for _, d := range raw {
		out = append(out, &gatewayThread{client: g, overview: d})
	}
	return out, nil
}

func (g *GatewayClient) RecipientsForDiscussionCreation(ctx context.Context, kind ResourceKind) ([]Recipient, error) {
	params := url.Values{"type": {strconv.Itoa(int(kind))}}
	var raw []gwRecipient
	if err := g.getJSON(ctx, "/recipients", params, &raw); err != nil {
		return nil, err
	}

	out := make([]Recipient, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toRecipient())
	}
	return out, nil
}

func (g *GatewayClient) CreateDiscussion(ctx context.Context, subject, content string, recipients []RecipientRef) error {
	type ref struct {
		ID   string `json:"id"`
		Type int    `json:"type"`
	}
	body := struct {
		Subject    string `json:"subject"`
		Content    string `json:"content"`
		Recipients []ref  `json:"recipients"`
	}{Subject: subject, Content: content}
	for _, r := range recipients {
		body.Recipients = append(body.Recipients, ref{ID: r.ID, Type: int(r.Kind)})
	}
	return g.postJSON(ctx, "/discussions", nil, body, nil)
}

func (g *GatewayClient) FetchVieScolaire(ctx context.Context) (VieScolaire, error) {
	var raw gwVieScolaire
	if err := g.getJSON(ctx, "/viescolaire", nil, &raw); err != nil {
		return VieScolaire{}, err
	}
	return raw.toVieScolaire(), nil
}

// gatewayThread is a Thread backed by per-discussion gateway endpoints.
type gatewayThread struct {
	client   *GatewayClient
	overview gwDiscussion
}

func (t *gatewayThread) Subject() string       { return t.overview.Subject }
func (t *gatewayThread) RecipientName() string { return t.overview.RecipientName }
func (t *gatewayThread) Creator() string       { return t.overview.Creator }
func (t *gatewayThread) Closed() bool          { return t.overview.Closed }
func (t *gatewayThread) UnreadCount() int      { return t.overview.Unread }

func (t *gatewayThread) FetchMessages(ctx context.Context) ([]Message, error) {
	var raw []gwMessage
	path := "/discussions/" + url.PathEscape(t.overview.ID) + "/messages"
	if err := t.client.getJSON(ctx, path, nil, &raw); err != nil {
		return nil, err
	}

	out := make([]Message, 0, len(raw))
	for _, m := range raw {
		out = append(out, m.toMessage())
	}
	return out, nil
}

func (t *gatewayThread) FetchRecipients(ctx context.Context) ([]Recipient, error) {
	var raw []gwRecipient
	path := "/discussions/" + url.PathEscape(t.overview.ID) + "/recipients"
	if err := t.client.getJSON(ctx, path, nil, &raw); err != nil {
		return nil, err
	}

	out := make([]Recipient, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toRecipient())
	}
	return out, nil
}

func (t *gatewayThread) Send(ctx context.Context, content string) error {
	body := struct {
		Content string `json:"content"`
	}{Content: content}
	path := "/discussions/" + url.PathEscape(t.overview.ID) + "/messages"
	return t.client.postJSON(ctx, path, nil, body, nil)
}

func (h gwHomework) toHomework() Homework {
	out := Homework{
		ID:              h.ID,
		Description:     h.Description,
		Subject:         Subject{ID: h.Subject.ID, Name: h.Subject.Name, Groups: h.Subject.Groups},
		Deadline:        h.Deadline,
		Done:            h.Done,
		BackgroundColor: h.BackgroundColor,
		Difficulty:      h.Difficulty,
		LengthInMinutes: h.LengthInMinutes,
	}
	for _, theme := range h.Themes {
		out.Themes = append(out.Themes, Theme{Name: theme})
	}
	for _, a := range h.Attachments {
		out.Attachments = append(out.Attachments, Attachment{Name: a.Name, Kind: AttachmentKind(a.Type), URL: a.URL})
	}
	if h.Return != nil {
		out.Return = &HomeworkReturn{Kind: ReturnKind(h.Return.Type), Uploaded: h.Return.Uploaded}
	}
	return out
}

func (m gwMessage) toMessage() Message {
	out := Message{
		ID:                 m.ID,
		Content:            m.Content,
		Author:             m.Author,
		Created:            m.Created,
		AmountOfRecipients: m.AmountOfRecipients,
	}
	for _, f := range m.Files {
		out.Files = append(out.Files, MessageFile{Name: f.Name, URL: f.URL})
	}
	return out
}

func (r gwRecipient) toRecipient() Recipient {
	return Recipient{
		ID:       r.ID,
		Kind:     ResourceKind(r.Type),
		Name:     r.Name,
		Subjects: r.Subjects,
	}
}

func (v gwVieScolaire) toVieScolaire() VieScolaire {
	var out VieScolaire
	for _, a := range v.Absences {
		out.Absences = append(out.Absences, Absence{
			ID:                    a.ID,
			From:                  a.From,
			To:                    a.To,
			Justified:             a.Justified,
			Hours:                 a.Hours,
			AdministrativelyFixed: a.AdministrativelyFixed,
			Reasons:               a.Reasons,
		})
	}
	for _, d := range v.Delays {
		out.Delays = append(out.Delays, Delay{
			ID:            d.ID,
			Date:          d.Date,
			Duration:      d.Duration,
			Justified:     d.Justified,
			Justification: d.Justification,
			Reasons:       d.Reasons,
		})
	}
	for _, p := range v.Punishments {
		punishment := Punishment{
			ID:                  p.ID,
			Schedulable:         p.Schedulable,
			Date:                p.Date,
			GivenBy:             p.GivenBy,
			Exclusion:           p.Exclusion,
			DuringLesson:        p.DuringLesson,
			HomeworkText:        p.Homework.Text,
			ReasonText:          p.Reason.Text,
			ReasonCircumstances: p.Reason.Circumstances,
			Nature:              p.Nature,
			DurationInMinutes:   p.Duration,
		}
		for _, s := range p.Schedule {
			punishment.Schedule = append(punishment.Schedule, PunishmentSchedule{ID: s.ID, Start: s.Start, Duration: s.Duration})
		}
		for _, doc := range p.Homework.Documents {
			punishment.HomeworkDocuments = append(punishment.HomeworkDocuments, Attachment{Name: doc.Name, Kind: AttachmentKind(doc.Type), URL: doc.URL})
		}
		for _, doc := range p.Reason.Documents {
			punishment.ReasonDocuments = append(punishment.ReasonDocuments, Attachment{Name: doc.Name, Kind: AttachmentKind(doc.Type), URL: doc.URL})
		}
		out.Punishments = append(out.Punishments, punishment)
	}
	for _, o := range v.Observations {
		out.Observations = append(out.Observations, Observation{
			ID:                   o.ID,
			Date:                 o.Date,
			SectionName:          o.SectionName,
			SectionKind:          ObservationKind(o.SectionType),
			SubjectName:          o.SubjectName,
			ShouldParentsJustify: o.ShouldParentsJustify,
			Reasons:              o.Reasons,
		})
	}
	return out
}

// getJSON performs a GET against the gateway and decodes the response.
func (g *GatewayClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	return g.do(ctx, http.MethodGet, path, params, nil, out, true)
}

// postJSON performs a POST with an optional JSON body.
func (g *GatewayClient) postJSON(ctx context.Context, path string, params url.Values, body, out any) error {
	return g.do(ctx, http.MethodPost, path, params, body, out, true)
}

func (g *GatewayClient) do(ctx context.Context, method, path string, params url.Values, body, out any, canRetry bool) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("token", g.token)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path+"?"+params.Encode(), reader)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	// The gateway signals an expired or evicted token inside a 200
	// response. Re-authenticate once and replay the call.
	if status := string(bytes.Trim(bytes.TrimSpace(payload), `"`)); status == "expired" || status == "notfound" {
		if !canRetry {
			return fmt.Errorf("%w: token rejected (%s)", ErrUnavailable, status)
		}
		logger.WithComponent("gateway").Infof("token %s on %s, reconnecting", status, path)
		if err := g.Connect(ctx); err != nil {
			return err
		}
		return g.do(ctx, method, path, params, body, out, false)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: HTTP %d", ErrUnavailable, method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrUnavailable, path, err)
	}
	return nil
}
