package entity

import (
	"time"

	"github.com/LeMaitre4523/quelquechose-v6/internal/provider"
)

// NormalizeVieScolaire converts the provider's vie-scolaire document.
// Remote ids are kept as-is and dates become unix milliseconds.
// Attachment kinds go through the closed mapping table; an unmapped
// kind fails the whole document since the four families are fetched and
// cached as one unit.
func NormalizeVieScolaire(remote provider.VieScolaire, fetchedAt time.Time) (VieScolaire, error) {
	out := VieScolaire{
		Timestamp:    fetchedAt.UnixMilli(),
		Delays:       []Delay{},
		Absences:     []Absence{},
		Punishments:  []Punishment{},
		Observations: []Observation{},
	}

	for _, a := range remote.Absences {
		out.Absences = append(out.Absences, Absence{
			ID:                    a.ID,
			From:                  a.From.UnixMilli(),
			To:                    a.To.UnixMilli(),
			Justified:             a.Justified,
			Hours:                 a.Hours,
			AdministrativelyFixed: a.AdministrativelyFixed,
			Reasons:               emptyIfNil(a.Reasons),
		})
	}

	for _, d := range remote.Delays {
		out.Delays = append(out.Delays, Delay{
			ID:            d.ID,
			Date:          d.Date.UnixMilli(),
			Duration:      d.Duration,
			Justified:     d.Justified,
			Justification: d.Justification,
			Reasons:       emptyIfNil(d.Reasons),
		})
	}

	for _, p := range remote.Punishments {
		homeworkDocs, err := normalizeAttachments(p.HomeworkDocuments)
		if err != nil {
			return VieScolaire{}, err
		}
		reasonDocs, err := normalizeAttachments(p.ReasonDocuments)
		if err != nil {
			return VieScolaire{}, err
		}

		schedule := make([]PunishmentSchedule, 0, len(p.Schedule))
		for _, s := range p.Schedule {
			schedule = append(schedule, PunishmentSchedule{
				ID:       s.ID,
				Start:    s.Start.UnixMilli(),
				Duration: s.Duration,
			})
		}

		out.Punishments = append(out.Punishments, Punishment{
			ID:           p.ID,
			Schedulable:  p.Schedulable,
			Schedule:     schedule,
			Date:         p.Date.UnixMilli(),
			GivenBy:      p.GivenBy,
			Exclusion:    p.Exclusion,
			DuringLesson: p.DuringLesson,
			Homework: PunishmentHomework{
				Text:      p.HomeworkText,
				Documents: homeworkDocs,
			},
			Reason: PunishmentReason{
				Text:          emptyIfNil(p.ReasonText),
				Circumstances: p.ReasonCircumstances,
				Documents:     reasonDocs,
			},
			Nature:   p.Nature,
			Duration: p.DurationInMinutes,
		})
	}

	for _, o := range remote.Observations {
		out.Observations = append(out.Observations, Observation{
			ID:                   o.ID,
			Date:                 o.Date.UnixMilli(),
			SectionName:          o.SectionName,
			SectionKind:          ObservationKind(o.SectionKind),
			SubjectName:          o.SubjectName,
			ShouldParentsJustify: o.ShouldParentsJustify,
			Reasons:              emptyIfNil(o.Reasons),
		})
	}

	return out, nil
}

func normalizeAttachments(remote []provider.Attachment) ([]Attachment, error) {
	out := make([]Attachment, 0, len(remote))
	for _, a := range remote {
		kind, err := attachmentKindFromProvider(a.Kind)
		if err != nil {
			return nil, err
		}
		out = append(out, Attachment{Name: a.Name, Kind: kind, URL: a.URL})
	}
	return out, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
