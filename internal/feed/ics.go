package feed

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/sirupsen/logrus"
	"github.com/teambition/rrule-go"

	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/pkg/logger"
)

// ParseOptions controls how iCal entries are normalized.
type ParseOptions struct {
	// IncludeLinks keeps the trailing link line of event descriptions and
	// fills recurring descriptions with the profile URL.
	IncludeLinks bool
	// LinkBase prefixes links; DefaultLinkBase when empty.
	LinkBase string
	// Now anchors the year of recurring entries.
	Now time.Time
	Log *logrus.Entry
}

var partStatus = map[string]models.Category{
	"ACCEPTED":     models.CategoryAttending,
	"TENTATIVE":    models.CategoryTentative,
	"DECLINED":     models.CategoryDeclined,
	"NEEDS-ACTION": models.CategoryNoResponse,
}

// yearlyRule is the recurrence of every recurring entry.
var yearlyRule = (&rrule.ROption{Freq: rrule.YEARLY}).RRuleString()

// ParseICS parses an iCal export. UIDs of the form e<id>@host are events
// keyed by <id> and filed by their PARTSTAT; every other UID is a yearly
// recurring entry keyed by the full UID. Entries that cannot be parsed are
// logged and skipped.
func ParseICS(body []byte, opts ParseOptions) ([]models.NormalizedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ICS: %w", err)
	}

	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logger.Discard())
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	events := make([]models.NormalizedEvent, 0)
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve, opts)
		if err != nil {
			log.WithError(err).Warn("Skipping unparsable VEVENT")
			continue
		}
		if ev.Status == "" {
			log.WithField("remote_id", ev.RemoteID).Warn("VEVENT has no known PARTSTAT")
		}
		events = append(events, ev)
	}

	return events, nil
}

func parseVEvent(ve *ical.VEvent, opts ParseOptions) (models.NormalizedEvent, error) {
	var ev models.NormalizedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return ev, errors.New("missing UID")
	}
	uid := uidProp.Value
	id := uidID(uid)

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Title = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyOrganizer); p != nil {
		if cn, ok := p.ICalParameters["CN"]; ok && len(cn) > 0 {
			ev.Organizer = strings.Trim(cn[0], `"`)
		}
	}

	base := linkBase(opts.LinkBase)

	if !strings.HasPrefix(uid, "e") {
		dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
		if dtStart == nil {
			return ev, fmt.Errorf("recurring entry %s has no DTSTART", uid)
		}
		date, err := parseICSTime(dtStart.Value)
		if err != nil {
			return ev, fmt.Errorf("recurring entry %s: %w", uid, err)
		}

		// The export only lists upcoming dates. Anchoring on last year with
		// a yearly rule keeps the entry after the date has passed.
		ev.RemoteID = uid
		ev.Start = time.Date(opts.Now.Year()-1, date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		ev.AllDay = true
		ev.Recurrence = yearlyRule
		ev.Status = models.CategoryRecurring
		ev.Link = base + id
		if opts.IncludeLinks {
			ev.Description = ev.Link
		}
		return ev, nil
	}

	ev.RemoteID = id
	ev.Link = base + "events/" + id

	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = unescapeText(p.Value)
		if !opts.IncludeLinks {
			ev.Description = dropLastLine(ev.Description)
		}
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, fmt.Errorf("event %s: %w", id, err)
	}
	ev.Start = start
	if end, err := ve.GetEndAt(); err == nil && !end.IsZero() {
		ev.End = &end
	}

	if p := ve.GetProperty(ical.ComponentProperty("PARTSTAT")); p != nil {
		ev.Status = partStatus[strings.ToUpper(strings.TrimSpace(p.Value))]
	}

	return ev, nil
}

var textUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";")

// unescapeText decodes RFC 5545 TEXT escapes.
func unescapeText(v string) string {
	return textUnescaper.Replace(v)
}

// dropLastLine removes the trailing link line of a description.
func dropLastLine(desc string) string {
	if pos := strings.LastIndex(desc, "\n"); pos > -1 {
		return desc[:pos]
	}
	return desc
}

// uidID extracts <id> from x<id>@host, or returns uid unchanged.
func uidID(uid string) string {
	at := strings.Index(uid, "@")
	if at < 1 {
		return uid
	}
	return uid[1:at]
}

func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.UTC)
	}
	return time.ParseInLocation("20060102", v, time.UTC)
}
