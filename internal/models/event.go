package models

import "time"

// Category is the relationship status an event is filed under. Every
// category owns one local calendar container.
type Category string

const (
	CategoryAttending  Category = "attending"
	CategoryTentative  Category = "tentative"
	CategoryDeclined   Category = "declined"
	CategoryNoResponse Category = "not_responded"
	CategoryRecurring  Category = "recurring"
)

// Categories lists every known category in routing order.
var Categories = []Category{
	CategoryAttending,
	CategoryTentative,
	CategoryDeclined,
	CategoryNoResponse,
	CategoryRecurring,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ContainerName is the name the local container for c is stored under.
func (c Category) ContainerName() string {
	return "eventsync_" + string(c)
}

// DefaultEventDuration is used when the feed gives no end time.
const DefaultEventDuration = time.Hour

// NormalizedEvent is a single remote event as produced by a feed parser.
// Values are treated as immutable once produced.
type NormalizedEvent struct {
	RemoteID    string     `json:"remote_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end,omitempty"`
	Organizer   string     `json:"organizer,omitempty"`
	Status      Category   `json:"status"`
	AllDay      bool       `json:"all_day"`
	Recurrence  string     `json:"recurrence,omitempty"` // RRULE, recurring category only
	Link        string     `json:"link,omitempty"`
}

// EndTime returns the explicit end or the default one-hour duration.
// All-day recurring entries last one day.
func (e *NormalizedEvent) EndTime() time.Time {
	if e.End != nil {
		return *e.End
	}
	if e.AllDay {
		return e.Start.AddDate(0, 0, 1)
	}
	return e.Start.Add(DefaultEventDuration)
}

// Fields converts the event into the field set written to the local store.
// Availability is decided by the owning partition.
func (e *NormalizedEvent) Fields(availability Availability) EventFields {
	return EventFields{
		RemoteID:     e.RemoteID,
		Title:        e.Title,
		Description:  e.Description,
		Location:     e.Location,
		Organizer:    e.Organizer,
		Start:        e.Start,
		End:          e.EndTime(),
		AllDay:       e.AllDay,
		Recurrence:   e.Recurrence,
		Availability: availability,
		Link:         e.Link,
	}
}
