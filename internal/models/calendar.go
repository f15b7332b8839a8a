package models

import "time"

// Availability describes how a record blocks time in the local calendar.
type Availability string

const (
	AvailabilityBusy      Availability = "busy"
	AvailabilityFree      Availability = "free"
	AvailabilityTentative Availability = "tentative"
)

// Appearance is the user-visible presentation of a local container.
type Appearance struct {
	DisplayName  string       `json:"display_name" db:"display_name"`
	Color        string       `json:"color" db:"color"`
	Availability Availability `json:"availability" db:"availability"`
	MaxReminders int          `json:"max_reminders" db:"max_reminders"`
}

// Container is one local calendar owned by the sync account.
type Container struct {
	ID         int64      `json:"id" db:"id"`
	AccountKey string     `json:"account_key" db:"account_key"`
	Name       string     `json:"name" db:"name"`
	Appearance Appearance `json:"appearance"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// EventFields is the full field set of a local event record. RemoteID is an
// identity field and is only written on create.
type EventFields struct {
	RemoteID     string       `json:"remote_id" db:"remote_id"`
	Title        string       `json:"title" db:"title"`
	Description  string       `json:"description" db:"description"`
	Location     string       `json:"location" db:"location"`
	Organizer    string       `json:"organizer" db:"organizer"`
	Start        time.Time    `json:"start_time" db:"start_time"`
	End          time.Time    `json:"end_time" db:"end_time"`
	AllDay       bool         `json:"all_day" db:"all_day"`
	Recurrence   string       `json:"recurrence" db:"recurrence"`
	Availability Availability `json:"availability" db:"availability"`
	Link         string       `json:"link" db:"link"`
}

// IsUpcoming returns true if the record starts at or after now.
func (f *EventFields) IsUpcoming(now time.Time) bool {
	return !f.Start.Before(now)
}
