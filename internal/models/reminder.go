package models

// ReminderMethodAlert is the only reminder method the sync account writes.
const ReminderMethodAlert = "alert"

// Reminder is an alert attached to a local event record, fired Minutes
// before the event starts.
type Reminder struct {
	ID      int64  `json:"id" db:"id"`
	EventID int64  `json:"event_id" db:"event_id"`
	Minutes int    `json:"minutes" db:"minutes"`
	Method  string `json:"method" db:"method"`
}
