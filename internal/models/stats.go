package models

import "time"

// SyncStats counts what one partition did during a pass. The counters are for
// observability only.
type SyncStats struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
	Failed   int `json:"failed"`
}

// Add accumulates other into s.
func (s *SyncStats) Add(other SyncStats) {
	s.Added += other.Added
	s.Modified += other.Modified
	s.Removed += other.Removed
	s.Failed += other.Failed
}

// SyncState is the throttle and version record persisted once per pass.
type SyncState struct {
	AccountKey   string    `json:"account_key" db:"account_key"`
	LastSyncAt   time.Time `json:"last_sync_at" db:"last_sync_at"`
	SyncsPerHour int       `json:"syncs_per_hour" db:"syncs_per_hour"`
	LastVersion  string    `json:"last_version" db:"last_version"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
