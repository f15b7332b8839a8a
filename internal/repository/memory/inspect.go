package memory

import (
	"sort"

	"github.com/Kerhoff/eventsync/internal/models"
)

// Containers returns every container ordered by ID.
func (s *Store) Containers() []models.Container {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Container, 0, len(s.containers))
	for _, c := range s.containers {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ContainerByName returns the lowest-ID container with name.
func (s *Store) ContainerByName(accountKey, name string) (models.Container, bool) {
	for _, c := range s.Containers() {
		if c.AccountKey == accountKey && c.Name == name {
			return c, true
		}
	}
	return models.Container{}, false
}

// Records returns the records of a container ordered by ID.
func (s *Store) Records(containerID int64) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0)
	for _, rec := range s.records {
		if rec.ContainerID == containerID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RecordByRemoteID finds a record of a container by remote ID.
func (s *Store) RecordByRemoteID(containerID int64, remoteID string) (Record, bool) {
	for _, rec := range s.Records(containerID) {
		if rec.Fields.RemoteID == remoteID {
			return rec, true
		}
	}
	return Record{}, false
}

// ReminderOffsets returns the reminder offsets of a record, ascending and
// with duplicates kept.
func (s *Store) ReminderOffsets(localID int64) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int, 0)
	for _, r := range s.reminders {
		if r.eventID == localID {
			out = append(out, r.minutes)
		}
	}
	sort.Ints(out)
	return out
}

// SeedContainer inserts a container directly, bypassing counters and
// failures.
func (s *Store) SeedContainer(accountKey, name string, appearance models.Appearance) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &models.Container{ID: s.id(), AccountKey: accountKey, Name: name, Appearance: appearance}
	s.containers[c.ID] = c
	return c.ID
}

// SeedRecord inserts a record directly.
func (s *Store) SeedRecord(containerID int64, fields models.EventFields) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &Record{ID: s.id(), ContainerID: containerID, Fields: fields}
	s.records[rec.ID] = rec
	return rec.ID
}

// SeedReminder inserts one reminder directly.
func (s *Store) SeedReminder(localID int64, minutes int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.reminders[id] = &reminder{id: id, eventID: localID, minutes: minutes}
	return id
}
