// Package memory is an in-process implementation of the repository
// interfaces. It backs dry-run passes and the engine tests, and can inject
// per-operation failures.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/repository"
)

// Op names a store operation for call counting and failure injection.
type Op string

const (
	OpFindContainer   Op = "find_container"
	OpCreateContainer Op = "create_container"
	OpUpdateContainer Op = "update_container"
	OpDeleteContainer Op = "delete_container"
	OpDeleteByName    Op = "delete_containers_by_name"
	OpQueryRecords    Op = "query_records"
	OpCreateRecord    Op = "create_record"
	OpUpdateRecord    Op = "update_record"
	OpDeleteRecord    Op = "delete_record"
	OpQueryReminders  Op = "query_reminders"
	OpCreateReminders Op = "create_reminders"
	OpDeleteReminder  Op = "delete_reminder"
)

// Record is a stored event record.
type Record struct {
	ID          int64
	ContainerID int64
	Fields      models.EventFields
}

type reminder struct {
	id      int64
	eventID int64
	minutes int
}

type failure struct {
	op      Op
	subject string
}

// Store is an in-memory repository.LocalStore. The subject of a failure is
// the container name for container operations and the remote ID of the
// record for record and reminder operations; an empty subject matches any.
type Store struct {
	mu sync.Mutex

	nextID     int64
	containers map[int64]*models.Container
	records    map[int64]*Record
	reminders  map[int64]*reminder

	calls    map[Op]int
	failures map[failure]error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		containers: make(map[int64]*models.Container),
		records:    make(map[int64]*Record),
		reminders:  make(map[int64]*reminder),
		calls:      make(map[Op]int),
		failures:   make(map[failure]error),
	}
}

var _ repository.LocalStore = (*Store)(nil)

// FailOn makes op fail with err for subject until ClearFailures.
func (s *Store) FailOn(op Op, subject string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[failure{op, subject}] = err
}

// ClearFailures removes every injected failure.
func (s *Store) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[failure]error)
}

// Calls returns how often op ran.
func (s *Store) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// TotalCalls returns the number of store operations run.
func (s *Store) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// ResetCalls zeroes the call counters.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[Op]int)
}

// must be called with mu held
func (s *Store) enter(op Op, subject string) error {
	s.calls[op]++
	if err, ok := s.failures[failure{op, subject}]; ok {
		return err
	}
	if err, ok := s.failures[failure{op, ""}]; ok {
		return err
	}
	return nil
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) recordSubject(localID int64) string {
	if rec, ok := s.records[localID]; ok {
		return rec.Fields.RemoteID
	}
	return ""
}

func (s *Store) FindContainer(_ context.Context, accountKey, name string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpFindContainer, name); err != nil {
		return 0, false, err
	}

	var (
		best  int64
		found bool
	)
	for id, c := range s.containers {
		if c.AccountKey == accountKey && c.Name == name && (!found || id < best) {
			best, found = id, true
		}
	}
	return best, found, nil
}

func (s *Store) CreateContainer(_ context.Context, accountKey, name string, appearance models.Appearance) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCreateContainer, name); err != nil {
		return 0, err
	}

	now := time.Now()
	c := &models.Container{
		ID:         s.id(),
		AccountKey: accountKey,
		Name:       name,
		Appearance: appearance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.containers[c.ID] = c
	return c.ID, nil
}

func (s *Store) UpdateContainer(_ context.Context, containerID int64, appearance models.Appearance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[containerID]
	name := ""
	if ok {
		name = c.Name
	}
	if err := s.enter(OpUpdateContainer, name); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("calendar %d: %w", containerID, repository.ErrNotFound)
	}
	c.Appearance = appearance
	c.UpdatedAt = time.Now()
	return nil
}

func (s *Store) DeleteContainer(_ context.Context, containerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[containerID]
	name := ""
	if ok {
		name = c.Name
	}
	if err := s.enter(OpDeleteContainer, name); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("calendar %d: %w", containerID, repository.ErrNotFound)
	}
	s.dropContainer(containerID)
	return nil
}

func (s *Store) DeleteContainersByName(_ context.Context, accountKey, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDeleteByName, name); err != nil {
		return 0, err
	}

	var n int64
	for id, c := range s.containers {
		if c.AccountKey == accountKey && c.Name == name {
			s.dropContainer(id)
			n++
		}
	}
	return n, nil
}

func (s *Store) dropContainer(containerID int64) {
	for id, rec := range s.records {
		if rec.ContainerID == containerID {
			s.dropRecord(id)
		}
	}
	delete(s.containers, containerID)
}

func (s *Store) dropRecord(localID int64) {
	for id, r := range s.reminders {
		if r.eventID == localID {
			delete(s.reminders, id)
		}
	}
	delete(s.records, localID)
}

func (s *Store) QueryRecords(_ context.Context, containerID int64, split time.Time, future bool) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpQueryRecords, ""); err != nil {
		return nil, err
	}

	out := make(map[string]int64)
	for id, rec := range s.records {
		if rec.ContainerID != containerID {
			continue
		}
		if rec.Fields.Start.Before(split) == future {
			continue
		}
		out[rec.Fields.RemoteID] = id
	}
	return out, nil
}

func (s *Store) CreateRecord(_ context.Context, containerID int64, fields models.EventFields) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCreateRecord, fields.RemoteID); err != nil {
		return 0, err
	}
	if _, ok := s.containers[containerID]; !ok {
		return 0, fmt.Errorf("calendar %d: %w", containerID, repository.ErrNotFound)
	}

	rec := &Record{ID: s.id(), ContainerID: containerID, Fields: fields}
	s.records[rec.ID] = rec
	return rec.ID, nil
}

func (s *Store) UpdateRecord(_ context.Context, localID int64, fields models.EventFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpUpdateRecord, s.recordSubject(localID)); err != nil {
		return err
	}
	rec, ok := s.records[localID]
	if !ok {
		return fmt.Errorf("event %d: %w", localID, repository.ErrNotFound)
	}
	fields.RemoteID = rec.Fields.RemoteID
	rec.Fields = fields
	return nil
}

func (s *Store) DeleteRecord(_ context.Context, localID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDeleteRecord, s.recordSubject(localID)); err != nil {
		return err
	}
	if _, ok := s.records[localID]; !ok {
		return fmt.Errorf("event %d: %w", localID, repository.ErrNotFound)
	}
	s.dropRecord(localID)
	return nil
}

func (s *Store) QueryReminders(_ context.Context, localID int64) (map[int]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpQueryReminders, s.recordSubject(localID)); err != nil {
		return nil, err
	}

	ids := make([]int64, 0)
	for id, r := range s.reminders {
		if r.eventID == localID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make(map[int]int64, len(ids))
	for _, id := range ids {
		out[s.reminders[id].minutes] = id
	}
	return out, nil
}

func (s *Store) CreateReminders(_ context.Context, localID int64, offsets []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCreateReminders, s.recordSubject(localID)); err != nil {
		return err
	}
	if _, ok := s.records[localID]; !ok {
		return fmt.Errorf("event %d: %w", localID, repository.ErrNotFound)
	}
	for _, minutes := range offsets {
		id := s.id()
		s.reminders[id] = &reminder{id: id, eventID: localID, minutes: minutes}
	}
	return nil
}

func (s *Store) DeleteReminder(_ context.Context, reminderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	subject := ""
	if r, ok := s.reminders[reminderID]; ok {
		subject = s.recordSubject(r.eventID)
	}
	if err := s.enter(OpDeleteReminder, subject); err != nil {
		return err
	}
	if _, ok := s.reminders[reminderID]; !ok {
		return fmt.Errorf("reminder %d: %w", reminderID, repository.ErrNotFound)
	}
	delete(s.reminders, reminderID)
	return nil
}
