package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/eventsync/internal/config"
	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/service"
	"github.com/Kerhoff/eventsync/pkg/logger"
)

type fakeSyncer struct {
	report  *service.PassReport
	err     error
	last    *service.PassReport
	running bool
	calls   []service.Trigger
}

func (f *fakeSyncer) RunPass(_ context.Context, trigger service.Trigger) (*service.PassReport, error) {
	f.calls = append(f.calls, trigger)
	return f.report, f.err
}

func (f *fakeSyncer) LastReport() *service.PassReport { return f.last }

func (f *fakeSyncer) Running() bool { return f.running }

func newTestServer(t *testing.T, syncer *fakeSyncer) (*Server, *config.CategoryStore) {
	t.Helper()
	store, err := config.NewCategoryStore(filepath.Join(t.TempDir(), "categories.yaml"))
	require.NoError(t, err)
	return NewServer(syncer, store, logger.Discard()), store
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &fakeSyncer{running: true})

	rec := do(t, s, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","running":true}`, rec.Body.String())
}

func TestSync_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		report *service.PassReport
		err    error
		want   int
	}{
		{"completed", &service.PassReport{Status: service.StatusCompleted}, nil, http.StatusOK},
		{"throttled", &service.PassReport{Status: service.StatusThrottled}, nil, http.StatusTooManyRequests},
		{"busy", &service.PassReport{Status: service.StatusBusy}, nil, http.StatusConflict},
		{"aborted", &service.PassReport{Status: service.StatusAborted}, nil, http.StatusInternalServerError},
		{
			"missing grants",
			&service.PassReport{Status: service.StatusAborted, MissingGrants: []string{"INSERT on calendar_events"}},
			fmt.Errorf("%w: INSERT on calendar_events", service.ErrMissingGrants),
			http.StatusForbidden,
		},
		{"unexpected error", nil, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &fakeSyncer{report: tt.report, err: tt.err}
			s, _ := newTestServer(t, syncer)

			rec := do(t, s, http.MethodPost, "/api/sync", "")

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, []service.Trigger{service.TriggerAPI}, syncer.calls)
		})
	}
}

func TestSync_ReportBody(t *testing.T) {
	syncer := &fakeSyncer{report: &service.PassReport{
		ID:         "p1",
		Status:     service.StatusCompleted,
		EventsSeen: 3,
		Partitions: map[models.Category]models.SyncStats{models.CategoryAttending: {Added: 3}},
	}}
	s, _ := newTestServer(t, syncer)

	rec := do(t, s, http.MethodPost, "/api/sync", "")

	var got service.PassReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, 3, got.Partitions[models.CategoryAttending].Added)
}

func TestLastReport(t *testing.T) {
	syncer := &fakeSyncer{}
	s, _ := newTestServer(t, syncer)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/sync/last", "").Code)

	syncer.last = &service.PassReport{ID: "p9", Status: service.StatusCompleted}
	rec := do(t, s, http.MethodGet, "/api/sync/last", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"p9"`)
}

func TestCategories_GetAndUpdate(t *testing.T) {
	s, store := newTestServer(t, &fakeSyncer{})

	rec := do(t, s, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recurring"`)

	rec = do(t, s, http.MethodPut, "/api/categories/declined",
		`{"enabled":false,"display_name":"Nope","color":"#ff0000","reminders":[30,10,10],"all_day_reminders":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got config.CategoryConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Enabled)
	assert.Equal(t, []int{10, 30}, got.Reminders)

	assert.False(t, store.Snapshot().For(models.CategoryDeclined).Enabled)
}

func TestCategories_UpdateRejectsBadInput(t *testing.T) {
	s, _ := newTestServer(t, &fakeSyncer{})

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPut, "/api/categories/interested", `{"enabled":true}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPut, "/api/categories/declined", `{not json`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPut, "/api/categories/declined", `{"colour":"red"}`).Code)
}
