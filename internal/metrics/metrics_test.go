package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/eventsync/internal/models"
)

func TestRecorder_CountAndObserve(t *testing.T) {
	r := New()
	finished := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	r.CountPass("completed")
	r.ObserveCompleted(finished, 2*time.Second, map[models.Category]models.SyncStats{
		models.CategoryAttending: {Added: 3, Modified: 1, Failed: 1},
		models.CategoryRecurring: {Removed: 2},
	})
	r.CountPass("skipped_throttled")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.passes.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.passes.WithLabelValues("skipped_throttled")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.records.WithLabelValues("attending", "added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.records.WithLabelValues("attending", "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.records.WithLabelValues("recurring", "removed")))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(r.lastSuccess))
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.ObserveCompleted(time.Now(), time.Second, map[models.Category]models.SyncStats{
		models.CategoryAttending: {Added: 1},
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `eventsync_records_total{category="attending",outcome="added"} 1`)
	assert.Contains(t, string(body), "eventsync_pass_duration_seconds_count 1")
}
