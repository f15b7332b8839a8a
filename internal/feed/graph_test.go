package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/eventsync/internal/clock"
	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/pkg/logger"
)

func graphServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, graphFields, r.URL.Query().Get("fields"))

		body, ok := pages[r.URL.Query().Get("after")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"unknown cursor","type":"OAuthException","code":100}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func newTestGraphSource(url string) *GraphSource {
	return NewGraphSource(GraphConfig{
		URL:          url + "/me/events",
		AccessToken:  "token",
		PageLimit:    2,
		IncludeLinks: true,
	}, clock.Fixed(feedNow), logger.Discard())
}

func TestGraphSource_Pagination(t *testing.T) {
	srv := graphServer(t, map[string]string{
		"": `{
			"data": [
				{"id": "1", "name": "Concert", "start_time": "2025-07-01T20:00:00+0200", "end_time": "2025-07-01T23:00:00+0200",
				 "rsvp_status": "attending", "owner": {"name": "Venue"}, "description": "Live music",
				 "place": {"name": "Club", "location": {"city": "Prague", "country": "Czechia"}}},
				{"id": "2", "name": "Meetup", "start_time": "2025-07-02T18:00:00+0000", "rsvp_status": "unsure"}
			],
			"paging": {"cursors": {"before": "a", "after": "page2"}, "next": "https://graph.example/next"}
		}`,
		"page2": `{
			"data": [
				{"id": "3", "name": "Cancelled", "start_time": "2025-07-03T18:00:00+0000", "rsvp_status": "declined", "is_canceled": true},
				{"id": "4", "name": "Picnic", "start_time": "2025-07-04", "rsvp_status": "not_replied"}
			],
			"paging": {"cursors": {"before": "b", "after": "page3"}}
		}`,
	})
	defer srv.Close()

	src := newTestGraphSource(srv.URL)
	ctx := context.Background()

	first, err := src.Fetch(ctx, "")
	require.NoError(t, err)
	require.Len(t, first.Events, 2)
	assert.Equal(t, "page2", first.NextCursor)

	concert := first.Events[0]
	assert.Equal(t, "1", concert.RemoteID)
	assert.Equal(t, models.CategoryAttending, concert.Status)
	assert.Equal(t, "Venue", concert.Organizer)
	assert.Equal(t, "Club, Prague, Czechia", concert.Location)
	assert.Equal(t, "Live music\n\nhttps://www.facebook.com/events/1", concert.Description)
	assert.True(t, time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC).Equal(concert.Start))
	require.NotNil(t, concert.End)
	assert.Nil(t, first.Events[1].End)
	assert.Equal(t, models.CategoryTentative, first.Events[1].Status)

	second, err := src.Fetch(ctx, first.NextCursor)
	require.NoError(t, err)
	require.Len(t, second.Events, 1, "cancelled events are not forwarded")
	assert.Equal(t, "4", second.Events[0].RemoteID)
	assert.True(t, second.Events[0].AllDay)
	assert.Equal(t, models.CategoryNoResponse, second.Events[0].Status)
	assert.Empty(t, second.NextCursor, "no next link ends the feed")
}

func TestGraphSource_StopsAtHorizon(t *testing.T) {
	page := map[string]interface{}{
		"data": []map[string]string{
			{"id": "9", "name": "Old", "start_time": "2023-01-01T10:00:00+0000", "rsvp_status": "attending"},
		},
		"paging": map[string]interface{}{
			"cursors": map[string]string{"after": "more"},
			"next":    "https://graph.example/next",
		},
	}
	raw, err := json.Marshal(page)
	require.NoError(t, err)

	srv := graphServer(t, map[string]string{"": string(raw)})
	defer srv.Close()

	got, err := newTestGraphSource(srv.URL).Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, got.Events, 1)
	assert.Empty(t, got.NextCursor)
}

func TestGraphSource_APIError(t *testing.T) {
	srv := graphServer(t, map[string]string{})
	defer srv.Close()

	_, err := newTestGraphSource(srv.URL).Fetch(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown cursor")
}

func TestGraphSource_CancelledContext(t *testing.T) {
	src := newTestGraphSource("http://127.0.0.1:0")
	src.limiter.SetLimit(0.001)
	src.limiter.AllowN(time.Now(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Fetch(ctx, "")
	assert.Error(t, err)
}
