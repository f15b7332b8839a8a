package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Kerhoff/eventsync/internal/clock"
	"github.com/Kerhoff/eventsync/internal/models"
)

// graphFields are requested for every event.
const graphFields = "id,name,description,place,start_time,end_time,owner,is_canceled,rsvp_status"

// pagingHorizon stops paging once a page reaches events this old.
const pagingHorizon = 365 * 24 * time.Hour

var graphTimeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02",
	"20060102",
}

var rsvpStatus = map[string]models.Category{
	"attending":   models.CategoryAttending,
	"unsure":      models.CategoryTentative,
	"declined":    models.CategoryDeclined,
	"not_replied": models.CategoryNoResponse,
}

// GraphConfig configures a GraphSource.
type GraphConfig struct {
	URL           string
	AccessToken   string
	PageLimit     int
	RatePerSecond float64
	IncludeLinks  bool
	LinkBase      string
}

// GraphSource pages through a JSON events API with cursor pagination.
// Requests are paced by a token bucket.
type GraphSource struct {
	cfg     GraphConfig
	client  *http.Client
	limiter *rate.Limiter
	clock   clock.Clock
	logger  *logrus.Logger
}

// NewGraphSource creates a JSON API source.
func NewGraphSource(cfg GraphConfig, clk clock.Clock, logger *logrus.Logger) *GraphSource {
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 100
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &GraphSource{
		cfg:     cfg,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		limiter: rate.NewLimiter(limit, 1),
		clock:   clk,
		logger:  logger,
	}
}

// WithHTTPClient replaces the HTTP client.
func (s *GraphSource) WithHTTPClient(client *http.Client) *GraphSource {
	s.client = client
	return s
}

func (s *GraphSource) Name() string { return "graph" }

type graphResponse struct {
	Data   []graphEvent `json:"data"`
	Paging *struct {
		Cursors struct {
			After string `json:"after"`
		} `json:"cursors"`
		Next string `json:"next"`
	} `json:"paging"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

type graphEvent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsCanceled  bool   `json:"is_canceled"`
	RSVPStatus  string `json:"rsvp_status"`
	Owner       *struct {
		Name string `json:"name"`
	} `json:"owner"`
	Place *graphPlace `json:"place"`
}

type graphPlace struct {
	Name     string `json:"name"`
	Location *struct {
		Street  string `json:"street"`
		City    string `json:"city"`
		Country string `json:"country"`
	} `json:"location"`
}

func (s *GraphSource) Fetch(ctx context.Context, cursor string) (*Page, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL, err := s.pageURL(cursor)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events page: %w", err)
	}
	defer resp.Body.Close()

	var body graphResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode events page (status %d): %w", resp.StatusCode, err)
	}
	if body.Error != nil {
		return nil, fmt.Errorf("events API error %d (%s): %s", body.Error.Code, body.Error.Type, body.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from events API", resp.StatusCode)
	}

	log := s.logger.WithField("source", s.Name())
	page := &Page{Events: make([]models.NormalizedEvent, 0, len(body.Data))}
	var lastStart time.Time
	for _, ge := range body.Data {
		ev, err := s.normalize(ge)
		if err != nil {
			log.WithError(err).WithField("remote_id", ge.ID).Warn("Skipping unparsable event")
			continue
		}
		lastStart = ev.Start
		if ge.IsCanceled {
			// Not forwarded, so finalize removes a previously synced copy.
			continue
		}
		if ev.Status == "" {
			log.WithFields(logrus.Fields{
				"remote_id": ge.ID,
				"rsvp":      ge.RSVPStatus,
			}).Warn("Unknown RSVP status")
		}
		page.Events = append(page.Events, ev)
	}

	if body.Paging != nil && body.Paging.Next != "" && len(body.Data) > 0 {
		page.NextCursor = body.Paging.Cursors.After
	}
	if !lastStart.IsZero() && lastStart.Before(s.clock.Now().Add(-pagingHorizon)) {
		page.NextCursor = ""
	}

	log.WithFields(logrus.Fields{
		"events":    len(page.Events),
		"has_next":  page.NextCursor != "",
		"cursor_in": cursor != "",
	}).Debug("Fetched events page")

	return page, nil
}

func (s *GraphSource) pageURL(cursor string) (string, error) {
	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid events API URL: %w", err)
	}
	q := u.Query()
	q.Set("fields", graphFields)
	q.Set("limit", strconv.Itoa(s.cfg.PageLimit))
	if cursor != "" {
		q.Set("after", cursor)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *GraphSource) normalize(ge graphEvent) (models.NormalizedEvent, error) {
	ev := models.NormalizedEvent{
		RemoteID: ge.ID,
		Title:    ge.Name,
		Status:   rsvpStatus[ge.RSVPStatus],
		Location: ge.Place.String(),
	}
	if ge.ID == "" {
		return ev, fmt.Errorf("event without id")
	}
	if ge.Owner != nil {
		ev.Organizer = ge.Owner.Name
	}

	start, allDay, err := parseGraphTime(ge.StartTime)
	if err != nil {
		return ev, fmt.Errorf("invalid start_time: %w", err)
	}
	ev.Start = start
	ev.AllDay = allDay
	if ge.EndTime != "" {
		end, _, err := parseGraphTime(ge.EndTime)
		if err != nil {
			return ev, fmt.Errorf("invalid end_time: %w", err)
		}
		ev.End = &end
	}

	ev.Link = linkBase(s.cfg.LinkBase) + "events/" + ge.ID
	if ge.Description != "" {
		ev.Description = ge.Description
		if s.cfg.IncludeLinks {
			ev.Description += "\n\n" + ev.Link
		}
	}

	return ev, nil
}

func (p *graphPlace) String() string {
	if p == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	if p.Name != "" {
		parts = append(parts, p.Name)
	}
	if p.Location != nil {
		for _, v := range []string{p.Location.Street, p.Location.City, p.Location.Country} {
			if v != "" {
				parts = append(parts, v)
			}
		}
	}
	return strings.Join(parts, ", ")
}

func parseGraphTime(v string) (time.Time, bool, error) {
	for _, layout := range graphTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, !strings.Contains(layout, "15"), nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized time %q", v)
}
