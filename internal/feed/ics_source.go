package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/eventsync/internal/clock"
)

const defaultHTTPTimeout = 15 * time.Second

// ICSSource fetches an iCal export over HTTP. The export is a single page.
// Responses are cached in memory and revalidated with ETag and
// Last-Modified; on a network error the cached body is reused.
type ICSSource struct {
	name   string
	url    string
	client *http.Client
	opts   ParseOptions
	clock  clock.Clock
	logger *logrus.Logger

	mu    sync.Mutex
	cache icsCache
}

type icsCache struct {
	etag         string
	lastModified string
	body         []byte
}

// NewICSSource creates an iCal source. opts.Now and opts.Log are set per fetch.
func NewICSSource(name, url string, opts ParseOptions, clk clock.Clock, logger *logrus.Logger) *ICSSource {
	return &ICSSource{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: defaultHTTPTimeout},
		opts:   opts,
		clock:  clk,
		logger: logger,
	}
}

// WithHTTPClient replaces the HTTP client.
func (s *ICSSource) WithHTTPClient(client *http.Client) *ICSSource {
	s.client = client
	return s
}

func (s *ICSSource) Name() string { return s.name }

func (s *ICSSource) Fetch(ctx context.Context, cursor string) (*Page, error) {
	if cursor != "" {
		return &Page{}, nil
	}

	log := s.logger.WithFields(logrus.Fields{
		"source": s.name,
		"url":    redactURL(s.url),
	})

	body, fromCache, err := s.download(ctx, log)
	if err != nil {
		return nil, err
	}

	opts := s.opts
	opts.Now = s.clock.Now()
	opts.Log = log

	events, err := ParseICS(body, opts)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"events":     len(events),
		"from_cache": fromCache,
	}).Info("Fetched iCal feed")

	return &Page{Events: events}, nil
}

func (s *ICSSource) download(ctx context.Context, log *logrus.Entry) ([]byte, bool, error) {
	if s.url == "" {
		return nil, false, errors.New("source URL is empty")
	}

	s.mu.Lock()
	cached := s.cache
	s.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}
	if len(cached.body) > 0 {
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if len(cached.body) > 0 && ctx.Err() == nil {
			log.WithError(err).Warn("iCal fetch failed, using cached body")
			return cached.body, true, nil
		}
		return nil, false, fmt.Errorf("failed to fetch %s: %w", redactURL(s.url), err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read iCal body: %w", err)
		}
		s.mu.Lock()
		s.cache = icsCache{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
		}
		s.mu.Unlock()
		return body, false, nil
	case http.StatusNotModified:
		if len(cached.body) == 0 {
			return nil, false, errors.New("got 304 Not Modified without a cached body")
		}
		return cached.body, true, nil
	default:
		return nil, false, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, redactURL(s.url))
	}
}
