// Package feed turns remote event listings into normalized events.
//
// Two transports are supported: iCal exports (one page per fetch) and a
// cursor-paginated JSON API. Both implement Source; the orchestrator drives
// the paging loop and hands every event to the reconciliation registry.
package feed

import (
	"context"
	"net/url"
	"strings"

	"github.com/Kerhoff/eventsync/internal/models"
)

// Page is one response of a feed.
type Page struct {
	Events []models.NormalizedEvent
	// NextCursor is empty on the last page.
	NextCursor string
}

// Source produces a finite, paginated sequence of normalized events.
type Source interface {
	// Name identifies the source in logs and reports.
	Name() string
	// Fetch returns the page at cursor; the empty cursor is the first page.
	Fetch(ctx context.Context, cursor string) (*Page, error)
}

// DefaultLinkBase prefixes event and profile links.
const DefaultLinkBase = "https://www.facebook.com/"

// secretParams are query parameters hidden from logs.
var secretParams = []string{"uid", "key", "access_token", "token"}

// redactURL strips credentials from a feed URL before it is logged.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	if u.User != nil {
		u.User = url.User("hidden")
	}
	q := u.Query()
	changed := false
	for _, name := range secretParams {
		if q.Has(name) {
			q.Set(name, "hidden")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func linkBase(base string) string {
	if base == "" {
		base = DefaultLinkBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
