package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/Kerhoff/eventsync/internal/config"
	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/service"
)

var statusIcons = map[service.Status]string{
	service.StatusCompleted: "✅",
	service.StatusThrottled: "⏳",
	service.StatusBusy:      "🔄",
	service.StatusAborted:   "❌",
}

// FormatReport renders a pass report as a Markdown chat message.
func FormatReport(report *service.PassReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s *Sync %s*\n", statusIcons[report.Status], report.Status)
	if report.Reason != "" {
		fmt.Fprintf(&b, "_%s_\n", report.Reason)
	}
	fmt.Fprintf(&b, "Started: %s\n", report.StartedAt.Format("2006-01-02 15:04:05"))

	if report.Status != service.StatusCompleted {
		for _, grant := range report.MissingGrants {
			fmt.Fprintf(&b, "• missing `%s`\n", grant)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	fmt.Fprintf(&b, "Duration: %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "Events seen: %d\n", report.EventsSeen)
	if report.Unroutable > 0 {
		fmt.Fprintf(&b, "Unroutable: %d\n", report.Unroutable)
	}
	if report.VersionReset {
		b.WriteString("Calendars were recreated after an upgrade\n")
	}

	b.WriteString("\n")
	for _, c := range models.Categories {
		s, ok := report.Partitions[c]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "*%s*: +%d ~%d -%d", c, s.Added, s.Modified, s.Removed)
		if s.Failed > 0 {
			fmt.Fprintf(&b, " (%d failed)", s.Failed)
		}
		b.WriteString("\n")
	}

	for _, e := range report.FeedErrors {
		fmt.Fprintf(&b, "⚠️ %s\n", e)
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatCategories renders the category policy as a Markdown chat message.
func FormatCategories(cats *config.Categories) string {
	var b strings.Builder
	b.WriteString("🗂 *Categories*\n")
	for _, c := range models.Categories {
		cc := cats.For(c)
		icon := "⚪"
		if cc.Enabled {
			icon = "🟢"
		}
		fmt.Fprintf(&b, "\n%s *%s* (%s)\n", icon, cc.DisplayName, c)
		if !cc.Enabled {
			continue
		}
		fmt.Fprintf(&b, "Color: `%s`\n", cc.Color)
		fmt.Fprintf(&b, "Reminders: %s / all-day: %s\n", formatOffsets(cc.Reminders), formatOffsets(cc.AllDayReminders))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatOffsets(offsets []int) string {
	if len(offsets) == 0 {
		return "none"
	}
	parts := make([]string, len(offsets))
	for i, o := range offsets {
		parts[i] = (time.Duration(o) * time.Minute).String()
	}
	return strings.Join(parts, ", ")
}
