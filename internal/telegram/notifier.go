package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/eventsync/internal/service"
)

// Notifier posts operator notices to one chat: missing grants and passes
// that were aborted or lost a feed.
type Notifier struct {
	sender Sender
	chatID int64
	logger *logrus.Logger
}

// NewNotifier creates a notifier posting to chatID.
func NewNotifier(sender Sender, chatID int64, logger *logrus.Logger) *Notifier {
	return &Notifier{sender: sender, chatID: chatID, logger: logger}
}

var (
	_ service.Remediator = (*Notifier)(nil)
	_ service.Notifier   = (*Notifier)(nil)
)

// RequestGrants asks the operator to grant the missing privileges.
func (n *Notifier) RequestGrants(_ context.Context, accountKey string, missing []string) {
	var b strings.Builder
	fmt.Fprintf(&b, "🔐 *Sync blocked for* `%s`\n\nThe database role is missing:\n", accountKey)
	for _, grant := range missing {
		fmt.Fprintf(&b, "• `%s`\n", grant)
	}
	b.WriteString("\nGrant them and run /sync again.")

	n.send(b.String())
}

// NotifyPass reports a pass that needs attention.
func (n *Notifier) NotifyPass(_ context.Context, report *service.PassReport) {
	if report.Status == service.StatusAborted && len(report.MissingGrants) > 0 {
		// Already covered by RequestGrants.
		return
	}

	var b strings.Builder
	switch report.Status {
	case service.StatusAborted:
		fmt.Fprintf(&b, "⚠️ *Sync pass aborted*: %s\n", report.Reason)
	default:
		b.WriteString("⚠️ *Sync pass finished with feed errors*\n")
	}
	for _, e := range report.FeedErrors {
		fmt.Fprintf(&b, "• %s\n", e)
	}
	fmt.Fprintf(&b, "\n_pass %s_", report.ID)

	n.send(b.String())
}

func (n *Notifier) send(text string) {
	if err := n.sender.SendMessage(n.chatID, text); err != nil {
		n.logger.WithError(err).WithField("chat_id", n.chatID).Error("Failed to send notice")
	}
}
