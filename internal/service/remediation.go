package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// Remediator is asked to get missing capability grants fixed, typically by
// notifying an operator. It must not block the pass for long.
type Remediator interface {
	RequestGrants(ctx context.Context, accountKey string, missing []string)
}

// LogRemediator only logs the missing grants.
type LogRemediator struct {
	Logger *logrus.Logger
}

func (r LogRemediator) RequestGrants(_ context.Context, accountKey string, missing []string) {
	r.Logger.WithField("account", accountKey).Errorf("Missing capability grants: %s", strings.Join(missing, ", "))
}

// MultiRemediator fans a request out to several remediators.
type MultiRemediator []Remediator

func (m MultiRemediator) RequestGrants(ctx context.Context, accountKey string, missing []string) {
	for _, r := range m {
		r.RequestGrants(ctx, accountKey, missing)
	}
}

// Notifier is told about passes that need operator attention: aborted
// passes and passes where a feed failed.
type Notifier interface {
	NotifyPass(ctx context.Context, report *PassReport)
}

func needsAttention(report *PassReport) bool {
	return report.Status == StatusAborted || len(report.FeedErrors) > 0
}
