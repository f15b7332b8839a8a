// Package handlers implements the Telegram bot commands.
package handlers

import (
	"context"

	"github.com/Kerhoff/eventsync/internal/service"
)

// Syncer runs passes and remembers the last one.
type Syncer interface {
	RunPass(ctx context.Context, trigger service.Trigger) (*service.PassReport, error)
	LastReport() *service.PassReport
}
