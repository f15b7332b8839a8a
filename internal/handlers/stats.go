package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/eventsync/internal/telegram"
)

// StatsHandler handles the /stats command.
type StatsHandler struct {
	svc    Syncer
	logger *logrus.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(svc Syncer, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{svc: svc, logger: logger}
}

// Handle replies with the last pass report.
func (h *StatsHandler) Handle(_ context.Context, sender telegram.Sender, message *tgbotapi.Message, args []string) error {
	text := "📭 No sync pass has run yet. Use /sync to start one."
	if report := h.svc.LastReport(); report != nil {
		text = FormatReport(report)
	}

	if err := sender.SendMessage(message.Chat.ID, text); err != nil {
		return fmt.Errorf("failed to send stats: %w", err)
	}
	return nil
}
