package handlers

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/eventsync/internal/service"
	"github.com/Kerhoff/eventsync/internal/telegram"
)

// SyncHandler handles the /sync command.
type SyncHandler struct {
	svc    Syncer
	logger *logrus.Logger
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(svc Syncer, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{svc: svc, logger: logger}
}

// Handle runs a pass and replies with its report.
func (h *SyncHandler) Handle(ctx context.Context, sender telegram.Sender, message *tgbotapi.Message, args []string) error {
	report, err := h.svc.RunPass(ctx, service.TriggerBot)
	if err != nil && !errors.Is(err, service.ErrMissingGrants) {
		return fmt.Errorf("failed to run sync pass: %w", err)
	}

	if err := sender.SendMessage(message.Chat.ID, FormatReport(report)); err != nil {
		return fmt.Errorf("failed to send sync report: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"pass_id": report.ID,
		"status":  report.Status,
	}).Info("Sync requested from chat")

	return nil
}
