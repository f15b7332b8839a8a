package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/eventsync/internal/telegram"
)

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(_ context.Context, sender telegram.Sender, message *tgbotapi.Message, args []string) error {
	helpText := `📚 *eventsync Help*

*Sync:*
• /sync - Run a pass now (throttled like scheduled passes)
• /stats - Result of the last pass

*Calendars:*
• /categories - Enabled categories, colors and reminders

_Categories are edited in the categories file and apply on the next pass._`

	if err := sender.SendMessage(message.Chat.ID, helpText); err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.WithField("chat_id", message.Chat.ID).Info("Sent help message")

	return nil
}
