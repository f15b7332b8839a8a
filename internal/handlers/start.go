package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/eventsync/internal/telegram"
)

// StartHandler handles the /start command
type StartHandler struct {
	logger *logrus.Logger
}

// NewStartHandler creates a new start command handler
func NewStartHandler(logger *logrus.Logger) *StartHandler {
	return &StartHandler{
		logger: logger,
	}
}

// Handle processes the /start command
func (h *StartHandler) Handle(_ context.Context, sender telegram.Sender, message *tgbotapi.Message, args []string) error {
	welcomeText := `📅 *Welcome to eventsync!*

I keep your local calendars in step with your Facebook events and birthdays.

*Available Commands:*
• /sync - Run a sync pass now
• /stats - Show the last pass
• /categories - Show calendar categories
• /help - Show this help message

Passes also run on a schedule; I will tell you here when one goes wrong.`

	if err := sender.SendMessage(message.Chat.ID, welcomeText); err != nil {
		return fmt.Errorf("failed to send start message: %w", err)
	}

	h.logger.WithField("chat_id", message.Chat.ID).Info("Sent start message")

	return nil
}
