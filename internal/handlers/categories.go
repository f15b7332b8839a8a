package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/eventsync/internal/service"
	"github.com/Kerhoff/eventsync/internal/telegram"
)

// CategoriesHandler handles the /categories command.
type CategoriesHandler struct {
	categories service.CategorySource
	logger     *logrus.Logger
}

// NewCategoriesHandler creates a new CategoriesHandler.
func NewCategoriesHandler(categories service.CategorySource, logger *logrus.Logger) *CategoriesHandler {
	return &CategoriesHandler{categories: categories, logger: logger}
}

// Handle lists the category policy.
func (h *CategoriesHandler) Handle(_ context.Context, sender telegram.Sender, message *tgbotapi.Message, args []string) error {
	if err := sender.SendMessage(message.Chat.ID, FormatCategories(h.categories.Snapshot())); err != nil {
		return fmt.Errorf("failed to send categories: %w", err)
	}
	return nil
}
