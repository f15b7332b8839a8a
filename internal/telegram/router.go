package telegram

import (
	"context"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Sender delivers a Markdown message to a chat.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// Router handles message routing and command parsing
type Router struct {
	logger        *logrus.Logger
	allowedChatID int64
	handlers      map[string]CommandHandler
}

// CommandHandler defines the interface for command handlers
type CommandHandler interface {
	Handle(ctx context.Context, sender Sender, message *tgbotapi.Message, args []string) error
}

// NewRouter creates a new message router
func NewRouter(allowedChatID int64, logger *logrus.Logger) *Router {
	return &Router{
		logger:        logger,
		allowedChatID: allowedChatID,
		handlers:      make(map[string]CommandHandler),
	}
}

// RegisterCommand registers a command handler
func (r *Router) RegisterCommand(command string, handler CommandHandler) {
	r.handlers[command] = handler
	r.logger.Debugf("Registered command: %s", command)
}

// Commands returns the registered command names, sorted.
func (r *Router) Commands() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HandleMessage handles incoming messages
func (r *Router) HandleMessage(ctx context.Context, sender Sender, message *tgbotapi.Message) {
	if message.Text == "" || !message.IsCommand() {
		return
	}

	fields := logrus.Fields{
		"chat_id":    message.Chat.ID,
		"message_id": message.MessageID,
		"command":    message.Command(),
	}
	if message.From != nil {
		fields["user_id"] = message.From.ID
		fields["username"] = message.From.UserName
	}
	log := r.logger.WithFields(fields)

	if r.allowedChatID != 0 && message.Chat.ID != r.allowedChatID {
		log.Warn("Command from unauthorized chat ignored")
		return
	}

	log.Info("Received command")

	command := message.Command()
	args := strings.Fields(message.CommandArguments())

	handler, exists := r.handlers[command]
	if !exists {
		log.Warn("Unknown command")
		if err := sender.SendMessage(message.Chat.ID, "❓ Unknown command. Use /help to see available commands."); err != nil {
			log.WithError(err).Error("Failed to send reply")
		}
		return
	}

	if err := handler.Handle(ctx, sender, message, args); err != nil {
		log.WithError(err).Error("Command handler failed")

		if err := sender.SendMessage(message.Chat.ID, "❌ An error occurred while processing your command. Please try again."); err != nil {
			log.WithError(err).Error("Failed to send reply")
		}
	}
}
