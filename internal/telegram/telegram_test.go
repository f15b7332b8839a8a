package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/eventsync/internal/service"
	"github.com/Kerhoff/eventsync/pkg/logger"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendMessage(chatID int64, text string) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return f.err
}

type fakeHandler struct {
	calls [][]string
	err   error
}

func (h *fakeHandler) Handle(_ context.Context, sender Sender, message *tgbotapi.Message, args []string) error {
	h.calls = append(h.calls, args)
	if h.err != nil {
		return h.err
	}
	return sender.SendMessage(message.Chat.ID, "ok")
}

func command(chatID int64, text string, length int) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		Text:      text,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: 7, UserName: "owner"},
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func TestRouter_DispatchesCommandWithArgs(t *testing.T) {
	router := NewRouter(0, logger.Discard())
	handler := &fakeHandler{}
	router.RegisterCommand("sync", handler)
	sender := &fakeSender{}

	router.HandleMessage(context.Background(), sender, command(10, "/sync now please", 5))

	require.Len(t, handler.calls, 1)
	assert.Equal(t, []string{"now", "please"}, handler.calls[0])
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(10), sender.sent[0].chatID)
}

func TestRouter_IgnoresOtherChats(t *testing.T) {
	router := NewRouter(10, logger.Discard())
	handler := &fakeHandler{}
	router.RegisterCommand("sync", handler)
	sender := &fakeSender{}

	router.HandleMessage(context.Background(), sender, command(99, "/sync", 5))

	assert.Empty(t, handler.calls)
	assert.Empty(t, sender.sent)
}

func TestRouter_UnknownCommandAndHandlerError(t *testing.T) {
	router := NewRouter(0, logger.Discard())
	router.RegisterCommand("stats", &fakeHandler{err: errors.New("boom")})
	sender := &fakeSender{}

	router.HandleMessage(context.Background(), sender, command(1, "/nope", 5))
	router.HandleMessage(context.Background(), sender, command(1, "/stats", 6))

	require.Len(t, sender.sent, 2)
	assert.Contains(t, sender.sent[0].text, "Unknown command")
	assert.Contains(t, sender.sent[1].text, "error occurred")
}

func TestRouter_IgnoresPlainText(t *testing.T) {
	router := NewRouter(0, logger.Discard())
	handler := &fakeHandler{}
	router.RegisterCommand("sync", handler)

	router.HandleMessage(context.Background(), &fakeSender{}, &tgbotapi.Message{Text: "sync", Chat: &tgbotapi.Chat{ID: 1}})

	assert.Empty(t, handler.calls)
}

func TestRouter_Commands(t *testing.T) {
	router := NewRouter(0, logger.Discard())
	router.RegisterCommand("sync", &fakeHandler{})
	router.RegisterCommand("help", &fakeHandler{})

	assert.Equal(t, []string{"help", "sync"}, router.Commands())
}

func TestNotifier_RequestGrants(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, 42, logger.Discard())

	n.RequestGrants(context.Background(), "me@example.com", []string{"calendar.write", "calendar.read"})

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(42), sender.sent[0].chatID)
	assert.Contains(t, sender.sent[0].text, "me@example.com")
	assert.Contains(t, sender.sent[0].text, "`calendar.write`")
	assert.Contains(t, sender.sent[0].text, "`calendar.read`")
}

func TestNotifier_NotifyPass(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, 42, logger.Discard())

	n.NotifyPass(context.Background(), &service.PassReport{
		ID:         "p1",
		Status:     service.StatusCompleted,
		FeedErrors: []string{"graph: unexpected status 500"},
	})
	n.NotifyPass(context.Background(), &service.PassReport{
		ID:     "p2",
		Status: service.StatusAborted,
		Reason: "version reset failed",
	})
	n.NotifyPass(context.Background(), &service.PassReport{
		ID:            "p3",
		Status:        service.StatusAborted,
		MissingGrants: []string{"calendar.write"},
	})

	require.Len(t, sender.sent, 2)
	assert.Contains(t, sender.sent[0].text, "feed errors")
	assert.Contains(t, sender.sent[0].text, "graph: unexpected status 500")
	assert.Contains(t, sender.sent[1].text, "version reset failed")
}

func TestNotifier_SendFailureIsLogged(t *testing.T) {
	sender := &fakeSender{err: errors.New("network down")}
	n := NewNotifier(sender, 42, logger.Discard())

	assert.NotPanics(t, func() {
		n.RequestGrants(context.Background(), "acct", []string{"x"})
	})
}
