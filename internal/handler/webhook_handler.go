package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/yourusername/gatekeeper-bot/internal/domain/entity"
)

// VerificationProcessor — вход конечного автомата проверки.
// Вебхук только разбирает update и выбирает переход; вся логика в сервисе.
type VerificationProcessor interface {
	HandleJoin(ctx context.Context, ev entity.JoinEvent) error
	HandleLeave(ctx context.Context, ev entity.LeaveEvent) error
	HandleMessage(ctx context.Context, ev entity.MessageEvent) error
}

// WebhookHandler принимает входящие update-ы Bot API.
type WebhookHandler struct {
	processor VerificationProcessor
}

// NewWebhookHandler создает обработчик вебхука.
func NewWebhookHandler(processor VerificationProcessor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// HandleUpdate обрабатывает один update.
// Неполные или неприменимые события (нет сообщения, нет отправителя,
// событие от бота) — не ошибка: отвечаем 200, чтобы не попасть в ретраи.
// Транзиентный сбой хранилища — 500: мессенджер передоставит update.
func (h *WebhookHandler) HandleUpdate(c *gin.Context) {
	var update tb.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.Printf("Webhook: некорректное тело запроса: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed update"})
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		c.Status(http.StatusOK)
		return
	}

	ctx := c.Request.Context()
	var err error
	switch {
	case len(msg.UsersJoined) > 0 || msg.UserJoined != nil:
		err = h.processor.HandleJoin(ctx, joinEvent(msg))
	case msg.UserLeft != nil:
		err = h.processor.HandleLeave(ctx, leaveEvent(msg))
	case msg.Sender != nil:
		err = h.processor.HandleMessage(ctx, messageEvent(msg))
	}

	if err != nil {
		log.Printf("Webhook: обработка update %d не удалась: %v", update.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update not processed"})
		return
	}
	c.Status(http.StatusOK)
}

func joinEvent(msg *tb.Message) entity.JoinEvent {
	ev := entity.JoinEvent{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
	}
	for i := range msg.UsersJoined {
		ev.Members = append(ev.Members, toMember(&msg.UsersJoined[i]))
	}
	if len(ev.Members) == 0 && msg.UserJoined != nil {
		ev.Members = append(ev.Members, toMember(msg.UserJoined))
	}
	return ev
}

func leaveEvent(msg *tb.Message) entity.LeaveEvent {
	return entity.LeaveEvent{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Member:    toMember(msg.UserLeft),
	}
}

func messageEvent(msg *tb.Message) entity.MessageEvent {
	return entity.MessageEvent{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Sender:    toMember(msg.Sender),
		Text:      msg.Text,
	}
}

func toMember(u *tb.User) entity.Member {
	if u == nil {
		return entity.Member{}
	}
	return entity.Member{
		ID:        int64(u.ID),
		IsBot:     u.IsBot,
		Username:  u.Username,
		FirstName: u.FirstName,
	}
}
