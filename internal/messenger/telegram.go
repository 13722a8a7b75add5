package messenger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tb "gopkg.in/tucnak/telebot.v2"

	apperrors "github.com/yourusername/gatekeeper-bot/internal/pkg/errors"
)

// TelegramMessenger реализует repository.Messenger поверх Bot API.
// Контекст вызовов не пробрасывается: у клиента Bot API собственный
// HTTP-таймаут, а откат терминального перехода по таймауту не предусмотрен.
type TelegramMessenger struct {
	bot *tb.Bot
}

// New создает мессенджер с готовым экземпляром бота.
func New(bot *tb.Bot) (*TelegramMessenger, error) {
	if bot == nil {
		return nil, fmt.Errorf("telebot instance cannot be nil")
	}
	return &TelegramMessenger{bot: bot}, nil
}

// NewFromToken создает бота по токену. Поллер не запускается: все
// обновления приходят через вебхук, бот используется только для исходящих вызовов.
func NewFromToken(token string) (*TelegramMessenger, error) {
	bot, err := tb.NewBot(tb.Settings{
		Token:  token,
		Poller: &tb.LongPoller{Timeout: 15 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return New(bot)
}

// SendMessage отправляет обычное текстовое сообщение.
func (m *TelegramMessenger) SendMessage(_ context.Context, chatID int64, text string) (int, error) {
	msg, err := m.bot.Send(tb.ChatID(chatID), text)
	if err != nil {
		return 0, classify(err)
	}
	return msg.ID, nil
}

// SendPhoto отправляет фото по URL с подписью.
func (m *TelegramMessenger) SendPhoto(_ context.Context, chatID int64, photoURL, caption string) (int, error) {
	photo := &tb.Photo{File: tb.FromURL(photoURL), Caption: caption}
	msg, err := m.bot.Send(tb.ChatID(chatID), photo)
	if err != nil {
		return 0, classify(err)
	}
	return msg.ID, nil
}

// SendMarkdown отправляет сообщение с Markdown-разметкой.
func (m *TelegramMessenger) SendMarkdown(_ context.Context, chatID int64, text string) (int, error) {
	msg, err := m.bot.Send(tb.ChatID(chatID), text, &tb.SendOptions{ParseMode: tb.ModeMarkdown})
	if err != nil {
		return 0, classify(err)
	}
	return msg.ID, nil
}

// DeleteMessage удаляет сообщение по chat id + message id.
func (m *TelegramMessenger) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	ref := tb.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
	if err := m.bot.Delete(ref); err != nil {
		return classify(err)
	}
	return nil
}

// Unban снимает бан с пользователя, чтобы тот мог войти заново.
func (m *TelegramMessenger) Unban(_ context.Context, chatID, userID int64) error {
	chat := &tb.Chat{ID: chatID}
	user := &tb.User{ID: userID}
	if err := m.bot.Unban(chat, user); err != nil {
		return classify(err)
	}
	return nil
}

// classify переводит ошибки Bot API в сентинелы приложения.
// "message to delete not found" — ожидаемая гонка идемпотентных удалений,
// "not enough rights" — системная проблема с правами бота.
func classify(err error) error {
	var apiErr *tb.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	desc := strings.ToLower(apiErr.Description)
	switch {
	case strings.Contains(desc, "message to delete not found"),
		strings.Contains(desc, "message can't be deleted"),
		strings.Contains(desc, "message_id_invalid"):
		return fmt.Errorf("%w: %s", apperrors.ErrMessageGone, apiErr.Description)
	case strings.Contains(desc, "not enough rights"),
		strings.Contains(desc, "need administrator rights"),
		strings.Contains(desc, "chat_admin_required"):
		return fmt.Errorf("%w: %s", apperrors.ErrNoRights, apiErr.Description)
	}
	return err
}
