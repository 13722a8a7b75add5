package repository

import "context"

// Messenger — используемое подмножество Bot API мессенджера.
// Для сервиса это stateless-коллаборатор: единственное состояние, которое
// читается обратно, — идентификаторы отправленных сообщений.
type Messenger interface {
	// SendMessage отправляет обычное текстовое сообщение.
	SendMessage(ctx context.Context, chatID int64, text string) (messageID int, err error)

	// SendPhoto отправляет фото по URL с подписью и возвращает id сообщения.
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) (messageID int, err error)

	// SendMarkdown отправляет сообщение с Markdown-разметкой (упоминание пользователя).
	SendMarkdown(ctx context.Context, chatID int64, text string) (messageID int, err error)

	// DeleteMessage удаляет сообщение. "Уже удалено" — не ошибка для вызывающего,
	// классификацию даёт messenger.IsMessageGone.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// Unban снимает бан, чтобы пользователь мог войти заново.
	Unban(ctx context.Context, chatID, userID int64) error
}
