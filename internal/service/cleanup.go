package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/yourusername/gatekeeper-bot/internal/domain/repository"
	apperrors "github.com/yourusername/gatekeeper-bot/internal/pkg/errors"
)

// adminWarning отправляется в чат, когда у бота не хватает прав на удаление сообщений.
const adminWarning = "Howl... I need to be an admin in order to work properly (privilege to delete messages)."

// CleanupCall — один независимый исходящий вызов в рамках терминального перехода.
type CleanupCall struct {
	Name string
	Do   func(ctx context.Context) error
}

// CleanupDispatcher исполняет набор независимых исходящих вызовов конкурентно
// и дожидается завершения всех. Отказ одного вызова не отменяет остальные:
// мутация хранилища уже совершена, очистка сообщений — best-effort.
type CleanupDispatcher struct {
	messenger repository.Messenger
}

// NewCleanupDispatcher создает диспетчер очистки.
func NewCleanupDispatcher(messenger repository.Messenger) (*CleanupDispatcher, error) {
	if messenger == nil {
		return nil, fmt.Errorf("messenger is required for CleanupDispatcher")
	}
	return &CleanupDispatcher{messenger: messenger}, nil
}

// Dispatch запускает все вызовы параллельно и классифицирует их результаты:
// ожидаемые гонки идемпотентных удалений молча проглатываются, нехватка прав
// один раз на переход сигналится в чат, остальное только логируется.
func (d *CleanupDispatcher) Dispatch(ctx context.Context, chatID int64, calls ...CleanupCall) {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		rightsErr error
	)

	for _, call := range calls {
		wg.Add(1)
		go func(c CleanupCall) {
			defer wg.Done()
			err := c.Do(ctx)
			switch {
			case err == nil:
			case errors.Is(err, apperrors.ErrMessageGone):
				// Сообщение уже удалили конкурирующим переходом
			case errors.Is(err, apperrors.ErrNoRights):
				mu.Lock()
				rightsErr = err
				mu.Unlock()
				log.Printf("Cleanup: нет прав для %q в чате %d: %v", c.Name, chatID, err)
			default:
				log.Printf("Cleanup: ошибка %q в чате %d: %v", c.Name, chatID, err)
			}
		}(call)
	}
	wg.Wait()

	if rightsErr != nil {
		text := fmt.Sprintf("%s\n\n%v", adminWarning, rightsErr)
		if _, err := d.messenger.SendMessage(ctx, chatID, text); err != nil {
			log.Printf("Cleanup: не удалось отправить предупреждение о правах в чат %d: %v", chatID, err)
		}
	}
}

// DeleteMessage строит вызов удаления сообщения.
func (d *CleanupDispatcher) DeleteMessage(chatID int64, messageID int) CleanupCall {
	return CleanupCall{
		Name: fmt.Sprintf("delete message %d", messageID),
		Do: func(ctx context.Context) error {
			return d.messenger.DeleteMessage(ctx, chatID, messageID)
		},
	}
}

// Unban строит вызов снятия бана.
func (d *CleanupDispatcher) Unban(chatID, userID int64) CleanupCall {
	return CleanupCall{
		Name: fmt.Sprintf("unban user %d", userID),
		Do: func(ctx context.Context) error {
			return d.messenger.Unban(ctx, chatID, userID)
		},
	}
}

// SendMarkdown строит вызов отправки сообщения с разметкой.
func (d *CleanupDispatcher) SendMarkdown(chatID int64, text string) CleanupCall {
	return CleanupCall{
		Name: "send message",
		Do: func(ctx context.Context) error {
			_, err := d.messenger.SendMarkdown(ctx, chatID, text)
			return err
		},
	}
}
