package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/gatekeeper-bot/internal/domain/entity"
	"github.com/yourusername/gatekeeper-bot/internal/domain/repository"
	apperrors "github.com/yourusername/gatekeeper-bot/internal/pkg/errors"
)

// ExpiryReaper превращает истечение TTL в тот же терминальный переход,
// что и явный выход: PENDING -> EXPIRED. Дополнительно снимает бан, чтобы
// не ответивший пользователь мог войти заново и получить новую капчу.
type ExpiryReaper struct {
	store   repository.VerificationRepository
	feed    repository.ExpiryFeed
	cleanup *CleanupDispatcher
}

// NewExpiryReaper создает reaper.
func NewExpiryReaper(store repository.VerificationRepository, feed repository.ExpiryFeed, cleanup *CleanupDispatcher) (*ExpiryReaper, error) {
	if store == nil {
		return nil, fmt.Errorf("verification repository is required for ExpiryReaper")
	}
	if feed == nil {
		return nil, fmt.Errorf("expiry feed is required for ExpiryReaper")
	}
	if cleanup == nil {
		return nil, fmt.Errorf("cleanup dispatcher is required for ExpiryReaper")
	}
	return &ExpiryReaper{store: store, feed: feed, cleanup: cleanup}, nil
}

// Run потребляет ключи истёкших проверок до отмены контекста.
// Дубликаты уведомлений и гонки с leave/verify разрешаются атомарным Claim:
// очистку совершает только тот, кому досталась запись.
func (r *ExpiryReaper) Run(ctx context.Context) error {
	keys, err := r.feed.ExpiredKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to start expiry feed: %w", err)
	}
	log.Println("ExpiryReaper: подписка на истечение ключей активна")

	for key := range keys {
		r.Reap(ctx, key)
	}
	return ctx.Err()
}

// Reap обрабатывает одно уведомление об истечении.
func (r *ExpiryReaper) Reap(ctx context.Context, key entity.ExpiredKey) {
	rec, err := r.store.Claim(ctx, key.ChatID, key.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Запись уже забрал параллельный переход либо это дубликат уведомления
			return
		}
		log.Printf("ExpiryReaper: не удалось забрать запись %s: %v",
			entity.VerificationKey(key.ChatID, key.UserID), err)
		return
	}

	r.cleanup.Dispatch(ctx, key.ChatID,
		r.cleanup.DeleteMessage(key.ChatID, rec.ChallengeMessageID),
		r.cleanup.DeleteMessage(key.ChatID, rec.JoinMessageID),
		r.cleanup.Unban(key.ChatID, key.UserID),
	)
}
