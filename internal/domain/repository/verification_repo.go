package repository

import (
	"context"

	"github.com/yourusername/gatekeeper-bot/internal/domain/entity"
)

// VerificationRepository определяет методы для работы с записями незавершённых проверок.
// Хранилище — единственная точка синхронизации между конкурирующими событиями,
// поэтому Put и Claim обязаны быть атомарными по ключу.
type VerificationRepository interface {
	// Put атомарно создаёт или заменяет запись и взводит её TTL.
	Put(ctx context.Context, rec *entity.PendingVerification) error

	// Get возвращает текущую запись или apperrors.ErrNotFound.
	// Ошибка транспорта никогда не маскируется под отсутствие записи.
	Get(ctx context.Context, chatID, userID int64) (*entity.PendingVerification, error)

	// Claim атомарно читает и удаляет запись (один batch: GET+DEL).
	// Из конкурирующих вызовов ровно один получает запись, остальные —
	// apperrors.ErrNotFound. Все терминальные переходы идут через Claim.
	Claim(ctx context.Context, chatID, userID int64) (*entity.PendingVerification, error)

	// Delete удаляет запись, если она есть. Идемпотентен.
	Delete(ctx context.Context, chatID, userID int64) error
}

// ExpiryFeed отдаёт ключи записей, чей TTL истёк без ответа.
// Допустимы дубликаты уведомлений по одному ключу: потребитель обязан
// разрешать их через Claim.
type ExpiryFeed interface {
	// ExpiredKeys запускает подписку и возвращает канал пар (chat, user).
	// Канал закрывается при отмене контекста.
	ExpiredKeys(ctx context.Context) (<-chan entity.ExpiredKey, error)
}
