package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yourusername/gatekeeper-bot/internal/domain/entity"
	apperrors "github.com/yourusername/gatekeeper-bot/internal/pkg/errors"
)

const (
	// recordPrefix — ключи с JSON-записями проверок.
	recordPrefix = "verification:"
	// markerPrefix — пустые ключи-маркеры, чей TTL равен дедлайну ответа.
	// Истечение маркера и порождает событие в __keyevent@{db}__:expired;
	// сама запись живёт дольше (grace), чтобы reaper успел прочитать
	// идентификаторы сообщений после срабатывания маркера.
	markerPrefix = "verification:expire:"
)

// VerificationRepo реализует repository.VerificationRepository поверх Redis.
// Атомарность Put и Claim обеспечивается TxPipeline (MULTI/EXEC): два
// конкурирующих терминальных перехода по одному ключу не могут обработать
// одну запись дважды.
type VerificationRepo struct {
	client redis.UniversalClient
	db     int
	grace  time.Duration
}

// NewVerificationRepo создает новый репозиторий проверок.
// grace — запас жизни записи сверх дедлайна, на чтение reaper-ом.
func NewVerificationRepo(client redis.UniversalClient, db int, grace time.Duration) (*VerificationRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for VerificationRepo")
	}
	if grace <= 0 {
		grace = 10 * time.Minute
	}
	return &VerificationRepo{
		client: client,
		db:     db,
		grace:  grace,
	}, nil
}

func recordKey(chatID, userID int64) string {
	return recordPrefix + entity.VerificationKey(chatID, userID)
}

func markerKey(chatID, userID int64) string {
	return markerPrefix + entity.VerificationKey(chatID, userID)
}

// Put атомарно создаёт/заменяет запись и маркер истечения.
func (r *VerificationRepo) Put(ctx context.Context, rec *entity.PendingVerification) error {
	if rec == nil {
		return fmt.Errorf("%w: nil verification record", apperrors.ErrValidation)
	}
	ttl := time.Until(rec.Deadline)
	if ttl <= 0 {
		return fmt.Errorf("%w: deadline %v is in the past", apperrors.ErrValidation, rec.Deadline)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal verification record: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, recordKey(rec.ChatID, rec.UserID), data, ttl+r.grace)
	pipe.Set(ctx, markerKey(rec.ChatID, rec.UserID), "", ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store verification for %s: %w", rec.Key(), err)
	}
	return nil
}

// Get возвращает запись или apperrors.ErrNotFound.
func (r *VerificationRepo) Get(ctx context.Context, chatID, userID int64) (*entity.PendingVerification, error) {
	data, err := r.client.Get(ctx, recordKey(chatID, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read verification for %s: %w", entity.VerificationKey(chatID, userID), err)
	}
	var rec entity.PendingVerification
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verification for %s: %w", entity.VerificationKey(chatID, userID), err)
	}
	return &rec, nil
}

// Claim атомарно читает и удаляет запись одним round trip.
// GET и DEL исполняются в одном MULTI/EXEC, поэтому ровно один из
// конкурирующих вызовов увидит значение; остальные получат ErrNotFound.
func (r *VerificationRepo) Claim(ctx context.Context, chatID, userID int64) (*entity.PendingVerification, error) {
	pipe := r.client.TxPipeline()
	getCmd := pipe.Get(ctx, recordKey(chatID, userID))
	pipe.Del(ctx, recordKey(chatID, userID))
	pipe.Del(ctx, markerKey(chatID, userID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim verification for %s: %w", entity.VerificationKey(chatID, userID), err)
	}

	data, err := getCmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to claim verification for %s: %w", entity.VerificationKey(chatID, userID), err)
	}
	var rec entity.PendingVerification
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verification for %s: %w", entity.VerificationKey(chatID, userID), err)
	}
	return &rec, nil
}

// Delete удаляет запись и маркер. Удаление отсутствующего ключа — no-op.
func (r *VerificationRepo) Delete(ctx context.Context, chatID, userID int64) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, recordKey(chatID, userID))
	pipe.Del(ctx, markerKey(chatID, userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete verification for %s: %w", entity.VerificationKey(chatID, userID), err)
	}
	return nil
}

// EnableExpiryNotifications включает события истечения ключей на сервере.
// Best-effort: на managed-инстансах CONFIG может быть запрещён, тогда
// уведомления нужно включить на стороне провайдера.
func (r *VerificationRepo) EnableExpiryNotifications(ctx context.Context) error {
	if err := r.client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		return fmt.Errorf("failed to enable keyspace notifications: %w", err)
	}
	return nil
}

// ExpiredKeys подписывается на события истечения и отдаёт ключи маркеров
// проверок. Канал закрывается при отмене контекста.
func (r *VerificationRepo) ExpiredKeys(ctx context.Context) (<-chan entity.ExpiredKey, error) {
	channel := fmt.Sprintf("__keyevent@%d__:expired", r.db)
	sub := r.client.Subscribe(ctx, channel)

	// Проверяем, что подписка установилась, до запуска горутины
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	out := make(chan entity.ExpiredKey, 64)
	go func() {
		defer close(out)
		defer sub.Close()

		msgCh := sub.Channel()
		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				key, matched := strings.CutPrefix(msg.Payload, markerPrefix)
				if !matched {
					// Истёк чужой ключ (rate limiter и т.п.)
					continue
				}
				chatID, userID, err := entity.ParseVerificationKey(key)
				if err != nil {
					log.Printf("VerificationRepo: пропускаю некорректный ключ истечения %q: %v", msg.Payload, err)
					continue
				}
				select {
				case out <- entity.ExpiredKey{ChatID: chatID, UserID: userID}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
