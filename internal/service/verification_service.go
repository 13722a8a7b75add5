package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/gatekeeper-bot/internal/domain/entity"
	"github.com/yourusername/gatekeeper-bot/internal/domain/repository"
	apperrors "github.com/yourusername/gatekeeper-bot/internal/pkg/errors"
)

// captchaCaption — подпись к фото-капче при входе.
const captchaCaption = "Woof! In order for your entry to be accepted into the group, please answer the captcha."

// DefaultVerificationTTL — окно ответа на капчу по умолчанию.
const DefaultVerificationTTL = time.Hour

// VerificationService — конечный автомат проверки участников.
// Состояния по ключу (chat, user): NONE -> PENDING -> {VERIFIED, LEFT, EXPIRED} -> NONE.
// Единственный механизм синхронизации конкурирующих событий по одному ключу —
// атомарный Claim хранилища: кто первым заберёт запись, тот и совершает
// терминальный переход, остальные получают ErrNotFound и отступают.
type VerificationService struct {
	store     repository.VerificationRepository
	messenger repository.Messenger
	generator CipherGenerator
	cleanup   *CleanupDispatcher
	ttl       time.Duration
	now       func() time.Time
}

// NewVerificationService создает сервис проверки.
func NewVerificationService(
	store repository.VerificationRepository,
	messenger repository.Messenger,
	generator CipherGenerator,
	cleanup *CleanupDispatcher,
	ttl time.Duration,
) (*VerificationService, error) {
	if store == nil {
		return nil, fmt.Errorf("verification repository is required")
	}
	if messenger == nil {
		return nil, fmt.Errorf("messenger is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("cipher generator is required")
	}
	if cleanup == nil {
		return nil, fmt.Errorf("cleanup dispatcher is required")
	}
	if ttl <= 0 {
		ttl = DefaultVerificationTTL
	}
	return &VerificationService{
		store:     store,
		messenger: messenger,
		generator: generator,
		cleanup:   cleanup,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// HandleJoin обрабатывает вход участников: NONE -> PENDING.
// На каждого не-бота отправляется капча, затем пишется запись с id капчи
// и id служебного сообщения о входе. Если отправка не удалась, запись не
// создаётся (иначе останется невидимый, неотвечаемый вызов). Если после
// успешной отправки не удалась запись в хранилище — капча осталась висеть
// в чате без записи; это деградация, она логируется и не ретраится.
func (s *VerificationService) HandleJoin(ctx context.Context, ev entity.JoinEvent) error {
	if ev.ChatID == 0 || len(ev.Members) == 0 {
		return nil
	}
	for _, member := range ev.Members {
		if member.IsBot || member.ID == 0 {
			continue
		}

		photoURL, cipher := s.generator.Generate()
		messageID, err := s.messenger.SendPhoto(ctx, ev.ChatID, photoURL, captchaCaption)
		if err != nil {
			log.Printf("VerificationService: не удалось отправить капчу пользователю %d в чате %d: %v",
				member.ID, ev.ChatID, err)
			continue
		}

		now := s.now()
		rec := &entity.PendingVerification{
			ChatID:             ev.ChatID,
			UserID:             member.ID,
			Cipher:             cipher,
			ChallengeMessageID: messageID,
			JoinMessageID:      ev.MessageID,
			CreatedAt:          now,
			Deadline:           now.Add(s.ttl),
		}
		if err := s.store.Put(ctx, rec); err != nil {
			// Капча уже отправлена: в чате висит вызов без записи.
			// Оператору придётся убрать его вручную.
			log.Printf("VerificationService: капча %d отправлена, но запись для %s не сохранена: %v",
				messageID, rec.Key(), err)
			continue
		}
	}
	return nil
}

// HandleMessage обрабатывает обычное сообщение: PENDING -> VERIFIED либо
// остаётся PENDING. Сообщения участников без записи не трогаются.
// Транзиентный сбой хранилища возвращается наверх: трактовать его как
// «записи нет» значило бы пропускать непроверенных во время аварии.
func (s *VerificationService) HandleMessage(ctx context.Context, ev entity.MessageEvent) error {
	if ev.ChatID == 0 || ev.Sender.ID == 0 || ev.Sender.IsBot {
		return nil
	}

	rec, err := s.store.Get(ctx, ev.ChatID, ev.Sender.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Обычное сообщение уже проверенного участника
			return nil
		}
		return fmt.Errorf("verification lookup for %s failed: %w", entity.VerificationKey(ev.ChatID, ev.Sender.ID), err)
	}

	if !rec.Matches(ev.Text) {
		// Не терминальный переход: запись остаётся, капча остаётся,
		// удаляется только само сообщение. Попытки не ограничены до TTL.
		s.cleanup.Dispatch(ctx, ev.ChatID, s.cleanup.DeleteMessage(ev.ChatID, ev.MessageID))
		return nil
	}

	claimed, err := s.store.Claim(ctx, ev.ChatID, ev.Sender.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Параллельный leave/expiry успел первым
			return nil
		}
		return fmt.Errorf("verification claim for %s failed: %w", entity.VerificationKey(ev.ChatID, ev.Sender.ID), err)
	}

	welcome := fmt.Sprintf("[%s](tg://user?id=%d), welcome to the group! Au!", ev.Sender.DisplayName(), ev.Sender.ID)
	s.cleanup.Dispatch(ctx, ev.ChatID,
		s.cleanup.DeleteMessage(ev.ChatID, claimed.ChallengeMessageID),
		s.cleanup.DeleteMessage(ev.ChatID, claimed.JoinMessageID),
		s.cleanup.DeleteMessage(ev.ChatID, ev.MessageID),
		s.cleanup.SendMarkdown(ev.ChatID, welcome),
	)
	return nil
}

// HandleLeave обрабатывает выход участника: PENDING -> LEFT.
// Без записи выход уже проверенного участника не сопровождается очисткой.
func (s *VerificationService) HandleLeave(ctx context.Context, ev entity.LeaveEvent) error {
	if ev.ChatID == 0 || ev.Member.ID == 0 || ev.Member.IsBot {
		return nil
	}

	rec, err := s.store.Claim(ctx, ev.ChatID, ev.Member.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("verification claim for %s failed: %w", entity.VerificationKey(ev.ChatID, ev.Member.ID), err)
	}

	s.cleanup.Dispatch(ctx, ev.ChatID,
		s.cleanup.DeleteMessage(ev.ChatID, rec.ChallengeMessageID),
		s.cleanup.DeleteMessage(ev.ChatID, rec.JoinMessageID),
		s.cleanup.DeleteMessage(ev.ChatID, ev.MessageID),
	)
	return nil
}
