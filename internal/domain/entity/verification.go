package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// PendingVerification — запись о незавершённой проверке участника.
// Существует ровно тогда, когда у пользователя есть неотвеченная капча.
// Запись неизменяема после создания: любой терминальный переход удаляет её целиком.
type PendingVerification struct {
	ChatID             int64     `json:"chat_id"`
	UserID             int64     `json:"user_id"`
	Cipher             string    `json:"cipher"`
	ChallengeMessageID int       `json:"challenge_message_id"`
	JoinMessageID      int       `json:"join_message_id"`
	CreatedAt          time.Time `json:"created_at"`
	Deadline           time.Time `json:"deadline"`
}

// Key возвращает составной ключ записи в хранилище.
func (v *PendingVerification) Key() string {
	return VerificationKey(v.ChatID, v.UserID)
}

// IsExpired сообщает, истёк ли дедлайн ответа.
func (v *PendingVerification) IsExpired(now time.Time) bool {
	return now.After(v.Deadline)
}

// Matches проверяет ответ пользователя на совпадение с шифром.
// Для буквенных шифров сравнение нечувствительно к регистру и пробелам
// ("ab cd" == "ABCD"). Для полностью цифровых шифров сравнение точное,
// обрезаются только краевые пробелы (артефакт копирования, не часть ответа).
func (v *PendingVerification) Matches(answer string) bool {
	if v.Cipher == "" {
		return false
	}
	if isDigits(v.Cipher) {
		return strings.TrimSpace(answer) == v.Cipher
	}
	return normalizeAnswer(answer) == normalizeAnswer(v.Cipher)
}

// ExpiredKey — ключ записи, чей TTL истёк без ответа.
type ExpiredKey struct {
	ChatID int64
	UserID int64
}

// VerificationKey строит ключ вида "{chat}:{user}".
func VerificationKey(chatID, userID int64) string {
	return fmt.Sprintf("%d:%d", chatID, userID)
}

// ParseVerificationKey разбирает ключ, построенный VerificationKey.
func ParseVerificationKey(key string) (chatID, userID int64, err error) {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed verification key %q", key)
	}
	chatID, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed chat id in key %q: %w", key, err)
	}
	userID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed user id in key %q: %w", key, err)
	}
	return chatID, userID, nil
}

func normalizeAnswer(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
