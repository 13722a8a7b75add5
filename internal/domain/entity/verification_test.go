package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingVerification_Matches_Alphabetic(t *testing.T) {
	rec := &PendingVerification{Cipher: "ABCD"}

	// Буквенный шифр: регистр и пробелы не важны
	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{"точное совпадение", "ABCD", true},
		{"нижний регистр", "abcd", true},
		{"смешанный регистр", "AbCd", true},
		{"пробел внутри", "ab cd", true},
		{"пробелы и табы", " A B\tC D ", true},
		{"неверный ответ", "ABCE", false},
		{"подстрока не считается", "XABCDX", false},
		{"префикс не считается", "ABC", false},
		{"пустой ответ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rec.Matches(tt.answer))
		})
	}
}

func TestPendingVerification_Matches_Numeric(t *testing.T) {
	rec := &PendingVerification{Cipher: "0420"}

	// Цифровой шифр: сравнение точное, обрезаются только краевые пробелы
	assert.True(t, rec.Matches("0420"))
	assert.True(t, rec.Matches(" 0420 "))
	assert.False(t, rec.Matches("04 20"))
	assert.False(t, rec.Matches("420"))
	assert.False(t, rec.Matches("0421"))
}

func TestPendingVerification_Matches_EmptyCipher(t *testing.T) {
	rec := &PendingVerification{}
	assert.False(t, rec.Matches(""))
	assert.False(t, rec.Matches("anything"))
}

func TestPendingVerification_IsExpired(t *testing.T) {
	now := time.Now()
	rec := &PendingVerification{Deadline: now.Add(time.Hour)}

	assert.False(t, rec.IsExpired(now))
	assert.False(t, rec.IsExpired(now.Add(time.Hour)))
	assert.True(t, rec.IsExpired(now.Add(time.Hour+time.Second)))
}

func TestVerificationKey_RoundTrip(t *testing.T) {
	key := VerificationKey(-1001234567890, 42)
	assert.Equal(t, "-1001234567890:42", key)

	chatID, userID, err := ParseVerificationKey(key)
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234567890), chatID)
	assert.Equal(t, int64(42), userID)
}

func TestParseVerificationKey_Malformed(t *testing.T) {
	tests := []string{"", "123", "abc:def", "1:2:3x", ":5", "7:"}
	for _, key := range tests {
		_, _, err := ParseVerificationKey(key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestMember_DisplayName(t *testing.T) {
	assert.Equal(t, "wolf", Member{Username: "wolf", FirstName: "Ivan"}.DisplayName())
	assert.Equal(t, "Ivan", Member{FirstName: "Ivan"}.DisplayName())
}
