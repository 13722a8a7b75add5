package service

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoCipherGenerator_Generate(t *testing.T) {
	gen, err := NewPhotoCipherGenerator("https://bot.example/captcha", AlphabetUpper, 4)
	require.NoError(t, err)

	display, cipher := gen.Generate()

	assert.Len(t, cipher, 4)
	for _, r := range cipher {
		assert.Contains(t, AlphabetUpper, string(r))
	}

	// Шифр встроен в URL как query-параметр text
	parsed, err := url.Parse(display)
	require.NoError(t, err)
	assert.Equal(t, cipher, parsed.Query().Get("text"))
	assert.True(t, strings.HasPrefix(display, "https://bot.example/captcha?"))
}

func TestPhotoCipherGenerator_Defaults(t *testing.T) {
	gen, err := NewPhotoCipherGenerator("https://bot.example/captcha", "", 0)
	require.NoError(t, err)

	_, cipher := gen.Generate()
	assert.Len(t, cipher, DefaultCipherLength)
}

func TestPhotoCipherGenerator_RequiresEndpoint(t *testing.T) {
	_, err := NewPhotoCipherGenerator("", AlphabetUpper, 4)
	assert.Error(t, err)
}

func TestPhotoCipherGenerator_FreshCipherPerCall(t *testing.T) {
	gen, err := NewPhotoCipherGenerator("https://bot.example/captcha", AlphabetLowerDigits, 8)
	require.NoError(t, err)

	// Повторный вход всегда заменяет шифр новым; совпадение двух
	// 8-символьных значений из 36-буквенного алфавита практически исключено
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		_, cipher := gen.Generate()
		assert.False(t, seen[cipher], "cipher %q repeated", cipher)
		seen[cipher] = true
	}
}

func TestTextCipherGenerator_Generate(t *testing.T) {
	gen, err := NewTextCipherGenerator(AlphabetDigits, 6)
	require.NoError(t, err)

	display, cipher := gen.Generate()
	assert.Equal(t, cipher, display)
	assert.Len(t, cipher, 6)
	for _, r := range cipher {
		assert.Contains(t, AlphabetDigits, string(r))
	}
}
