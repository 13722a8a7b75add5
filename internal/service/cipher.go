package service

import (
	"fmt"
	"net/url"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Алфавиты шифров. Предсказуемость здесь не является свойством безопасности:
// энтропии должно хватать лишь на то, чтобы отсечь примитивную автоматизацию.
const (
	AlphabetUpper       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	AlphabetDigits      = "0123456789"
	AlphabetLowerDigits = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// DefaultCipherLength — длина шифра по умолчанию.
const DefaultCipherLength = 4

// CipherGenerator порождает пару (отображение, секрет) для одной капчи.
type CipherGenerator interface {
	// Generate возвращает текст для показа пользователю (URL картинки либо
	// сам шифр) и ожидаемый ответ.
	Generate() (display, cipher string)
}

// PhotoCipherGenerator — генератор фото-капчи: секрет встраивается в URL
// эндпоинта рендеринга как query-параметр text.
type PhotoCipherGenerator struct {
	endpoint string
	alphabet string
	length   int
}

// NewPhotoCipherGenerator создает генератор. endpoint — публичный URL
// эндпоинта /captcha, alphabet и length задают форму шифра.
func NewPhotoCipherGenerator(endpoint, alphabet string, length int) (*PhotoCipherGenerator, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("captcha endpoint is required")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid captcha endpoint: %w", err)
	}
	if alphabet == "" {
		alphabet = AlphabetUpper
	}
	if length <= 0 {
		length = DefaultCipherLength
	}
	// Валидируем параметры здесь, чтобы Generate оставался безошибочным
	if _, err := gonanoid.Generate(alphabet, length); err != nil {
		return nil, fmt.Errorf("invalid cipher parameters: %w", err)
	}
	return &PhotoCipherGenerator{
		endpoint: endpoint,
		alphabet: alphabet,
		length:   length,
	}, nil
}

// Generate возвращает URL картинки с шифром и сам шифр.
func (g *PhotoCipherGenerator) Generate() (string, string) {
	cipher := gonanoid.MustGenerate(g.alphabet, g.length)
	query := url.Values{"text": []string{cipher}}
	return g.endpoint + "?" + query.Encode(), cipher
}

// TextCipherGenerator — текстовый вариант: пользователю показывается сам шифр
// (для чатов, где фото запрещены).
type TextCipherGenerator struct {
	alphabet string
	length   int
}

// NewTextCipherGenerator создает текстовый генератор.
func NewTextCipherGenerator(alphabet string, length int) (*TextCipherGenerator, error) {
	if alphabet == "" {
		alphabet = AlphabetUpper
	}
	if length <= 0 {
		length = DefaultCipherLength
	}
	if _, err := gonanoid.Generate(alphabet, length); err != nil {
		return nil, fmt.Errorf("invalid cipher parameters: %w", err)
	}
	return &TextCipherGenerator{alphabet: alphabet, length: length}, nil
}

// Generate возвращает шифр и его же в качестве отображения.
func (g *TextCipherGenerator) Generate() (string, string) {
	cipher := gonanoid.MustGenerate(g.alphabet, g.length)
	return cipher, cipher
}
