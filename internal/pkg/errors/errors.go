package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись проверки отсутствует в хранилище.
	// Отсутствие записи — штатная ситуация, а не сбой.
	ErrNotFound = errors.New("record not found")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized используется при неверном секрете вебхука.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMessageGone возвращается мессенджером, когда сообщение уже удалено
	// или не найдено. Для очистки это эквивалент успеха.
	ErrMessageGone = errors.New("message already gone")

	// ErrNoRights возвращается мессенджером при нехватке прав бота
	// (например, нет привилегии удалять сообщения). Системная проблема,
	// о которой стоит сообщить в чат.
	ErrNoRights = errors.New("insufficient bot rights")
)
