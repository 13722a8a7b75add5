package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server       ServerConfig
	Redis        RedisConfig
	Telegram     TelegramConfig
	Verification VerificationConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	// Для 'single', если не пуст, используется первый адрес из списка.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single' (для обратной совместимости).
	// Используется, если Mode="single" и Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	// MaxRetries: Максимальное количество попыток переподключения (-1 - бесконечно). По умолчанию 0 (без ретраев).
	MaxRetries int `mapstructure:"max_retries"`

	// MinRetryBackoff: Минимальный интервал между попытками (в миллисекундах). По умолчанию 8ms.
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`

	// MaxRetryBackoff: Максимальный интервал между попытками (в миллисекундах). По умолчанию 512ms.
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// TelegramConfig содержит настройки Bot API
type TelegramConfig struct {
	// Token бота
	Token string `mapstructure:"token"`
	// WebhookSecret — общий секрет заголовка X-Telegram-Bot-Api-Secret-Token
	WebhookSecret string `mapstructure:"webhook_secret"`
	// CaptchaEndpoint — публичный URL эндпоинта /captcha этого же сервиса
	CaptchaEndpoint string `mapstructure:"captcha_endpoint"`
}

// VerificationConfig содержит настройки проверки участников
type VerificationConfig struct {
	// TTLMinutes — окно ответа на капчу в минутах. По умолчанию 60.
	TTLMinutes int `mapstructure:"ttl_minutes"`
	// GraceMinutes — запас жизни записи сверх дедлайна для reaper-а. По умолчанию 10.
	GraceMinutes int `mapstructure:"grace_minutes"`
	// CipherLength — длина шифра. По умолчанию 4.
	CipherLength int `mapstructure:"cipher_length"`
	// CipherAlphabet — алфавит шифра: "upper", "digits" или "lowerdigits". По умолчанию "upper".
	CipherAlphabet string `mapstructure:"cipher_alphabet"`
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Привязываем переменные окружения ЯВНО
	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS") // Для массива строк
	vip.BindEnv("redis.addr", "REDIS_ADDR")   // Для одиночной строки
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Привязка для секции Telegram
	vip.BindEnv("telegram.token", "TELEGRAM_TOKEN")
	vip.BindEnv("telegram.webhook_secret", "TELEGRAM_WEBHOOK_SECRET")
	vip.BindEnv("telegram.captcha_endpoint", "CAPTCHA_ENDPOINT")

	// Привязка для секции Verification
	vip.BindEnv("verification.ttl_minutes", "VERIFICATION_TTL_MINUTES")
	vip.BindEnv("verification.grace_minutes", "VERIFICATION_GRACE_MINUTES")
	vip.BindEnv("verification.cipher_length", "VERIFICATION_CIPHER_LENGTH")
	vip.BindEnv("verification.cipher_alphabet", "VERIFICATION_CIPHER_ALPHABET")

	// Привязка для Server
	vip.BindEnv("server.port", "SERVER_PORT")

	// 2. Устанавливаем путь к файлу конфигурации
	if configPath != "" {
		vip.SetConfigFile(configPath)
		// 3. Пытаемся прочитать файл конфигурации (не страшно, если его нет, т.к. есть BindEnv)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 4. Анмаршалим конфигурацию (Viper объединит значения из файла и привязанных env vars)
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Логирование конфигурации (только в debug режиме)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("Telegram Token Set: %t", cfg.Telegram.Token != "")
		log.Printf("Webhook Secret Set: %t", cfg.Telegram.WebhookSecret != "")
		log.Printf("Captcha Endpoint: %s", cfg.Telegram.CaptchaEndpoint)
		log.Printf("Verification TTL (min): %d", cfg.Verification.TTLMinutes)
		log.Printf("-----------------------------------------")
	}

	// 6. Проверка обязательных параметров
	if cfg.Telegram.Token == "" {
		return nil, fmt.Errorf("telegram token is required in config (check TELEGRAM_TOKEN env var)")
	}
	if cfg.Telegram.WebhookSecret == "" {
		return nil, fmt.Errorf("webhook secret is required in config (check TELEGRAM_WEBHOOK_SECRET env var)")
	}
	if cfg.Telegram.CaptchaEndpoint == "" {
		return nil, fmt.Errorf("captcha endpoint is required in config (check CAPTCHA_ENDPOINT env var)")
	}

	return &cfg, nil
}
