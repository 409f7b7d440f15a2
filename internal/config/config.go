package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Exchange ExchangeConfig
	Security SecurityConfig
	Withdraw WithdrawConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// ExchangeConfig - настройки доступа к API биржи
type ExchangeConfig struct {
	APIKey     string
	APISecret  string
	Endpoints  []string // кандидаты базовых URL в порядке предпочтения
	RecvWindow int64    // допуск timestamp в мс для подписанных запросов
	UseMock    bool     // mock-режим вместо сетевых вызовов

	// Отображаемый депозитный кошелёк USDT на дашборде
	USDTWalletAddress string
	USDTWalletNetwork string
}

// SecurityConfig - секреты доступа к дашборду.
// Пароли могут быть заданы открытым текстом или bcrypt хешем ($2...).
type SecurityConfig struct {
	DashboardPassword string // пароль admin роли
	TeamPassword      string // пароль team роли
	WithdrawActionKey string // второй секрет, обязательный для вывода средств
	SessionTTL        time.Duration
}

// WithdrawConfig - параметры дозирования выводов
type WithdrawConfig struct {
	MaxAttempts int           // попыток на идентификатор за окно
	Window      time.Duration // скользящее окно rate limit'а
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Exchange: ExchangeConfig{
			APIKey:     getEnv("BINANCE_API_KEY", ""),
			APISecret:  getEnv("BINANCE_API_SECRET", ""),
			Endpoints:  getEnvAsList("BINANCE_ENDPOINTS", nil),
			RecvWindow: int64(getEnvAsInt("BINANCE_RECV_WINDOW_MS", 60000)),
			UseMock:    getEnvAsBool("USE_MOCK_SERVER", false),

			USDTWalletAddress: getEnv("USDT_WALLET_ADDRESS", ""),
			USDTWalletNetwork: getEnv("USDT_WALLET_NETWORK", "TRC20"),
		},
		Security: SecurityConfig{
			DashboardPassword: getEnv("DASHBOARD_PASSWORD", ""),
			TeamPassword:      getEnv("TEAM_DASHBOARD_PASSWORD", ""),
			WithdrawActionKey: getEnv("WITHDRAW_ACTION_KEY", ""),
			SessionTTL:        getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		},
		Withdraw: WithdrawConfig{
			MaxAttempts: getEnvAsInt("WITHDRAW_MAX_ATTEMPTS", 1),
			Window:      getEnvAsDuration("WITHDRAW_RATE_WINDOW", time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Exchange.RecvWindow < 1000 || c.Exchange.RecvWindow > 60000 {
		return fmt.Errorf("BINANCE_RECV_WINDOW_MS must be between 1000 and 60000, got %d", c.Exchange.RecvWindow)
	}

	if c.Withdraw.MaxAttempts < 1 {
		return fmt.Errorf("WITHDRAW_MAX_ATTEMPTS must be at least 1, got %d", c.Withdraw.MaxAttempts)
	}

	if c.Withdraw.Window < time.Second {
		return fmt.Errorf("WITHDRAW_RATE_WINDOW must be at least 1s, got %v", c.Withdraw.Window)
	}

	if c.Security.SessionTTL < time.Minute {
		return fmt.Errorf("SESSION_TTL must be at least 1m, got %v", c.Security.SessionTTL)
	}

	return nil
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
