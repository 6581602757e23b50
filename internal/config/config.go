// Package config загрузка конфигурации сервиса из TOML-файла
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config корневая конфигурация сервиса
type Config struct {
	Server              ServerConfig      `toml:"server"`
	Database            DatabaseConfig    `toml:"database"`
	Redis               RedisConfig       `toml:"redis"`
	Logs                LogsConfig        `toml:"logs"`
	Metrics             MetricsConfig     `toml:"metrics"`
	Paystack            PaystackConfig    `toml:"paystack"`
	Payments            PaymentsConfig    `toml:"payments"`
	Outbox              OutboxConfig      `toml:"outbox"`
	IdentityService     IntegrationConfig `toml:"identity_service"`
	NotificationService IntegrationConfig `toml:"notification_service"`
}

// ServerConfig конфигурация HTTP-сервера
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

// DatabaseConfig конфигурация подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig конфигурация подключения к Redis
// Enabled=false отключает dedupe-блокировки верификации платежей
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// LogsConfig конфигурация логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"` // debug | info | warn | error
}

// MetricsConfig конфигурация Prometheus-метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// PaystackConfig конфигурация клиента платежного шлюза
type PaystackConfig struct {
	BaseURL   string `toml:"base_url"`
	SecretKey string `toml:"secret_key"`
	Timeout   int    `toml:"timeout"` // секунды
}

// PaymentsConfig платежные параметры сервиса
type PaymentsConfig struct {
	Currency    string `toml:"currency"`
	CallbackURL string `toml:"callback_url"`
}

// OutboxConfig конфигурация диспетчера отложенных вторичных записей
type OutboxConfig struct {
	PollInterval int `toml:"poll_interval"` // секунды
	BatchSize    int `toml:"batch_size"`
	MaxAttempts  int `toml:"max_attempts"`
}

// IntegrationConfig конфигурация HTTP-клиента внутреннего сервиса
type IntegrationConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

// Load читает и валидирует конфигурацию из TOML-файла
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.HTTPPort <= 0 {
		return fmt.Errorf("server.http_port must be positive")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database.dbname is required")
	}
	if c.Paystack.BaseURL == "" {
		return fmt.Errorf("paystack.base_url is required")
	}
	if c.Paystack.SecretKey == "" {
		return fmt.Errorf("paystack.secret_key is required")
	}
	if c.Payments.Currency == "" {
		return fmt.Errorf("payments.currency is required")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Outbox.PollInterval <= 0 {
		return fmt.Errorf("outbox.poll_interval must be positive")
	}
	if c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("outbox.batch_size must be positive")
	}
	if c.Outbox.MaxAttempts <= 0 {
		return fmt.Errorf("outbox.max_attempts must be positive")
	}
	return nil
}
