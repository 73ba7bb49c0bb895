package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type SecurityConfig struct {
	// Брутфорс-защита (скользящее окно + блокировка).
	MaxLoginAttempts int           `yaml:"max_login_attempts"` // порог по аккаунту
	AttemptWindow    time.Duration `yaml:"attempt_window"`
	LockoutDuration  time.Duration `yaml:"lockout_duration"`

	// Redis для общего состояния лимитера/кодов между инстансами.
	// Пусто — одиночный инстанс, состояние в памяти процесса.
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	// Dev-режим: отдавать код в ответе (как code_for_testing).
	ExposeCodes bool `yaml:"expose_codes"`
}

type MobizonConfig struct {
	APIKey   string `yaml:"api_key"`
	SenderID string `yaml:"sender_id"`
	DryRun   bool   `yaml:"dry_run"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	DryRun   bool   `yaml:"dry_run"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	JWT struct {
		Secret      string        `yaml:"secret"`
		SessionTTL  time.Duration `yaml:"session_ttl"`  // по умолчанию 24h
		RememberTTL time.Duration `yaml:"remember_ttl"` // по умолчанию 168h
	} `yaml:"jwt"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Mobizon  MobizonConfig  `yaml:"mobizon"`
	Telegram TelegramConfig `yaml:"telegram"`
	Security SecurityConfig `yaml:"security"`
}

func LoadConfig() *Config {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	// Секреты из окружения имеют приоритет над файлом.
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}

	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.JWT.SessionTTL <= 0 {
		cfg.JWT.SessionTTL = 24 * time.Hour
	}
	if cfg.JWT.RememberTTL <= 0 {
		cfg.JWT.RememberTTL = 7 * 24 * time.Hour
	}
	if cfg.Security.MaxLoginAttempts <= 0 {
		cfg.Security.MaxLoginAttempts = 5
	}
	if cfg.Security.AttemptWindow <= 0 {
		cfg.Security.AttemptWindow = 5 * time.Minute
	}
	if cfg.Security.LockoutDuration <= 0 {
		cfg.Security.LockoutDuration = 15 * time.Minute
	}
}
