package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"pirouette/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Admins     []int64          `yaml:"admins"`
	Studio     StudioConfig     `yaml:"studio"`
	Teacher    TeacherConfig    `yaml:"teacher"`
	Payment    PaymentConfig    `yaml:"payment"`
	Exports    ExportConfig     `yaml:"exports"`
	Google     GoogleConfig     `yaml:"google"`
	Bot        BotConfig        `yaml:"bot"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken   string `yaml:"bot_token"`
	WebhookURL string `yaml:"webhook_url"`
	Debug      bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// StudioConfig реквизиты студии для сообщений пользователям.
type StudioConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Floor   string `yaml:"floor"`
}

// TeacherConfig контакты преподавателя.
type TeacherConfig struct {
	Name     string `yaml:"name"`
	Phone    string `yaml:"phone"`
	Telegram string `yaml:"telegram"`
}

// PaymentConfig реквизиты для перевода оплаты.
type PaymentConfig struct {
	Recipient string `yaml:"recipient"`
	Phone     string `yaml:"phone"`
	Bank      string `yaml:"bank"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type GoogleConfig struct {
	CredentialsFile           string `yaml:"credentials_file"`
	ApplicationsSpreadsheetID string `yaml:"applications_spreadsheet_id"`
}

type BotConfig struct {
	RateLimitMessages int `yaml:"rate_limit_messages"`
	RateLimitWindow   int `yaml:"rate_limit_window"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if len(c.Admins) == 0 {
		return errors.New("at least one admin id is required")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "pirouette"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = models.RateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = int(models.RateLimitWindow / time.Second)
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Studio.Name == "" {
		c.Studio.Name = "Let's dance"
	}
	if c.Studio.Address == "" {
		c.Studio.Address = "ул. Максима Горького, 17/129"
	}
	if c.Studio.Floor == "" {
		c.Studio.Floor = "2 этаж"
	}
	if c.Teacher.Name == "" {
		c.Teacher.Name = "Анна Карелина"
	}
	if c.Teacher.Phone == "" {
		c.Teacher.Phone = "+79156732891"
	}
	if c.Teacher.Telegram == "" {
		c.Teacher.Telegram = "@anv_karelina"
	}
	if c.Payment.Recipient == "" {
		c.Payment.Recipient = c.Teacher.Name
	}
	if c.Payment.Phone == "" {
		c.Payment.Phone = c.Teacher.Phone
	}
	if c.Payment.Bank == "" {
		c.Payment.Bank = "ТБанк"
	}
}

// IsAdmin проверяет, входит ли пользователь в список администраторов.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

// RateLimitWindow возвращает окно ограничения частоты сообщений.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.Bot.RateLimitWindow) * time.Second
}
