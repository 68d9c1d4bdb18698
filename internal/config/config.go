package config

import (
	"errors"
	"fmt"
	"os"

	"velora/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Logging    LoggingConfig    `yaml:"logging"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	Database   DatabaseConfig   `yaml:"database"`
	Booking    BookingConfig    `yaml:"booking"`
	BookingAPI BookingAPIConfig `yaml:"booking_api"`
	API        APIConfig        `yaml:"api"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Exports    ExportConfig     `yaml:"exports"`
	Backup     BackupConfig     `yaml:"backup"`
	Services   []models.Service `yaml:"services"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// StorageConfig selects the persistence backend for the reservation set.
type StorageConfig struct {
	Backend string `yaml:"backend"` // redis, sqlite or memory
	Key     string `yaml:"key"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type BookingConfig struct {
	HorizonDays         int `yaml:"horizon_days"`
	NotificationSeconds int `yaml:"notification_seconds"`
}

// BookingAPIConfig points at the external booking submission endpoint.
type BookingAPIConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type ExportConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен: если файла нет, берём переменные окружения как есть
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
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
	if c.BookingAPI.BaseURL == "" {
		return errors.New("booking_api.base_url is required")
	}

	switch c.Storage.Backend {
	case "redis", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}

	if c.Storage.Backend == "sqlite" && c.Database.Path == "" {
		return errors.New("database path is required for sqlite storage")
	}

	if c.Exports.Enabled && c.Exports.Path == "" {
		return errors.New("exports.path is required when exports are enabled")
	}

	return ValidateServices(c.Services)
}

func ValidateServices(services []models.Service) error {
	serviceIDs := make(map[string]bool)
	for _, svc := range services {
		if svc.ID == "" {
			return fmt.Errorf("service '%s' has empty id", svc.Name)
		}
		if serviceIDs[svc.ID] {
			return fmt.Errorf("duplicate service id found: %s", svc.ID)
		}
		serviceIDs[svc.ID] = true

		if svc.BasePrice < 0 {
			return fmt.Errorf("service '%s' has negative base price", svc.ID)
		}

		addOnIDs := make(map[string]bool)
		for _, a := range svc.AddOns {
			if a.ID == "" {
				return fmt.Errorf("service '%s' has add-on with empty id", svc.ID)
			}
			if addOnIDs[a.ID] {
				return fmt.Errorf("service '%s' has duplicate add-on id: %s", svc.ID, a.ID)
			}
			addOnIDs[a.ID] = true
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = "redis"
	}
	if c.Storage.Key == "" {
		c.Storage.Key = models.DefaultStorageKey
	}
	if c.Redis.Address == "" {
		c.Redis.Address = "localhost:6379"
	}
	if c.Booking.HorizonDays == 0 {
		c.Booking.HorizonDays = models.DefaultBookingHorizonDays
	}
	if c.Booking.NotificationSeconds == 0 {
		c.Booking.NotificationSeconds = int(models.DefaultNotificationTTL.Seconds())
	}
	if c.BookingAPI.TimeoutSeconds == 0 {
		c.BookingAPI.TimeoutSeconds = 25
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = models.RateLimitRPS
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = models.RateLimitBurst
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Backup.Enabled && c.Backup.IntervalHours == 0 {
		c.Backup.IntervalHours = 24
	}
}
