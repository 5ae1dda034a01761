package config

import (
	"errors"
	"flag"
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"
)

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

type Config struct {
	API           APIConfig           `yaml:"api"`
	Storage       StorageConfig       `yaml:"storage"`
	Redis         StorageRedis        `yaml:"redis"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Env           string              `yaml:"env" env:"ENV" env-default:"local"`
}

type APIConfig struct {
	BaseURL    string        `yaml:"base_url" env:"API_BASE_URL" env-default:"http://localhost:8000/api/v1"`
	Timeout    time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"30s"`
	LoginRoute string        `yaml:"login_route" env:"API_LOGIN_ROUTE" env-default:"/signin"`
}

type StorageConfig struct {
	Driver string      `yaml:"driver" env:"STORAGE_DRIVER" env-default:"file"`
	Path   string      `yaml:"path" env:"STORAGE_PATH" env-default:"aclue_storage.json"`
	Keys   StorageKeys `yaml:"keys"`
}

// StorageKeys are persisted by clients; renaming one orphans existing sessions.
type StorageKeys struct {
	AccessToken   string `yaml:"access_token" env:"STORAGE_KEY_ACCESS_TOKEN" env-default:"aclue_access_token"`
	RefreshToken  string `yaml:"refresh_token" env:"STORAGE_KEY_REFRESH_TOKEN" env-default:"aclue_refresh_token"`
	User          string `yaml:"user" env:"STORAGE_KEY_USER" env-default:"aclue_user"`
	Notifications string `yaml:"notifications" env:"STORAGE_KEY_NOTIFICATIONS" env-default:"aclue_notifications"`
}

type StorageRedis struct {
	Host        string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port        string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Username    string        `yaml:"username" env:"REDIS_USERNAME"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB          int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Prefix      string        `yaml:"prefix" env:"REDIS_PREFIX" env-default:"aclue:"`
	TTL         time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"0s"`
	MaxAttempts int           `yaml:"max_attempts" env:"REDIS_MAX_ATTEMPTS" env-default:"5"`
}

type NotificationsConfig struct {
	PollingInterval time.Duration `yaml:"polling_interval" env:"NOTIFICATIONS_POLLING_INTERVAL" env-default:"30s"`
	// native notifications are on unless disabled
	BrowserDisabled bool          `yaml:"browser_disabled" env:"NOTIFICATIONS_BROWSER_DISABLED"`
}

// DefaultKeys returns the storage keys used when no configuration overrides them.
func DefaultKeys() StorageKeys {
	return StorageKeys{
		AccessToken:   "aclue_access_token",
		RefreshToken:  "aclue_refresh_token",
		User:          "aclue_user",
		Notifications: "aclue_notifications",
	}
}

const (
	flagConfigPath = "config"
	envConfigPath  = "CONFIG_PATH"
)

var instance *Config
var once sync.Once

func GetConfig() *Config {
	once.Do(func() {
		var configPath string
		flag.StringVar(&configPath, flagConfigPath, "", "config file path")
		flag.Parse()

		if path, ok := os.LookupEnv(envConfigPath); ok {
			configPath = path
		}

		cfg, err := Load(configPath)
		if err != nil {
			slog.Error("failed to load config",
				slog.String("error", err.Error()),
				slog.String("path", configPath))
			os.Exit(1)
		}
		instance = cfg
	})
	return instance
}

// Load reads the yaml file at path (when non-empty), then applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			if desc, errDesc := cleanenv.GetDescription(cfg, nil); errDesc == nil {
				slog.Info(desc)
			}
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// env wins over yaml
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL %q is not an absolute url", cfg.API.BaseURL)
	}
	if cfg.API.Timeout <= 0 {
		return errors.New("API_TIMEOUT must be positive")
	}

	switch cfg.Storage.Driver {
	case DriverMemory, DriverRedis:
	case DriverFile:
		if cfg.Storage.Path == "" {
			return errors.New("STORAGE_PATH is required for the file driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Notifications.PollingInterval <= 0 {
		return errors.New("NOTIFICATIONS_POLLING_INTERVAL must be positive")
	}
	return nil
}
