package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers
const (
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	Server    ServerConfig
	API       APIConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Staleness StalenessConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type APIConfig struct {
	BaseURL  string
	ImageURL string
	Timeout  time.Duration
}

type StorageConfig struct {
	Driver   string
	FilePath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	KeyPrefix string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// StalenessConfig holds the refetch windows per entity type
type StalenessConfig struct {
	Products      time.Duration
	Categories    time.Duration
	Subcategories time.Duration
	Orders        time.Duration
	Users         time.Duration
}

// Load reads configuration from .env in the working directory and the environment
func Load() *Config {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("API_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("API_TIMEOUT_SECONDS", 15)
	v.SetDefault("STORAGE_DRIVER", StorageFile)
	v.SetDefault("STORAGE_FILE_PATH", ".monocart/session.json")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "monocart")
	v.SetDefault("RATE_LIMIT_REQUESTS", 120)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("STALENESS_PRODUCTS_SECONDS", 120)
	v.SetDefault("STALENESS_CATEGORIES_SECONDS", 300)
	v.SetDefault("STALENESS_SUBCATEGORIES_SECONDS", 300)
	v.SetDefault("STALENESS_ORDERS_SECONDS", 120)
	v.SetDefault("STALENESS_USERS_SECONDS", 300)
}

func fromViper(v *viper.Viper) *Config {
	baseURL := v.GetString("API_BASE_URL")
	imageURL := v.GetString("API_IMAGE_URL")
	if imageURL == "" {
		imageURL = originOf(baseURL)
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		API: APIConfig{
			BaseURL:  baseURL,
			ImageURL: imageURL,
			Timeout:  seconds(v, "API_TIMEOUT_SECONDS"),
		},
		Storage: StorageConfig{
			Driver:   strings.ToLower(v.GetString("STORAGE_DRIVER")),
			FilePath: v.GetString("STORAGE_FILE_PATH"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_DATABASE"),
			Schema:   v.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:      v.GetString("REDIS_HOST"),
			Port:      v.GetString("REDIS_PORT"),
			Password:  v.GetString("REDIS_PASSWORD"),
			DB:        v.GetInt("REDIS_DB"),
			KeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   seconds(v, "RATE_LIMIT_WINDOW_SECONDS"),
		},
		Staleness: StalenessConfig{
			Products:      seconds(v, "STALENESS_PRODUCTS_SECONDS"),
			Categories:    seconds(v, "STALENESS_CATEGORIES_SECONDS"),
			Subcategories: seconds(v, "STALENESS_SUBCATEGORIES_SECONDS"),
			Orders:        seconds(v, "STALENESS_ORDERS_SECONDS"),
			Users:         seconds(v, "STALENESS_USERS_SECONDS"),
		},
	}
}

// Validate checks the settings the state layer cannot run without
func (c *Config) Validate() error {
	var errs []error

	if !isAbsoluteURL(c.API.BaseURL) {
		errs = append(errs, fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.API.BaseURL))
	}
	if !isAbsoluteURL(c.API.ImageURL) {
		errs = append(errs, fmt.Errorf("API_IMAGE_URL must be an absolute URL, got %q", c.API.ImageURL))
	}

	switch c.Storage.Driver {
	case StorageFile:
		if c.Storage.FilePath == "" {
			errs = append(errs, errors.New("STORAGE_FILE_PATH is required for the file storage driver"))
		}
	case StorageRedis:
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required for the redis storage driver"))
		}
	case StoragePostgres:
		if c.Database.Database == "" {
			errs = append(errs, errors.New("DB_DATABASE is required for the postgres storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the process runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// RedisAddr returns host:port, or "" when Redis is not configured
func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return c.Redis.Host + ":" + c.Redis.Port
}

// DSN builds the Postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		url.QueryEscape(c.Database.User),
		url.QueryEscape(c.Database.Password),
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.Schema,
	)
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Second
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
