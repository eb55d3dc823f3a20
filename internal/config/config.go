package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"truck-ledger-go/pkg/logger"
)

type StoreDriver string

const (
	StoreDriverFirebase StoreDriver = "firebase"
	StoreDriverPostgres StoreDriver = "postgres"
	StoreDriverRedis    StoreDriver = "redis"
	StoreDriverFile     StoreDriver = "file"
	StoreDriverMemory   StoreDriver = "memory"
)

type Config struct {
	HTTPPort    string
	Env         string
	StoreDriver StoreDriver
	DB          DBConfig
	Firebase    FirebaseConfig
	Redis       RedisConfig
	File        FileConfig
	Cookie      CookieConfig
	Session     SessionConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type FirebaseConfig struct {
	APIKey      string
	DatabaseURL string
	IdentityURL string
	TokenURL    string
	Timeout     time.Duration
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string
}

type FileConfig struct {
	Path string
	// UserID is the fixed identity used when no identity provider is configured.
	UserID string
	Email  string
}

type CookieConfig struct {
	Name     string
	Password string
	Secure   bool
	MaxAge   time.Duration
}

type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

type RateLimitConfig struct {
	AuthPerMinute int
	AuthBurst     int
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load(log logger.Logger) (Config, error) {
	err := loadDotEnv(log)
	if err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		StoreDriver: StoreDriver(strings.ToLower(getEnv("STORE_DRIVER", string(StoreDriverFile)))),
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "truck_ledger"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Firebase: FirebaseConfig{
			APIKey:      getEnv("FIREBASE_API_KEY", ""),
			DatabaseURL: getEnv("FIREBASE_DATABASE_URL", ""),
			IdentityURL: getEnv("FIREBASE_IDENTITY_URL", ""),
			TokenURL:    getEnv("FIREBASE_TOKEN_URL", ""),
			Timeout:     getEnvDuration("FIREBASE_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			PoolSize:  getEnvInt("REDIS_POOL_SIZE", 20),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "truck-ledger:"),
		},
		File: FileConfig{
			Path:   getEnv("DATA_FILE", "data.json"),
			UserID: getEnv("LOCAL_USER_ID", "local"),
			Email:  getEnv("LOCAL_USER_EMAIL", "driver@localhost"),
		},
		Cookie: CookieConfig{
			Name:     getEnv("COOKIE_NAME", "bl_auth"),
			Password: getEnv("COOKIE_PASSWORD", ""),
			Secure:   getEnvBool("COOKIE_SECURE", false),
			MaxAge:   getEnvDuration("COOKIE_MAX_AGE", 30*24*time.Hour),
		},
		Session: SessionConfig{
			IdleTTL:       getEnvDuration("SESSION_IDLE_TTL", 2*time.Hour),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute: getEnvInt("AUTH_RATE_PER_MINUTE", 20),
			AuthBurst:     getEnvInt("AUTH_RATE_BURST", 5),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", nil),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverFile, StoreDriverMemory, StoreDriverPostgres, StoreDriverRedis:
	case StoreDriverFirebase:
		if c.Firebase.DatabaseURL == "" {
			return fmt.Errorf("FIREBASE_DATABASE_URL is required for store driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.StoreDriver == StoreDriverFirebase && c.Firebase.APIKey == "" {
		return fmt.Errorf("FIREBASE_API_KEY is required for store driver %q", c.StoreDriver)
	}
	if c.Env == "production" && c.Cookie.Password == "" {
		return fmt.Errorf("COOKIE_PASSWORD is required in production")
	}
	return nil
}

// IdentityEnabled reports whether users sign in through the identity
// provider. Without it every request runs as the local user.
func (c Config) IdentityEnabled() bool {
	return c.Firebase.APIKey != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
