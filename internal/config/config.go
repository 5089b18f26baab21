package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Token codec selection values.
const (
	CodecPaseto = "paseto"
	CodecJWT    = "jwt"
)

// Token store selection values.
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Token    TokenConfig
	Email    EmailConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins for cookie auth
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// TokenConfig carries everything the token subsystem needs: the codec and
// store selection, the shared secret and per-kind lifetimes.
type TokenConfig struct {
	Codec  string // "paseto" (v4.local) or "jwt" (HS256)
	Store  string // "postgres" or "redis"
	Secret []byte

	AccessDuration        time.Duration
	RefreshDuration       time.Duration
	ResetPasswordDuration time.Duration
	VerifyEmailDuration   time.Duration
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	FrontendURL  string // Frontend URL for verification links
}

// Load reads configuration from environment variables.
// A .env file is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "goauthapi"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Token: TokenConfig{
			Codec:                 getEnv("TOKEN_CODEC", CodecPaseto),
			Store:                 getEnv("TOKEN_STORE", StorePostgres),
			Secret:                []byte(getEnv("TOKEN_SECRET", "")),
			AccessDuration:        getDurationEnv("ACCESS_TOKEN_DURATION", 30*time.Minute),
			RefreshDuration:       getDurationEnv("REFRESH_TOKEN_DURATION", 30*24*time.Hour),
			ResetPasswordDuration: getDurationEnv("RESET_PASSWORD_TOKEN_DURATION", 10*time.Minute),
			VerifyEmailDuration:   getDurationEnv("VERIFY_EMAIL_TOKEN_DURATION", 10*time.Minute),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASS", ""),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
	}

	if err := cfg.Token.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *TokenConfig) validate() error {
	switch c.Codec {
	case CodecPaseto:
		// v4.local requires exactly 32 key bytes
		if len(c.Secret) != 32 {
			return fmt.Errorf("TOKEN_SECRET must be exactly 32 bytes for the paseto codec, got %d", len(c.Secret))
		}
	case CodecJWT:
		if len(c.Secret) == 0 {
			return fmt.Errorf("TOKEN_SECRET must not be empty for the jwt codec")
		}
	default:
		return fmt.Errorf("unknown TOKEN_CODEC %q (expected %q or %q)", c.Codec, CodecPaseto, CodecJWT)
	}

	if c.Store != StorePostgres && c.Store != StoreRedis {
		return fmt.Errorf("unknown TOKEN_STORE %q (expected %q or %q)", c.Store, StorePostgres, StoreRedis)
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
