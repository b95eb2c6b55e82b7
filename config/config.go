package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultServerPort      = 8080
	defaultLichessBaseURL  = "https://lichess.org"
	defaultLichessRPM      = 30
	defaultLichessCacheTTL = 7 * 24 * time.Hour
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL        string
	JWTSecretKey       string
	ServerPort         int
	CORSAllowedOrigins []string

	RedisURL string

	LichessBaseURL           string
	LichessAPIToken          string
	LichessRequestsPerMinute int
	LichessCacheTTL          time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	LogLevel  string
	LogFormat string
}

// ArchiveEnabled сообщает, заданы ли все параметры R2.
func (c *Config) ArchiveEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load загружает конфигурацию HTTP-сервера; JWT_SECRET_KEY обязателен.
func Load() (*Config, error) {
	cfg, err := LoadCommon()
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}
	return cfg, nil
}

// LoadCommon загружает конфигурацию из переменных окружения без проверки
// JWT_SECRET_KEY (нужно leaguectl). Опционально подгружает .env файл.
func LoadCommon() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()

	port, err := intFromEnv("SERVER_PORT", defaultServerPort)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	rpm, err := intFromEnv("LICHESS_REQUESTS_PER_MINUTE", defaultLichessRPM)
	if err != nil {
		return nil, err
	}
	if rpm <= 0 {
		return nil, fmt.Errorf("LICHESS_REQUESTS_PER_MINUTE must be positive, got %d", rpm)
	}

	cacheTTL := defaultLichessCacheTTL
	if v := strings.TrimSpace(os.Getenv("LICHESS_CACHE_TTL")); v != "" {
		cacheTTL, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LICHESS_CACHE_TTL environment variable: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		JWTSecretKey:             os.Getenv("JWT_SECRET_KEY"),
		ServerPort:               port,
		CORSAllowedOrigins:       splitList(getenvDefault("CORS_ALLOWED_ORIGINS", "*")),
		RedisURL:                 os.Getenv("REDIS_URL"),
		LichessBaseURL:           strings.TrimRight(getenvDefault("LICHESS_BASE_URL", defaultLichessBaseURL), "/"),
		LichessAPIToken:          os.Getenv("LICHESS_API_TOKEN"),
		LichessRequestsPerMinute: rpm,
		LichessCacheTTL:          cacheTTL,
		R2AccountID:              os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:            os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:        os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:             os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:          os.Getenv("R2_PUBLIC_BASE_URL"),
		LogLevel:                 getenvDefault("LOG_LEVEL", "info"),
		LogFormat:                getenvDefault("LOG_FORMAT", "json"),
	}

	anyR2 := cfg.R2AccountID != "" || cfg.R2AccessKeyID != "" || cfg.R2SecretAccessKey != "" ||
		cfg.R2BucketName != "" || cfg.R2PublicBaseURL != ""
	if anyR2 && !cfg.ArchiveEnabled() {
		return nil, fmt.Errorf("R2 configuration is partial: set all of R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_BUCKET_NAME, R2_PUBLIC_BASE_URL or none")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intFromEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
