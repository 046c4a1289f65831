package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	devJWTSecret = "dev-secret-change-me"
)

var ErrWeakJWTSecret = errors.New("JWT_SECRET must be set outside dev and test")

type Config struct {
	Env         string
	Port        int
	DBURL       string
	DBMaxConns  int
	StoreDriver string

	JWTSecret           string
	JWTAccessTTLMinutes int
	AllowSelfAdmin      bool

	AdminEmail    string
	AdminPassword string
	AdminName     string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheTTLSeconds int

	CORSOrigins      []string
	OTLPEndpoint     string
	TraceSampleRatio float64
	LoginRateLimit   int
	AdminWriteLimit  int
	MaxBodyBytes     int64

	RequestTimeoutSeconds int
}

// Load reads configuration from the environment, after an optional .env file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env file", "err", err)
	}

	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        getEnvInt("PORT", 8080),
		DBURL:       buildDBURL(),
		DBMaxConns:  getEnvInt("DB_MAX_CONNS", 5),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),

		JWTSecret:           getEnv("JWT_SECRET", devJWTSecret),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 60),
		AllowSelfAdmin:      getEnvBool("AUTH_ALLOW_SELF_ADMIN", true),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		CacheTTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 30),

		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		OTLPEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TraceSampleRatio: getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
		LoginRateLimit:   getEnvInt("LOGIN_RATE_LIMIT", 10),
		AdminWriteLimit:  getEnvInt("ADMIN_WRITE_RATE_LIMIT", 60),
		MaxBodyBytes:     int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		RequestTimeoutSeconds: getEnvInt("REQUEST_TIMEOUT_SECONDS", 3),
	}
}

// Validate rejects settings that are only acceptable on a developer machine.
func (c Config) Validate() error {
	if c.Env == "dev" || c.Env == "test" {
		return nil
	}

	if c.JWTSecret == "" || c.JWTSecret == devJWTSecret {
		return ErrWeakJWTSecret
	}

	return nil
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

// RequestTimeout bounds the store work of one request.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// ClientConfig is what guructl needs to reach the API and keep its token.
type ClientConfig struct {
	APIURL    string
	TokenFile string
}

func LoadClient() ClientConfig {
	_ = godotenv.Load()

	return ClientConfig{
		APIURL:    strings.TrimRight(getEnv("GURUHUB_API_URL", "http://localhost:8080"), "/"),
		TokenFile: getEnv("GURUHUB_TOKEN_FILE", defaultTokenFile()),
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}

	return filepath.Join(dir, "guruhub", "token")
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "guruhub")
	pass := getEnv("DB_PASSWORD", "guruhub")
	name := getEnv("DB_NAME", "guruhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.ParseFloat(v, 64)

		if err != nil {
			slog.Warn("invalid number in environment, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			slog.Warn("invalid boolean in environment, using default", "key", key, "value", v)
			return fallback
		}

		return b
	}
	return fallback
}

func splitList(raw string) []string {
	out := make([]string, 0)

	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}
