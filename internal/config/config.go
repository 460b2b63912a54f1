package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel string
	HTTPPort int

	DSN string

	JWTSecret string
	TokenTTL  time.Duration

	RedisAddr      string
	RedisPassword  string
	LoginRateLimit int

	UploadDir      string
	BaseURL        string
	MaxUploadBytes int64

	AdminEmails     []string
	CORSOrigin      string
	CheckoutTimeout time.Duration
	ProductsPerPage int
}

// LoadDotEnv reads .env into the process environment. A missing file is
// not an error; system environment variables are used instead.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		slog.Warn("could not load .env file, relying on system environment variables", slog.Any("err", err))
	}
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPPort: getEnvInt("HTTP_PORT", 8080),

		DSN: getEnv("DB_DSN_PRIMARY", "root:root@tcp(127.0.0.1:3306)/tshirtstore?parseTime=true"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 7*24*time.Hour),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		LoginRateLimit: getEnvInt("LOGIN_RATE_LIMIT", 5),

		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 16<<20)),

		AdminEmails:     getEnvList("ADMIN_EMAILS"),
		CORSOrigin:      getEnv("CORS_ORIGIN", "http://localhost:3000"),
		CheckoutTimeout: getEnvDuration("CHECKOUT_TIMEOUT", 10*time.Second),
		ProductsPerPage: getEnvInt("PRODUCTS_PER_PAGE", 12),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
