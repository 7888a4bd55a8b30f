package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type MongoConfig struct {
	URI           string
	Host          string
	Port          int
	Username      string
	Password      string
	AuthMechanism string
	Database      string
	Timeout       time.Duration
}

// ConnectionString returns URI when set, otherwise builds one from the
// discrete host settings.
func (m MongoConfig) ConnectionString() string {
	if m.URI != "" {
		return m.URI
	}
	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(m.Host, strconv.Itoa(m.Port)),
		Path:   "/",
	}
	if m.Username != "" {
		u.User = url.UserPassword(m.Username, m.Password)
	}
	if m.AuthMechanism != "" {
		q := url.Values{}
		q.Set("authMechanism", m.AuthMechanism)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// LoginPerMinute caps login attempts per client IP. 0 disables the limit.
	LoginPerMinute int
}

type AdminConfig struct {
	Username string
	Password string
}

type R2Config struct {
	Bucket       string
	AccessKey    string
	SecretKey    string
	Endpoint     string
	PublicDomain string
	MaxUploadMB  int
}

// Enabled reports whether every R2 variable is present.
func (r R2Config) Enabled() bool {
	return r.Bucket != "" && r.AccessKey != "" && r.SecretKey != "" && r.Endpoint != ""
}

type Config struct {
	Env            string
	LogLevel       string
	Port           string
	AllowedOrigins []string
	Mongo          MongoConfig
	Auth           AuthConfig
	Admin          AdminConfig
	R2             R2Config
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:            envDefault("APP_ENV", "dev"),
		LogLevel:       envDefault("LOG_LEVEL", "info"),
		Port:           envDefault("PORT", "8080"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		Mongo: MongoConfig{
			URI:           strings.TrimSpace(os.Getenv("MONGODB_URI")),
			Host:          envDefault("MONGODB_HOST", "localhost"),
			Port:          intDefault("MONGODB_PORT", 27017),
			Username:      os.Getenv("MONGODB_USERNAME"),
			Password:      os.Getenv("MONGODB_PASSWORD"),
			AuthMechanism: os.Getenv("MONGODB_AUTH_MECHANISM"),
			Database:      strings.TrimSpace(os.Getenv("DATABASE_NAME")),
			Timeout:       time.Duration(intDefault("MONGODB_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Auth: AuthConfig{
			AccessSecret:   os.Getenv("JWT_SECRET"),
			RefreshSecret:  os.Getenv("JWT_REFRESH_SECRET"),
			Issuer:         envDefault("JWT_ISSUER", "hrm"),
			AccessTTL:      time.Duration(intDefault("ACCESS_TOKEN_TTL_MINUTES", 15)) * time.Minute,
			RefreshTTL:     time.Duration(intDefault("REFRESH_TOKEN_TTL_DAYS", 14)) * 24 * time.Hour,
			LoginPerMinute: nonNegativeDefault("LOGIN_RATE_PER_MINUTE", 10),
		},
		Admin: AdminConfig{
			Username: strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_USERNAME"))),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		R2: R2Config{
			Bucket:       os.Getenv("R2_BUCKET"),
			AccessKey:    os.Getenv("R2_ACCESS_KEY_ID"),
			SecretKey:    os.Getenv("R2_SECRET_ACCESS_KEY"),
			Endpoint:     os.Getenv("R2_ENDPOINT"),
			PublicDomain: strings.TrimRight(os.Getenv("R2_PUBLIC_DOMAIN"), "/"),
			MaxUploadMB:  intDefault("MAX_UPLOAD_SIZE_MB", 5),
		},
	}

	if cfg.Mongo.Database == "" {
		return Config{}, fmt.Errorf("missing DATABASE_NAME env var")
	}
	if cfg.Auth.AccessSecret == "" || cfg.Auth.RefreshSecret == "" {
		return Config{}, fmt.Errorf("missing JWT_SECRET or JWT_REFRESH_SECRET env vars")
	}
	if cfg.Auth.AccessSecret == cfg.Auth.RefreshSecret {
		return Config{}, fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	return cfg, nil
}

func envDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// intDefault falls back to def for unset, malformed or non-positive values.
// nonNegativeDefault is intDefault that keeps an explicit 0.
func nonNegativeDefault(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func intDefault(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func splitList(v string) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
