package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the web server
type Config struct {
	// ListenAddr is the address the HTTP server binds to
	ListenAddr string

	// Backend is the remote REST API this site presents
	Backend BackendConfig

	// Cookie configures the browser-side admin token store
	Cookie CookieConfig

	// CORS origins allowed to post to the public contact endpoint
	CORSAllowedOrigins []string

	// ContactRateLimit is the number of contact submissions allowed per client IP per minute
	ContactRateLimit int

	// CatalogRefreshSchedule is a cron expression for the storefront snapshot refresh
	CatalogRefreshSchedule string

	CDN CDNConfig

	Notify NotifyConfig

	Logging LoggingConfig
}

// BackendConfig holds the REST backend location
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration // 0 means no client-side timeout
}

// CookieConfig holds securecookie keys
type CookieConfig struct {
	HashKey  []byte
	BlockKey []byte
	Secure   bool
}

// CDNConfig holds the S3-compatible image bucket settings
type CDNConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
	UseSSL    bool
	MaxBytes  int64
}

// Enabled reports whether uploads are configured
func (c CDNConfig) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// NotifyConfig holds SendGrid settings for contact notifications
type NotifyConfig struct {
	SendGridAPIKey string
	FromEmail      string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}

	timeout, err := durationEnv("HTTP_CLIENT_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}

	hashKey, err := keyEnv("COOKIE_HASH_KEY")
	if err != nil {
		return nil, err
	}
	blockKey, err := keyEnv("COOKIE_BLOCK_KEY")
	if err != nil {
		return nil, err
	}

	rateLimit, err := intEnv("CONTACT_RATE_LIMIT", 5)
	if err != nil {
		return nil, err
	}

	cdn, err := LoadCDN()
	if err != nil {
		return nil, err
	}

	var origins []string
	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		ListenAddr: envOr("LISTEN_ADDR", ":8080"),
		Backend: BackendConfig{
			BaseURL: baseURL,
			Timeout: timeout,
		},
		Cookie: CookieConfig{
			HashKey:  hashKey,
			BlockKey: blockKey,
			Secure:   os.Getenv("COOKIE_SECURE") != "false",
		},
		CORSAllowedOrigins:     origins,
		ContactRateLimit:       rateLimit,
		CatalogRefreshSchedule: envOr("CATALOG_REFRESH_SCHEDULE", "*/5 * * * *"),
		CDN:                    cdn,
		Notify: NotifyConfig{
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			FromEmail:      envOr("NOTIFY_FROM_EMAIL", "no-reply@partsline.local"),
		},
		Logging: LoggingConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
		},
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// keyEnv reads a hex-encoded key. An unset key returns nil and the caller generates one.
func keyEnv(key string) ([]byte, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s (expected hex): %w", key, err)
	}
	return b, nil
}

// LoadCDN reads only the CDN settings, for tools that upload without running the server
func LoadCDN() (CDNConfig, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	maxBytes, err := intEnv("UPLOAD_MAX_BYTES", 10<<20)
	if err != nil {
		return CDNConfig{}, err
	}
	return CDNConfig{
		Endpoint:  os.Getenv("CDN_ENDPOINT"),
		AccessKey: os.Getenv("CDN_ACCESS_KEY"),
		SecretKey: os.Getenv("CDN_SECRET_KEY"),
		Bucket:    os.Getenv("CDN_BUCKET"),
		PublicURL: os.Getenv("CDN_PUBLIC_URL"),
		UseSSL:    os.Getenv("CDN_USE_SSL") != "false",
		MaxBytes:  int64(maxBytes),
	}, nil
}
