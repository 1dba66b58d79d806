package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session backend and notifier names accepted in SESSION_BACKEND / SESSION_NOTIFIER.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	NotifierNone  = "none"
	NotifierRedis = "redis"
	NotifierNATS  = "nats"
)

// Config holds the runtime configuration of the storefront client and its tools.
type Config struct {
	ServiceName string // e.g. "storefront"
	Env         string // "dev", "uat", "prod"
	LogLevel    string

	// APIBaseURL is the single origin every backend path is resolved against.
	APIBaseURL   string
	HTTPTimeout  time.Duration
	ReadRetryMax int
	RateRPS      int // <= 0 disables client-side throttling
	RateBurst    int

	SessionBackend  string
	SessionNotifier string
	SessionScope    string

	RedisAddr string
	RedisDB   int
	RedisPass string
	NATSURL   string

	PreviewPort     int
	RefreshInterval time.Duration

	// Reference location used for distance filters and the static locator.
	UserLat float64
	UserLon float64
}

// Load reads configuration from the environment, loading a .env file first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:     GetEnv("SERVICE_NAME", "storefront"),
		Env:             GetEnv("ENV", "dev"),
		LogLevel:        GetEnv("LOG_LEVEL", "info"),
		APIBaseURL:      strings.TrimRight(GetEnv("STOREFRONT_API_URL", "http://localhost:8000"), "/"),
		HTTPTimeout:     GetEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		ReadRetryMax:    GetEnvInt("READ_RETRY_MAX", 0),
		RateRPS:         GetEnvInt("RATE_RPS", 0),
		RateBurst:       GetEnvInt("RATE_BURST", 5),
		SessionBackend:  strings.ToLower(GetEnv("SESSION_BACKEND", BackendMemory)),
		SessionNotifier: strings.ToLower(GetEnv("SESSION_NOTIFIER", NotifierNone)),
		SessionScope:    GetEnv("SESSION_SCOPE", "default"),
		RedisAddr:       GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:         GetEnvInt("REDIS_DB", 0),
		RedisPass:       GetEnv("REDIS_PASS", ""),
		NATSURL:         GetEnv("NATS_URL", "nats://localhost:4222"),
		PreviewPort:     GetEnvInt("PREVIEW_PORT", 9020),
		RefreshInterval: GetEnvDuration("REFRESH_INTERVAL", 0),
		UserLat:         GetEnvFloat("USER_LAT", -25.425704),
		UserLon:         GetEnvFloat("USER_LON", -49.2733),
	}
}
