package config

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
)

type Config struct {
	App         AppConfig
	Server      ServerConfig
	Logging     LoggingConfig
	REDCap      REDCapConfig
	Redis       RedisConfig
	RateLimit   RateLimitConfig
	Session     SessionConfig
	Tracing     TracingConfig
	Environment string
}

type AppConfig struct {
	Name         string `validate:"required"`
	Version      string
	DeploymentID string
}

type ServerConfig struct {
	Host string
	Port int
}

type LoggingConfig struct {
	Level  string
	Format string
}

type REDCapConfig struct {
	APIURL         string `validate:"required,url"`
	APIToken       string `validate:"required"`
	ProjectID      string
	EventID        string
	StudyStartDate time.Time
	// Requests per second against the REDCap API. REDCap instances
	// throttle misbehaving tokens, so we throttle ourselves first.
	RequestsPerSecond float64
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	CacheTTL time.Duration
}

type RateLimitConfig struct {
	PublicPerMinute   int
	TrustedProxyCIDRs []string
}

type SessionConfig struct {
	Secret     string
	Expiry     time.Duration
	UseMockIdP bool
}

type TracingConfig struct {
	Enabled      bool
	Exporter     string
	ServiceName  string
	OTLPEndpoint string
	SampleRate   float64
}

func Load() (Config, error) {
	startDate, err := time.Parse("2006-01-02", getEnv("REDCAP_STUDY_START_DATE", "1970-01-01"))
	if err != nil {
		return Config{}, fmt.Errorf("REDCAP_STUDY_START_DATE must be YYYY-MM-DD: %w", err)
	}

	cfg := Config{
		App: AppConfig{
			Name:         getEnv("APP_NAME", "husky-musher"),
			Version:      getEnv("APP_VERSION", ""),
			DeploymentID: getEnv("DEPLOYMENT_ID", ""),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		REDCap: REDCapConfig{
			APIURL:            getEnv("REDCAP_API_URL", ""),
			APIToken:          getEnv("REDCAP_API_TOKEN", ""),
			ProjectID:         getEnv("REDCAP_PROJECT_ID", ""),
			EventID:           getEnv("REDCAP_EVENT_ID", ""),
			StudyStartDate:    startDate,
			RequestsPerSecond: getEnvFloat("REDCAP_REQUESTS_PER_SECOND", 10),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			CacheTTL: time.Duration(getEnvInt("CACHE_TTL_SECONDS", 0)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:   getEnvInt("RATE_LIMIT_PUBLIC", 60),
			TrustedProxyCIDRs: getEnvList("TRUSTED_PROXY_CIDRS"),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", ""),
			Expiry:     time.Duration(getEnvInt("SESSION_EXPIRY_HOURS", 8)) * time.Hour,
			UseMockIdP: getEnvBool("USE_MOCK_IDP", false),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", false),
			Exporter:     getEnv("TRACING_EXPORTER", "none"),
			ServiceName:  getEnv("TRACING_SERVICE_NAME", "husky-musher"),
			OTLPEndpoint: getEnv("TRACING_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.App.DeploymentID == "" {
		cfg.App.DeploymentID = newDeploymentID()
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// InDevelopment reports whether the service runs outside a deployed
// environment. Development mode reads the SSO identity from the process
// environment instead of proxy headers.
func (c Config) InDevelopment() bool {
	return c.Environment == "development"
}

func validate(cfg Config) error {
	v := validator.New()
	if err := v.Struct(cfg.REDCap); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "APIURL":
				return fmt.Errorf("REDCAP_API_URL is missing or not a valid URL")
			case "APIToken":
				return fmt.Errorf("REDCAP_API_TOKEN is required")
			}
		}
		return fmt.Errorf("invalid REDCap configuration: %w", err)
	}
	if err := v.Struct(cfg.App); err != nil {
		return fmt.Errorf("APP_NAME is required")
	}
	if cfg.Session.UseMockIdP && cfg.Environment == "production" {
		return fmt.Errorf("USE_MOCK_IDP must not be set in production")
	}
	if cfg.Session.UseMockIdP && cfg.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required when USE_MOCK_IDP is set")
	}
	return nil
}

func newDeploymentID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
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

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
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

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
