package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/johnrirwin/bizregistry/internal/policy"
)

// Config holds all application configuration
type Config struct {
	API        APIConfig
	Auth       AuthConfig
	Logging    LoggingConfig
	Phone      PhoneConfig
	Images     ImageConfig
	Uploads    UploadConfig
	Moderation ModerationConfig
	Status     StatusConfig
	Metrics    MetricsConfig
	Tracing    TracingConfig
}

// APIConfig holds registry API settings
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AuthConfig holds the bearer token used for registry calls
type AuthConfig struct {
	Token       string
	TokenLeeway time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // "console" or "json"
}

// PhoneConfig holds the default dialing prefix
type PhoneConfig struct {
	CountryCode string
}

// ImageConfig bounds what the image pipeline accepts
type ImageConfig struct {
	MaxBytes    int64
	MinWidth    int
	MinHeight   int
	CarouselCap int
	Concurrency int
}

// UploadConfig holds pending upload storage settings
type UploadConfig struct {
	Backend   string // "memory" or "redis"
	RedisAddr string
	TTL       time.Duration
}

// ModerationConfig holds image moderation settings.
type ModerationConfig struct {
	Enabled          bool
	AWSRegion        string
	RejectConfidence float64
	AllowCategories  []string
	Timeout          time.Duration
}

// StatusConfig holds extra spellings for moderation statuses
type StatusConfig struct {
	Synonyms map[policy.Status][]string
}

// MetricsConfig holds the Prometheus listener address. Empty disables it.
type MetricsConfig struct {
	Addr string
}

// TracingConfig selects the span exporter: none, stdout or jaeger.
type TracingConfig struct {
	Exporter    string
	Endpoint    string
	SampleRatio float64
}

// Load reads .env (if present), then parses flags and environment variables
// to build configuration. Environment values win over flags.
func Load() *Config {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{}

	// Define flags with defaults
	apiBaseURL := flag.String("api", "http://localhost:8080/api", "Registry API base URL")
	apiTimeout := flag.Duration("api-timeout", 30*time.Second, "Registry API request timeout")
	token := flag.String("token", "", "Bearer token for the registry API")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "console", "Log format: console or json")
	uploadBackend := flag.String("upload-backend", "memory", "Pending upload backend: memory or redis")
	redisAddr := flag.String("redis-addr", "localhost:6379", "Redis server address")
	uploadTTL := flag.Duration("upload-ttl", 30*time.Minute, "How long selected images are kept before submit")
	metricsAddr := flag.String("metrics", "", "Prometheus metrics address (empty disables)")
	traceExporter := flag.String("trace-exporter", "none", "Span exporter: none, stdout or jaeger")

	flag.Parse()

	// Apply environment variable overrides
	applyEnvOverrides(apiBaseURL, apiTimeout, token, logLevel, logFormat, uploadBackend, redisAddr, uploadTTL, metricsAddr, traceExporter)

	cfg.API = APIConfig{
		BaseURL: *apiBaseURL,
		Timeout: *apiTimeout,
	}

	cfg.Auth = AuthConfig{
		Token:       *token,
		TokenLeeway: getDurationOrDefault("AUTH_TOKEN_LEEWAY", 30*time.Second),
	}

	cfg.Logging = LoggingConfig{
		Level:  *logLevel,
		Format: *logFormat,
	}

	cfg.Phone = PhoneConfig{
		CountryCode: getEnvOrDefault("PHONE_COUNTRY_CODE", "+593"),
	}

	cfg.Uploads = UploadConfig{
		Backend:   *uploadBackend,
		RedisAddr: *redisAddr,
		TTL:       *uploadTTL,
	}

	cfg.Metrics = MetricsConfig{
		Addr: *metricsAddr,
	}

	cfg.Tracing = TracingConfig{
		Exporter:    *traceExporter,
		Endpoint:    os.Getenv("TRACE_ENDPOINT"),
		SampleRatio: getFloatOrDefault("TRACE_SAMPLE_RATIO", 1),
	}

	cfg.Images = loadImageConfig()
	cfg.Moderation = loadModerationConfig()
	cfg.Status = StatusConfig{
		Synonyms: parseStatusSynonyms(os.Getenv("STATUS_SYNONYMS")),
	}

	return cfg
}

// loadImageConfig reads image limits. Zero values fall back to the pipeline
// defaults.
func loadImageConfig() ImageConfig {
	cfg := ImageConfig{}
	if v := os.Getenv("IMAGE_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxBytes = n
		}
	}
	cfg.MinWidth = getPositiveIntOrDefault("IMAGE_MIN_WIDTH", 0)
	cfg.MinHeight = getPositiveIntOrDefault("IMAGE_MIN_HEIGHT", 0)
	cfg.CarouselCap = getPositiveIntOrDefault("CAROUSEL_CAP", 0)
	cfg.Concurrency = getPositiveIntOrDefault("IMAGE_CONCURRENCY", 0)
	return cfg
}

func loadModerationConfig() ModerationConfig {
	rejectConfidence := 70.0
	if v := os.Getenv("MODERATION_REJECT_CONFIDENCE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			rejectConfidence = parsed
		}
	}

	// Screening calls a remote service, so it is opt-in for a CLI.
	enabled := false
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("IMAGE_MODERATION_ENABLED"))); v == "true" || v == "1" {
		enabled = true
	}

	return ModerationConfig{
		Enabled:          enabled,
		AWSRegion:        os.Getenv("AWS_REGION"),
		RejectConfidence: rejectConfidence,
		AllowCategories:  splitList(os.Getenv("MODERATION_ALLOW_CATEGORIES")),
		Timeout:          getDurationOrDefault("MODERATION_TIMEOUT", 5*time.Second),
	}
}

// parseStatusSynonyms reads "APPROVED=ACTIVO|PUBLICADO;PENDING=EN_ESPERA".
// Unknown canonical names and empty spellings are skipped.
func parseStatusSynonyms(raw string) map[policy.Status][]string {
	out := map[policy.Status][]string{}
	for _, entry := range strings.Split(raw, ";") {
		name, spellings, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		status := policy.Status(strings.ToUpper(strings.TrimSpace(name)))
		if !status.Known() {
			continue
		}
		for _, s := range strings.Split(spellings, "|") {
			if s = strings.TrimSpace(s); s != "" {
				out[status] = append(out[status], s)
			}
		}
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultValue
}

func getPositiveIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func applyEnvOverrides(
	apiBaseURL *string,
	apiTimeout *time.Duration,
	token *string,
	logLevel *string,
	logFormat *string,
	uploadBackend *string,
	redisAddr *string,
	uploadTTL *time.Duration,
	metricsAddr *string,
	traceExporter *string,
) {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		*apiBaseURL = v
	}
	if v := os.Getenv("API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*apiTimeout = d
		}
	}
	if v := os.Getenv("AUTH_TOKEN"); v != "" {
		*token = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		*logLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		*logFormat = v
	}
	if v := os.Getenv("UPLOAD_BACKEND"); v != "" {
		*uploadBackend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		*redisAddr = v
	}
	if v := os.Getenv("UPLOAD_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*uploadTTL = d
		}
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		*metricsAddr = v
	}
	if v := os.Getenv("TRACE_EXPORTER"); v != "" {
		*traceExporter = v
	}
}
