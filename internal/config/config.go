// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, the SQLite path, the knowledge document, the completion provider
// and observability settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "aoubot-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// LLMConfig configures the completion provider used by the chat endpoint.
//
// A missing API key is not a configuration error: the service starts and
// /chat reports the provider as not configured.
type LLMConfig struct {
	Provider     string        // openai|gemini
	OpenAIKey    string        // OPENAI_API_KEY
	OpenAIBase   string        // OPENAI_BASE_URL
	OpenAIModel  string        // OPENAI_MODEL
	GeminiKey    string        // GEMINI_API_KEY
	GeminiModel  string        // GEMINI_MODEL
	Temperature  float64       // LLM_TEMPERATURE in [0,2]
	Timeout      time.Duration // LLM_TIMEOUT, per request
	SystemPrompt string        // LLM_SYSTEM_PROMPT, optional override
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s, provider calls are slow
	IdleTimeout       time.Duration // e.g. 120s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath        string // SQLite path
	KnowledgePath string // grounding document
	KnowledgeTopK int    // 0 = whole document, >0 = most relevant paragraphs

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Completion provider
	LLM LLMConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad is Load for main: an invalid environment panics.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment, applies defaults and normalizes values. Every
// invalid setting is reported in the returned (joined) error.
func Load() (Config, error) {
	cfg := Config{
		Port:              envString("PORT", "8000"),
		ReadTimeout:       envDuration("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: envDuration("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      envDuration("WRITE_TIMEOUT", 90*time.Second),
		IdleTimeout:       envDuration("IDLE_TIMEOUT", 120*time.Second),
		MaxHeaderBytes:    envInt("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(envString("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(envString("LOG_LEVEL", "info")),
		LogPretty:      envBool("LOG_PRETTY", false),
		SwaggerEnabled: envBool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(envString("API_BASE_PATH", "/")),

		DBPath:        envString("DB_PATH", "users.db"),
		KnowledgePath: envString("KNOWLEDGE_PATH", "data/knowledge.txt"),
		KnowledgeTopK: envInt("KNOWLEDGE_TOP_K", 0),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(envString("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: envBool("ENABLE_HSTS", false),
			HSTSMaxAge: envDuration("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: envDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		LLM: LLMConfig{
			Provider:     strings.ToLower(envString("LLM_PROVIDER", "openai")),
			OpenAIKey:    strings.TrimSpace(envString("OPENAI_API_KEY", "")),
			OpenAIBase:   strings.TrimRight(strings.TrimSpace(envString("OPENAI_BASE_URL", "https://api.openai.com")), "/"),
			OpenAIModel:  envString("OPENAI_MODEL", "gpt-3.5-turbo"),
			GeminiKey:    strings.TrimSpace(envString("GEMINI_API_KEY", "")),
			GeminiModel:  envString("GEMINI_MODEL", "gemini-1.5-flash-latest"),
			Temperature:  envFloat("LLM_TEMPERATURE", 0.4),
			Timeout:      envDuration("LLM_TIMEOUT", 60*time.Second),
			SystemPrompt: envString("LLM_SYSTEM_PROMPT", ""),
		},

		OTEL: OTELConfig{
			Enabled:     envBool("OTEL_ENABLED", false),
			Endpoint:    envString("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: envString("OTEL_SERVICE_NAME", "aoubot-backend"),
			SampleRatio: envFloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	if !slices.Contains(ginModes, cfg.GinMode) {
		cfg.GinMode = "release"
	}

	return cfg, cfg.validate()
}

var (
	ginModes  = []string{"debug", "release", "test"}
	logLevels = []string{"debug", "info", "warn", "error", "fatal", "panic"}
	providers = []string{"openai", "gemini"}
)

func (c Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(slices.Contains(logLevels, c.LogLevel), "LOG_LEVEL must be one of: %s", strings.Join(logLevels, ", "))
	check(strings.TrimSpace(c.Port) != "", "PORT must not be empty")
	check(c.ReadTimeout > 0 && c.ReadHeaderTimeout > 0 && c.WriteTimeout > 0 && c.IdleTimeout > 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")
	check(strings.TrimSpace(c.DBPath) != "", "DB_PATH must not be empty")
	check(strings.TrimSpace(c.KnowledgePath) != "", "KNOWLEDGE_PATH must not be empty")
	check(c.KnowledgeTopK >= 0, "KNOWLEDGE_TOP_K must be >= 0")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(c.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")
	check(slices.Contains(providers, c.LLM.Provider), "LLM_PROVIDER must be one of: %s", strings.Join(providers, ", "))
	check(c.LLM.Temperature >= 0 && c.LLM.Temperature <= 2, "LLM_TEMPERATURE must be in [0,2]")
	check(c.LLM.Timeout > 0, "LLM_TIMEOUT must be a positive duration")
	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

// env returns the parsed value of key, or def when the variable is unset,
// empty or does not parse.
func env[T any](key string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func envString(key, def string) string {
	return env(key, def, func(s string) (string, error) { return s, nil })
}

func envInt(key string, def int) int { return env(key, def, strconv.Atoi) }

func envFloat(key string, def float64) float64 {
	return env(key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func envDuration(key string, def time.Duration) time.Duration {
	return env(key, def, time.ParseDuration)
}

var errNotBool = errors.New("not a boolean")

func envBool(key string, def bool) bool {
	return env(key, def, func(s string) (bool, error) {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
		return false, errNotBool
	})
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath returns p with a leading '/' and no trailing '/', or "/"
// for the root.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return "/"
	}
	return "/" + p
}
