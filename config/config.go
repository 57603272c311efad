package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Contact       ContactConfig
	RateLimit     RateLimitConfig
	Redis         RedisConfig
	SES           SESConfig
	Token         TokenConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	BaseURL        string
	AllowedOrigins []string // CORS allow-list
	StaticDir      string   // landing page assets, served when set
}

// ContactConfig drives contact form processing and outbound email.
type ContactConfig struct {
	RecipientEmail string
	FromEmail      string
	FromName       string
	SubjectPrefix  string
	AllowedOrigins []string // origin/referrer hosts accepted for form posts
}

// RateLimitConfig bounds submissions per client within a sliding window.
type RateLimitConfig struct {
	MaxAttempts   int
	WindowSeconds int
	Backend       string // "memory" or "redis"
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SESConfig struct {
	AccessKey string
	SecretKey string
	Region    string
}

// TokenConfig configures anti-forgery form tokens.
type TokenConfig struct {
	Secret       string
	TTLMinutes   int
	CSRFRequired bool
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("BASE_URL", "https://asomstudio.ai")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "https://asomstudio.ai,https://www.asomstudio.ai")
	v.SetDefault("STATIC_DIR", "")
	v.SetDefault("CONTACT_FROM_EMAIL", "noreply@asomstudio.ai")
	v.SetDefault("CONTACT_FROM_NAME", "ASOM Studio Contact Form")
	v.SetDefault("CONTACT_SUBJECT_PREFIX", "[ASOM Studio] ")
	v.SetDefault("CONTACT_ALLOWED_ORIGINS", "asomstudio.ai,www.asomstudio.ai,localhost")
	v.SetDefault("RATE_LIMIT_MAX_ATTEMPTS", 5)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 3600)
	v.SetDefault("RATE_LIMIT_BACKEND", "memory")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AWS_SES_REGION", "us-east-1")
	v.SetDefault("FORM_TOKEN_TTL_MINUTES", 60)
	v.SetDefault("CSRF_REQUIRED", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "")
	v.SetDefault("O11Y_BE_SERVICE_NAME", "asomstudio-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "asomstudio-ai")
	v.SetDefault("O11Y_BE_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "asomstudio-api")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,alloc_objects,goroutines,mutex,block")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			BaseURL:        v.GetString("BASE_URL"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
			StaticDir:      v.GetString("STATIC_DIR"),
		},
		Contact: ContactConfig{
			RecipientEmail: v.GetString("CONTACT_RECIPIENT_EMAIL"),
			FromEmail:      v.GetString("CONTACT_FROM_EMAIL"),
			FromName:       v.GetString("CONTACT_FROM_NAME"),
			SubjectPrefix:  v.GetString("CONTACT_SUBJECT_PREFIX"),
			AllowedOrigins: splitList(v.GetString("CONTACT_ALLOWED_ORIGINS")),
		},
		RateLimit: RateLimitConfig{
			MaxAttempts:   v.GetInt("RATE_LIMIT_MAX_ATTEMPTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
			Backend:       v.GetString("RATE_LIMIT_BACKEND"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		SES: SESConfig{
			AccessKey: v.GetString("AWS_SES_ACCESS_KEY"),
			SecretKey: v.GetString("AWS_SES_SECRET_KEY"),
			Region:    v.GetString("AWS_SES_REGION"),
		},
		Token: TokenConfig{
			Secret:       v.GetString("FORM_TOKEN_SECRET"),
			TTLMinutes:   v.GetInt("FORM_TOKEN_TTL_MINUTES"),
			CSRFRequired: v.GetBool("CSRF_REQUIRED"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_BE_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_BE_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	if c.Contact.RecipientEmail == "" {
		return fmt.Errorf("CONTACT_RECIPIENT_EMAIL is required")
	}
	if c.Contact.FromEmail == "" {
		return fmt.Errorf("CONTACT_FROM_EMAIL is required")
	}
	if len(c.Contact.AllowedOrigins) == 0 {
		return fmt.Errorf("CONTACT_ALLOWED_ORIGINS is required")
	}

	if c.RateLimit.MaxAttempts <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_ATTEMPTS must be positive")
	}
	if c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS must be positive")
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when RATE_LIMIT_BACKEND is redis")
		}
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be \"memory\" or \"redis\", got %q", c.RateLimit.Backend)
	}

	if c.IsProduction() && (c.SES.AccessKey == "" || c.SES.SecretKey == "") {
		return fmt.Errorf("AWS_SES_ACCESS_KEY and AWS_SES_SECRET_KEY are required in production")
	}

	if c.Token.CSRFRequired && c.Token.Secret == "" {
		return fmt.Errorf("FORM_TOKEN_SECRET is required when CSRF_REQUIRED is enabled")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
