package config

import (
	"slices"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Generation GenerationConfig `yaml:"generation"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Workspace  WorkspaceConfig  `yaml:"workspace"`
	Mirror     MirrorConfig     `yaml:"mirror"`
	Log        LogConfig        `yaml:"log"`
	CORS       CORSConfig       `yaml:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"   env:"DATABASE_MIGRATE_ON_START"   env-default:"true"`
}

// RedisConfig holds Redis settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr        string `yaml:"addr"         env:"REDIS_ADDR"`
	Password    string `yaml:"password"     env:"REDIS_PASSWORD"`
	DB          int    `yaml:"db"           env:"REDIS_DB"           env-default:"0"`
	KeyPrefix   string `yaml:"key_prefix"   env:"REDIS_KEY_PREFIX"   env-default:"dict:"`
	FeedChannel string `yaml:"feed_channel" env:"REDIS_FEED_CHANNEL" env-default:"german-note:session-changes"`
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// AuthConfig holds authentication and OAuth settings.
type AuthConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"           env:"AUTH_JWT_SECRET"           env-required:"true"`
	JWTIssuer          string        `yaml:"jwt_issuer"           env:"AUTH_JWT_ISSUER"           env-default:"german-note"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl"     env:"AUTH_ACCESS_TOKEN_TTL"     env-default:"720h"`
	GoogleClientID     string        `yaml:"google_client_id"     env:"AUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `yaml:"google_client_secret" env:"AUTH_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string        `yaml:"google_redirect_uri"  env:"AUTH_GOOGLE_REDIRECT_URI"`
	PasswordLogin      bool          `yaml:"password_login"       env:"AUTH_PASSWORD_LOGIN"       env-default:"true"`
	BcryptCost         int           `yaml:"bcrypt_cost"          env:"AUTH_BCRYPT_COST"          env-default:"10"`
	AnonymousIdleTTL   time.Duration `yaml:"anonymous_idle_ttl"   env:"AUTH_ANONYMOUS_IDLE_TTL"   env-default:"2160h"`
}

// AllowedProviders returns the list of configured permanent credential kinds.
// Google counts only when both client credentials are present.
func (c AuthConfig) AllowedProviders() []string {
	var providers []string
	if c.GoogleClientID != "" && c.GoogleClientSecret != "" {
		providers = append(providers, "google")
	}
	if c.PasswordLogin {
		providers = append(providers, "password")
	}
	return providers
}

// IsProviderAllowed checks if the given credential kind is configured.
func (c AuthConfig) IsProviderAllowed(provider string) bool {
	return slices.Contains(c.AllowedProviders(), provider)
}

// GenerationConfig selects and tunes the LLM backend.
type GenerationConfig struct {
	Provider        string        `yaml:"provider"         env:"GENERATION_PROVIDER"         env-default:"gemini"`
	Model           string        `yaml:"model"            env:"GENERATION_MODEL"`
	Timeout         time.Duration `yaml:"timeout"          env:"GENERATION_TIMEOUT"          env-default:"15s"`
	MaxTokens       int           `yaml:"max_tokens"       env:"GENERATION_MAX_TOKENS"       env-default:"1024"`
	GeminiAPIKey    string        `yaml:"gemini_api_key"   env:"GEMINI_API_KEY"`
	GroqAPIKey      string        `yaml:"groq_api_key"     env:"GROQ_API_KEY"`
	GroqBaseURL     string        `yaml:"groq_base_url"    env:"GROQ_BASE_URL"               env-default:"https://api.groq.com/openai/v1"`
	AnthropicAPIKey string        `yaml:"anthropic_api_key" env:"ANTHROPIC_API_KEY"`
	LanguagesRaw    string        `yaml:"target_languages" env:"GENERATION_TARGET_LANGUAGES" env-default:"en"`
	HidePlural      bool          `yaml:"hide_plural"      env:"GENERATION_HIDE_PLURAL"`
	HideVerbForms   bool          `yaml:"hide_verb_forms"  env:"GENERATION_HIDE_VERB_FORMS"`

	// TargetLanguages is parsed from LanguagesRaw during validation.
	TargetLanguages []string `yaml:"-" env:"-"`
}

// Provider names accepted by GenerationConfig.Provider.
const (
	ProviderGemini    = "gemini"
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// DefaultModel returns the configured model or the provider default.
func (c GenerationConfig) DefaultModel() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case ProviderGemini:
		return "gemini-2.5-flash"
	case ProviderGroq:
		return "llama-3.3-70b-versatile"
	case ProviderAnthropic:
		return "claude-haiku-4-5"
	}
	return ""
}

// ShowPlural reports whether nouns are generated with their plural.
// The toggles are stored inverted: an env-default of true would override a
// false read from YAML.
func (c GenerationConfig) ShowPlural() bool { return !c.HidePlural }

// ShowVerbForms reports whether verbs are generated with principal parts.
func (c GenerationConfig) ShowVerbForms() bool { return !c.HideVerbForms }

// APIKey returns the key of the selected provider.
func (c GenerationConfig) APIKey() string {
	switch c.Provider {
	case ProviderGemini:
		return c.GeminiAPIKey
	case ProviderGroq:
		return c.GroqAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	}
	return ""
}

// DictionaryConfig selects the dictionary cache backend.
type DictionaryConfig struct {
	Backend string `yaml:"backend" env:"DICTIONARY_BACKEND" env-default:"postgres"`
}

// WorkspaceConfig holds the per-identity workspace settings.
type WorkspaceConfig struct {
	QueueCapacity   int           `yaml:"queue_capacity"   env:"WORKSPACE_QUEUE_CAPACITY"   env-default:"32"`
	TaskWorkers     int           `yaml:"task_workers"     env:"WORKSPACE_TASK_WORKERS"     env-default:"8"`
	TaskTimeout     time.Duration `yaml:"task_timeout"     env:"WORKSPACE_TASK_TIMEOUT"     env-default:"10s"`
	LoadTimeout     time.Duration `yaml:"load_timeout"     env:"WORKSPACE_LOAD_TIMEOUT"     env-default:"10s"`
	SubscriberQueue int           `yaml:"subscriber_queue" env:"WORKSPACE_SUBSCRIBER_QUEUE" env-default:"16"`
}

// MirrorConfig holds the local mirror store settings. An empty Dir disables it.
type MirrorConfig struct {
	Dir string `yaml:"dir" env:"MIRROR_DIR" env-default:"./data/mirror"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RateLimitConfig holds per-client request limits for the search endpoint.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	RPS     float64 `yaml:"rps"     env:"RATE_LIMIT_RPS"     env-default:"2"`
	Burst   int     `yaml:"burst"   env:"RATE_LIMIT_BURST"   env-default:"5"`
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}
