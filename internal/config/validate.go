package config

import (
	"fmt"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if len(c.Auth.AllowedProviders()) == 0 {
		return fmt.Errorf("at least one permanent credential must be enabled (google or password)")
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be in [4, 31] (got %d)", c.Auth.BcryptCost)
	}

	if err := c.Generation.validate(); err != nil {
		return fmt.Errorf("generation: %w", err)
	}

	switch c.Dictionary.Backend {
	case "postgres":
	case "redis":
		if !c.Redis.Enabled() {
			return fmt.Errorf("dictionary.backend is redis but redis.addr is empty")
		}
	default:
		return fmt.Errorf("dictionary.backend must be postgres or redis (got %q)", c.Dictionary.Backend)
	}

	if c.Workspace.QueueCapacity <= 0 {
		return fmt.Errorf("workspace.queue_capacity must be > 0 (got %d)", c.Workspace.QueueCapacity)
	}
	if c.Workspace.TaskWorkers <= 0 {
		return fmt.Errorf("workspace.task_workers must be > 0 (got %d)", c.Workspace.TaskWorkers)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit.rps and rate_limit.burst must be > 0 when enabled")
	}

	return nil
}

func (g *GenerationConfig) validate() error {
	switch g.Provider {
	case ProviderGemini, ProviderGroq, ProviderAnthropic:
		if g.APIKey() == "" {
			return fmt.Errorf("api key for provider %q is not set", g.Provider)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown provider %q", g.Provider)
	}

	if g.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", g.Timeout)
	}

	g.TargetLanguages = splitList(g.LanguagesRaw)
	if len(g.TargetLanguages) == 0 {
		return fmt.Errorf("target_languages must not be empty")
	}

	return nil
}
