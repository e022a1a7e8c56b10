package prewarm

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds prewarm pipeline settings.
type Config struct {
	WordListPath string  `yaml:"word_list_path" env:"PREWARM_WORD_LIST_PATH"`
	Concurrency  int     `yaml:"concurrency"    env:"PREWARM_CONCURRENCY"    env-default:"4"`
	RPS          float64 `yaml:"rps"            env:"PREWARM_RPS"            env-default:"1"`
	Limit        int     `yaml:"limit"          env:"PREWARM_LIMIT"          env-default:"0"`
	DryRun       bool    `yaml:"dry_run"        env:"PREWARM_DRY_RUN"        env-default:"false"`
}

// LoadConfig reads prewarm config from YAML or environment variables.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("prewarm config: file %s not found", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("prewarm config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("prewarm config: read env: %w", err)
	}

	if cfg.WordListPath == "" {
		return nil, fmt.Errorf("prewarm config: word_list_path is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.RPS <= 0 {
		return nil, fmt.Errorf("prewarm config: rps must be > 0")
	}
	return &cfg, nil
}
