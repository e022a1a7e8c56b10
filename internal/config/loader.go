package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultPath = "./config.yaml"

// Load reads the configuration and validates it. Values come from, in
// increasing priority: env-default tags, the YAML file, the environment.
// The file is CONFIG_PATH; when unset, ./config.yaml is used if it exists.
func Load() (*Config, error) {
	var cfg Config
	if err := read(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func read(cfg *Config) error {
	path, explicit := os.LookupEnv("CONFIG_PATH")
	if !explicit || path == "" {
		path, explicit = defaultPath, false
	}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		return nil
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("file %s: %w", path, err)
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("read env: %w", err)
	}
	return nil
}

// Usage writes the list of supported environment variables to w.
func Usage(w io.Writer) {
	var cfg Config
	cleanenv.FUsage(w, &cfg, nil)()
}
