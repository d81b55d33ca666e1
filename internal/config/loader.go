package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables. Order of precedence (low -> high):
//  1. Defaults()
//  2. file (YAML) if STEADY_CONFIG is set
//  3. env (prefix STEADY_)
func Load() (Config, error) {
	cfg := Defaults()

	k := koanf.New(".")

	if path := os.Getenv("STEADY_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, err
		}
	}

	// STEADY_DATABASE_URL -> database_url, matching the koanf tags above.
	envProvider := env.Provider("STEADY_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "steady_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, err
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.Addr) == "" {
		return Config{}, errors.New("addr must not be empty")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return Config{}, errors.New("database_url must not be empty")
	}
	return cfg, nil
}
