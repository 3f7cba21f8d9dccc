// Package config loads the runtime settings of github-pr-stats from an
// optional YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// MaxWorkers bounds the worker pool so that unauthenticated runs stay well
// under GitHub's request quota.
const MaxWorkers = 10

// Config is the complete configuration of the application.
type Config struct {
	GitHub GitHubConfig `yaml:"github"`
	Fetch  FetchConfig  `yaml:"fetch"`
}

// GitHubConfig holds the API endpoint and identity settings.
type GitHubConfig struct {
	APIURL    string `yaml:"api_url" env:"PRSTATS_API_URL" env-default:"https://api.github.com/"`
	Token     string `yaml:"token" env:"GITHUB_TOKEN"`
	UserAgent string `yaml:"user_agent" env:"PRSTATS_USER_AGENT" env-default:"github-pr-stats"`
}

// FetchConfig controls concurrency, retries and pacing of API requests.
type FetchConfig struct {
	Workers            int           `yaml:"workers" env:"PRSTATS_WORKERS" env-default:"5"`
	MaxAttempts        int           `yaml:"max_attempts" env:"PRSTATS_MAX_ATTEMPTS" env-default:"3"`
	RequestTimeout     time.Duration `yaml:"request_timeout" env:"PRSTATS_REQUEST_TIMEOUT" env-default:"15s"`
	RetryDelay         time.Duration `yaml:"retry_delay" env:"PRSTATS_RETRY_DELAY" env-default:"2s"`
	PaceDelay          time.Duration `yaml:"pace_delay" env:"PRSTATS_PACE_DELAY" env-default:"400ms"`
	PaceJitter         time.Duration `yaml:"pace_jitter" env:"PRSTATS_PACE_JITTER" env-default:"300ms"`
	SecondaryLimitWait time.Duration `yaml:"secondary_limit_wait" env:"PRSTATS_SECONDARY_LIMIT_WAIT" env-default:"1m"`
}

// Load reads the configuration. When path is empty only the environment and
// the built-in defaults are used.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	var errs []error
	if c.GitHub.APIURL == "" {
		errs = append(errs, errors.New("github.api_url must not be empty"))
	}
	if c.Fetch.Workers < 1 || c.Fetch.Workers > MaxWorkers {
		errs = append(errs, fmt.Errorf("fetch.workers must be between 1 and %d, got %d", MaxWorkers, c.Fetch.Workers))
	}
	if c.Fetch.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("fetch.max_attempts must be at least 1, got %d", c.Fetch.MaxAttempts))
	}
	if c.Fetch.RequestTimeout <= 0 {
		errs = append(errs, errors.New("fetch.request_timeout must be positive"))
	}
	if c.Fetch.RetryDelay < 0 || c.Fetch.PaceDelay < 0 || c.Fetch.PaceJitter < 0 || c.Fetch.SecondaryLimitWait < 0 {
		errs = append(errs, errors.New("fetch delays must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
