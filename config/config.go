// Package config loads runtime settings from the environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/fwojciec/hive"
	"github.com/fwojciec/hive/budget"
)

// Supported providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config holds every setting of a hive process.
type Config struct {
	Provider      string `env:"HIVE_PROVIDER" envDefault:"anthropic" yaml:"provider"`
	Model         string `env:"HIVE_MODEL" envDefault:"sonnet" yaml:"model"`
	Effort        string `env:"HIVE_EFFORT" envDefault:"low" yaml:"effort"`
	MaxTurns      int    `env:"HIVE_MAX_TURNS" envDefault:"25" yaml:"max_turns"`
	WorkDir       string `env:"HIVE_WORK_DIR" yaml:"work_dir"`
	SystemPrompt  string `env:"HIVE_SYSTEM_PROMPT" yaml:"system_prompt"`
	TranscriptDir string `env:"HIVE_TRANSCRIPT_DIR" yaml:"transcript_dir"`

	Anthropic Anthropic `yaml:"anthropic"`
	AWS       AWS       `yaml:"aws"`
	Budget    Budget    `yaml:"budget"`
}

// Anthropic holds Anthropic API settings. An API key takes precedence
// over an auth token.
type Anthropic struct {
	APIKey    string `env:"ANTHROPIC_API_KEY" yaml:"api_key"`
	AuthToken string `env:"ANTHROPIC_AUTH_TOKEN" yaml:"auth_token"`
	BaseURL   string `env:"ANTHROPIC_BASE_URL" yaml:"base_url"`
}

// AWS holds Bedrock settings.
type AWS struct {
	Region          string `env:"AWS_REGION" envDefault:"us-east-1" yaml:"region"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" yaml:"access_key_id"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" yaml:"secret_access_key"`
	SessionToken    string `env:"AWS_SESSION_TOKEN" yaml:"session_token"`
	BaseURL         string `env:"HIVE_BEDROCK_BASE_URL" yaml:"base_url"`
}

// Budget mirrors budget.Config.
type Budget struct {
	ProactiveThreshold       int `env:"HIVE_BUDGET_PROACTIVE_THRESHOLD" envDefault:"120000" yaml:"proactive_threshold"`
	TailCompressionThreshold int `env:"HIVE_BUDGET_TAIL_COMPRESSION_THRESHOLD" envDefault:"140000" yaml:"tail_compression_threshold"`
	HardCeiling              int `env:"HIVE_BUDGET_HARD_CEILING" envDefault:"160000" yaml:"hard_ceiling"`
	TailWindow               int `env:"HIVE_BUDGET_TAIL_WINDOW" envDefault:"6" yaml:"tail_window"`
	ToolResultChars          int `env:"HIVE_BUDGET_TOOL_RESULT_CHARS" envDefault:"200" yaml:"tool_result_chars"`
	CharsPerToken            int `env:"HIVE_BUDGET_CHARS_PER_TOKEN" envDefault:"4" yaml:"chars_per_token"`
	ImageChars               int `env:"HIVE_BUDGET_IMAGE_CHARS" envDefault:"1000" yaml:"image_chars"`
}

// Load reads the process environment, then applies the YAML file at path
// on top of it. An empty path skips the file.
func Load(path string) (Config, error) {
	return load(path, env.Options{})
}

// LoadEnviron is Load with an explicit environment instead of the
// process environment.
func LoadEnviron(environ map[string]string, path string) (Config, error) {
	return load(path, env.Options{Environment: environ})
}

func load(path string, opts env.Options) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting. Each reported error wraps
// hive.ErrValidation or hive.ErrBudgetConfig.
func (c Config) Validate() error {
	var result *multierror.Error
	invalid := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("config: %w: "+format, append([]any{hive.ErrValidation}, args...)...))
	}

	switch c.Provider {
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" && c.Anthropic.AuthToken == "" {
			invalid("anthropic provider needs ANTHROPIC_API_KEY or ANTHROPIC_AUTH_TOKEN")
		}
	case ProviderBedrock:
		if c.AWS.Region == "" {
			invalid("bedrock provider needs AWS_REGION")
		}
		if c.AWS.AccessKeyID == "" || c.AWS.SecretAccessKey == "" {
			invalid("bedrock provider needs AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY")
		}
	default:
		invalid("unknown provider %q", c.Provider)
	}
	if _, err := c.ParsedEffort(); err != nil {
		result = multierror.Append(result, fmt.Errorf("config: %w", err))
	}
	if c.MaxTurns <= 0 {
		invalid("max turns must be positive, got %d", c.MaxTurns)
	}
	if err := c.BudgetConfig().Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("config: %w", err))
	}
	return result.ErrorOrNil()
}

// ParsedEffort returns the effort level.
func (c Config) ParsedEffort() (hive.Effort, error) {
	return hive.ParseEffort(c.Effort)
}

// BudgetConfig returns the context budget settings.
func (c Config) BudgetConfig() budget.Config {
	return budget.Config{
		ProactiveThreshold:       c.Budget.ProactiveThreshold,
		TailCompressionThreshold: c.Budget.TailCompressionThreshold,
		HardCeiling:              c.Budget.HardCeiling,
		TailWindow:               c.Budget.TailWindow,
		ToolResultChars:          c.Budget.ToolResultChars,
		CharsPerToken:            c.Budget.CharsPerToken,
		ImageChars:               c.Budget.ImageChars,
	}
}

// Credentials returns the credentials the configured provider uses.
func (c Config) Credentials() (hive.Credentials, error) {
	switch c.Provider {
	case ProviderAnthropic:
		if c.Anthropic.APIKey != "" {
			return hive.Credentials{APIKey: c.Anthropic.APIKey}, nil
		}
		return hive.Credentials{BearerToken: c.Anthropic.AuthToken}, nil
	case ProviderBedrock:
		return hive.Credentials{AWS: &hive.AWSCredentials{
			AccessKeyID:     c.AWS.AccessKeyID,
			SecretAccessKey: c.AWS.SecretAccessKey,
			SessionToken:    c.AWS.SessionToken,
			Region:          c.AWS.Region,
		}}, nil
	}
	return hive.Credentials{}, fmt.Errorf("config: %w: unknown provider %q", hive.ErrValidation, c.Provider)
}

// Errors flattens a Validate result into its individual errors.
func Errors(err error) []error {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return merr.Errors
	}
	if err == nil {
		return nil
	}
	return []error{err}
}
