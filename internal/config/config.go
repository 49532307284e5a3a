// Package config loads the relay configuration from the environment and an optional YAML file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/good-yellow-bee/alarmlog/internal/parser"
)

// Field extraction modes.
const (
	FieldModePlaceholder = parser.ModePlaceholder
	FieldModePattern     = parser.ModePattern
	FieldModeJSON        = parser.ModeJSON
)

// Defaults for the log query heuristic and message rendering.
const (
	DefaultConsoleBaseURL = "https://console.aws.amazon.com"
	DefaultLookback       = 5 * time.Minute
	DefaultLookahead      = time.Minute
	DefaultEventLimit     = 10
	DefaultAssignee       = "<!channel>"
	DefaultPushJob        = "alarmlog"

	maxEventLimit = 10000
)

// Config is the relay configuration. It is built once per process and passed
// explicitly to the components that need it.
type Config struct {
	Region string `envconfig:"AWS_REGION" yaml:"region"`

	Slack   SlackConfig   `yaml:"slack"`
	Query   QueryConfig   `yaml:"query"`
	Message MessageConfig `yaml:"message"`
	Metrics MetricsConfig `yaml:"metrics"`

	// SurfaceFailures makes delivery failures fail the invocation.
	SurfaceFailures bool `envconfig:"SURFACE_FAILURES" yaml:"surface_failures"`

	ConfigFile string `envconfig:"CONFIG_FILE" yaml:"-"`
}

// SlackConfig holds the Parameter Store paths of the Slack credentials.
// The values are parameter names, never the secrets themselves.
type SlackConfig struct {
	TokenParam         string `envconfig:"SLACK_TOKEN" yaml:"token_param"`
	ChannelParam       string `envconfig:"SLACK_CHANNEL" yaml:"channel_param"`
	SigningSecretParam string `envconfig:"SLACK_SIGNING_SECRET" yaml:"signing_secret_param"`
	APIURL             string `envconfig:"SLACK_API_URL" yaml:"api_url"` // optional API override
}

// QueryConfig controls the log event lookup window. A zero or negative
// Lookahead takes the default.
type QueryConfig struct {
	Lookback   time.Duration `envconfig:"LOOKBACK" yaml:"lookback"`
	Lookahead  time.Duration `envconfig:"LOOKAHEAD" yaml:"lookahead"`
	EventLimit int           `envconfig:"EVENT_LIMIT" yaml:"event_limit"`
}

// MessageConfig controls how log events are rendered in Slack.
type MessageConfig struct {
	ConsoleBaseURL  string `envconfig:"CONSOLE_BASE_URL" yaml:"console_base_url"`
	Assignee        string `envconfig:"ASSIGNEE" yaml:"assignee"`
	FieldMode       string `envconfig:"FIELD_MODE" yaml:"field_mode"`
	FieldPattern    string `envconfig:"FIELD_PATTERN" yaml:"field_pattern"`
	FieldTimeFormat string `envconfig:"FIELD_TIME_FORMAT" yaml:"field_time_format"`
}

// MetricsConfig controls the optional Pushgateway export.
type MetricsConfig struct {
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL" yaml:"pushgateway_url"`
	PushJob        string `envconfig:"PUSH_JOB" yaml:"push_job"`
}

// Load reads the configuration from the environment, applies the YAML file
// named by CONFIG_FILE on top when set, fills defaults and validates.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFile loads configuration from a YAML file only.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := cfg.applyFile(path); err != nil {
		return nil, err
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Query.Lookback == 0 {
		c.Query.Lookback = DefaultLookback
	}
	if c.Query.Lookahead <= 0 {
		c.Query.Lookahead = DefaultLookahead
	}
	if c.Query.EventLimit == 0 {
		c.Query.EventLimit = DefaultEventLimit
	}
	if c.Message.ConsoleBaseURL == "" {
		c.Message.ConsoleBaseURL = DefaultConsoleBaseURL
	}
	if c.Message.Assignee == "" {
		c.Message.Assignee = DefaultAssignee
	}
	if c.Message.FieldMode == "" {
		c.Message.FieldMode = FieldModePlaceholder
	}
	if c.Metrics.PushJob == "" {
		c.Metrics.PushJob = DefaultPushJob
	}
}

// Validate checks the configuration for errors. Missing Slack parameter paths
// are not an error: delivery is skipped until they are configured.
func (c *Config) Validate() error {
	if c.Query.Lookback <= 0 {
		return fmt.Errorf("query.lookback must be positive (got %s)", c.Query.Lookback)
	}
	if c.Query.Lookahead <= 0 {
		return fmt.Errorf("query.lookahead must be positive (got %s)", c.Query.Lookahead)
	}
	if c.Query.EventLimit < 1 || c.Query.EventLimit > maxEventLimit {
		return fmt.Errorf("query.event_limit must be between 1 and %d (got %d)", maxEventLimit, c.Query.EventLimit)
	}

	if _, err := url.ParseRequestURI(c.Message.ConsoleBaseURL); err != nil {
		return fmt.Errorf("message.console_base_url is invalid: %w", err)
	}

	switch c.Message.FieldMode {
	case FieldModePlaceholder, FieldModeJSON:
	case FieldModePattern:
		if c.Message.FieldPattern == "" {
			return fmt.Errorf("message.field_pattern is required when field_mode is %q", FieldModePattern)
		}
		if _, err := parser.NewPatternParser(c.Message.FieldPattern, c.Message.FieldTimeFormat); err != nil {
			return fmt.Errorf("message.field_pattern is invalid: %w", err)
		}
	default:
		return fmt.Errorf("message.field_mode must be %q, %q or %q (got %q)",
			FieldModePlaceholder, FieldModePattern, FieldModeJSON, c.Message.FieldMode)
	}

	if c.Slack.APIURL != "" {
		if _, err := url.ParseRequestURI(c.Slack.APIURL); err != nil {
			return fmt.Errorf("slack.api_url is invalid: %w", err)
		}
	}
	if c.Metrics.PushgatewayURL != "" {
		if _, err := url.ParseRequestURI(c.Metrics.PushgatewayURL); err != nil {
			return fmt.Errorf("metrics.pushgateway_url is invalid: %w", err)
		}
	}
	return nil
}

// SlackConfigured reports whether all three Slack parameter paths are set.
func (c *Config) SlackConfigured() bool {
	return c.Slack.TokenParam != "" && c.Slack.ChannelParam != "" && c.Slack.SigningSecretParam != ""
}
