// Package config loads mailgate settings from an optional YAML file with
// environment variable overrides. Environment variables always win.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teemow/mailgate/internal/logging"
	"github.com/teemow/mailgate/internal/sanitize"
)

// Provider names.
const (
	ProviderStdout = "stdout"
	ProviderGmail  = "gmail"
	ProviderSES    = "ses"
)

const (
	defaultStateDir     = ".clawdbot"
	defaultPendingFile  = "pending-emails.json"
	defaultSecurityFile = "agentmail-security.json"
	defaultAlertTimeout = 60 * time.Second
)

// Config holds the complete application configuration.
type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	Sanitizer SanitizerConfig `yaml:"sanitizer"`
	Provider  ProviderConfig  `yaml:"provider"`
	Alert     AlertConfig     `yaml:"alert"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// PathsConfig holds state file locations.
type PathsConfig struct {
	Pending  string `yaml:"pending"`
	Security string `yaml:"security"`

	// History is the SQLite decision log. Empty disables it.
	History string `yaml:"history"`
}

// SanitizerConfig holds inbound content limits.
type SanitizerConfig struct {
	MaxBytes int `yaml:"max_bytes"`
}

// ProviderConfig selects and configures the send backend.
type ProviderConfig struct {
	Name  string      `yaml:"name"`
	Gmail GmailConfig `yaml:"gmail"`
	SES   SESConfig   `yaml:"ses"`
}

// GmailConfig holds Gmail API settings.
type GmailConfig struct {
	Account string `yaml:"account"`
}

// SESConfig holds AWS SES settings. Keys are optional; without them the
// default AWS credential chain is used.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Sender          string `yaml:"sender"`
}

// AlertConfig configures notification channels.
type AlertConfig struct {
	// SignalAccount is the signal-cli account number. Empty disables the
	// signal channel.
	SignalAccount string `yaml:"signal_account"`

	// Command is an argv template run for the command channel, with
	// {target} and {message} placeholders.
	Command []string `yaml:"command"`

	// CommandChannel is the channel name the command notifier answers to,
	// for example "slack".
	CommandChannel string `yaml:"command_channel"`

	Timezone string        `yaml:"timezone"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load builds the configuration from defaults and environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	cfg.expandPaths()
	return cfg, nil
}

// LoadFromFile layers the YAML file at path between defaults and
// environment variables. The file must exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvVars()
	cfg.expandPaths()
	return cfg, nil
}

// Resolve loads path when set, otherwise DefaultPath() when that file
// exists, otherwise defaults and environment only.
func Resolve(path string) (*Config, error) {
	if path != "" {
		return LoadFromFile(path)
	}
	if p := DefaultPath(); p != "" {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	return Load()
}

// DefaultPath is $XDG_CONFIG_HOME/mailgate/config.yaml or its platform
// equivalent. Empty when the config dir is unknown.
func DefaultPath() string {
	if p := os.Getenv("MAILGATE_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mailgate", "config.yaml")
}

// Validate reports configuration errors that would fail later at use.
func (c *Config) Validate() error {
	var errs []error

	switch c.Provider.Name {
	case ProviderStdout, ProviderGmail:
	case ProviderSES:
		if c.Provider.SES.Sender == "" {
			errs = append(errs, errors.New("provider.ses.sender is required for the ses provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q (supported: stdout, gmail, ses)", c.Provider.Name))
	}

	if c.Paths.Pending == "" {
		errs = append(errs, errors.New("paths.pending must not be empty"))
	}
	if c.Paths.Security == "" {
		errs = append(errs, errors.New("paths.security must not be empty"))
	}
	if c.Sanitizer.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("sanitizer.max_bytes must be positive, got %d", c.Sanitizer.MaxBytes))
	}
	if c.Alert.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("alert.timeout must be positive, got %s", c.Alert.Timeout))
	}
	if _, err := time.LoadLocation(c.Alert.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("alert.timezone: %w", err))
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.Provider.SES.SecretAccessKey != "" {
		out.Provider.SES.SecretAccessKey = logging.SanitizeToken(out.Provider.SES.SecretAccessKey)
	}
	out.Alert.Command = append([]string(nil), c.Alert.Command...)
	return out
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q (supported: debug, info, warn, error)", s)
}

func (c *Config) applyDefaults() {
	c.Paths.Pending = filepath.Join("~", defaultStateDir, defaultPendingFile)
	c.Paths.Security = filepath.Join("~", defaultStateDir, defaultSecurityFile)
	c.Sanitizer.MaxBytes = sanitize.DefaultMaxBodyBytes
	c.Provider.Name = ProviderStdout
	c.Provider.Gmail.Account = "default"
	c.Alert.CommandChannel = "command"
	c.Alert.Timezone = "America/Chicago"
	c.Alert.Timeout = defaultAlertTimeout
	c.Logging.Level = "info"
	c.Logging.Format = "json"
}

// applyEnvVars overrides configuration with non-empty environment values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("MAILGATE_PENDING_PATH"); v != "" {
		c.Paths.Pending = v
	}
	if v := os.Getenv("MAILGATE_SECURITY_PATH"); v != "" {
		c.Paths.Security = v
	}
	if v := os.Getenv("MAILGATE_HISTORY_PATH"); v != "" {
		c.Paths.History = v
	}
	if v := os.Getenv("MAILGATE_MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Sanitizer.MaxBytes = n
		}
	}

	if v := os.Getenv("MAILGATE_PROVIDER"); v != "" {
		c.Provider.Name = strings.ToLower(v)
	}
	if v := os.Getenv("MAILGATE_GMAIL_ACCOUNT"); v != "" {
		c.Provider.Gmail.Account = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Provider.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.Provider.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.Provider.SES.SecretAccessKey = v
	}
	if v := os.Getenv("SES_SENDER"); v != "" {
		c.Provider.SES.Sender = v
	}

	if v := os.Getenv("SIGNAL_ACCOUNT"); v != "" {
		c.Alert.SignalAccount = v
	}
	if v := os.Getenv("MAILGATE_ALERT_COMMAND"); v != "" {
		c.Alert.Command = strings.Fields(v)
	}
	if v := os.Getenv("MAILGATE_ALERT_COMMAND_CHANNEL"); v != "" {
		c.Alert.CommandChannel = v
	}
	if v := os.Getenv("MAILGATE_ALERT_TIMEZONE"); v != "" {
		c.Alert.Timezone = v
	}
	if v := os.Getenv("MAILGATE_ALERT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Alert.Timeout = d
		}
	}

	if v := os.Getenv("MAILGATE_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("MAILGATE_LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
}

func (c *Config) expandPaths() {
	c.Paths.Pending = expandHome(c.Paths.Pending)
	c.Paths.Security = expandHome(c.Paths.Security)
	c.Paths.History = expandHome(c.Paths.History)
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
