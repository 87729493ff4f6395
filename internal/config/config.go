package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"availwatch/internal/domain"
)

// Defaults applied when a target omits a field.
const (
	DefaultInterval          = 60 * time.Second
	DefaultTimeout           = 10 * time.Second
	DefaultFailureThreshold  = 3
	DefaultRecoveryThreshold = 2
	DefaultCooldown          = 15 * time.Minute
)

type Config struct {
	Log      LogConfig      `yaml:"log"`
	StateDB  string         `yaml:"state_db,omitempty"`
	API      APIConfig      `yaml:"api"`
	Defaults TargetDefaults `yaml:"defaults"`
	Targets  []TargetConfig `yaml:"targets"`
	Sinks    []SinkConfig   `yaml:"sinks"`
	Delivery DeliveryConfig `yaml:"delivery"`
}

type LogConfig struct {
	Dir    string `yaml:"dir,omitempty"`
	Stdout bool   `yaml:"stdout"`
	Debug  bool   `yaml:"debug"`
}

type APIConfig struct {
	Addr string `yaml:"addr,omitempty"` // empty disables the status API
}

// TargetDefaults mirror the per-target knobs; targets inherit any they omit.
type TargetDefaults struct {
	Interval          string `yaml:"interval,omitempty"`
	Timeout           string `yaml:"timeout,omitempty"`
	FailureThreshold  int    `yaml:"failure_threshold,omitempty"`
	RecoveryThreshold int    `yaml:"recovery_threshold,omitempty"`
	Cooldown          string `yaml:"cooldown,omitempty"`
}

type TargetConfig struct {
	Name              string       `yaml:"name"`
	URL               string       `yaml:"url"`
	Probe             string       `yaml:"probe,omitempty"` // default "http"
	Interval          string       `yaml:"interval,omitempty"`
	Timeout           string       `yaml:"timeout,omitempty"`
	FailureThreshold  int          `yaml:"failure_threshold,omitempty"`
	RecoveryThreshold int          `yaml:"recovery_threshold,omitempty"`
	DegradeThreshold  int          `yaml:"degrade_threshold,omitempty"`
	Cooldown          string       `yaml:"cooldown,omitempty"`
	DegradeAlerts     bool         `yaml:"degrade_alerts,omitempty"`
	Retry             *RetryConfig `yaml:"retry,omitempty"`

	// parsed by Validate
	interval time.Duration
	timeout  time.Duration
	cooldown time.Duration
}

// RetryConfig enables the per-probe retry decorator for flaky transports.
type RetryConfig struct {
	Attempts int    `yaml:"attempts"`
	Backoff  string `yaml:"backoff,omitempty"`

	backoff time.Duration
}

func (r *RetryConfig) BackoffDuration() time.Duration { return r.backoff }

type SinkConfig struct {
	Type    string `yaml:"type"` // "slack" | "pushover" | "webhook"
	Webhook string `yaml:"webhook,omitempty"`
	URL     string `yaml:"url,omitempty"`
	Token   string `yaml:"token,omitempty"`
	User    string `yaml:"user,omitempty"`
}

type DeliveryConfig struct {
	MaxAttempts int    `yaml:"max_attempts,omitempty"`
	BaseDelay   string `yaml:"base_delay,omitempty"`
	MaxDelay    string `yaml:"max_delay,omitempty"`

	baseDelay time.Duration
	maxDelay  time.Duration
}

func (d *DeliveryConfig) BaseDelayDuration() time.Duration { return d.baseDelay }
func (d *DeliveryConfig) MaxDelayDuration() time.Duration  { return d.maxDelay }

// LoadFile reads and validates a YAML config file.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads and validates config from a reader.
func Load(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets container deployments override file paths and the bind
// address without editing the mounted config.
func (c *Config) applyEnv() {
	if v := os.Getenv("LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		c.API.Addr = v
	}
	if v := os.Getenv("STATE_DB"); v != "" {
		c.StateDB = v
	}
}

// Validate checks every entry and parses duration strings. Any error here is
// fatal at startup; nothing else in the process is.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("config: no targets defined")
	}

	defInterval, err := parseDuration(c.Defaults.Interval, DefaultInterval)
	if err != nil {
		return fmt.Errorf("config: defaults.interval: %w", err)
	}
	defTimeout, err := parseDuration(c.Defaults.Timeout, DefaultTimeout)
	if err != nil {
		return fmt.Errorf("config: defaults.timeout: %w", err)
	}
	defCooldown, err := parseDuration(c.Defaults.Cooldown, DefaultCooldown)
	if err != nil {
		return fmt.Errorf("config: defaults.cooldown: %w", err)
	}

	seen := make(map[string]bool, len(c.Targets))
	for i := range c.Targets {
		t := &c.Targets[i]
		if t.Name == "" {
			return fmt.Errorf("config: target %d: name is required", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("config: duplicate target name %q", t.Name)
		}
		seen[t.Name] = true
		if t.URL == "" {
			return fmt.Errorf("config: target %q: url is required", t.Name)
		}
		switch t.Probe {
		case "":
			t.Probe = "http"
		case "http", "tcp", "dns":
		default:
			return fmt.Errorf("config: target %q: unknown probe %q", t.Name, t.Probe)
		}
		if t.interval, err = parseDuration(t.Interval, defInterval); err != nil {
			return fmt.Errorf("config: target %q: interval: %w", t.Name, err)
		}
		if t.timeout, err = parseDuration(t.Timeout, defTimeout); err != nil {
			return fmt.Errorf("config: target %q: timeout: %w", t.Name, err)
		}
		if t.cooldown, err = parseDuration(t.Cooldown, defCooldown); err != nil {
			return fmt.Errorf("config: target %q: cooldown: %w", t.Name, err)
		}
		if t.interval <= 0 {
			return fmt.Errorf("config: target %q: interval must be positive", t.Name)
		}
		if t.timeout <= 0 {
			return fmt.Errorf("config: target %q: timeout must be positive", t.Name)
		}
		if t.FailureThreshold == 0 {
			t.FailureThreshold = firstPositive(c.Defaults.FailureThreshold, DefaultFailureThreshold)
		}
		if t.RecoveryThreshold == 0 {
			t.RecoveryThreshold = firstPositive(c.Defaults.RecoveryThreshold, DefaultRecoveryThreshold)
		}
		if t.FailureThreshold < 1 || t.RecoveryThreshold < 1 {
			return fmt.Errorf("config: target %q: thresholds must be >= 1", t.Name)
		}
		if t.DegradeThreshold < 0 || (t.DegradeThreshold > 0 && t.DegradeThreshold >= t.FailureThreshold) {
			return fmt.Errorf("config: target %q: degrade_threshold must be below failure_threshold", t.Name)
		}
		if t.Retry != nil {
			if t.Retry.Attempts < 1 {
				return fmt.Errorf("config: target %q: retry.attempts must be >= 1", t.Name)
			}
			if t.Retry.backoff, err = parseDuration(t.Retry.Backoff, 300*time.Millisecond); err != nil {
				return fmt.Errorf("config: target %q: retry.backoff: %w", t.Name, err)
			}
		}
	}

	for i := range c.Sinks {
		s := &c.Sinks[i]
		switch s.Type {
		case "slack":
			if s.Webhook == "" {
				return fmt.Errorf("config: sink %d: slack requires webhook", i)
			}
		case "pushover":
			if s.Token == "" || s.User == "" {
				return fmt.Errorf("config: sink %d: pushover requires token and user", i)
			}
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: sink %d: webhook requires url", i)
			}
		default:
			return fmt.Errorf("config: sink %d: unknown type %q", i, s.Type)
		}
	}

	if c.Delivery.MaxAttempts == 0 {
		c.Delivery.MaxAttempts = 3
	}
	if c.Delivery.MaxAttempts < 1 {
		return fmt.Errorf("config: delivery.max_attempts must be >= 1")
	}
	if c.Delivery.baseDelay, err = parseDuration(c.Delivery.BaseDelay, time.Second); err != nil {
		return fmt.Errorf("config: delivery.base_delay: %w", err)
	}
	if c.Delivery.maxDelay, err = parseDuration(c.Delivery.MaxDelay, 30*time.Second); err != nil {
		return fmt.Errorf("config: delivery.max_delay: %w", err)
	}
	return nil
}

// DomainTargets converts validated target entries into immutable domain
// targets with all defaults resolved.
func (c *Config) DomainTargets() []domain.Target {
	out := make([]domain.Target, 0, len(c.Targets))
	for i := range c.Targets {
		t := &c.Targets[i]
		out = append(out, domain.Target{
			ID:                domain.TargetID(t.Name),
			URL:               t.URL,
			Probe:             t.Probe,
			Interval:          t.interval,
			Timeout:           t.timeout,
			FailureThreshold:  t.FailureThreshold,
			RecoveryThreshold: t.RecoveryThreshold,
			DegradeThreshold:  t.DegradeThreshold,
			Cooldown:          t.cooldown,
			DegradeAlerts:     t.DegradeAlerts,
		})
	}
	return out
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 1
}
