package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/orrn/ptouch/internal/core"
)

type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Database DatabaseConfig  `yaml:"database"`
	Printers []PrinterConfig `yaml:"printers"`
	Polling  PollingConfig   `yaml:"polling"`
	Auth     AuthConfig      `yaml:"auth"`
	Webhooks WebhooksConfig  `yaml:"webhooks"`
	Logging  LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxUploadMB  int           `yaml:"max_upload_mb"`
}

type DatabaseConfig struct {
	Path              string `yaml:"path"`
	ArchivePath       string `yaml:"archive_path"`
	ArchiveDays       int    `yaml:"archive_days"`
	ArchivePassphrase string `yaml:"archive_passphrase"`
}

// PrinterConfig names an IPP printer and the label defaults used for it.
// Omitted fields keep the core defaults, so AutoCut and HalfCut stay
// true and Threshold stays at core.DefaultThreshold.
type PrinterConfig struct {
	Name           string `yaml:"name"`
	URI            string `yaml:"uri"`
	TapeWidth      int    `yaml:"tape_width"`
	Threshold      *int   `yaml:"threshold"`
	HighResolution bool   `yaml:"high_resolution"`
	AutoCut        *bool  `yaml:"auto_cut"`
	HalfCut        *bool  `yaml:"half_cut"`
}

type PollingConfig struct {
	SettleDelay    time.Duration `yaml:"settle_delay"`
	Interval       time.Duration `yaml:"interval"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type AuthConfig struct {
	PasswordHash string        `yaml:"password_hash"`
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

type WebhookEndpoint struct {
	URL    string   `yaml:"url"`
	Secret string   `yaml:"secret"`
	Events []string `yaml:"events"`
}

type WebhooksConfig struct {
	Endpoints   []WebhookEndpoint `yaml:"endpoints"`
	RetryCount  int               `yaml:"retry_count"`
	RetryDelay  time.Duration     `yaml:"retry_delay"`
	Timeout     time.Duration     `yaml:"timeout"`
	WorkerCount int               `yaml:"worker_count"`
	QueueSize   int               `yaml:"queue_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8631,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 90 * time.Second,
			MaxUploadMB:  10,
		},
		Database: DatabaseConfig{
			Path:        "./data/ptouch.db",
			ArchivePath: "./data/archives",
			ArchiveDays: 30,
		},
		Polling: PollingConfig{
			SettleDelay:    core.DefaultSettleDelay,
			Interval:       core.DefaultPollInterval,
			MaxAttempts:    core.DefaultMaxAttempts,
			RequestTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Webhooks: WebhooksConfig{
			RetryCount:  3,
			RetryDelay:  5 * time.Second,
			Timeout:     10 * time.Second,
			WorkerCount: 2,
			QueueSize:   100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

func Load(configPath string) (*Config, error) {
	cfg := defaults()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from PTOUCH_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PTOUCH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}

	if v := os.Getenv("PTOUCH_DB_PATH"); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv("PTOUCH_ARCHIVE_PATH"); v != "" {
		c.Database.ArchivePath = v
	}

	if v := os.Getenv("PTOUCH_ARCHIVE_PASSPHRASE"); v != "" {
		c.Database.ArchivePassphrase = v
	}

	if v := os.Getenv("PTOUCH_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}

	if v := os.Getenv("PTOUCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv("PTOUCH_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Database.ArchiveDays < 0 {
		return fmt.Errorf("archive days must be non-negative")
	}

	seen := make(map[string]bool, len(c.Printers))
	for i, p := range c.Printers {
		if p.Name == "" {
			return fmt.Errorf("printer %d: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("printer %s: duplicate name", p.Name)
		}
		seen[p.Name] = true
		if p.URI == "" {
			return fmt.Errorf("printer %s: uri is required", p.Name)
		}
		if p.Threshold != nil && (*p.Threshold < 0 || *p.Threshold > 255) {
			return fmt.Errorf("printer %s: threshold must be between 0 and 255", p.Name)
		}
		if _, err := core.NewPrintConfig(p.Options()...); err != nil {
			return fmt.Errorf("printer %s: %w", p.Name, err)
		}
	}

	if c.Polling.SettleDelay < 0 || c.Polling.Interval < 0 {
		return fmt.Errorf("polling delays must be non-negative")
	}

	if c.Polling.MaxAttempts < 1 {
		return fmt.Errorf("polling max attempts must be at least 1")
	}

	if c.Auth.PasswordHash != "" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt secret is required when a password hash is set")
	}

	for _, ep := range c.Webhooks.Endpoints {
		if ep.URL == "" {
			return fmt.Errorf("webhook url is required")
		}
	}

	if c.Webhooks.RetryCount < 0 {
		return fmt.Errorf("webhook retry count must be non-negative")
	}

	if c.Webhooks.WorkerCount < 1 {
		return fmt.Errorf("webhook worker count must be at least 1")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}

	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text)", c.Logging.Format)
	}

	return nil
}

// Printer returns the printer named name.
func (c *Config) Printer(name string) (*PrinterConfig, bool) {
	for i := range c.Printers {
		if c.Printers[i].Name == name {
			return &c.Printers[i], true
		}
	}
	return nil, false
}

// Options converts the printer's label defaults into print options.
// Unset fields leave the core defaults in place.
func (p *PrinterConfig) Options() []core.PrintOption {
	var opts []core.PrintOption
	if p.TapeWidth != 0 {
		opts = append(opts, core.WithTapeWidth(p.TapeWidth))
	}
	if p.Threshold != nil {
		opts = append(opts, core.WithThreshold(uint8(*p.Threshold)))
	}
	if p.HighResolution {
		opts = append(opts, core.WithHighResolution(true))
	}
	if p.AutoCut != nil {
		opts = append(opts, core.WithAutoCut(*p.AutoCut))
	}
	if p.HalfCut != nil {
		opts = append(opts, core.WithHalfCut(*p.HalfCut))
	}
	return opts
}

// Policy returns the controller poll policy.
func (p PollingConfig) Policy() core.PollPolicy {
	return core.PollPolicy{
		SettleDelay: p.SettleDelay,
		Interval:    p.Interval,
		MaxAttempts: p.MaxAttempts,
	}
}
