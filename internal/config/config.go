package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Pool     PoolConfig     `yaml:"pool"`
	Webhooks WebhooksConfig `yaml:"webhooks"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type PoolConfig struct {
	SendTimeout    time.Duration `yaml:"send_timeout"`
	SettleInterval time.Duration `yaml:"settle_interval"`
	HoldPerLine    time.Duration `yaml:"hold_per_line"`
	HoldMin        time.Duration `yaml:"hold_min"`
	HoldMax        time.Duration `yaml:"hold_max"`
	MaxQueueDepth  int           `yaml:"max_queue_depth"`
}

type WebhooksConfig struct {
	RetryCount  int           `yaml:"retry_count"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	Timeout     time.Duration `yaml:"timeout"`
	WorkerCount int           `yaml:"worker_count"`
	QueueSize   int           `yaml:"queue_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Durations appear in YAML as strings like "500ms" or "5s". The custom
// unmarshallers parse them and leave absent keys at their defaults.

func setDuration(dst *time.Duration, s string) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*dst = d
	return nil
}

func (s *ServerConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Port         *int   `yaml:"port"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Port != nil {
		s.Port = *raw.Port
	}
	if err := setDuration(&s.ReadTimeout, raw.ReadTimeout); err != nil {
		return err
	}
	return setDuration(&s.WriteTimeout, raw.WriteTimeout)
}

func (p *PoolConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		SendTimeout    string `yaml:"send_timeout"`
		SettleInterval string `yaml:"settle_interval"`
		HoldPerLine    string `yaml:"hold_per_line"`
		HoldMin        string `yaml:"hold_min"`
		HoldMax        string `yaml:"hold_max"`
		MaxQueueDepth  *int   `yaml:"max_queue_depth"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.MaxQueueDepth != nil {
		p.MaxQueueDepth = *raw.MaxQueueDepth
	}
	for _, pair := range []struct {
		dst *time.Duration
		src string
	}{
		{&p.SendTimeout, raw.SendTimeout},
		{&p.SettleInterval, raw.SettleInterval},
		{&p.HoldPerLine, raw.HoldPerLine},
		{&p.HoldMin, raw.HoldMin},
		{&p.HoldMax, raw.HoldMax},
	} {
		if err := setDuration(pair.dst, pair.src); err != nil {
			return err
		}
	}
	return nil
}

func (w *WebhooksConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		RetryCount  *int   `yaml:"retry_count"`
		RetryDelay  string `yaml:"retry_delay"`
		Timeout     string `yaml:"timeout"`
		WorkerCount *int   `yaml:"worker_count"`
		QueueSize   *int   `yaml:"queue_size"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.RetryCount != nil {
		w.RetryCount = *raw.RetryCount
	}
	if raw.WorkerCount != nil {
		w.WorkerCount = *raw.WorkerCount
	}
	if raw.QueueSize != nil {
		w.QueueSize = *raw.QueueSize
	}
	if err := setDuration(&w.RetryDelay, raw.RetryDelay); err != nil {
		return err
	}
	return setDuration(&w.Timeout, raw.Timeout)
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "./data/pool.db",
		},
		Pool: PoolConfig{
			SendTimeout:    5 * time.Second,
			SettleInterval: 300 * time.Millisecond,
			HoldPerLine:    50 * time.Millisecond,
			HoldMin:        500 * time.Millisecond,
			HoldMax:        5 * time.Second,
			MaxQueueDepth:  0,
		},
		Webhooks: WebhooksConfig{
			RetryCount:  3,
			RetryDelay:  5 * time.Second,
			Timeout:     10 * time.Second,
			WorkerCount: 3,
			QueueSize:   100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func Load(configPath string) (*Config, error) {
	cfg := defaults()

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

// LoadFromEnv overlays environment overrides onto cfg.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("PRINTPOOL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("PRINTPOOL_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("PRINTPOOL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("PRINTPOOL_SEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Pool.SendTimeout = d
		}
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

	if c.Pool.SendTimeout <= 0 {
		return fmt.Errorf("pool send timeout must be positive")
	}

	if c.Pool.SettleInterval < 0 {
		return fmt.Errorf("pool settle interval must be non-negative")
	}

	if c.Pool.HoldPerLine < 0 {
		return fmt.Errorf("pool hold per line must be non-negative")
	}

	if c.Pool.HoldMin < 0 || c.Pool.HoldMax < 0 {
		return fmt.Errorf("pool hold bounds must be non-negative")
	}

	if c.Pool.HoldMax < c.Pool.HoldMin {
		return fmt.Errorf("pool hold max must not be smaller than hold min")
	}

	if c.Pool.MaxQueueDepth < 0 {
		return fmt.Errorf("pool max queue depth must be non-negative")
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
