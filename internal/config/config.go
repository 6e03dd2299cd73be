package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultListen is the broker's bind address when nothing else is
// configured.
const DefaultListen = "127.0.0.1:11300"

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Worker  WorkerConfig  `yaml:"worker"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Listen          string   `yaml:"listen"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	MaxCommandBytes int      `yaml:"max_command_bytes"`
}

type WorkerConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
	Count        int      `yaml:"count"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration wraps time.Duration so config files can say "300ms" or
// "10s" instead of nanosecond integers.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          DefaultListen,
			WriteTimeout:    Duration(10 * time.Second),
			MaxCommandBytes: 64 * 1024,
		},
		Worker: WorkerConfig{
			PollInterval: Duration(300 * time.Millisecond),
			Count:        1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the config file at path over the defaults. A missing file
// is not an error; the defaults apply unchanged.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
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

// ApplyEnv overrides config fields from TUBEQ_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("TUBEQ_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("TUBEQ_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TUBEQ_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		return fmt.Errorf("server listen address %q is not host:port: %w", c.Server.Listen, err)
	}
	if c.Server.WriteTimeout.Std() <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}
	if c.Server.MaxCommandBytes < 16 {
		return fmt.Errorf("max command bytes must be at least 16, got %d", c.Server.MaxCommandBytes)
	}
	if c.Worker.PollInterval.Std() <= 0 {
		return fmt.Errorf("worker poll interval must be positive")
	}
	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", c.Worker.Count)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// Logger builds the process logger from the logging section. Output
// goes to stderr so command results on stdout stay clean.
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	switch c.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
