// Package config loads client settings from YAML files with environment
// variable overrides, for standalone bots built on ircmesh.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration document.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Bot     BotConfig     `yaml:"bot"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig describes the remote endpoint.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// TLS wraps the connection in TLS with the system root pool.
	TLS bool `yaml:"tls"`
	// InsecureSkipVerify disables certificate verification. Test networks
	// only.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
	// Timeout bounds the dial, zero means no limit.
	Timeout time.Duration `yaml:"timeout"`
}

// Addr returns the "host:port" dial address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// BotConfig describes the identity the bot registers with.
type BotConfig struct {
	Nick     string   `yaml:"nick"`
	User     string   `yaml:"user"`
	Realname string   `yaml:"realname"`
	Channels []string `yaml:"channels"`
}

// LoggingConfig selects log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Load reads a YAML file over Default(), then applies IRCMESH_* environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration: a plaintext localhost
// connection with text logging at info level.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 6667,
		},
		Bot: BotConfig{
			Nick:     "ircmesh",
			User:     "ircmesh",
			Realname: "ircmesh bot",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports the first structural problem, if any.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("config: server.host is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Bot.Nick == "" {
		return fmt.Errorf("config: bot.nick is required")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown logging.format %q", c.Logging.Format)
	}
	return nil
}

// applyEnv overrides fields from IRCMESH_* environment variables, so
// deployments can adjust a checked-in file without editing it.
func (c *Config) applyEnv() {
	if v := os.Getenv("IRCMESH_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("IRCMESH_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("IRCMESH_TLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Server.TLS = b
		}
	}
	if v := os.Getenv("IRCMESH_NICK"); v != "" {
		c.Bot.Nick = v
	}
	if v := os.Getenv("IRCMESH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("IRCMESH_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}
