package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "imready.json"

	// DefaultPrefix is the default attribute prefix for readiness markers.
	DefaultPrefix = "data-"

	// DefaultTimeout is the default per-batch timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPort is the default server port.
	DefaultPort = 8080

	// DefaultHost is the default server host.
	DefaultHost = "localhost"
)

// DefaultTags are the tags scanned for loadable resources.
var DefaultTags = []string{"img", "video"}

// Config represents the complete imready.json configuration.
type Config struct {
	// Prefix is the attribute prefix for readiness markers
	// (data-width, data-height, data-skip).
	Prefix string `json:"prefix,omitempty"`

	// Tags are the element tags scanned for loadable resources.
	Tags []string `json:"tags,omitempty"`

	// Timeout bounds each batch check (e.g. "30s").
	Timeout string `json:"timeout,omitempty"`

	// BaseURL resolves relative resource URLs in scanned markup.
	BaseURL string `json:"baseURL,omitempty"`

	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// S3 contains object storage configuration.
	S3 S3Config `json:"s3,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`
}

// S3Config contains object storage settings for s3:// resources.
type S3Config struct {
	// Region is the bucket region.
	Region string `json:"region,omitempty"`

	// Bucket is the default bucket for keys without one.
	Bucket string `json:"bucket,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Prefix:  DefaultPrefix,
		Tags:    append([]string(nil), DefaultTags...),
		Timeout: DefaultTimeout.String(),
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for imready.json in the directory. A missing file
// yields the defaults.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// BatchTimeout parses the configured timeout.
func (c *Config) BatchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// Addr returns the host:port address the server binds to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if len(c.Tags) == 0 {
		c.Tags = append([]string(nil), DefaultTags...)
	}
	if c.Timeout == "" {
		c.Timeout = DefaultTimeout.String()
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return nil
}
