// ABOUTME: Configuration loading and parsing for lunarus-server
// ABOUTME: Supports YAML files with environment variable expansion and validation

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete lunarus-server configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	LiveKit  LiveKitConfig  `yaml:"livekit"`
	Tenor    TenorConfig    `yaml:"tenor"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// PublicBaseURL is the externally reachable base URL used to build
	// absolute links (uploads). If empty, it is derived from proxy headers.
	PublicBaseURL string `yaml:"public_base_url"`
}

// DatabaseConfig holds Postgres connection configuration
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// UploadsConfig holds file upload storage configuration
type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

// LiveKitConfig holds voice-room provider configuration.
// PublicURL is what clients connect to; URL may point at an internal host
// (docker service name) and is only used as a fallback.
type LiveKitConfig struct {
	URL       string `yaml:"url"`
	PublicURL string `yaml:"public_url"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

// TenorConfig holds GIF search configuration
type TenorConfig struct {
	APIKey    string `yaml:"api_key"`
	ClientKey string `yaml:"client_key"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment
// variable values. Unset variables are replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in values that have a sensible default when omitted.
func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8080"
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "uploads"
	}
	if c.Tenor.ClientKey == "" {
		c.Tenor.ClientKey = "lunarus"
	}
	// Trailing slashes break absolute-URL construction downstream.
	c.Server.PublicBaseURL = strings.TrimSuffix(c.Server.PublicBaseURL, "/")
	c.LiveKit.URL = strings.TrimSuffix(c.LiveKit.URL, "/")
	c.LiveKit.PublicURL = strings.TrimSuffix(c.LiveKit.PublicURL, "/")
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if c.LiveKit.APIKey != "" && c.LiveKit.APISecret == "" {
		return fmt.Errorf("livekit.api_secret is required when livekit.api_key is set")
	}

	return nil
}
