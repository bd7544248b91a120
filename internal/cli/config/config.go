package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = "gcopy"
	configFileName = "config.yaml"

	// DefaultServer is used when nothing is configured
	DefaultServer = "http://localhost:3376"
	// DefaultLocale is used when neither the config nor the environment name one
	DefaultLocale = "en"
)

// Server represents a gcopy backend the CLI can talk to
type Server struct {
	URL   string `yaml:"url"`
	Alias string `yaml:"alias"`
}

// Config represents the user's configuration stored in ~/.config/gcopy/config.yaml
type Config struct {
	Servers  []Server `yaml:"servers"`
	Selected string   `yaml:"selected,omitempty"`
	Locale   string   `yaml:"locale,omitempty"`
}

// GetConfigPath returns the path to the config file. GCOPY_CONFIG wins over
// the default location under the user's home directory.
func GetConfigPath() (string, error) {
	if path := os.Getenv("GCOPY_CONFIG"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", configDirName, configFileName), nil
}

// Load reads the configuration file. A missing file yields an empty config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to a file, creating its directory if needed
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveLocale picks the locale from the flag, GCOPY_LOCALE, the config file
// and finally DefaultLocale.
func (c *Config) ResolveLocale(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("GCOPY_LOCALE"); env != "" {
		return env
	}
	if c.Locale != "" {
		return c.Locale
	}
	return DefaultLocale
}

// AddServer appends a server unless its URL is already present. It returns
// the alias of the stored entry and whether it was newly added.
func (c *Config) AddServer(rawURL string) (string, bool) {
	url := NormalizeURL(rawURL)
	for _, server := range c.Servers {
		if server.URL == url {
			return server.Alias, false
		}
	}

	alias := fmt.Sprintf("server-%d", len(c.Servers)+1)
	c.Servers = append(c.Servers, Server{URL: url, Alias: alias})
	return alias, true
}

// GetServerByURLOrAlias finds a server by URL first, then by alias
func (c *Config) GetServerByURLOrAlias(urlOrAlias string) (*Server, error) {
	normalized := NormalizeURL(urlOrAlias)
	for i := range c.Servers {
		if c.Servers[i].URL == normalized {
			return &c.Servers[i], nil
		}
	}

	for i := range c.Servers {
		if c.Servers[i].Alias == urlOrAlias {
			return &c.Servers[i], nil
		}
	}

	return nil, fmt.Errorf("server with URL or alias '%s' not found", urlOrAlias)
}

// NormalizeURL adds a scheme to bare host:port values and strips trailing slashes
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	return strings.TrimRight(raw, "/")
}
