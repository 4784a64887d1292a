// Package config handles the XDG configuration directory and client settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "taskdeck"

	// SettingsFile is the optional settings filename inside the config dir.
	SettingsFile = "config.yaml"

	// SessionFile stores the session cookie between invocations.
	SessionFile = "session.json"

	// EnvAPIURL overrides the API base URL.
	EnvAPIURL = "TASKDECK_API_URL"

	// DefaultAPIURL is used when neither the environment nor the settings
	// file provide a base URL.
	DefaultAPIURL = "http://localhost:8000"

	// DefaultLoginSettle is the wait after a successful login before the
	// session cookie is re-verified. Cookie delivery is not synchronous
	// with the login response.
	DefaultLoginSettle = 150 * time.Millisecond
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIURL is the normalized base URL of the task API.
	APIURL string

	// LoginSettle is the post-login settling interval.
	LoginSettle time.Duration

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// fileSettings is the schema of config.yaml.
type fileSettings struct {
	APIURL        string `yaml:"api_url"`
	LoginSettleMS int    `yaml:"login_settle_ms"`
}

// New creates a Config with the default or specified config directory.
// Precedence for the base URL: TASKDECK_API_URL, then config.yaml, then the
// built-in default.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	cfg := &Config{
		Dir:         dir,
		APIURL:      DefaultAPIURL,
		LoginSettle: DefaultLoginSettle,
	}

	if err := cfg.loadSettingsFile(); err != nil {
		return nil, err
	}
	if env := os.Getenv(EnvAPIURL); env != "" {
		cfg.APIURL = env
	}
	cfg.APIURL = NormalizeURL(cfg.APIURL)

	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to the settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// SessionPath returns the path to the stored session cookie file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// HasSession checks if a stored session cookie file exists.
func (c *Config) HasSession() bool {
	_, err := os.Stat(c.SessionPath())
	return err == nil
}

// RemoveSession deletes the stored session cookie file.
func (c *Config) RemoveSession() error {
	err := os.Remove(c.SessionPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// loadSettingsFile applies config.yaml if present. A missing file is not an
// error; a malformed one is.
func (c *Config) loadSettingsFile() error {
	data, err := os.ReadFile(c.SettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}

	var fs fileSettings
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}

	if fs.APIURL != "" {
		c.APIURL = fs.APIURL
	}
	if fs.LoginSettleMS > 0 {
		c.LoginSettle = time.Duration(fs.LoginSettleMS) * time.Millisecond
	}
	return nil
}

// NormalizeURL strips trailing slashes and defaults the scheme to http.
func NormalizeURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if u == "" {
		return u
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "http://" + u
	}
	return u
}
