// Package config loads otacheck settings from defaults, a YAML config file
// and OTA_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pa-ota/catalog/internal/core"
	"github.com/spf13/viper"
)

const (
	KeyDevice     = "device"
	KeyModVersion = "modversion"

	KeyGappsFlavor   = "gapps.flavor"
	KeyGappsPlatform = "gapps.platform"
	KeyGappsVersion  = "gapps.version"
	KeyGappsPropFile = "gapps.prop-file"

	KeyCheckInterval = "check.interval"

	KeySourcesROM   = "sources.rom"
	KeySourcesGapps = "sources.gapps"

	KeyPAURL          = "pa.url"
	KeyGooURL         = "goo.url"
	KeyGooDownloadURL = "goo.download-url"

	KeyHTTPTimeout   = "http.timeout"
	KeyHTTPRetries   = "http.retries"
	KeyHTTPUserAgent = "http.user-agent"

	KeyErrorROM   = "error.rom"
	KeyErrorGapps = "error.gapps"
)

const (
	DefaultCheckInterval = 24 * time.Hour
	DefaultPropFile      = "/system/etc/g.prop"
	envPrefix            = "OTA"
)

type loadSettings struct {
	configPath string
	userPath   string
}

// Option configures Load.
type Option func(*loadSettings)

// WithConfigFile reads path instead of the user config file. A missing
// file is an error.
func WithConfigFile(path string) Option {
	return func(s *loadSettings) {
		s.configPath = path
	}
}

// WithUserConfig overrides the default user config path.
func WithUserConfig(path string) Option {
	return func(s *loadSettings) {
		s.userPath = path
	}
}

// Config holds the merged settings. It implements the settings interface
// expected by updaters.
type Config struct {
	v *viper.Viper
}

// Load builds a Config using the precedence:
// defaults < config file < environment variables < Set.
func Load(opts ...Option) (*Config, error) {
	settings := loadSettings{}
	for _, opt := range opts {
		opt(&settings)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path := strings.TrimSpace(settings.configPath); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := mergeConfigFile(v, path); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return &Config{v: v}, nil
	}

	userPath := strings.TrimSpace(settings.userPath)
	if userPath == "" {
		path, err := defaultUserConfigPath()
		if err != nil {
			return nil, err
		}
		userPath = path
	}
	if err := mergeConfigFile(v, userPath); err != nil {
		return nil, fmt.Errorf("load user config: %w", err)
	}
	return &Config{v: v}, nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	//nolint:gosec // G304: reads the user's own config file
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, ".otacheck", "config.yaml"), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDevice, "")
	v.SetDefault(KeyModVersion, "")
	v.SetDefault(KeyGappsFlavor, string(core.FlavorFull))
	v.SetDefault(KeyGappsPlatform, "")
	v.SetDefault(KeyGappsVersion, "")
	v.SetDefault(KeyGappsPropFile, DefaultPropFile)
	v.SetDefault(KeyCheckInterval, DefaultCheckInterval)
	v.SetDefault(KeySourcesROM, []string{"pa", "goo"})
	v.SetDefault(KeySourcesGapps, []string{"goo"})
	v.SetDefault(KeyPAURL, "")
	v.SetDefault(KeyGooURL, "")
	v.SetDefault(KeyGooDownloadURL, "")
	v.SetDefault(KeyHTTPTimeout, 30*time.Second)
	v.SetDefault(KeyHTTPRetries, 3)
	v.SetDefault(KeyHTTPUserAgent, "")
	v.SetDefault(KeyErrorROM, "Error checking for ROM updates")
	v.SetDefault(KeyErrorGapps, "Error checking for GApps updates")
}

// Set overrides a key, typically from a command line flag.
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// SetDefaultFlavor replaces the fallback flavor used when none is
// configured, e.g. with the one of the installed Google Apps.
func (c *Config) SetDefaultFlavor(f core.Flavor) {
	c.v.SetDefault(KeyGappsFlavor, string(f))
}

func (c *Config) String(key string) string {
	return c.v.GetString(key)
}

func (c *Config) Int(key string) int {
	return c.v.GetInt(key)
}

func (c *Config) Duration(key string) time.Duration {
	return c.v.GetDuration(key)
}

// Strings returns a list value. A single comma separated string, as set
// through the environment, is split.
func (c *Config) Strings(key string) []string {
	var out []string
	for _, s := range c.v.GetStringSlice(key) {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Flavor returns the Google Apps flavor to look for.
func (c *Config) Flavor() core.Flavor {
	return core.ParseFlavor(c.v.GetString(KeyGappsFlavor))
}

// ChecksEnabled reports whether scheduled checks run at all.
func (c *Config) ChecksEnabled() bool {
	return c.Interval() > 0
}

// Interval is the time between scheduled checks.
func (c *Config) Interval() time.Duration {
	return c.v.GetDuration(KeyCheckInterval)
}

// SourceURL returns the configured base URL for a catalog kind, empty for
// the built-in default.
func (c *Config) SourceURL(kind string) string {
	return c.v.GetString(kind + ".url")
}

// AllSettings returns every key with its effective value.
func (c *Config) AllSettings() map[string]any {
	return c.v.AllSettings()
}
