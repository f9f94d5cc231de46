package focusread

import (
	"github.com/hazyhaar/bionic/focusread/internal/config"
	"github.com/hazyhaar/bionic/focusread/internal/settings"
)

// Config is the operator-level configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls the live tab.
type BrowserConfig = config.BrowserConfig

// Settings is the persisted reader configuration.
type Settings = settings.Settings

// SettingsPatch is a partial settings write. Nil fields are left unchanged.
type SettingsPatch = settings.Patch

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return settings.Defaults()
}
