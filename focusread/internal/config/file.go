// Package config handles focusread configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/bionic/focusread/internal/eligibility"
	"github.com/hazyhaar/bionic/transform"
)

// Defaults.
const (
	DefaultSelector   = ".standard-markdown"
	DefaultMarker     = "bionic-processed"
	DefaultFontsID    = "focus-reader-fonts"
	DefaultFontsHref  = "https://fonts.googleapis.com/css2?family=Atkinson+Hyperlegible:wght@400;700&family=Inter:wght@400;700;800&family=Lexend:wght@400;700;800&family=Open+Sans:wght@400;700;800&family=Source+Sans+3:wght@400;700;800&family=JetBrains+Mono:wght@400;700;800&display=swap"
	DefaultSettingsDB = "focusread.db"
	DefaultHTTPAddr   = "127.0.0.1:8765"
)

// Config is the top-level focusread configuration. Operator-level knobs
// live here; the user-facing reader settings live in the settings store.
type Config struct {
	Selector           string   `yaml:"selector"`
	Marker             string   `yaml:"marker"`
	Skip               []string `yaml:"skip"`
	MinBold            int      `yaml:"min_bold"`
	ShortWordThreshold int      `yaml:"short_word_threshold"`

	Debounce DebounceConfig `yaml:"debounce"`
	Settings SettingsConfig `yaml:"settings"`
	Fonts    FontsConfig    `yaml:"fonts"`
	Browser  BrowserConfig  `yaml:"browser"`
	HTTP     HTTPConfig     `yaml:"http"`
	Report   ReportConfig   `yaml:"report"`
	Log      LogConfig      `yaml:"log"`
}

// DebounceConfig controls the trigger windows.
type DebounceConfig struct {
	Mutation time.Duration `yaml:"mutation"`
	Scroll   time.Duration `yaml:"scroll"`
	Periodic time.Duration `yaml:"periodic"`
}

// SettingsConfig locates the settings database.
type SettingsConfig struct {
	DB   string        `yaml:"db"`
	Poll time.Duration `yaml:"poll"`
}

// FontsConfig controls the one-time font stylesheet injection.
type FontsConfig struct {
	ID       string `yaml:"id"`
	Href     string `yaml:"href"`
	Disabled bool   `yaml:"disabled"`
}

// BrowserConfig controls the live tab.
type BrowserConfig struct {
	Remote   string        `yaml:"remote"` // ws:// debugger URL; empty launches Chrome
	URL      string        `yaml:"url"`
	Attach   string        `yaml:"attach"` // URL prefix of an open tab to join instead of opening URL
	Headless bool          `yaml:"headless"`
	Stealth  bool          `yaml:"stealth"`
	Timeout  time.Duration `yaml:"timeout"`
}

// HTTPConfig controls the settings surface.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// ReportConfig controls pass report output.
type ReportConfig struct {
	Stdout  bool `yaml:"stdout"`
	Verbose bool `yaml:"verbose"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | text
}

// Default returns a Config with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Selector == "" {
		c.Selector = DefaultSelector
	}
	if c.Marker == "" {
		c.Marker = DefaultMarker
	}
	def := transform.DefaultOptions()
	if c.MinBold <= 0 {
		c.MinBold = def.MinBold
	}
	if c.ShortWordThreshold < 0 {
		c.ShortWordThreshold = 0
	} else if c.ShortWordThreshold == 0 {
		c.ShortWordThreshold = def.ShortWordThreshold
	}
	if c.Debounce.Mutation <= 0 {
		c.Debounce.Mutation = 100 * time.Millisecond
	}
	if c.Debounce.Scroll <= 0 {
		c.Debounce.Scroll = 250 * time.Millisecond
	}
	if c.Debounce.Periodic <= 0 {
		c.Debounce.Periodic = time.Second
	}
	if c.Settings.DB == "" {
		c.Settings.DB = DefaultSettingsDB
	}
	if c.Settings.Poll <= 0 {
		c.Settings.Poll = 500 * time.Millisecond
	}
	if c.Fonts.ID == "" {
		c.Fonts.ID = DefaultFontsID
	}
	if c.Fonts.Href == "" {
		c.Fonts.Href = DefaultFontsHref
	}
	if c.Browser.Timeout <= 0 {
		c.Browser.Timeout = 30 * time.Second
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate checks values defaults cannot repair.
func (c *Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: log.format %q: want json or text", c.Log.Format)
	}
	return nil
}

// Policy builds the eligibility policy. A nil skip list means the default
// set; an explicit empty list skips nothing.
func (c *Config) Policy() (eligibility.Policy, error) {
	if c.Skip == nil {
		return eligibility.DefaultPolicy(), nil
	}
	kinds := make([]eligibility.Kind, 0, len(c.Skip))
	for _, name := range c.Skip {
		k, err := eligibility.ParseKind(name)
		if err != nil {
			return eligibility.Policy{}, fmt.Errorf("config: skip: %w", err)
		}
		kinds = append(kinds, k)
	}
	return eligibility.NewPolicy(kinds...), nil
}

// TransformBase returns the operator-level transform options. The ratio
// and weight are overlaid from the settings store.
func (c *Config) TransformBase() transform.Options {
	o := transform.DefaultOptions()
	o.MinBold = c.MinBold
	o.ShortWordThreshold = c.ShortWordThreshold
	return o
}
