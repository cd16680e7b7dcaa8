// Package config loads AFP generation settings from a YAML file.
//
// The file is named by the --config flag of a command or by the
// AFPKIT_CONFIG environment variable. Values missing from the file keep
// their defaults. ${VAR} and ${VAR:-default} are expanded in paths.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wudi/afpkit/builder"
	"github.com/wudi/afpkit/modca"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "AFPKIT_CONFIG"

// Config is the configuration of a document generation run.
type Config struct {
	// Stream configures the MO:DCA encoder.
	Stream modca.Config `yaml:"stream"`

	// Page configures page geometry and text layout.
	Page PageConfig `yaml:"page"`

	// Log configures the command's logger.
	Log LogConfig `yaml:"log"`
}

// PageConfig configures page geometry and text layout.
type PageConfig struct {
	// Size is a named paper size: a4, a3, letter or legal.
	// Default: a4
	Size string `yaml:"size"`

	// Width and Height in points override Size when both are set.
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	Margins MarginsConfig `yaml:"margins"`

	// Font is the body font. Default: Helvetica
	Font       string  `yaml:"font"`
	FontSize   float64 `yaml:"font_size"`
	LineHeight float64 `yaml:"line_height"`

	// Fonts registers additional coded fonts by name.
	Fonts map[string]FontConfig `yaml:"fonts"`
}

// MarginsConfig holds page margins in points.
type MarginsConfig struct {
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
}

// FontConfig names a coded font installed on the printer.
type FontConfig struct {
	CharacterSet string `yaml:"character_set"`
	CodePage     string `yaml:"code_page"`
	Monospace    bool   `yaml:"monospace"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn or error. Default: info
	Level string `yaml:"level"`

	// Format is text or json. Default: text
	Format string `yaml:"format"`
}

var paperSizes = map[string]builder.PaperSize{
	"a4":     builder.A4,
	"a3":     builder.A3,
	"letter": builder.Letter,
	"legal":  builder.Legal,
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Stream: modca.DefaultConfig(),
		Page: PageConfig{
			Size:       "a4",
			Margins:    MarginsConfig{Top: 50, Bottom: 50, Left: 50, Right: 50},
			Font:       builder.DefaultFont,
			FontSize:   12,
			LineHeight: 1.2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads the file named by AFPKIT_CONFIG, or returns the defaults
// when the variable is not set.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads YAML over the defaults and expands variables.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Stream.ExternalResourceGroup = expandVars(c.Stream.ExternalResourceGroup, vars)
	c.Stream.SpoolDir = expandVars(c.Stream.SpoolDir, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// PaperSize returns the page size in points.
func (p PageConfig) PaperSize() (builder.PaperSize, error) {
	if p.Width > 0 && p.Height > 0 {
		return builder.PaperSize{Width: p.Width, Height: p.Height}, nil
	}
	size, ok := paperSizes[strings.ToLower(p.Size)]
	if !ok {
		return builder.PaperSize{}, fmt.Errorf("unknown paper size %q", p.Size)
	}
	return size, nil
}

// SlogLevel returns the configured level, or info when it is unknown.
func (l LogConfig) SlogLevel() slog.Level {
	if level, ok := logLevels[strings.ToLower(l.Level)]; ok {
		return level
	}
	return slog.LevelInfo
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Stream.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("stream: %w", err))
	}

	size, err := c.Page.PaperSize()
	if err != nil {
		errs = append(errs, fmt.Errorf("page.size: %w", err))
	}
	m := c.Page.Margins
	if m.Top < 0 || m.Bottom < 0 || m.Left < 0 || m.Right < 0 {
		errs = append(errs, fmt.Errorf("page.margins must not be negative"))
	} else if err == nil && (m.Left+m.Right >= size.Width || m.Top+m.Bottom >= size.Height) {
		errs = append(errs, fmt.Errorf("page.margins leave no room for content"))
	}
	if c.Page.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("page.font_size must be positive"))
	}
	if c.Page.LineHeight <= 0 {
		errs = append(errs, fmt.Errorf("page.line_height must be positive"))
	}
	for name, f := range c.Page.Fonts {
		if f.CharacterSet == "" || f.CodePage == "" {
			errs = append(errs, fmt.Errorf("page.fonts.%s: character_set and code_page are required", name))
		}
	}

	if _, ok := logLevels[strings.ToLower(c.Log.Level)]; !ok {
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error"))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
