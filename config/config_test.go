package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wudi/afpkit/builder"
	"github.com/wudi/afpkit/resources"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Stream.InterchangeSet != resources.IS2 {
		t.Errorf("expected interchange set IS/2, got %v", cfg.Stream.InterchangeSet)
	}
	if cfg.Stream.ResourceLevel != resources.PrintFile {
		t.Errorf("expected resource level print-file, got %v", cfg.Stream.ResourceLevel)
	}
	if size, _ := cfg.Page.PaperSize(); size != builder.A4 {
		t.Errorf("expected A4, got %+v", size)
	}
	if cfg.Log.SlogLevel() != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.Log.SlogLevel())
	}
}

func TestParse(t *testing.T) {
	t.Setenv("AFP_OUT", "/data/out")
	content := `
stream:
  interchange_set: IS/3
  resource_level: external
  external_resource_group: ${AFP_OUT}/resources.afp
  spool_dir: ${AFP_SPOOL_UNSET:-/tmp/spool}
  deduplicate_content: true
page:
  size: letter
  margins:
    top: 36
    bottom: 36
    left: 36
    right: 36
  fonts:
    Gothic:
      character_set: C0D0GT10
      code_page: T1V10500
log:
  level: debug
  format: json
`
	cfg, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	if cfg.Stream.InterchangeSet != resources.IS3 {
		t.Errorf("expected IS/3, got %v", cfg.Stream.InterchangeSet)
	}
	if cfg.Stream.ResourceLevel != resources.External {
		t.Errorf("expected external, got %v", cfg.Stream.ResourceLevel)
	}
	if cfg.Stream.ExternalResourceGroup != "/data/out/resources.afp" {
		t.Errorf("external group not expanded: %s", cfg.Stream.ExternalResourceGroup)
	}
	if cfg.Stream.SpoolDir != "/tmp/spool" {
		t.Errorf("spool dir default not applied: %s", cfg.Stream.SpoolDir)
	}
	if !cfg.Stream.DeduplicateContent {
		t.Error("expected deduplicate_content=true")
	}
	// Keys missing from the file keep their defaults.
	if cfg.Stream.Encoding == "" || cfg.Page.Font != builder.DefaultFont || cfg.Page.FontSize != 12 {
		t.Errorf("defaults lost: encoding %q, font %q, size %v", cfg.Stream.Encoding, cfg.Page.Font, cfg.Page.FontSize)
	}
	if size, _ := cfg.Page.PaperSize(); size != builder.Letter {
		t.Errorf("expected letter, got %+v", size)
	}
	if f := cfg.Page.Fonts["Gothic"]; f.CharacterSet != "C0D0GT10" {
		t.Errorf("font not loaded: %+v", f)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.Log.SlogLevel())
	}
}

func TestParse_RejectsUnknownLevel(t *testing.T) {
	if _, err := Parse([]byte("stream:\n  resource_level: attic\n")); err == nil {
		t.Fatal("expected error for unknown resource level")
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		mutate func(*Config)
		want   string
	}{
		"paper size":    {func(c *Config) { c.Page.Size = "b5" }, "page.size"},
		"custom size":   {func(c *Config) { c.Page.Size = "b5"; c.Page.Width, c.Page.Height = 300, 400 }, ""},
		"margins":       {func(c *Config) { c.Page.Margins.Left = 400; c.Page.Margins.Right = 400 }, "page.margins"},
		"negative":      {func(c *Config) { c.Page.Margins.Top = -1 }, "page.margins"},
		"font size":     {func(c *Config) { c.Page.FontSize = 0 }, "page.font_size"},
		"font":          {func(c *Config) { c.Page.Fonts = map[string]FontConfig{"X": {CharacterSet: "C0H200B0"}} }, "page.fonts.X"},
		"log level":     {func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		"log format":    {func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		"stream":        {func(c *Config) { c.Stream.MaxTextRecordSize = 10 }, "stream"},
		"external file": {func(c *Config) { c.Stream.ResourceLevel = resources.External }, "external"},
	}
	for name, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		err := cfg.Validate()
		if tt.want == "" {
			if err != nil {
				t.Errorf("%s: unexpected error %v", name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: Validate() = %v, want mention of %q", name, err, tt.want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "afp.yaml")
	if err := os.WriteFile(path, []byte("page:\n  size: a3\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv(EnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if size, _ := cfg.Page.PaperSize(); size != builder.A3 {
		t.Errorf("expected A3, got %+v", size)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if err := os.WriteFile(path, []byte("page: [\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), path) {
		t.Errorf("expected parse error naming the file, got %v", err)
	}
}

func TestLoad_WithoutEnv(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Page.Size != "a4" {
		t.Errorf("expected defaults, got size %q", cfg.Page.Size)
	}
}
