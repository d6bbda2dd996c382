package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.Select != "top" || c.TagPrefix != "Test" || c.Scale != 1 || c.Tolerance != 2.5 {
		t.Fatalf("defaults: got %+v", c)
	}
	if c.HighlightColor != "#ff00ff" || !c.InlineImages || !c.Browser.Transparent || !c.Report.Markdown {
		t.Fatalf("defaults: got %+v", c)
	}
	if filepath.Base(c.OutDir) != "diffs" {
		t.Fatalf("OutDir: got %q, want a diffs directory", c.OutDir)
	}
}

func TestLoadFile_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "figdiff.yaml")
	yml := `
file_key: ABC123
select: tagged
tag_prefix: QA
inline_images: false
browser:
  stealth: true
  load_timeout: 5s
report:
  pdf: true
api:
  base_url: http://localhost:9999/v1/
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.FileKey != "ABC123" || c.Select != "tagged" || c.TagPrefix != "QA" || c.InlineImages {
		t.Fatalf("loaded: got %+v", c)
	}
	if !c.Browser.Stealth || c.Browser.LoadTimeout != 5*time.Second || !c.Browser.Transparent {
		t.Fatalf("browser: got %+v", c.Browser)
	}
	if !c.Report.PDF || !c.Report.Markdown {
		t.Fatalf("report: got %+v", c.Report)
	}
	if c.API.BaseURL != "http://localhost:9999/v1/" || c.API.Timeout != 60*time.Second {
		t.Fatalf("api: got %+v", c.API)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

// WHAT: An explicit zero tolerance survives loading; strict and
// allow_remote are read.
// WHY: Zero is a meaningful tolerance (exact), not "unset".
func TestLoadFile_ExactComparison(t *testing.T) {
	path := filepath.Join(t.TempDir(), "figdiff.yaml")
	yml := "file_key: K\ntolerance: 0\nstrict: true\nbrowser:\n  allow_remote: true\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Tolerance != 0 || !c.Strict || !c.Browser.AllowRemote {
		t.Fatalf("loaded: tolerance=%v strict=%v allow_remote=%v", c.Tolerance, c.Strict, c.Browser.AllowRemote)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	os.WriteFile(path, []byte("file_key: K\n"), 0o644)
	if c, _ = LoadFile(path); c.Tolerance != 2.5 || c.Strict || c.Browser.AllowRemote {
		t.Fatalf("omitted keys: got %+v", c)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("scale: [1, 2"), 0o644)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"no file key":   func(c *Config) { c.FileKey = "" },
		"bad policy":    func(c *Config) { c.Select = "all" },
		"bad scale":     func(c *Config) { c.Scale = 8 },
		"neg tolerance": func(c *Config) { c.Tolerance = -1 },
		"bad highlight": func(c *Config) { c.HighlightColor = "pink" },
		"bad schedule":  func(c *Config) { c.Schedule = "every day" },
	}
	for name, mutate := range cases {
		c := DefaultConfig()
		c.FileKey = "KEY"
		mutate(c)
		if err := c.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: got %v, want ErrInvalid", name, err)
		}
	}

	c := DefaultConfig()
	c.FileKey = "KEY"
	c.Schedule = "*/15 * * * *"
	if err := c.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestToken(t *testing.T) {
	t.Setenv(TokenEnv, "")
	if _, err := Token(); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("got %v, want ErrMissingToken", err)
	}
	t.Setenv(TokenEnv, "figd_secret")
	got, err := Token()
	if err != nil || got != "figd_secret" {
		t.Fatalf("Token: got %q, %v", got, err)
	}
}
