// Package config handles figdiff configuration from YAML files, command
// line overrides and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/figdiff/figdiff/internal/selector"
)

// TokenEnv names the environment variable holding the Figma access token.
const TokenEnv = "FIGMA_ACCESS_TOKEN"

var (
	// ErrMissingToken is returned when TokenEnv is unset or empty.
	ErrMissingToken = errors.New("config: " + TokenEnv + " is not set")
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("config: invalid")
)

// Config is the top-level figdiff configuration.
type Config struct {
	FileKey        string  `yaml:"file_key"`
	Version        string  `yaml:"version"`
	Select         string  `yaml:"select"` // top | tagged
	TagPrefix      string  `yaml:"tag_prefix"`
	Dedupe         bool    `yaml:"dedupe"`
	Scale          float64 `yaml:"scale"`
	Tolerance      float64 `yaml:"tolerance"` // 0 compares exactly
	Strict         bool    `yaml:"strict"`    // exact channel equality, transparent pixels included
	HighlightColor string  `yaml:"highlight_color"`
	OutDir         string  `yaml:"out_dir"`
	WorkDir        string  `yaml:"work_dir"`
	InlineImages   bool    `yaml:"inline_images"`
	KeepRuns       bool    `yaml:"keep_runs"` // one timestamped subdirectory per run
	DBPath         string  `yaml:"db_path"` // empty disables run history
	Schedule       string  `yaml:"schedule"`

	Browser BrowserConfig `yaml:"browser"`
	Report  ReportConfig  `yaml:"report"`
	API     APIConfig     `yaml:"api"`
}

// BrowserConfig controls the headless Chrome session.
type BrowserConfig struct {
	Remote      string        `yaml:"remote"`
	Stealth     bool          `yaml:"stealth"`
	Transparent bool          `yaml:"transparent"`
	AllowRemote bool          `yaml:"allow_remote"` // let pages fetch http(s) resources
	LoadTimeout time.Duration `yaml:"load_timeout"`
}

// ReportConfig selects the optional report artefacts.
type ReportConfig struct {
	Markdown bool `yaml:"markdown"`
	PDF      bool `yaml:"pdf"`
}

// APIConfig points at the Figma REST API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	c := &Config{
		Tolerance:    2.5,
		InlineImages: true,
		Browser:      BrowserConfig{Transparent: true},
		Report:       ReportConfig{Markdown: true},
	}
	c.applyDefaults()
	return c
}

// LoadFile reads a YAML file over DefaultConfig, so omitted keys keep
// their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Select == "" {
		c.Select = string(selector.PolicyTopLevel)
	}
	if c.TagPrefix == "" {
		c.TagPrefix = selector.DefaultPrefix
	}
	if c.Scale == 0 {
		c.Scale = 1
	}
	if c.HighlightColor == "" {
		c.HighlightColor = "#ff00ff"
	}
	if c.OutDir == "" {
		c.OutDir = DefaultOutDir()
	}
	if c.WorkDir == "" {
		c.WorkDir = filepath.Join(os.TempDir(), "figdiff")
	}
	if c.Browser.LoadTimeout <= 0 {
		c.Browser.LoadTimeout = 30 * time.Second
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 60 * time.Second
	}
}

// Validate checks the configuration once flags have been applied.
func (c *Config) Validate() error {
	if c.FileKey == "" {
		return fmt.Errorf("%w: file_key is required", ErrInvalid)
	}
	if _, err := selector.ParsePolicy(c.Select); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Scale <= 0 || c.Scale > 4 {
		return fmt.Errorf("%w: scale %v outside (0,4]", ErrInvalid, c.Scale)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("%w: negative tolerance", ErrInvalid)
	}
	if _, err := colorful.Hex(c.HighlightColor); err != nil {
		return fmt.Errorf("%w: highlight_color %q", ErrInvalid, c.HighlightColor)
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("%w: schedule %q: %v", ErrInvalid, c.Schedule, err)
		}
	}
	return nil
}

// Token returns the Figma access token from the environment.
func Token() (string, error) {
	t := os.Getenv(TokenEnv)
	if t == "" {
		return "", ErrMissingToken
	}
	return t, nil
}

// DefaultOutDir is "diffs" next to the running executable, or under the
// working directory when the executable path is unknown.
func DefaultOutDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "diffs"
	}
	return filepath.Join(filepath.Dir(exe), "diffs")
}
