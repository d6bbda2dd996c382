package figdiff

import (
	"github.com/hazyhaar/figdiff/figdiff/internal/config"
)

// Config is the top-level figdiff configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls the headless Chrome session.
type BrowserConfig = config.BrowserConfig

// ReportConfig selects the optional report artefacts.
type ReportConfig = config.ReportConfig

// APIConfig points at the Figma REST API.
type APIConfig = config.APIConfig

// TokenEnv names the environment variable holding the Figma access token.
const TokenEnv = config.TokenEnv

// ErrMissingToken is returned by Token when TokenEnv is unset.
var ErrMissingToken = config.ErrMissingToken

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// Token returns the Figma access token from the environment.
func Token() (string, error) {
	return config.Token()
}
