package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Backend names for the store selection.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds application configuration. It is constructed once at startup
// and passed into the stores and handlers explicitly so tests can inject
// isolated instances per run.
type Config struct {
	// APIKey is the process-wide shared secret required by every non-health
	// route. An empty value makes authenticated requests fail with a
	// CONFIGURATION error. Overridable via the STASH_API_KEY environment
	// variable.
	APIKey string `json:"api_key,omitempty"`

	// Backend selects the store implementation: "json" (two whole-file JSON
	// collections, the default) or "sqlite".
	Backend string `json:"backend,omitempty"`

	// Bind is the address the HTTP server listens on.
	Bind string `json:"bind,omitempty"`

	// Port is the HTTP server port.
	Port int `json:"port,omitempty"`

	// AllowedPaths is an extra allowlist of directories for export
	// operations, on top of home, cwd, the system temp dir, and
	// ~/.stash/exports.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for export. Symlink
	// and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendJSON,
		Bind:    "127.0.0.1",
		Port:    8787,
	}
}

// Load loads configuration from baseDir/config.json, merges it over the
// defaults, and applies environment overrides. Returns default config if
// the file doesn't exist. The baseDir parameter allows tests to use
// t.TempDir() instead of ~/.stash.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	applyEnv(merged)
	return merged, nil
}

// applyEnv overlays environment variables onto the config. The API key is
// the only secret and is commonly injected via the environment rather than
// written to disk.
func applyEnv(cfg *Config) {
	if key := strings.TrimSpace(os.Getenv("STASH_API_KEY")); key != "" {
		cfg.APIKey = key
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and
// deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.APIKey = overlay.APIKey
	if result.APIKey == "" {
		result.APIKey = base.APIKey
	}

	result.Backend = overlay.Backend
	if result.Backend == "" {
		result.Backend = base.Backend
	}

	result.Bind = overlay.Bind
	if result.Bind == "" {
		result.Bind = base.Bind
	}

	result.Port = overlay.Port
	if result.Port == 0 {
		result.Port = base.Port
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
