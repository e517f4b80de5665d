package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Paths contains file and directory locations.
type Paths struct {
	DatabasePath       string `toml:"database_path"`
	ObservationsPath   string `toml:"observations_path"`
	MatchesOutputPath  string `toml:"matches_output_path"`
	FrontendOutputPath string `toml:"frontend_output_path"`
	LogDir             string `toml:"log_dir"`
}

// Store selects the relational backend holding battles and match results.
type Store struct {
	// Driver is "sqlite" (default, uses paths.database_path) or "postgres" (uses DSN).
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// Matching contains the thresholds applied by the match engine.
type Matching struct {
	// MinMatchThreshold is the lowest token-set score (0-100) accepted as a match.
	MinMatchThreshold float64 `toml:"min_match_threshold"`
	// MinObservationNames is the minimum number of unique recognized names
	// required before a screenshot is scored at all.
	MinObservationNames int `toml:"min_observation_names"`
	// MaxDateRangeMonths bounds how far before the video upload date a battle may be.
	MaxDateRangeMonths int `toml:"max_date_range_months"`
}

// Workers sizes the match worker pool.
type Workers struct {
	// Count is the number of workers; zero means runtime.NumCPU().
	Count int `toml:"count"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics configures the Prometheus textfile written after a run.
type Metrics struct {
	// TextfilePath is empty to disable metrics output.
	TextfilePath string `toml:"textfile_path"`
}

// Config encapsulates all configuration values for barfinder.
//
// Configuration sections by subsystem:
//   - Paths: database, observation and output documents, log directory
//   - Store: relational driver selection
//   - Matching: engine thresholds
//   - Workers: pool size
//   - Logging: log format and level
//   - Metrics: optional Prometheus textfile
type Config struct {
	Paths    Paths    `toml:"paths"`
	Store    Store    `toml:"store"`
	Matching Matching `toml:"matching"`
	Workers  Workers  `toml:"workers"`
	Logging  Logging  `toml:"logging"`
	Metrics  Metrics  `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/barfinder/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("barfinder.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the parent directories of every output the run writes.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, filepath.Dir(c.Paths.MatchesOutputPath), filepath.Dir(c.Paths.FrontendOutputPath)}
	if c.Store.Driver == DriverSQLite {
		dirs = append(dirs, filepath.Dir(c.Paths.DatabasePath))
	}
	if strings.TrimSpace(c.Metrics.TextfilePath) != "" {
		dirs = append(dirs, filepath.Dir(c.Metrics.TextfilePath))
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WorkerCount returns the configured pool size, falling back to the CPU count.
func (c *Config) WorkerCount() int {
	if c.Workers.Count > 0 {
		return c.Workers.Count
	}
	return max(runtime.NumCPU(), 1)
}

// LockPath returns the file lock guarding concurrent match runs.
func (c *Config) LockPath() string {
	if c.Store.Driver == DriverSQLite {
		return c.Paths.DatabasePath + ".lock"
	}
	return filepath.Join(c.Paths.LogDir, "barfinder.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
