package testsupport

import (
	"path/filepath"
	"testing"

	"barfinder/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose every path lives under a per-test temp
// directory. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DatabasePath = filepath.Join(base, "data", "game_battles.db")
	cfgVal.Paths.ObservationsPath = filepath.Join(base, "data", "screenshot_data.json")
	cfgVal.Paths.MatchesOutputPath = filepath.Join(base, "data", "matches_output.json")
	cfgVal.Paths.FrontendOutputPath = filepath.Join(base, "frontend_files", "frontend_data.json")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Store.Driver = config.DriverSQLite
	cfgVal.Workers.Count = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWorkers sets the worker pool size.
func WithWorkers(count int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workers.Count = count
	}
}

// WithMetricsTextfile enables the metrics textfile under the temp directory.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.TextfilePath = filepath.Join(b.baseDir, "metrics", "barfinder.prom")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
