package preflight

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"barfinder/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for a match run. Output directories
// are expected to exist already (config.EnsureDirectories creates them).
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckFileReadable("Observation document", cfg.Paths.ObservationsPath),
		CheckDirectoryAccess("Matches output directory", filepath.Dir(cfg.Paths.MatchesOutputPath)),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Store.Driver == config.DriverSQLite {
		results = append(results, CheckDirectoryAccess("Database directory", filepath.Dir(cfg.Paths.DatabasePath)))
	}
	if strings.TrimSpace(cfg.Metrics.TextfilePath) != "" {
		results = append(results, CheckDirectoryAccess("Metrics directory", filepath.Dir(cfg.Metrics.TextfilePath)))
	}
	return results
}

// Err joins the failed results into one error, or returns nil.
func Err(results []Result) error {
	var errs []error
	for _, r := range results {
		if !r.Passed {
			errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Detail))
		}
	}
	return errors.Join(errs...)
}
