package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStore()
	c.normalizeLogging()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
		def   string
	}{
		{"paths.database_path", &c.Paths.DatabasePath, defaultDatabasePath},
		{"paths.observations_path", &c.Paths.ObservationsPath, defaultObservationsPath},
		{"paths.matches_output_path", &c.Paths.MatchesOutputPath, defaultMatchesOutputPath},
		{"paths.frontend_output_path", &c.Paths.FrontendOutputPath, defaultFrontendOutputPath},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.def
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeStore() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case "":
		c.Store.Driver = defaultStoreDriver
	case "sqlite3":
		c.Store.Driver = DriverSQLite
	case "postgresql", "pg":
		c.Store.Driver = DriverPostgres
	}
	c.Store.DSN = strings.TrimSpace(c.Store.DSN)
	if value, ok := os.LookupEnv("BARFINDER_DATABASE_URL"); ok && strings.TrimSpace(value) != "" {
		c.Store.DSN = strings.TrimSpace(value)
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeMetrics() error {
	path := strings.TrimSpace(c.Metrics.TextfilePath)
	if path == "" {
		c.Metrics.TextfilePath = ""
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	c.Metrics.TextfilePath = expanded
	return nil
}
