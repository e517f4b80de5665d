package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Paths.DatabasePath == "" {
			return errors.New("paths.database_path must be set when store.driver is sqlite")
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required when store.driver is postgres. Set BARFINDER_DATABASE_URL or edit the config file")
		}
	default:
		return fmt.Errorf("store.driver: unsupported value %q (want sqlite or postgres)", c.Store.Driver)
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.MinMatchThreshold <= 0 || c.Matching.MinMatchThreshold > 100 {
		return errors.New("matching.min_match_threshold must be greater than 0 and at most 100")
	}
	if c.Matching.MinObservationNames <= 0 {
		return errors.New("matching.min_observation_names must be positive")
	}
	if c.Matching.MaxDateRangeMonths <= 0 {
		return errors.New("matching.max_date_range_months must be positive")
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.Count < 0 {
		return errors.New("workers.count must not be negative (0 uses the CPU count)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
