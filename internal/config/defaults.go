package config

const (
	defaultDatabasePath        = "data/game_battles.db"
	defaultObservationsPath    = "data/screenshot_data.json"
	defaultMatchesOutputPath   = "data/matches_output.json"
	defaultFrontendOutputPath  = "frontend_files/frontend_data.json"
	defaultLogDir              = "~/.local/share/barfinder/logs"
	defaultStoreDriver         = DriverSQLite
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultMinMatchThreshold   = 30.0
	defaultMinObservationNames = 6
	defaultMaxDateRangeMonths  = 6
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DatabasePath:       defaultDatabasePath,
			ObservationsPath:   defaultObservationsPath,
			MatchesOutputPath:  defaultMatchesOutputPath,
			FrontendOutputPath: defaultFrontendOutputPath,
			LogDir:             defaultLogDir,
		},
		Store: Store{
			Driver: defaultStoreDriver,
		},
		Matching: Matching{
			MinMatchThreshold:   defaultMinMatchThreshold,
			MinObservationNames: defaultMinObservationNames,
			MaxDateRangeMonths:  defaultMaxDateRangeMonths,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
