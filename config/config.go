// Package config provides datacore configuration loaded with Viper.
//
// Configuration merges, in precedence order: defaults, a datacore.toml
// (or config.toml) discovered by walking up from the working directory,
// and DATACORE_* environment variables.
package config

// Config is the root datacore configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Storage StorageConfig `mapstructure:"storage"`
	Records RecordsConfig `mapstructure:"records"`
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	// JSON enables JSON structured output instead of console output
	JSON bool `mapstructure:"json"`
}

// StorageConfig controls the SQLite persistence layer.
type StorageConfig struct {
	// Path is the SQLite database file
	Path string `mapstructure:"path"`
}

// RecordsConfig controls record collection handling.
type RecordsConfig struct {
	// DefaultFilename is the filename used when reading or writing a
	// record collection without an explicit path
	DefaultFilename string `mapstructure:"default_filename"`
}
