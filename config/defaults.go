package config

import "github.com/spf13/viper"

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.json", false)

	// Storage defaults
	v.SetDefault("storage.path", "datacore.db")

	// Records defaults
	v.SetDefault("records.default_filename", "records.json")
}
