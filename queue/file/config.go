package file

import "os"

// Config defines the config for on-disk spools.
type Config struct {
	// Dir is the directory the spool files live in.
	Dir string
}

// ConfigDefault is the default config
var ConfigDefault = Config{
	Dir: os.TempDir(),
}

// Helper function to set default values
func configDefault(config ...Config) Config {
	// Return default config if nothing provided
	if len(config) < 1 {
		return ConfigDefault
	}

	// Override default config
	cfg := config[0]

	if cfg.Dir == "" {
		cfg.Dir = ConfigDefault.Dir
	}

	return cfg
}
