package recorder

import (
	"os"
	"time"

	"github.com/ablab/experimentutils"
)

// Config defines the config for the observation recorder.
type Config struct {
	Logger experimentutils.Logger

	// FlushInterval and FlushLimit bound how often and how many records
	// a flush publishes.
	FlushInterval time.Duration
	FlushLimit    int

	// UseMemoryFallback keeps records in memory when the spool cannot
	// be written, trading durability for availability.
	UseMemoryFallback bool

	// SpoolDir is where the on-disk spools live.
	SpoolDir string

	// PublishAttempts is how many times a failing batch insert is tried
	// before it falls back to the spool.
	PublishAttempts uint

	ShowSuccessfulInfo bool
}

// ConfigDefault is the default config
var ConfigDefault = Config{
	UseMemoryFallback:  true,
	SpoolDir:           os.TempDir(),
	PublishAttempts:    3,
	ShowSuccessfulInfo: false,
}

// Helper function to set default values
func configDefault(config ...Config) Config {
	// Return default config if nothing provided
	if len(config) < 1 {
		return ConfigDefault
	}

	// Override default config
	cfg := config[0]

	if cfg.SpoolDir == "" {
		cfg.SpoolDir, _ = os.MkdirTemp("", "expstat")
	}

	if cfg.FlushLimit == 0 {
		cfg.FlushLimit = 1
	}

	if cfg.FlushInterval < 100*time.Millisecond {
		cfg.FlushInterval = 100 * time.Millisecond
	}

	if cfg.PublishAttempts == 0 {
		cfg.PublishAttempts = ConfigDefault.PublishAttempts
	}

	return cfg
}
