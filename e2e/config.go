package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_PULSE_INTERVAL tunes the sleep-room pulse cadence for the suite
	PulseInterval time.Duration `envconfig:"E2E_PULSE_INTERVAL" default:"100ms"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_WAIT is the per-frame wait budget
	Wait time.Duration `envconfig:"E2E_WAIT" default:"2s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
