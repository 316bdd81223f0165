package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment variable read by the commands.
const EnvPrefix = "DICEDENSITY_"

// ParseEnv loads configuration from environment variables. Field tags name
// variables without EnvPrefix, so `env:"MAX_ERROR"` reads
// DICEDENSITY_MAX_ERROR.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
