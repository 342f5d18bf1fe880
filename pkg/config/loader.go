// Package config loads typed configuration structs from environment
// variables via `env` struct tags.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg from the process environment. cfg must be a pointer to a
// struct tagged with `env` / `envDefault`.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
