// Package ccconfig loads the demo's runtime configuration, grounded on
// darleet-GraphDB/src/app/env.go: godotenv populates the process
// environment from an optional .env file, then envconfig decodes it into
// a typed struct — the same pairing the teacher uses instead of viper.
package ccconfig

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Strategy selects which conflict-resolution strategy backs a store.
type Strategy string

const (
	StrategySS2PL Strategy = "ss2pl"
	StrategySGT   Strategy = "sgt"
)

// Environment mirrors the teacher's dev/prod switch, used only to choose
// the zap logger construction.
type Environment string

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

// Config is the demo's full runtime configuration.
type Config struct {
	Environment Environment `split_words:"true"`
	Strategy    Strategy    `split_words:"true" default:"ss2pl"`

	Columns    int `split_words:"true" default:"4"`
	CellsPerColumn int `split_words:"true" default:"4"`
	Workers    int `split_words:"true" default:"8"`
}

// Load reads a .env file (if present) and decodes CC_-prefixed
// environment variables into a Config. Missing .env is not an error —
// the environment may already carry the variables, same as the teacher's
// mustLoadEnv.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("ccconfig: no .env file found, using process environment")
	}

	var cfg Config
	if err := envconfig.Process("CC", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "ccconfig: process env")
	}

	if cfg.Environment == "" {
		cfg.Environment = EnvDev
	}
	if cfg.Environment != EnvDev && cfg.Environment != EnvProd {
		return Config{}, errors.Errorf("ccconfig: invalid environment %q", cfg.Environment)
	}
	if cfg.Strategy != StrategySS2PL && cfg.Strategy != StrategySGT {
		return Config{}, errors.Errorf("ccconfig: invalid strategy %q", cfg.Strategy)
	}

	return cfg, nil
}
