package config

import (
	"github.com/dmitrijs2005/photoform/internal/flagx"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable, e.g. PHOTOFORM_HTTP_ADDR.
const EnvPrefix = "PHOTOFORM"

// parseEnv loads the dotenv file named by -env (or ./.env when present) and
// overlays PHOTOFORM_* variables onto config. Variables already set in the
// process environment win over the dotenv file. Unset variables leave the
// field untouched.
func parseEnv(config *Config) {
	if path := flagx.ConfigFileFlags().Env; path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else {
		_ = godotenv.Load()
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		panic(err)
	}
}
