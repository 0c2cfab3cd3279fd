// Package config provides the simulation file, environment lookups and shared tuning constants.
package config

import (
	"os"
	"strconv"
)

// GetEnv returns the value of the environment variable named by the key,
// or fallback if the variable is not set.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvInt is GetEnv for integers. Unparsable values yield fallback.
func GetEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// FromEnv loads the simulation file named by SEASPOT_CONFIG, or the defaults when it is unset.
// SEASPOT_SEED overrides the seed of either.
func FromEnv() (*Config, error) {
	conf := Default()
	if path := GetEnv("SEASPOT_CONFIG", ""); path != "" {
		var err error
		if conf, err = Load(path); err != nil {
			return nil, err
		}
	}
	conf.Sea.Seed = int64(GetEnvInt("SEASPOT_SEED", int(conf.Sea.Seed)))
	return conf, nil
}
