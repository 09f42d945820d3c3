// Package config loads smoothied's runtime configuration from the
// environment, falling back to an optional .env file for local
// development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is everything the serve command needs to start listening.
type Config struct {
	Addr string

	MacroFile string
	DataDir   string

	IgnoreErrors bool

	LogLevel string
}

// Load reads configuration from the environment, after loading a .env
// file if one is present in the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:         getEnv("SMOOTHIED_ADDR", ":9091"),
		MacroFile:    getEnv("SMOOTHIED_MACRO_FILE", "./macros.json"),
		DataDir:      getEnv("SMOOTHIED_DATA_DIR", "./data"),
		IgnoreErrors: getEnvAsBool("SMOOTHIED_IGNORE_ERRORS", false),
		LogLevel:     getEnv("SMOOTHIED_LOG_LEVEL", "info"),
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
