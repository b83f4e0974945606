// Package config loads the optional runtime settings of the engine.
// None of them are required; the defaults produce plain CSV on stdout with
// warnings on stderr.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultLogLevel   = "warn"
	DefaultKafkaTopic = "client_state"

	// EnvFileVar names a dotenv file to load. Nothing is read from disk unless it is set.
	EnvFileVar = "PAYMENTS_ENGINE_ENV_FILE"
)

type Config struct {
	LogLevel     string
	KafkaBrokers []string // empty disables the event publisher
	KafkaTopic   string
	PostgresDSN  string // empty disables the report store
}

// Load reads envFile into the process environment, if one is given, and then
// builds a Config from the environment. Variables already set win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	return FromLookup(os.LookupEnv), nil
}

// FromLookup builds a Config from lookup, falling back to defaults.
func FromLookup(lookup func(string) (string, bool)) Config {
	cfg := Config{
		LogLevel:   DefaultLogLevel,
		KafkaTopic: DefaultKafkaTopic,
	}

	if v, ok := lookup("LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}

	if v, ok := lookup("KAFKA_BROKERS"); ok {
		for _, broker := range strings.Split(v, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}

	if v, ok := lookup("KAFKA_TOPIC"); ok && strings.TrimSpace(v) != "" {
		cfg.KafkaTopic = strings.TrimSpace(v)
	}

	if v, ok := lookup("POSTGRES_DSN"); ok {
		cfg.PostgresDSN = strings.TrimSpace(v)
	}

	return cfg
}
