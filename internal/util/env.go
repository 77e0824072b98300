package util

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// GetEnv returns the value of the env variable key or defaultVal if it is unset.
func GetEnv(key string, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}

	return defaultVal
}

// GetEnvAsInt returns the env variable key parsed as int, falling back to defaultVal.
func GetEnvAsInt(key string, defaultVal int) int {
	strVal := GetEnv(key, "")
	if strVal == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(strVal)
	if err != nil {
		log.Warn().Str("key", key).Str("value", strVal).Err(err).Msg("Failed to parse env variable as int, using default")
		return defaultVal
	}

	return val
}

// GetEnvAsBool returns the env variable key parsed as bool, falling back to defaultVal.
func GetEnvAsBool(key string, defaultVal bool) bool {
	strVal := GetEnv(key, "")
	if strVal == "" {
		return defaultVal
	}

	val, err := strconv.ParseBool(strVal)
	if err != nil {
		log.Warn().Str("key", key).Str("value", strVal).Err(err).Msg("Failed to parse env variable as bool, using default")
		return defaultVal
	}

	return val
}

// GetEnvAsDuration returns the env variable key parsed by time.ParseDuration, falling back to defaultVal.
func GetEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	strVal := GetEnv(key, "")
	if strVal == "" {
		return defaultVal
	}

	val, err := time.ParseDuration(strVal)
	if err != nil {
		log.Warn().Str("key", key).Str("value", strVal).Err(err).Msg("Failed to parse env variable as duration, using default")
		return defaultVal
	}

	return val
}

// GetEnvAsStringArr splits the env variable key by separator (default ",").
// Empty elements are dropped.
func GetEnvAsStringArr(key string, defaultVal []string, separator ...string) []string {
	strVal := GetEnv(key, "")
	if strVal == "" {
		return defaultVal
	}

	sep := ","
	if len(separator) > 0 {
		sep = separator[0]
	}

	parts := strings.Split(strVal, sep)
	res := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			res = append(res, part)
		}
	}

	return res
}
