// Package envconfig provides small env-var parsing helpers shared by the
// simulator and ambient-stack configuration, grounded on
// reddit-cluster-map/backend/internal/utils.
package envconfig

import (
	"os"
	"strconv"
	"strings"
)

// Int retrieves an environment variable as an int, or defaultVal if unset
// or unparseable.
func Int(name string, defaultVal int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

// Float64 retrieves an environment variable as a float64, or defaultVal if
// unset or unparseable.
func Float64(name string, defaultVal float64) float64 {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// Bool retrieves an environment variable as a bool, or defaultVal if unset
// or unrecognized.
func Bool(name string, defaultVal bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return defaultVal
	}
}

// String retrieves an environment variable, or defaultVal if unset.
func String(name, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return defaultVal
}
