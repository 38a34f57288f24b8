package config

import (
	"os"
	"strings"
)

// GetEnvAsSlice retrieves an environment variable as a slice or returns a default value if not found.
// Empty entries and surrounding spaces are dropped.
func GetEnvAsSlice(key, sep string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
