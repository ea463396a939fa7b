package env

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"
)

// OrDefault returns the environment variable key parsed as T, or
// defaultValue when it is unset or does not parse.
func OrDefault[T any](key string, defaultValue T) T {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case string:
		return any(value).(T)
	case int:
		if intValue, err := strconv.Atoi(value); err == nil {
			return any(intValue).(T)
		}
	case int64:
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return any(intValue).(T)
		}
	case uint:
		if uintValue, err := strconv.ParseUint(value, 10, 0); err == nil {
			return any(uint(uintValue)).(T)
		}
	case uint8:
		if uintValue, err := strconv.ParseUint(value, 10, 8); err == nil {
			return any(uint8(uintValue)).(T)
		}
	case uint64:
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return any(uintValue).(T)
		}
	case float64:
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return any(floatValue).(T)
		}
	case bool:
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return any(boolValue).(T)
		}
	case time.Duration:
		if durationValue, err := time.ParseDuration(value); err == nil {
			return any(durationValue).(T)
		}
	case []string:
		var values []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		return any(values).(T)
	}

	return defaultValue
}

// Load reads KEY=VALUE files into the environment without overriding
// variables that are already set. Missing files are skipped.
func Load(filenames ...string) error {
	for _, filename := range filenames {
		if err := godotenv.Load(filename); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return xerrors.Errorf("failed to load %s: %w", filename, err)
		}
	}
	return nil
}
