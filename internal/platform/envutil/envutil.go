package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

func GetEnv(key, defaultVal string, log *logger.Logger) string {
	if log != nil {
		log = log.With("env_var", key)
	}
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default")
		}
		return defaultVal
	}
	if log != nil {
		log.Debug("Environment variable found, using environment")
	}
	return strings.TrimSpace(val)
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	if log != nil {
		log = log.With("env_var", key)
	}
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	i, err := strconv.Atoi(strings.TrimSpace(valStr))
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as int, using default", "providedVal", valStr, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	return i
}

func GetEnvAsBool(key string, defaultVal bool, log *logger.Logger) bool {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	switch strings.ToLower(strings.TrimSpace(valStr)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	if log != nil {
		log.Debug("Environment variable could not be parsed as bool, using default", "env_var", key, "providedVal", valStr)
	}
	return defaultVal
}

// GetEnvAsDuration accepts Go duration strings ("5s") or a bare number of seconds.
func GetEnvAsDuration(key string, defaultVal time.Duration, log *logger.Logger) time.Duration {
	valStr := strings.TrimSpace(os.Getenv(key))
	if valStr == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(valStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	if log != nil {
		log.Debug("Environment variable could not be parsed as duration, using default", "env_var", key, "providedVal", valStr)
	}
	return defaultVal
}

// GetEnvAsList splits a comma separated value, dropping blanks.
func GetEnvAsList(key string, defaultVal []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultVal
	}
	out := make([]string, 0, 4)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
