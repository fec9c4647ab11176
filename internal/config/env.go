package config

import (
	"os"
	"strconv"
	"time"
)

// String returns the value of key or def when it is unset.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int parses key as a positive integer, falling back to def.
func Int(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// Duration parses key with time.ParseDuration, falling back to def.
func Duration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func Bool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func RedisAddr() string {
	return String(ENV_KEY_REDIS_HOST, "localhost") + ":" + String(ENV_KEY_REDIS_PORT, "6379")
}
