package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime tuning of a conversion: chunk sizes, queue depths
// and logging. It comes from the environment; style lives in Settings.
type Config struct {
	ChunkSize         int
	FlushThreshold    int
	WriteQueue        int
	ProgressInterval  time.Duration
	NormalizeWorkers  int
	ParallelThreshold int
	LogFormat         string
	LogLevel          string
}

// New loads configuration from environment variables, reading a .env file
// first when one exists.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, falling back to defaults for unset or
// malformed values.
func FromEnv(getenv func(string) string) *Config {
	return &Config{
		ChunkSize:         intVar(getenv, "CHATSUBS_CHUNK_SIZE", 2000),
		FlushThreshold:    intVar(getenv, "CHATSUBS_FLUSH_THRESHOLD", 200),
		WriteQueue:        intVar(getenv, "CHATSUBS_WRITE_QUEUE", 4),
		ProgressInterval:  durationVar(getenv, "CHATSUBS_PROGRESS_INTERVAL", 250*time.Millisecond),
		NormalizeWorkers:  intVar(getenv, "CHATSUBS_NORMALIZE_WORKERS", 4),
		ParallelThreshold: intVar(getenv, "CHATSUBS_PARALLEL_THRESHOLD", 512),
		LogFormat:         getenv("LOG_FORMAT"),
		LogLevel:          getenv("LOG_LEVEL"),
	}
}

func intVar(getenv func(string) string, key string, def int) int {
	v := getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("Ignoring invalid environment value", "key", key, "value", v)
		return def
	}
	return n
}

func durationVar(getenv func(string) string, key string, def time.Duration) time.Duration {
	v := getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		slog.Warn("Ignoring invalid environment value", "key", key, "value", v)
		return def
	}
	return d
}
