// Package config loads runtime settings from the environment.
package config

import (
	"os"
	"strconv"
)

// Config holds everything the server needs at startup.
type Config struct {
	ListenAddr string
	MongoURI   string
	Database   string
	LogLevel   string
	LogPretty  bool
}

// FromEnv builds a Config from environment variables, falling back to
// defaults suitable for a local MongoDB.
func FromEnv() Config {
	return Config{
		ListenAddr: getenv("LISTEN_ADDR", ":8080"),
		MongoURI:   getenv("MONGO_URI", "mongodb://localhost:27017"),
		Database:   getenv("MONGO_DATABASE", "statement_pipeline"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogPretty:  getbool("LOG_PRETTY", false),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
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
