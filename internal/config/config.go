// Package config loads server settings from the environment, with an
// optional .env file for development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// DataDir is where the file archiver writes cap.json and draftStats/.
	DataDir string
	// SetsFile is the JSON set catalog; empty means no catalog-backed
	// sets (cube games still work).
	SetsFile string
	// ArchiveDSN switches archival to postgres when set.
	ArchiveDSN string
}

func Load() *Config {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		Addr:       getenv("DR4FT_ADDR", ":8080"),
		DataDir:    getenv("DR4FT_DATA_DIR", "./data"),
		SetsFile:   os.Getenv("DR4FT_SETS_FILE"),
		ArchiveDSN: os.Getenv("DR4FT_ARCHIVE_DSN"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
