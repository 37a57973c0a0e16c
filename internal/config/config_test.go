package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DR4FT_ADDR", "")
	t.Setenv("DR4FT_DATA_DIR", "")
	t.Setenv("DR4FT_SETS_FILE", "")
	t.Setenv("DR4FT_ARCHIVE_DSN", "")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Empty(t, cfg.SetsFile)
	assert.Empty(t, cfg.ArchiveDSN)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DR4FT_ADDR", ":9000")
	t.Setenv("DR4FT_DATA_DIR", "/var/lib/dr4ft")
	t.Setenv("DR4FT_SETS_FILE", "/etc/dr4ft/sets.json")
	t.Setenv("DR4FT_ARCHIVE_DSN", "postgres://localhost/dr4ft")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "/var/lib/dr4ft", cfg.DataDir)
	assert.Equal(t, "/etc/dr4ft/sets.json", cfg.SetsFile)
	assert.Equal(t, "postgres://localhost/dr4ft", cfg.ArchiveDSN)
}
