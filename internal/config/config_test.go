package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)

		assert.Equal(t, "sqlite", cfg.Database.Type)
		assert.Equal(t, "data/properties.db", cfg.Database.SQLite.Path)
		assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
		assert.Equal(t, []string{"S", "A"}, cfg.Notify.Grades)
		require.NoError(t, cfg.Scoring.Validate())
	})

	t.Run("file values merge over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := `
database:
  type: mysql
  mysql:
    host: db.internal
    port: 3306
    user: landscout
    database: landscout
notify:
  grades: ["S"]
  top_n: 10
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "mysql", cfg.Database.Type)
		assert.Equal(t, "db.internal", cfg.Database.MySQL.Host)
		assert.Equal(t, []string{"S"}, cfg.Notify.Grades)
		assert.Equal(t, 10, cfg.Notify.TopN)
		// Untouched sections keep their defaults.
		assert.Equal(t, 8084, cfg.API.Port)
		assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	})

	t.Run("scoring overrides are validated", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := `
scoring:
  price_thresholds:
    - cutoff: 20
      score: 100
    - cutoff: 10
      score: 80
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))

		_, err := LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("malformed yaml is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("database: [broken"), 0644))

		_, err := LoadConfig(path)
		require.Error(t, err)
	})
}

func TestNotifyConfig_NotifiesGrade(t *testing.T) {
	notify := NotifyConfig{Grades: []string{"S", "A"}}

	assert.True(t, notify.NotifiesGrade("S"))
	assert.True(t, notify.NotifiesGrade("A"))
	assert.False(t, notify.NotifiesGrade("B"))
	assert.False(t, notify.NotifiesGrade(""))
}
