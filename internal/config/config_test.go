package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults when file is missing", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		require.NoError(t, err)
		assert.Equal(t, defaults(), cfg)
	})

	t.Run("should override defaults from yaml and env", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		content := `
server:
  addr: ":9090"
  readtimeout: 5s
study:
  shifts: ["Sabah", "Akşam"]
export:
  outputdir: /var/lib/etut
  layout:
    columnwidths: [30, 20]
storage:
  type: postgres
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		t.Setenv("ETUT_DB_HOST", "db.internal")
		t.Setenv("ETUT_SHEETS_ENABLED", "true")
		t.Setenv("ETUT_EXPORT_LAYOUT_SECTIONORDER", "metrics, header")

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, []string{"Sabah", "Akşam"}, cfg.Study.Shifts)
		assert.Equal(t, "/var/lib/etut", cfg.Export.OutputDir)
		assert.Equal(t, []float64{30, 20}, cfg.Export.Layout.ColumnWidths)
		assert.Equal(t, []string{"metrics", "header"}, cfg.Export.Layout.SectionOrder)
		assert.Equal(t, PostgresStorage, cfg.Storage.Type)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.True(t, cfg.Sheets.Enabled)
	})

	t.Run("should split env lists but keep commas in plain values", func(t *testing.T) {
		// given
		t.Setenv("ETUT_DB_PASS", "a,b")
		t.Setenv("ETUT_EXPORT_LAYOUT_TITLE", "Etüt, Hat 2")
		t.Setenv("ETUT_STUDY_SHIFTS", "Sabah, Akşam")

		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, "a,b", cfg.Database.Pass)
		assert.Equal(t, "Etüt, Hat 2", cfg.Export.Layout.Title)
		assert.Equal(t, []string{"Sabah", "Akşam"}, cfg.Study.Shifts)
	})

	t.Run("should fail on malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "application.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

		_, err := Load(path)

		assert.Error(t, err)
	})
}
