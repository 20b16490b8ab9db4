package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 8.0, cfg.Canvas.HandleRadius)
	assert.Equal(t, 30.0, cfg.Canvas.RotationHandleOffset)
	assert.Equal(t, 10.0, cfg.Canvas.SnapRadius)
	assert.Equal(t, 5.0, cfg.Canvas.MinBoxSize)
	assert.Equal(t, 10.0, cfg.Canvas.MinOBBSize)
	assert.Equal(t, 3, cfg.Canvas.MinPolygonPoints)
	assert.Equal(t, 10000, cfg.Contour.MaxPoints)
	assert.Equal(t, 2.0, cfg.Contour.Tolerance)
	assert.Equal(t, runtime.NumCPU(), cfg.Export.Workers)
	assert.Equal(t, 0.8, cfg.Export.TrainRatio)
	assert.True(t, cfg.Export.CopyImages)
	assert.Equal(t, "projects", cfg.Store.Dir)
	assert.Empty(t, cfg.Store.SQLitePath)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	doc := `{
  "logLevel": "debug",
  "contour": {"tolerance": 0.5},
  "export": {"trainRatio": 0.5, "copyImages": false},
  "store": {"sqlitePath": "/tmp/annotate.db"}
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "annotate.json"), []byte(doc), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 0.5, cfg.Contour.Tolerance)
	assert.Equal(t, 10000, cfg.Contour.MaxPoints)
	assert.Equal(t, 0.5, cfg.Export.TrainRatio)
	assert.False(t, cfg.Export.CopyImages)
	assert.Equal(t, "/tmp/annotate.db", cfg.Store.SQLitePath)

	opts := cfg.ExportOptions()
	assert.Equal(t, 0.5, opts.Contour.Tolerance)
	assert.False(t, opts.CopyImages)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	doc := "canvas:\n  snapRadius: 14\n  minBoxSize: 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "annotate.yaml"), []byte(doc), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	opts := cfg.ToolOptions()
	assert.Equal(t, 14.0, opts.SnapRadius)
	assert.Equal(t, 2.0, opts.MinBoxSize)
	assert.Equal(t, 8.0, opts.Hit.HandleRadius)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("ANNOTATE_LOG_LEVEL", "warn")
	t.Setenv("ANNOTATE_CONTOUR_MAXPOINTS", "500")
	t.Setenv("ANNOTATE_EXPORT_WORKERS", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 500, cfg.Contour.MaxPoints)
	assert.Equal(t, 3, cfg.Export.Workers)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "annotate.json"), []byte(`{"export": {"trainRatio": 2}}`), 0o644))
	_, err := Load(dir)
	assert.ErrorContains(t, err, "trainRatio")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "annotate.json"), []byte(`{not json`), 0o644))
	_, err = Load(dir)
	assert.ErrorContains(t, err, "error reading config file")
}
