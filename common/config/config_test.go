package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/cdm-normalizer/common/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, []string{"message"}, cfg.Normalizer.KeepEmptyFields)
	assert.Equal(t, "undefined", cfg.Normalizer.UndefinedName)
	assert.True(t, cfg.Normalizer.RenameTime)
	assert.False(t, cfg.Normalizer.RenameTimeIfMissing)
	assert.Equal(t, "time", cfg.Normalizer.SrcTimeName)
	assert.Equal(t, "@timestamp", cfg.Normalizer.DestTimeName)
	assert.Equal(t, "collector", cfg.Normalizer.PipelineType)
	assert.Contains(t, cfg.Normalizer.DefaultKeepFields, "pipeline_metadata")

	require.Len(t, cfg.Normalizer.Formatters, 4)
	assert.Equal(t, "sys_journal", cfg.Normalizer.Formatters[0].Type)
	assert.Contains(t, cfg.Normalizer.Formatters[0].RemoveKeys, "_HOSTNAME")
	assert.Equal(t, "k8s_json_file", cfg.Normalizer.Formatters[3].Type)

	require.Len(t, cfg.Normalizer.IndexNames, 2)
	assert.Equal(t, "viaq_index_name", cfg.Normalizer.IndexNameField)
	assert.Equal(t, "**", cfg.Normalizer.IndexNames[1].Tag)

	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "logs.records.raw", cfg.NATS.Subject)
	assert.Equal(t, "normalizer-workers", cfg.NATS.Queue)
	assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
normalizer:
  use_undefined: true
  extra_keep_fields: [app]
  rename_time_if_missing: true
  formatters:
    - type: k8s_json_file
      tag: "kubernetes.**"
      remove_keys: [log, stream]
  index_name_field: ""
  index_names: []
debug:
  enabled: true
  ignore_tag: fluent.info
server:
  port: 9000
`), 0o600))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.True(t, cfg.Normalizer.UseUndefined)
	assert.Equal(t, []string{"app"}, cfg.Normalizer.ExtraKeepFields)
	assert.True(t, cfg.Normalizer.RenameTimeIfMissing)
	require.Len(t, cfg.Normalizer.Formatters, 1)
	assert.Equal(t, config.FormatterConfig{Type: "k8s_json_file", Tag: "kubernetes.**", RemoveKeys: []string{"log", "stream"}}, cfg.Normalizer.Formatters[0])
	assert.Empty(t, cfg.Normalizer.IndexNameField)
	assert.Empty(t, cfg.Normalizer.IndexNames)
	assert.True(t, cfg.Debug.Enabled)
	assert.Equal(t, "fluent.info", cfg.Debug.IgnoreTag)
	assert.Equal(t, 9000, cfg.Server.Port)
	// Untouched sections keep their defaults
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.Server.Port)
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("normalizer: [unterminated"), 0o600))

	_, err := config.LoadFile(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(config.EnvConfigDir, t.TempDir())
	t.Setenv("NATS_URL", "nats://broker:4222")
	t.Setenv("LOGGING_LEVEL", "debug")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestRender_OmitsPassword(t *testing.T) {
	cfg := config.Default()
	cfg.OpenSearch.Password = "s3cret"

	out, err := config.Render(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "s3cret")
	assert.Contains(t, string(out), "index_name_field: viaq_index_name")
}
