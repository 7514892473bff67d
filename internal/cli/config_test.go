package cli

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/riskform/internal/model"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetEnvPrefix("RISKFORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	require.NoError(t, registerDefaults(v, model.DefaultConfig()))
	return v
}

func TestDecodeConfigDefaults(t *testing.T) {
	cfg, err := decodeConfig(newTestViper(t))
	require.NoError(t, err)

	def := model.DefaultConfig()
	assert.Equal(t, def.Backend, cfg.Backend)
	assert.Equal(t, def.Storage, cfg.Storage)
	assert.Equal(t, def.Form, cfg.Form)
	assert.Equal(t, def.Scales, cfg.Scales)
	assert.Equal(t, def.Raters.Keys, cfg.Raters.Keys)
	assert.Equal(t, 30*24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 4, cfg.LLM.Workers)
	assert.Equal(t, 1.0, cfg.Google.ServiceRates["forms"])
	assert.Equal(t, "Agent A", cfg.Raters.DisplayName("Semantic_state"))
	assert.Equal(t, "Agent N", cfg.Raters.DisplayName("VLM"))
}

func TestDecodeConfigEnv(t *testing.T) {
	t.Setenv("RISKFORM_BACKEND", "local")
	t.Setenv("RISKFORM_STORAGE_FOLDER_ID", "./dataset")
	t.Setenv("RISKFORM_RATERS_KEYS", "VLM,Semantic_state")
	t.Setenv("RISKFORM_LLM_API_KEY", "test-key")

	cfg, err := decodeConfig(newTestViper(t))
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Backend)
	assert.Equal(t, "./dataset", cfg.Storage.FolderID)
	assert.Equal(t, []string{"VLM", "Semantic_state"}, cfg.Raters.Keys, "a shorter list replaces the default")
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
}

func TestDecodeConfigUnknownBackend(t *testing.T) {
	v := newTestViper(t)
	v.Set("backend", "dropbox")

	_, err := decodeConfig(v)
	assert.ErrorContains(t, err, "dropbox")
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "riskform", "config.yaml")
	require.NoError(t, writeDefaultConfig(path))

	v := newTestViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := decodeConfig(v)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig().Form.Title, cfg.Form.Title)
	assert.Equal(t, 30*24*time.Hour, cfg.Cache.TTL)
	assert.Len(t, cfg.Raters.Keys, 14)

	assert.ErrorContains(t, writeDefaultConfig(path), "already exists")
}
