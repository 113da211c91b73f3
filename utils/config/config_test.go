package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestConfig struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

func TestLoadConfig_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testconfig.json")
	content, err := json.Marshal(TestConfig{Name: "test", Value: 123})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	var config TestConfig
	require.NoError(t, LoadConfig(path, &config))
	assert.Equal(t, TestConfig{Name: "test", Value: 123}, config)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testconfig.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: nucleo\nvalue: 50\n"), 0o644))

	var config TestConfig
	require.NoError(t, LoadConfig(path, &config))
	assert.Equal(t, TestConfig{Name: "nucleo", Value: 50}, config)
}

func TestLoadConfig_ThrowError(t *testing.T) {
	err := LoadConfig("nonexistent.json", &TestConfig{})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "roto.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: [sin cerrar"), 0o644))
	assert.Error(t, LoadConfig(path, &TestConfig{}))
}

func TestInitConfig_Panics(t *testing.T) {
	assert.Panics(t, func() {
		InitConfig("nonexistent.yaml", &TestConfig{})
	})
}
