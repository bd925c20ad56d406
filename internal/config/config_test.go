package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kmscomp.toml")
	err := os.WriteFile(path, []byte(`
[device]
path = "/dev/dri/card1"

[render]
backend = "software"

[cursor]
size = 32
`), 0644)
	require.NoError(t, err)

	SetConfigPath(path)
	defer SetConfigPath("")
	defer Set(nil)

	require.NoError(t, load(viper.New()))
	c := Get()
	assert.Equal(t, "/dev/dri/card1", c.Device.Path)
	assert.Equal(t, "software", c.Render.Backend)
	assert.Equal(t, 32, c.Cursor.Size)
	assert.Equal(t, DefaultConfig.Cursor.Theme, c.Cursor.Theme)
	assert.Equal(t, DefaultConfig.Input.Speed, c.Input.Speed)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{name: "defaults", modify: func(*Config) {}, ok: true},
		{name: "bad backend", modify: func(c *Config) { c.Render.Backend = "vulkan" }},
		{name: "zero cursor", modify: func(c *Config) { c.Cursor.Size = 0 }},
		{name: "negative speed", modify: func(c *Config) { c.Input.Speed = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig
			tt.modify(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}

func TestGetDefaults(t *testing.T) {
	Set(nil)
	assert.Equal(t, &DefaultConfig, Get())
}
