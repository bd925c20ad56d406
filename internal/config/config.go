// Package config handles configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the compositor configuration.
type Config struct {
	Device  DeviceConfig  `mapstructure:"device"`
	Render  RenderConfig  `mapstructure:"render"`
	Cursor  CursorConfig  `mapstructure:"cursor"`
	Input   InputConfig   `mapstructure:"input"`
	Wayland WaylandConfig `mapstructure:"wayland"`
	IPC     IPCConfig     `mapstructure:"ipc"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type DeviceConfig struct {
	Path string `mapstructure:"path"`
}

// RenderConfig selects how monitors composite. Backend is either
// "gles" or "software". A gles backend that cannot be brought up falls
// back to software.
type RenderConfig struct {
	Backend string `mapstructure:"backend"`
}

type CursorConfig struct {
	Theme string `mapstructure:"theme"`
	Size  int    `mapstructure:"size"`
	Image string `mapstructure:"image"` // PNG, overrides the theme
}

type InputConfig struct {
	Pointer string  `mapstructure:"pointer"` // evdev node, empty to autodetect
	Grab    bool    `mapstructure:"grab"`
	Speed   float64 `mapstructure:"speed"`
}

type WaylandConfig struct {
	Socket string `mapstructure:"socket"` // empty picks the first free wayland-N
}

type IPCConfig struct {
	Socket string `mapstructure:"socket"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"` // overrides LOG_LEVEL when set
}

var (
	// DefaultConfig provides sensible defaults.
	DefaultConfig = Config{
		Device: DeviceConfig{
			Path: "/dev/dri/card0",
		},
		Render: RenderConfig{
			Backend: "gles",
		},
		Cursor: CursorConfig{
			Theme: "default",
			Size:  24,
		},
		Input: InputConfig{
			Grab:  true,
			Speed: 1,
		},
		IPC: IPCConfig{
			Socket: filepath.Join(runtimeDir(), "kmscomp.sock"),
		},
	}

	cfg *Config

	configPathOverride string
)

func runtimeDir() string {
	if dir, ok := os.LookupEnv("XDG_RUNTIME_DIR"); ok {
		return dir
	}
	return fmt.Sprintf("/run/user/%v", os.Getuid())
}

// SetConfigPath overrides the search for a config file.
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init reads the configuration file, if any, on top of the defaults.
func Init() error {
	return load(viper.GetViper())
}

func load(v *viper.Viper) error {
	v.SetConfigName("kmscomp")
	v.SetConfigType("toml")

	if configPathOverride != "" {
		v.SetConfigFile(configPathOverride)
	} else {
		if dir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
			v.AddConfigPath(filepath.Join(dir, "kmscomp"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "kmscomp"))
		}
		v.AddConfigPath("/etc/kmscomp")
		v.AddConfigPath(".")
	}

	v.SetDefault("device.path", DefaultConfig.Device.Path)
	v.SetDefault("render.backend", DefaultConfig.Render.Backend)
	v.SetDefault("cursor.theme", DefaultConfig.Cursor.Theme)
	v.SetDefault("cursor.size", DefaultConfig.Cursor.Size)
	v.SetDefault("cursor.image", DefaultConfig.Cursor.Image)
	v.SetDefault("input.pointer", DefaultConfig.Input.Pointer)
	v.SetDefault("input.grab", DefaultConfig.Input.Grab)
	v.SetDefault("input.speed", DefaultConfig.Input.Speed)
	v.SetDefault("wayland.socket", DefaultConfig.Wayland.Socket)
	v.SetDefault("ipc.socket", DefaultConfig.IPC.Socket)
	v.SetDefault("logging.level", DefaultConfig.Logging.Level)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}

	cfg = c
	return nil
}

// Validate checks values that the rest of the program cannot recover
// from.
func (c *Config) Validate() error {
	switch c.Render.Backend {
	case "gles", "software":
	default:
		return fmt.Errorf("render.backend: unknown backend %q", c.Render.Backend)
	}
	if c.Cursor.Size <= 0 {
		return fmt.Errorf("cursor.size: must be positive, got %v", c.Cursor.Size)
	}
	if c.Input.Speed <= 0 {
		return fmt.Errorf("input.speed: must be positive, got %v", c.Input.Speed)
	}
	return nil
}

// Get returns the current configuration.
func Get() *Config {
	if cfg == nil {
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing).
func Set(c *Config) {
	cfg = c
}

// GetConfigPath returns the path of the file that was loaded, or the
// override if one was set.
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}
	return viper.ConfigFileUsed()
}
