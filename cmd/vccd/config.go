package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the vccd configuration file (~/.config/vccd/config.yaml).
// Flags always win over the file.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// OutDir is where compiled archives go when --output is not given.
	OutDir          string `yaml:"out_dir"`
	AllowCollisions *bool  `yaml:"allow_collisions"`

	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "vccd", "config.yaml")
}

// LoadConfig reads the config file. A missing default file yields a zero
// Config; an explicit path that cannot be read or parsed is an error.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
	}
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func applyLoggingConfig(c *cli.Command, cfg Config, level, format *string) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		*level = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		*format = cfg.LogFormat
	}
}

// applyCompileConfig fills compile settings the user did not pass as flags.
func applyCompileConfig(c *cli.Command, cfg Config, allowCollisions *bool) {
	if cfg.AllowCollisions != nil && !c.IsSet("allow-collisions") {
		*allowCollisions = *cfg.AllowCollisions
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string, allowCollisions *bool) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	applyCompileConfig(c, cfg, allowCollisions)
}
