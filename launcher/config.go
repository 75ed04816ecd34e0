// Copyright 2021-2024 the xlaunch Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package launcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// A Config is the optional on-disk configuration. Flags win over
// config values; config values win over built-in defaults. Empty
// fields leave the defaults alone.
type Config struct {
	// Servers is the nested server candidate order handed to
	// xserver.Find.
	Servers     []string `yaml:"servers"`
	Display     string   `yaml:"display"`
	Geometry    string   `yaml:"geometry"`
	Initializer string   `yaml:"initializer"`
	Xinitrc     string   `yaml:"xinitrc"`
	ServerArgs  []string `yaml:"server_args"`
}

// DefaultConfigPath returns the per-user config location.
func DefaultConfigPath() string {
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "xlaunch", "config.yml")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "xlaunch", "config.yml")
}

// LoadConfig reads the config at path. A missing file is not an
// error; running without a config is the normal case.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	V("launcher: loaded config %s", path)
	return &c, nil
}

// Apply applies cfg's non-empty fields to c.
func (cfg *Config) Apply(c *Cmd) error {
	var opts []Set
	if cfg.Display != "" {
		opts = append(opts, WithDisplay(cfg.Display))
	}
	if cfg.Geometry != "" {
		opts = append(opts, WithGeometry(cfg.Geometry))
	}
	if cfg.Initializer != "" {
		opts = append(opts, WithInitializer(cfg.Initializer))
	}
	if cfg.Xinitrc != "" {
		opts = append(opts, WithXinitrc(cfg.Xinitrc))
	}
	if len(cfg.ServerArgs) != 0 {
		opts = append(opts, WithServerArgs(cfg.ServerArgs...))
	}
	return c.SetOptions(opts...)
}
