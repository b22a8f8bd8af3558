/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"dirpx.dev/rmx/apis"
)

// EnvPrefix prefixes every environment variable read by Load,
// e.g. RMX_REGISTRY_PORT.
const EnvPrefix = "RMX"

// fileConfig is the on-disk/env shape of apis.Config.
type fileConfig struct {
	Host         string        `mapstructure:"host"`
	RegistryPort int           `mapstructure:"registry_port"`
	ServerPort   int           `mapstructure:"server_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxUnwrap    int           `mapstructure:"max_unwrap"`
}

// Load reads a configuration file (any format viper understands) and
// overlays RMX_* environment variables. An empty path reads the environment
// only. Options are applied last and win over both.
func Load(path string, opts ...Option) (apis.Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("host", def.Host)
	v.SetDefault("registry_port", 0)
	v.SetDefault("server_port", 0)
	v.SetDefault("read_timeout", def.ReadTimeout)
	v.SetDefault("write_timeout", def.WriteTimeout)
	v.SetDefault("max_unwrap", def.MaxUnwrap)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return apis.Config{}, fmt.Errorf("rmx(config): read %s: %w", path, err)
		}
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return apis.Config{}, fmt.Errorf("rmx(config): unmarshal: %w", err)
	}
	if fc.RegistryPort < 0 || fc.RegistryPort > 65535 {
		return apis.Config{}, fmt.Errorf("rmx(config): registry_port %d out of range", fc.RegistryPort)
	}
	if fc.ServerPort < 0 || fc.ServerPort > 65535 {
		return apis.Config{}, fmt.Errorf("rmx(config): server_port %d out of range", fc.ServerPort)
	}

	all := append([]Option{
		WithHost(fc.Host),
		WithRegistryPort(fc.RegistryPort),
		WithServerPort(fc.ServerPort),
		WithReadTimeout(fc.ReadTimeout),
		WithWriteTimeout(fc.WriteTimeout),
		WithMaxUnwrap(fc.MaxUnwrap),
	}, opts...)
	return NewConfig(all...), nil
}
