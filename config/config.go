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
	"time"

	"dirpx.dev/rmx/apis"
)

const (
	// DefaultHost keeps management traffic on the loopback interface.
	DefaultHost = "127.0.0.1"
	// DefaultReadTimeout bounds reading one management request.
	DefaultReadTimeout = 15 * time.Second
	// DefaultWriteTimeout bounds writing one management response.
	DefaultWriteTimeout = 15 * time.Second
	// DefaultMaxUnwrap represents the default for MaxUnwrap.
	// A value of 8 should be sufficient for all practical purposes.
	DefaultMaxUnwrap = 8
)

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	// Ensure MaxUnwrap is valid.
	if cfg.MaxUnwrap < 0 {
		cfg.MaxUnwrap = DefaultMaxUnwrap
	}
	return cfg
}

// DefaultConfig is the default configuration used when none is provided.
// Ports are left unset: a server cannot start until one is chosen.
func DefaultConfig() apis.Config {
	return apis.Config{
		Host:         DefaultHost,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		MaxUnwrap:    DefaultMaxUnwrap,
	}
}

// EffectiveServerPort returns the data channel port: ServerPort when set,
// otherwise RegistryPort + 1. It returns 0 while RegistryPort is unset.
func EffectiveServerPort(cfg apis.Config) int {
	if cfg.ServerPort != 0 {
		return cfg.ServerPort
	}
	if cfg.RegistryPort == 0 {
		return 0
	}
	return cfg.RegistryPort + 1
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithHost sets the interface both listeners bind to.
func WithHost(host string) Option {
	return func(c *apis.Config) {
		c.Host = host
	}
}

// WithPort is the same as WithRegistryPort. This is the port a management
// client is pointed at.
func WithPort(port int) Option {
	return WithRegistryPort(port)
}

// WithRegistryPort sets the registry (listening) port.
func WithRegistryPort(port int) Option {
	return func(c *apis.Config) {
		c.RegistryPort = port
	}
}

// WithServerPort sets the data channel port. Most callers leave it unset and
// get RegistryPort + 1.
func WithServerPort(port int) Option {
	return func(c *apis.Config) {
		c.ServerPort = port
	}
}

// WithReadTimeout sets the per-request read timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(c *apis.Config) {
		c.ReadTimeout = d
	}
}

// WithWriteTimeout sets the per-request write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *apis.Config) {
		c.WriteTimeout = d
	}
}

// WithMaxUnwrap sets the MaxUnwrap option.
// A negative value resets to the default.
func WithMaxUnwrap(max int) Option {
	return func(c *apis.Config) {
		if max < 0 {
			c.MaxUnwrap = DefaultMaxUnwrap
			return
		}
		c.MaxUnwrap = max
	}
}
