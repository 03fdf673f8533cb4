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
	"dirpx.dev/flatpack/apis"
)

const (
	// DefaultIdentityKey is the member holding an entity identity.
	DefaultIdentityKey = "uuid"
	// DefaultTypeTagKey is the member naming the concrete type in dynamic slots.
	DefaultTypeTagKey = "@"
	// DefaultMaxUnwrap bounds pointer unwrapping during type normalization.
	DefaultMaxUnwrap = 8
	// DefaultMaxDepth bounds descriptor nesting. Deeper types are rejected
	// by the registry instead of recursing without limit.
	DefaultMaxDepth = 32
	// DefaultOmitNulls drops null properties from bodies.
	DefaultOmitNulls = true
)

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return normalize(cfg)
}

// DefaultConfig is the default configuration used when none is provided.
func DefaultConfig() apis.Config {
	return apis.Config{
		IdentityKey: DefaultIdentityKey,
		TypeTagKey:  DefaultTypeTagKey,
		MaxUnwrap:   DefaultMaxUnwrap,
		MaxDepth:    DefaultMaxDepth,
		OmitNulls:   DefaultOmitNulls,
	}
}

// normalize restores defaults for values that would make the config unusable.
func normalize(cfg apis.Config) apis.Config {
	if cfg.IdentityKey == "" {
		cfg.IdentityKey = DefaultIdentityKey
	}
	if cfg.TypeTagKey == "" {
		cfg.TypeTagKey = DefaultTypeTagKey
	}
	if cfg.MaxUnwrap < 0 {
		cfg.MaxUnwrap = DefaultMaxUnwrap
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return cfg
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithIdentityKey sets the identity member name. Empty resets to the default.
func WithIdentityKey(key string) Option {
	return func(c *apis.Config) {
		c.IdentityKey = key
	}
}

// WithTypeTagKey sets the type-tag member name. Empty resets to the default.
func WithTypeTagKey(key string) Option {
	return func(c *apis.Config) {
		c.TypeTagKey = key
	}
}

// WithMaxUnwrap sets the MaxUnwrap option.
// A negative value resets to the default.
func WithMaxUnwrap(max int) Option {
	return func(c *apis.Config) {
		c.MaxUnwrap = max
	}
}

// WithMaxDepth sets the MaxDepth option. Non-positive values reset to the default.
func WithMaxDepth(depth int) Option {
	return func(c *apis.Config) {
		c.MaxDepth = depth
	}
}

// WithOmitNulls sets the OmitNulls option.
func WithOmitNulls(omit bool) Option {
	return func(c *apis.Config) {
		c.OmitNulls = omit
	}
}

// WithConfig replaces the whole configuration, typically one produced by Load.
func WithConfig(cfg apis.Config) Option {
	return func(c *apis.Config) {
		*c = cfg
	}
}
