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

package builder

import (
	"io"

	"github.com/charmbracelet/log"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/codex"
	"dirpx.dev/flatpack/registry"
	"dirpx.dev/flatpack/resolver"
	"dirpx.dev/flatpack/typectx"
)

// Option configures the builder.
type Option func(*builder)

// WithLogger sets the logger handed to every registry the builder makes.
func WithLogger(l *log.Logger) Option {
	return func(b *builder) {
		if l != nil {
			b.log = l
		}
	}
}

// WithFactories appends factories after the default chain.
func WithFactories(fs ...apis.Factory) Option {
	return func(b *builder) { b.factories = append(b.factories, fs...) }
}

// WithKeyedFactories adds keyed factories on top of the defaults.
func WithKeyedFactories(kfs ...apis.KeyedFactory) Option {
	return func(b *builder) { b.keyed = append(b.keyed, kfs...) }
}

// New creates and returns a new instance of an apis.Builder.
func New(opts ...Option) apis.Builder {
	b := &builder{log: log.New(io.Discard)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// builder holds the extra factories and the logger for built registries.
type builder struct {
	log       *log.Logger
	factories []apis.Factory
	keyed     []apis.KeyedFactory
}

// keyedSource is implemented by registries whose keyed factories survive a rebuild.
type keyedSource interface {
	KeyedFactories() []apis.KeyedFactory
}

// BuildNames builds a new apis.NameRegistry for cfg. If a previous registry
// is provided, its entries are copied into the new one.
func (b *builder) BuildNames(cfg apis.Config, prev apis.NameRegistry) apis.NameRegistry {
	next := registry.New(cfg)
	if prev != nil {
		for _, e := range prev.Entries() {
			if err := next.Register(e.Type, e.Name); err != nil {
				b.log.Warn("type name dropped on rebuild", "type", e.Type, "name", e.Name, "err", err)
			}
		}
	}
	return next
}

// BuildResolver builds the standard resolver chain over names.
func (b *builder) BuildResolver(_ apis.Config, names apis.NameRegistry) apis.Resolver {
	return resolver.Default(names)
}

// BuildRegistry builds a codex registry with the default factories followed
// by the builder's own. Keyed factories registered on prev are carried over;
// its codices are not, since they may depend on the old configuration.
func (b *builder) BuildRegistry(cfg apis.Config, names apis.NameRegistry, res apis.Resolver, prev apis.Registry) apis.Registry {
	keyed := append(codex.DefaultKeyed(), b.keyed...)
	if src, ok := prev.(keyedSource); ok {
		keyed = append(keyed, src.KeyedFactories()...)
	}
	return typectx.New(cfg, names, res,
		typectx.WithLogger(b.log),
		typectx.WithFactories(append(codex.DefaultFactories(), b.factories...)...),
		typectx.WithKeyedFactories(keyed...),
	)
}
