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

package flatpack

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/builder"
	"dirpx.dev/flatpack/config"
	"dirpx.dev/flatpack/descriptor"
	"dirpx.dev/flatpack/merge"
	"dirpx.dev/flatpack/pack"
	"dirpx.dev/flatpack/visit"
	"dirpx.dev/flatpack/wire"
)

// init initializes the global state.
func init() {
	b := builder.New()
	st.Store(build(config.DefaultConfig(), b, nil))
}

var (
	// ErrNilRegistry is returned when a builder returns a nil registry.
	ErrNilRegistry = errors.New("flatpack: builder returned nil registry")
	// ErrNilResolver is returned when a builder returns a nil resolver.
	ErrNilResolver = errors.New("flatpack: builder returned nil resolver")
	// ErrNilNames is returned when a builder returns a nil name registry.
	ErrNilNames = errors.New("flatpack: builder returned nil name registry")
	// ErrNoFactories is returned when the registry does not take keyed factories.
	ErrNoFactories = errors.New("flatpack: registry does not accept factories")
)

// factoryRegistry is implemented by registries that take keyed factories.
type factoryRegistry interface {
	RegisterFactory(raw string, arity int, f apis.Factory)
}

// build composes a full snapshot with b, carrying names and keyed factories
// over from old.
func build(cfg apis.Config, b apis.Builder, old *state) *state {
	var (
		pnames apis.NameRegistry
		preg   apis.Registry
	)
	if old != nil {
		pnames, preg = old.names, old.reg
	}
	s := &state{cfg: cfg, bld: b}
	s.names = b.BuildNames(cfg, pnames)
	if s.names == nil {
		panic(ErrNilNames)
	}
	s.res = b.BuildResolver(cfg, s.names)
	if s.res == nil {
		panic(ErrNilResolver)
	}
	s.reg = b.BuildRegistry(cfg, s.names, s.res, preg)
	if s.reg == nil {
		panic(ErrNilRegistry)
	}
	return s
}

// Config returns the global configuration.
func Config() apis.Config {
	return st.Load().cfg
}

// SetConfig sets the global configuration and rebuilds every component.
// Registered type names and keyed factories survive; built codices do not.
func SetConfig(cfg apis.Config) {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	st.Store(build(cfg, old.bld, old))
}

// Builder returns the global builder.
func Builder() apis.Builder {
	return st.Load().bld
}

// SetBuilder sets the global builder and rebuilds every component with it.
func SetBuilder(b apis.Builder) {
	if b == nil {
		return
	}

	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	st.Store(build(old.cfg, b, old))
}

// SetAll replaces the configuration and the builder in one step. Nil
// arguments leave the corresponding component unchanged.
func SetAll(cfg *apis.Config, b apis.Builder) {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	ncfg := old.cfg
	if cfg != nil {
		ncfg = *cfg
	}
	nbld := old.bld
	if b != nil {
		nbld = b
	}
	st.Store(build(ncfg, nbld, old))
}

// Registry returns the global codex registry.
func Registry() apis.Registry {
	return st.Load().reg
}

// Names returns the global name registry.
func Names() apis.NameRegistry {
	return st.Load().names
}

// Resolver returns the global resolver.
func Resolver() apis.Resolver {
	return st.Load().res
}

// TypeName resolves the wire type name of v.
func TypeName(v any) string {
	s := st.Load()
	return s.res.Resolve(v, s.cfg)
}

// TypeNameOf resolves the wire type name of t.
func TypeNameOf(t reflect.Type) string {
	s := st.Load()
	return s.res.ResolveType(t, s.cfg)
}

// RegisterType makes t known under name so packs naming it can be unpacked.
// An empty name uses the resolved name of t.
func RegisterType(t reflect.Type, name string) error {
	s := st.Load()
	if t == nil {
		return descriptor.ErrNilType
	}
	if name == "" {
		name = s.res.ResolveType(t, s.cfg)
	}
	return s.names.Register(t, name)
}

// Register is RegisterType for T under its resolved name.
func Register[T any]() error {
	return RegisterType(reflect.TypeFor[T](), "")
}

// RegisterFactory binds a factory to a raw descriptor identity and arity
// (-1 for any) in the global registry.
func RegisterFactory(raw string, arity int, f apis.Factory) error {
	fr, ok := st.Load().reg.(factoryRegistry)
	if !ok {
		return ErrNoFactories
	}
	fr.RegisterFactory(raw, arity, f)
	return nil
}

// Codex returns the global codex for d.
func Codex(d *descriptor.Descriptor) (apis.Codex, error) {
	return st.Load().reg.Codex(d)
}

// Pack writes value as an envelope.
func Pack(value any) (wire.Node, error) {
	return pack.NewPacker(st.Load().reg).Pack(value)
}

// Unpack reads an envelope whose root has type t.
func Unpack(t reflect.Type, node wire.Node) (*pack.Result, error) {
	return pack.NewUnpacker(st.Load().reg).Unpack(t, node)
}

// UnpackAs reads an envelope whose root has type T.
func UnpackAs[T any](node wire.Node) (T, *pack.Result, error) {
	return pack.UnpackAs[T](pack.NewUnpacker(st.Load().reg), node)
}

// Visit walks v over value and returns the possibly replaced value.
func Visit(v apis.Visitor, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	c, err := st.Load().reg.CodexFor(reflect.TypeOf(value))
	if err != nil {
		return nil, err
	}
	return visit.Walk(v, value, c)
}

// Merge combines two envelopes using the global identity key.
func Merge(primary, secondary wire.Node) (wire.Node, error) {
	return merge.Merge(primary, secondary, merge.WithIdentityKey(st.Load().cfg.IdentityKey))
}

// buildMu serializes writers (reconfigurations/swaps) so we never publish
// partially-built snapshots.
var buildMu sync.Mutex

// st is the global state.
var st atomic.Pointer[state]

// state is the global state snapshot.
// Immutable snapshot published atomically via st.Store; never mutate fields
// of a published state. Writers create a new state and swap it atomically.
type state struct {
	cfg   apis.Config
	names apis.NameRegistry
	res   apis.Resolver
	reg   apis.Registry
	bld   apis.Builder
}
