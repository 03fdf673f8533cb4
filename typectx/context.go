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

// Package typectx provides the codex registry: it maps every type
// descriptor to exactly one shared codex, describes struct types for the
// struct and entity codices, and knows which type a wire name denotes.
package typectx

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/descriptor"
	uref "dirpx.dev/flatpack/utils/reflect"
)

// ErrUnsupportedType is returned when no factory accepts a descriptor.
var ErrUnsupportedType = errors.New("flatpack(typectx): unsupported type")

var entityType = reflect.TypeFor[apis.Entity]()

// Context is the codex registry. Lookups of built codices are lock-free;
// construction is collapsed per descriptor key and published only once the
// codex is complete.
type Context struct {
	cfg   apis.Config
	names apis.NameRegistry
	res   apis.Resolver
	log   *log.Logger
	chain []apis.Factory

	mu    sync.RWMutex
	keyed []apis.KeyedFactory

	codices sync.Map // descriptor key -> apis.Codex
	descs   sync.Map // reflect.Type -> *apis.TypeDescription
	group   singleflight.Group
}

var _ apis.Registry = (*Context)(nil)

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.log = l
		}
	}
}

// WithFactories sets the ordered factory chain.
func WithFactories(fs ...apis.Factory) Option {
	return func(c *Context) { c.chain = append(c.chain, fs...) }
}

// WithKeyedFactories registers keyed factories, as RegisterFactory does.
func WithKeyedFactories(kfs ...apis.KeyedFactory) Option {
	return func(c *Context) {
		for _, kf := range kfs {
			c.putKeyed(kf)
		}
	}
}

// New returns a registry for cfg. names and res supply wire type names.
func New(cfg apis.Config, names apis.NameRegistry, res apis.Resolver, opts ...Option) *Context {
	c := &Context{
		cfg:   cfg,
		names: names,
		res:   res,
		log:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the configuration the registry was built with.
func (c *Context) Config() apis.Config { return c.cfg }

// Names returns the name registry.
func (c *Context) Names() apis.NameRegistry { return c.names }

// Codex returns the codex for d, building it on first use. Equal
// descriptors always yield the same instance.
func (c *Context) Codex(d *descriptor.Descriptor) (apis.Codex, error) {
	if d == nil {
		return nil, descriptor.ErrNilType
	}
	if err := d.CheckDepth(c.cfg.MaxDepth); err != nil {
		return nil, err
	}
	key := d.Key()
	if v, ok := c.codices.Load(key); ok {
		return v.(apis.Codex), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.codices.Load(key); ok {
			return v, nil
		}
		cx, err := c.build(d)
		if err != nil {
			return nil, err
		}
		v, _ := c.codices.LoadOrStore(key, cx)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(apis.Codex), nil
}

// CodexFor returns the codex for the descriptor of t.
func (c *Context) CodexFor(t reflect.Type) (apis.Codex, error) {
	d, err := descriptor.Of(t)
	if err != nil {
		return nil, err
	}
	return c.Codex(d)
}

func (c *Context) build(d *descriptor.Descriptor) (apis.Codex, error) {
	if f := c.keyedFor(d); f != nil {
		if cx, ok := f.Build(d, c); ok {
			c.log.Debug("codex built", "type", d, "keyed", true)
			return cx, nil
		}
	}
	for _, f := range c.chain {
		if cx, ok := f.Build(d, c); ok {
			c.log.Debug("codex built", "type", d)
			return cx, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, d)
}

// RegisterFactory binds f to descriptors with the given raw identity and
// arity (-1 for any). Keyed factories win over the chain; an exact arity
// wins over -1. Codices built before the call are kept.
func (c *Context) RegisterFactory(raw string, arity int, f apis.Factory) {
	c.putKeyed(apis.KeyedFactory{Raw: raw, Arity: arity, Factory: f})
}

// KeyedFactories returns the keyed factories in registration order.
func (c *Context) KeyedFactories() []apis.KeyedFactory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.keyed)
}

func (c *Context) putKeyed(kf apis.KeyedFactory) {
	if kf.Factory == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, k := range c.keyed {
		if k.Raw == kf.Raw && k.Arity == kf.Arity {
			c.keyed[i] = kf
			return
		}
	}
	c.keyed = append(c.keyed, kf)
}

func (c *Context) keyedFor(d *descriptor.Descriptor) apis.Factory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var wild apis.Factory
	for _, k := range c.keyed {
		if k.Raw != d.Raw() {
			continue
		}
		switch k.Arity {
		case d.Arity():
			return k.Factory
		case -1:
			wild = k.Factory
		}
	}
	return wild
}

// TypeName returns the wire name of v.
func (c *Context) TypeName(v any) string { return c.res.Resolve(v, c.cfg) }

// Lookup returns the type registered under name.
func (c *Context) Lookup(name string) (reflect.Type, bool) { return c.names.LookupName(name) }

// RegisterType makes t known under name, or under its resolved name when
// name is empty. A conflicting registration is logged and returned; the
// first registration stays in effect.
func (c *Context) RegisterType(t reflect.Type, name string) error {
	if t == nil {
		return descriptor.ErrNilType
	}
	if name == "" {
		name = c.res.ResolveType(t, c.cfg)
	}
	if err := c.names.Register(t, name); err != nil {
		c.log.Warn("type name not registered", "type", t, "name", name, "err", err)
		return err
	}
	c.log.Debug("type registered", "type", t, "name", name)
	return nil
}

// Describe returns the properties of the struct type under t. Descriptions
// are computed once per type.
//
// Member names come from the flatpack tag, then the json tag, then the
// decapitalized field name. A "-" name skips the field; embedded structs
// without a name are flattened.
func (c *Context) Describe(t reflect.Type) (*apis.TypeDescription, error) {
	st := uref.StructOf(t)
	if st == nil {
		return nil, fmt.Errorf("%w: %v is not a struct", ErrUnsupportedType, t)
	}
	if v, ok := c.descs.Load(st); ok {
		return v.(*apis.TypeDescription), nil
	}
	td := &apis.TypeDescription{
		Type:       st,
		Entity:     reflect.PointerTo(st).Implements(entityType),
		Properties: properties(st, nil),
	}
	v, _ := c.descs.LoadOrStore(st, td)
	return v.(*apis.TypeDescription), nil
}

func properties(st reflect.Type, prefix []int) []*apis.Property {
	var out []*apis.Property
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		idx := append(slices.Clone(prefix), i)

		tag, ok := f.Tag.Lookup("flatpack")
		if !ok {
			tag = f.Tag.Get("json")
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "-" {
			continue
		}
		if f.Anonymous && name == "" && f.Type.Kind() == reflect.Struct {
			out = append(out, properties(f.Type, idx)...)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = uref.Decapitalize(f.Name)
		}
		out = append(out, &apis.Property{
			Name:      name,
			Field:     f.Name,
			Index:     idx,
			Type:      f.Type,
			OmitEmpty: slices.Contains(strings.Split(opts, ","), "omitempty"),
		})
	}
	return out
}
