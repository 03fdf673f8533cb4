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

// Package registry maps entity and value types to their wire type names
// and back.
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/config"
	uref "dirpx.dev/flatpack/utils/reflect"
)

var (
	// ErrNilType is returned when a nil reflect.Type is provided.
	ErrNilType = errors.New("flatpack(registry): nil reflect.Type provided")
	// ErrEmptyName is returned when an empty name is provided.
	ErrEmptyName = errors.New("flatpack(registry): empty name provided")
	// ErrConflictingRegistration indicates an attempt to re-register a type
	// with a different name, or a name for a different type.
	ErrConflictingRegistration = errors.New("flatpack(registry): conflicting type registration")
)

// New constructs a NameRegistry that normalizes types according to cfg.
func New(cfg apis.Config) apis.NameRegistry {
	if cfg.MaxUnwrap <= 0 {
		cfg.MaxUnwrap = config.DefaultMaxUnwrap
	}
	return &registry{cfg: cfg}
}

// registry keeps both directions in sync.Maps; writers serialize on mu.
type registry struct {
	cfg   apis.Config
	mu    sync.Mutex
	names sync.Map // reflect.Type -> string
	types sync.Map // string -> reflect.Type
	count int
}

// Register associates the nearest named type of t with name.
// It is idempotent for the same (type, name) pair.
func (r *registry) Register(t reflect.Type, name string) error {
	if t == nil {
		return ErrNilType
	}
	if name == "" {
		return ErrEmptyName
	}
	b, err := uref.Normalize(t, r.cfg)
	if err != nil {
		return err
	}

	if err := r.check(b, name); err != nil || r.has(b) {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under lock in case another goroutine stored meanwhile.
	if err := r.check(b, name); err != nil || r.has(b) {
		return err
	}
	r.names.Store(b, name)
	r.types.Store(name, b)
	r.count++
	return nil
}

func (r *registry) has(t reflect.Type) bool {
	_, ok := r.names.Load(t)
	return ok
}

// check reports a conflict in either direction.
func (r *registry) check(t reflect.Type, name string) error {
	if old, ok := r.names.Load(t); ok && old.(string) != name {
		return fmt.Errorf("%w: %v is %q, not %q", ErrConflictingRegistration, t, old, name)
	}
	if old, ok := r.types.Load(name); ok && old.(reflect.Type) != t {
		return fmt.Errorf("%w: %q is %v, not %v", ErrConflictingRegistration, name, old, t)
	}
	return nil
}

// Lookup returns a name for a type if present.
func (r *registry) Lookup(t reflect.Type) (string, bool) {
	if t == nil {
		return "", false
	}
	nt, err := uref.Normalize(t, r.cfg)
	if err != nil {
		return "", false
	}
	if v, ok := r.names.Load(nt); ok {
		return v.(string), true
	}
	return "", false
}

// LookupName returns the type registered under name.
func (r *registry) LookupName(name string) (reflect.Type, bool) {
	if v, ok := r.types.Load(name); ok {
		return v.(reflect.Type), true
	}
	return nil, false
}

// Entries returns a snapshot for diagnostics (order is unspecified).
func (r *registry) Entries() []apis.Entry {
	entries := make([]apis.Entry, 0, r.Count())
	r.names.Range(func(key, value any) bool {
		entries = append(entries, apis.Entry{
			Type: key.(reflect.Type),
			Name: value.(string),
		})
		return true
	})
	return entries
}

// Count returns the number of registered entries.
func (r *registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Reset clears all registered entries.
func (r *registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names.Clear()
	r.types.Clear()
	r.count = 0
}
