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

package apis

import (
	"reflect"

	"dirpx.dev/flatpack/descriptor"
)

// Registry resolves descriptors to their single shared Codex and knows the
// wire names of entity and value types.
type Registry interface {
	// Codex returns the codex for d, constructing it at most once.
	Codex(d *descriptor.Descriptor) (Codex, error)
	// CodexFor is Codex for the descriptor of t.
	CodexFor(t reflect.Type) (Codex, error)
	// Describe returns the properties of a struct type (pointers are unwrapped).
	Describe(t reflect.Type) (*TypeDescription, error)
	// TypeName returns the wire name for a value, honoring TypeNamer.
	TypeName(v any) string
	// Lookup returns the type registered under a wire name.
	Lookup(name string) (reflect.Type, bool)
	// Config returns the configuration the registry was built with.
	Config() Config
}

// NameRegistry is a bidirectional map between types and wire names.
// Keep it minimal so implementations can be sync.Map-backed.
type NameRegistry interface {
	// Register associates a (nearest named) reflect.Type with a fixed name.
	// Re-registering the same pair is a no-op; conflicts return an error.
	Register(t reflect.Type, name string) error
	// Lookup returns a name for a type if present.
	Lookup(t reflect.Type) (name string, ok bool)
	// LookupName returns the type registered under name.
	LookupName(name string) (t reflect.Type, ok bool)
	// Entries returns a snapshot for diagnostics (order is unspecified).
	Entries() []Entry
	// Count returns the number of registered entries.
	Count() int
	// Reset clears all registered entries.
	Reset()
}

// Entry is a single (type, name) association in a NameRegistry snapshot.
type Entry struct {
	Type reflect.Type
	Name string
}
