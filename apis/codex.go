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
	"github.com/google/uuid"

	"dirpx.dev/flatpack/descriptor"
	"dirpx.dev/flatpack/wire"
)

// Codex converts values of exactly one type descriptor to and from wire
// nodes, and drives visitors over those values.
//
// The NotNull methods are never called with a nil value or a null node;
// callers go through codex.Write, codex.Read and visit.Accept, which handle
// nulls uniformly. Implementations are stateless and safe for concurrent use.
type Codex interface {
	// Descriptor returns the descriptor this codex was built for.
	Descriptor() *descriptor.Descriptor
	// WriteNotNull encodes a non-nil value.
	WriteNotNull(value any, ctx SerializationContext) (wire.Node, error)
	// ReadNotNull decodes a non-null node into a value of the codex type.
	ReadNotNull(node wire.Node, ctx DeserializationContext) (any, error)
	// AcceptNotNull walks visitor over a non-nil value bound to ctx.
	AcceptNotNull(visitor Visitor, value any, ctx VisitorContext) error
}

// Factory builds a codex for a descriptor it recognizes.
// It returns (nil, false) to fall through to the next factory.
// Factories must not resolve nested codices synchronously; use a lazy handle.
type Factory interface {
	Build(d *descriptor.Descriptor, reg Registry) (Codex, bool)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(d *descriptor.Descriptor, reg Registry) (Codex, bool)

// Build implements Factory.
func (f FactoryFunc) Build(d *descriptor.Descriptor, reg Registry) (Codex, bool) {
	return f(d, reg)
}

// KeyedFactory is a factory bound to a raw identity and an arity.
// Arity -1 matches descriptors with any number of parameters.
type KeyedFactory struct {
	Raw     string
	Arity   int
	Factory Factory
}

// Pather tracks the position inside the value being converted, for errors.
type Pather interface {
	PushPath(segment string)
	PopPath()
	Path() string
}

// SerializationContext carries per-call state while writing.
type SerializationContext interface {
	Pather
	Config() Config
}

// DeserializationContext carries per-call state while reading, including
// the identity table shared by all entity references of one unpack.
type DeserializationContext interface {
	Pather
	Config() Config
	// Entity returns the entity already allocated for id.
	Entity(id uuid.UUID) (Entity, bool)
	// PutEntity records an allocated entity under its identity.
	PutEntity(e Entity)
	// Warn records a non-fatal problem at the current path.
	Warn(msg string)
}
