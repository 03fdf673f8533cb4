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

	"github.com/google/uuid"
)

// Entity is a value with a stable identity. Two entities with the same
// identity denote the same logical object, even across independently
// produced packs. Implementations are pointer types.
type Entity interface {
	UUID() uuid.UUID
	SetUUID(id uuid.UUID)
}

// TypeNamer lets a value choose its own wire type name. It is consulted
// before the name registry and reflection.
type TypeNamer interface {
	EntityTypeName() string
}

// EntityBase is an embeddable identity holder.
type EntityBase struct {
	ID uuid.UUID `flatpack:"-" json:"-"`
}

// UUID returns the entity identity.
func (b *EntityBase) UUID() uuid.UUID { return b.ID }

// SetUUID assigns the entity identity.
func (b *EntityBase) SetUUID(id uuid.UUID) { b.ID = id }

// TypeDescription is the reflected shape of a struct type: the ordered list
// of properties written into its body. Wire names come from
// Registry.TypeName.
type TypeDescription struct {
	// Type is the struct type (never a pointer).
	Type reflect.Type
	// Entity reports whether pointers to Type implement Entity.
	Entity bool
	// Properties are in field declaration order, embedded structs flattened.
	Properties []*Property
}

// Property is one exported field of a described struct.
type Property struct {
	// Name is the wire member name.
	Name string
	// Field is the Go field name.
	Field string
	// Index is the field index path for reflect.Value.FieldByIndex.
	Index []int
	// Type is the declared field type.
	Type reflect.Type
	// OmitEmpty drops the member when the field holds its zero value.
	OmitEmpty bool
}
