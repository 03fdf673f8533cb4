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

// Package codex holds the concrete converters between Go values and wire
// nodes, the default factory chain that builds them, and the per-call
// (de)serialization contexts.
//
// Null handling lives in Write and Read, never in a codex: a nil value is
// written as wire.Null and wire.Null reads back as the zero value of the
// codex type without reaching the type-specific code.
package codex

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/descriptor"
	uref "dirpx.dev/flatpack/utils/reflect"
	"dirpx.dev/flatpack/wire"
)

var (
	// ErrShape is wrapped by every ShapeError.
	ErrShape = errors.New("flatpack(codex): unexpected wire shape")
	// ErrValue is returned for well-shaped nodes holding unusable values.
	ErrValue = errors.New("flatpack(codex): invalid value")
)

// ShapeError reports a node of the wrong kind for the codex reading it.
type ShapeError struct {
	Path     string
	Type     string
	Expected wire.Kind
	Actual   wire.Kind
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("flatpack(codex): %s: expected %s for %s, got %s", e.Path, e.Expected, e.Type, e.Actual)
}

func (e *ShapeError) Unwrap() error { return ErrShape }

func shapeError(ctx apis.Pather, d *descriptor.Descriptor, want wire.Kind, got wire.Node) error {
	return &ShapeError{Path: ctx.Path(), Type: d.String(), Expected: want, Actual: wire.KindOf(got)}
}

func valueError(ctx apis.Pather, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrValue, ctx.Path(), fmt.Sprintf(format, args...))
}

// Write encodes value with c. Nil values become wire.Null.
func Write(c apis.Codex, value any, ctx apis.SerializationContext) (wire.Node, error) {
	if uref.IsNil(value) {
		return wire.Null, nil
	}
	return c.WriteNotNull(value, ctx)
}

// Read decodes node with c. Null nodes become the zero value of the codex type.
func Read(c apis.Codex, node wire.Node, ctx apis.DeserializationContext) (any, error) {
	if wire.IsNull(node) {
		return reflect.Zero(c.Descriptor().Type()).Interface(), nil
	}
	return c.ReadNotNull(node, ctx)
}

// EntityCodex is implemented by codices whose values live in the data
// section of a pack.
type EntityCodex interface {
	apis.Codex
	// Allocate returns an empty entity with the given identity.
	Allocate(id uuid.UUID, typeName string) apis.Entity
	// WriteBody encodes the entity's properties, identity first.
	WriteBody(e apis.Entity, ctx apis.SerializationContext) (*wire.Object, error)
	// ReadBody fills e from a data-section object.
	ReadBody(e apis.Entity, obj *wire.Object, ctx apis.DeserializationContext) error
}

// Lazy resolves a nested codex on first use. Factories hold Lazy handles
// instead of resolving element codices while they are being constructed,
// so self-referential types never wait on their own construction.
type Lazy struct {
	get func() (apis.Codex, error)
}

// NewLazy returns a handle resolving d through reg.
func NewLazy(reg apis.Registry, d *descriptor.Descriptor) *Lazy {
	return &Lazy{get: sync.OnceValues(func() (apis.Codex, error) {
		return reg.Codex(d)
	})}
}

// Get returns the resolved codex.
func (l *Lazy) Get() (apis.Codex, error) { return l.get() }

// base carries the descriptor every codex reports.
type base struct {
	d *descriptor.Descriptor
}

func (b base) Descriptor() *descriptor.Descriptor { return b.d }

// assign stores v in dst, converting between types of the same kind.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.SetZero()
		return nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(dst.Type()):
		dst.Set(rv)
	case rv.Kind() == dst.Kind() && rv.Type().ConvertibleTo(dst.Type()):
		dst.Set(rv.Convert(dst.Type()))
	default:
		return fmt.Errorf("%w: %v is not assignable to %v", ErrValue, rv.Type(), dst.Type())
	}
	return nil
}

// acceptLeaf is the traversal of values without children.
func acceptLeaf(c apis.Codex, v apis.Visitor, value any, ctx apis.VisitorContext) error {
	v.VisitValue(value, c, ctx)
	v.EndVisitValue(value, c, ctx)
	return nil
}

// acceptContainer wraps walk in the container callbacks.
func acceptContainer(c apis.Codex, v apis.Visitor, value any, ctx apis.VisitorContext, walk func() error) error {
	if v.VisitValue(value, c, ctx) {
		if v.VisitContainer(value, c, ctx) {
			if err := walk(); err != nil {
				return err
			}
		}
		v.EndVisitContainer(value, c, ctx)
	}
	v.EndVisitValue(value, c, ctx)
	return nil
}
