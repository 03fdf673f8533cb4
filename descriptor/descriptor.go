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

// Package descriptor provides canonical, comparable descriptions of Go types.
//
// A Descriptor is a raw identity plus ordered parameter descriptors. Equal
// types always yield equal descriptors, however they were obtained: from a
// struct field, from a method signature, or built explicitly with SliceOf,
// MapOf and friends.
package descriptor

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrNilType is returned when a nil reflect.Type or descriptor is given.
	ErrNilType = errors.New("flatpack(descriptor): nil type")
	// ErrTooDeep is returned when a descriptor nests deeper than allowed.
	ErrTooDeep = errors.New("flatpack(descriptor): type nesting too deep")
)

// Raw identities of the unnamed composite kinds.
const (
	RawSlice   = "[]"
	RawMap     = "map"
	RawSet     = "set"
	RawPointer = "*"
)

// Descriptor is an immutable type description.
type Descriptor struct {
	raw    string
	params []*Descriptor
	typ    reflect.Type
	key    string
	depth  int
}

var cache sync.Map // reflect.Type -> *Descriptor

// Of returns the descriptor of t.
func Of(t reflect.Type) (*Descriptor, error) {
	if t == nil {
		return nil, ErrNilType
	}
	if d, ok := cache.Load(t); ok {
		return d.(*Descriptor), nil
	}
	d := build(t)
	actual, _ := cache.LoadOrStore(t, d)
	return actual.(*Descriptor), nil
}

// For returns the descriptor of T.
func For[T any]() *Descriptor {
	return MustOf(reflect.TypeFor[T]())
}

// MustOf is Of for types known to be non-nil.
func MustOf(t reflect.Type) *Descriptor {
	d, err := Of(t)
	if err != nil {
		panic(err)
	}
	return d
}

// SliceOf returns the descriptor of []elem.
func SliceOf(elem *Descriptor) *Descriptor {
	return MustOf(reflect.SliceOf(elem.typ))
}

// ArrayOf returns the descriptor of [n]elem.
func ArrayOf(n int, elem *Descriptor) *Descriptor {
	return MustOf(reflect.ArrayOf(n, elem.typ))
}

// MapOf returns the descriptor of map[key]elem.
func MapOf(key, elem *Descriptor) *Descriptor {
	return MustOf(reflect.MapOf(key.typ, elem.typ))
}

// SetOf returns the descriptor of map[elem]struct{}.
func SetOf(elem *Descriptor) *Descriptor {
	return MustOf(reflect.MapOf(elem.typ, emptyStruct))
}

// PointerOf returns the descriptor of *elem.
func PointerOf(elem *Descriptor) *Descriptor {
	return MustOf(reflect.PointerTo(elem.typ))
}

var emptyStruct = reflect.TypeFor[struct{}]()

func build(t reflect.Type) *Descriptor {
	d := &Descriptor{typ: t}
	switch {
	case t.Name() != "":
		d.raw = Named(t)
	case t.Kind() == reflect.Slice:
		d.raw = RawSlice
		d.params = []*Descriptor{MustOf(t.Elem())}
	case t.Kind() == reflect.Array:
		d.raw = "[" + strconv.Itoa(t.Len()) + "]"
		d.params = []*Descriptor{MustOf(t.Elem())}
	case t.Kind() == reflect.Map && t.Elem() == emptyStruct:
		d.raw = RawSet
		d.params = []*Descriptor{MustOf(t.Key())}
	case t.Kind() == reflect.Map:
		d.raw = RawMap
		d.params = []*Descriptor{MustOf(t.Key()), MustOf(t.Elem())}
	case t.Kind() == reflect.Pointer:
		d.raw = RawPointer
		d.params = []*Descriptor{MustOf(t.Elem())}
	default:
		// Unnamed func, chan, struct and interface literals.
		d.raw = t.String()
	}

	if len(d.params) == 0 {
		d.key = d.raw
		return d
	}
	keys := make([]string, len(d.params))
	for i, p := range d.params {
		keys[i] = p.key
		d.depth = max(d.depth, p.depth+1)
	}
	d.key = d.raw + "<" + strings.Join(keys, ",") + ">"
	return d
}

// Named returns the qualified name of a named type: "pkgpath.Name", or just
// the name for predeclared types. Generic instantiations keep their
// instantiated name.
func Named(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// Raw returns the raw identity.
func (d *Descriptor) Raw() string { return d.raw }

// Params returns a copy of the ordered parameter descriptors.
func (d *Descriptor) Params() []*Descriptor {
	return append([]*Descriptor(nil), d.params...)
}

// Param returns the i-th parameter.
func (d *Descriptor) Param(i int) *Descriptor { return d.params[i] }

// Arity returns the number of parameters.
func (d *Descriptor) Arity() int { return len(d.params) }

// Type returns the Go type the descriptor denotes.
func (d *Descriptor) Type() reflect.Type { return d.typ }

// Key returns the canonical string form. Equal descriptors have equal keys.
func (d *Descriptor) Key() string { return d.key }

// Depth returns the parameter nesting depth; leaf types have depth 0.
func (d *Descriptor) Depth() int { return d.depth }

// String implements fmt.Stringer.
func (d *Descriptor) String() string {
	if d == nil {
		return "<nil>"
	}
	return d.key
}

// Equal reports whether d and o have the same raw identity and pairwise
// equal parameters.
func (d *Descriptor) Equal(o *Descriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.raw != o.raw || len(d.params) != len(o.params) {
		return false
	}
	for i := range d.params {
		if !d.params[i].Equal(o.params[i]) {
			return false
		}
	}
	return true
}

// CheckDepth returns ErrTooDeep when d nests deeper than limit.
func (d *Descriptor) CheckDepth(limit int) error {
	if limit > 0 && d.depth > limit {
		return fmt.Errorf("%w: %s (depth %d > %d)", ErrTooDeep, d, d.depth, limit)
	}
	return nil
}
