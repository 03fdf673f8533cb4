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

package visit

import (
	"errors"
	"fmt"
	"reflect"

	uref "dirpx.dev/flatpack/utils/reflect"
)

var (
	// ErrUnsupportedMutation is returned by a mutation the context does not allow.
	ErrUnsupportedMutation = errors.New("flatpack(visit): unsupported mutation")
	// ErrIncompatibleValue is returned when a mutation value cannot be stored
	// in the slot type.
	ErrIncompatibleValue = errors.New("flatpack(visit): value not assignable to slot")
)

type capability uint8

const (
	canInsert capability = 1 << iota
	canRemove
	canReplace
)

type terminal uint8

const (
	keep terminal = iota
	removed
	replaced
)

// slot holds the mutations staged for the element currently visited.
// Inserts accumulate in call order; the last Remove or Replace wins.
type slot struct {
	before      []reflect.Value
	after       []reflect.Value
	term        terminal
	replacement reflect.Value
}

func (s *slot) structural() bool {
	return len(s.before) > 0 || len(s.after) > 0 || s.term == removed
}

// context implements apis.VisitorContext for every variant; the variants
// differ in capabilities and in how staged mutations are applied.
type context struct {
	caps capability
	elem reflect.Type

	cur slot

	inserted bool
	removed  bool
	replaced bool
}

func (c *context) CanInsert() bool  { return c.caps&canInsert != 0 }
func (c *context) CanRemove() bool  { return c.caps&canRemove != 0 }
func (c *context) CanReplace() bool { return c.caps&canReplace != 0 }

func (c *context) DidInsert() bool  { return c.inserted }
func (c *context) DidRemove() bool  { return c.removed }
func (c *context) DidReplace() bool { return c.replaced }

func (c *context) InsertBefore(v any) error {
	if !c.CanInsert() {
		return unsupported("insert")
	}
	rv, err := c.coerce(v)
	if err != nil {
		return err
	}
	c.cur.before = append(c.cur.before, rv)
	return nil
}

func (c *context) InsertAfter(v any) error {
	if !c.CanInsert() {
		return unsupported("insert")
	}
	rv, err := c.coerce(v)
	if err != nil {
		return err
	}
	c.cur.after = append(c.cur.after, rv)
	return nil
}

func (c *context) Remove() error {
	if !c.CanRemove() {
		return unsupported("remove")
	}
	c.cur.term = removed
	c.cur.replacement = reflect.Value{}
	return nil
}

func (c *context) Replace(v any) error {
	if !c.CanReplace() {
		return unsupported("replace")
	}
	rv, err := c.coerce(v)
	if err != nil {
		return err
	}
	c.cur.term = replaced
	c.cur.replacement = rv
	return nil
}

// staged reports whether the current slot already has a Remove or Replace.
func (c *context) staged() bool { return c.cur.term != keep }

func unsupported(op string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedMutation, op)
}

// bind prepares the context for slots of type elem.
func (c *context) bind(elem reflect.Type) {
	c.elem = elem
	c.cur = slot{}
}

// take returns the staged mutations of the current slot, records them in
// the did* flags and clears the slot for the next element.
func (c *context) take() slot {
	s := c.cur
	c.cur = slot{}
	if len(s.before) > 0 || len(s.after) > 0 {
		c.inserted = true
	}
	switch s.term {
	case removed:
		c.removed = true
	case replaced:
		c.replaced = true
	}
	return s
}

func (c *context) coerce(v any) (reflect.Value, error) {
	return valueFor(v, c.elem)
}

// valueFor converts v to a value storable in a slot of type t.
func valueFor(v any, t reflect.Type) (reflect.Value, error) {
	if t == nil {
		return reflect.ValueOf(v), nil
	}
	if v == nil {
		if uref.Nillable(t) {
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil into %v", ErrIncompatibleValue, t)
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(t):
		return rv, nil
	case rv.Kind() == t.Kind() && rv.Type().ConvertibleTo(t):
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %v into %v", ErrIncompatibleValue, rv.Type(), t)
}

// interfaceOf returns rv as an interface value, nil for the zero Value.
func interfaceOf(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}
