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
	"reflect"

	"dirpx.dev/flatpack/apis"
	uref "dirpx.dev/flatpack/utils/reflect"
)

// Array visits fixed-size sequences. Elements may be replaced in place.
type Array struct{ context }

// List visits resizable sequences. Elements may be inserted, removed and replaced.
type List struct{ context }

// Iterable visits unordered collections (sets). Elements may only be removed.
type Iterable struct{ context }

// Singleton visits exactly one value, such as a struct field. It may be replaced.
type Singleton struct{ context }

// Nullable is a Singleton whose value may also be removed, which stores
// the zero value (nil) in the slot.
type Nullable struct{ context }

// Immutable visits one value that cannot be changed.
type Immutable struct{ context }

func NewArray() *Array         { return &Array{context{caps: canReplace}} }
func NewList() *List           { return &List{context{caps: canInsert | canRemove | canReplace}} }
func NewIterable() *Iterable   { return &Iterable{context{caps: canRemove}} }
func NewSingleton() *Singleton { return &Singleton{context{caps: canReplace}} }
func NewNullable() *Nullable   { return &Nullable{context{caps: canRemove | canReplace}} }
func NewImmutable() *Immutable { return &Immutable{context{}} }

var (
	_ apis.VisitorContext = (*Array)(nil)
	_ apis.VisitorContext = (*List)(nil)
	_ apis.VisitorContext = (*Iterable)(nil)
	_ apis.VisitorContext = (*Singleton)(nil)
	_ apis.VisitorContext = (*Nullable)(nil)
	_ apis.VisitorContext = (*Immutable)(nil)
)

// Accept walks v over value with c, skipping nil values entirely.
func Accept(c apis.Codex, v apis.Visitor, value any, ctx apis.VisitorContext) error {
	if uref.IsNil(value) {
		return nil
	}
	return c.AcceptNotNull(v, value, ctx)
}

// Propagate stores a rebuilt container v in the slot bound to ctx. It does
// nothing when the slot cannot be replaced or when the visitor already
// removed or replaced it, so the visitor's own mutation is kept.
func Propagate(ctx apis.VisitorContext, v any) error {
	if s, ok := ctx.(interface{ staged() bool }); ok && s.staged() {
		return nil
	}
	if !ctx.CanReplace() {
		return nil
	}
	return ctx.Replace(v)
}

// Walk visits every element of arr (an array or slice) with elem and
// returns the resulting sequence. Slices and addressable arrays are
// updated in place; other arrays are copied first.
func (c *Array) Walk(v apis.Visitor, arr reflect.Value, elem apis.Codex) (reflect.Value, error) {
	if arr.Kind() == reflect.Array && !arr.CanSet() {
		cp := reflect.New(arr.Type()).Elem()
		cp.Set(arr)
		arr = cp
	}
	c.bind(arr.Type().Elem())
	for i := 0; i < arr.Len(); i++ {
		item := arr.Index(i)
		if err := Accept(elem, v, item.Interface(), c); err != nil {
			return arr, err
		}
		if s := c.take(); s.term == replaced {
			item.Set(s.replacement)
		}
	}
	return arr, nil
}

// Walk visits every element of list with elem. Staged mutations are applied
// after each element: inserted values are not visited, and a removal
// continues with the next original element. Replacements are written into
// list only when no element was inserted or removed; otherwise list is left
// untouched and a new slice is returned.
func (c *List) Walk(v apis.Visitor, list reflect.Value, elem apis.Codex) (reflect.Value, error) {
	c.bind(list.Type().Elem())
	var (
		out reflect.Value
		// replacements held back until the pass is known to keep its length
		held []heldReplace
	)
	n := list.Len()
	for i := 0; i < n; i++ {
		item := list.Index(i)
		if err := Accept(elem, v, item.Interface(), c); err != nil {
			return list, err
		}
		s := c.take()

		if !out.IsValid() && s.structural() {
			out = reflect.MakeSlice(list.Type(), 0, n+len(s.before)+len(s.after))
			out = reflect.AppendSlice(out, list.Slice(0, i))
			for _, h := range held {
				out.Index(h.index).Set(h.value)
			}
		}
		if !out.IsValid() {
			if s.term == replaced {
				held = append(held, heldReplace{i, s.replacement})
			}
			continue
		}

		out = reflect.Append(out, s.before...)
		switch s.term {
		case keep:
			out = reflect.Append(out, item)
		case replaced:
			out = reflect.Append(out, s.replacement)
		}
		out = reflect.Append(out, s.after...)
	}
	if out.IsValid() {
		return out, nil
	}
	for _, h := range held {
		list.Index(h.index).Set(h.value)
	}
	return list, nil
}

type heldReplace struct {
	index int
	value reflect.Value
}

// Walk visits the keys of set (a map used as a set) with elem, deleting
// removed keys in place.
func (c *Iterable) Walk(v apis.Visitor, set reflect.Value, elem apis.Codex) (reflect.Value, error) {
	c.bind(set.Type().Key())
	for _, k := range uref.SortedKeys(set) {
		if err := Accept(elem, v, k.Interface(), c); err != nil {
			return set, err
		}
		if s := c.take(); s.term == removed {
			set.SetMapIndex(k, reflect.Value{})
		}
	}
	return set, nil
}

// Walk visits value with c and returns the value now held by the slot.
func (c *Singleton) Walk(v apis.Visitor, value any, cx apis.Codex) (any, error) {
	return c.walkOne(c, v, value, cx)
}

// Walk visits value with c and returns the value now held by the slot.
func (c *Nullable) Walk(v apis.Visitor, value any, cx apis.Codex) (any, error) {
	return c.walkOne(c, v, value, cx)
}

// Walk visits value with c.
func (c *Immutable) Walk(v apis.Visitor, value any, cx apis.Codex) error {
	c.bind(nil)
	return Accept(cx, v, value, c)
}

func (c *context) walkOne(self apis.VisitorContext, v apis.Visitor, value any, cx apis.Codex) (any, error) {
	c.bind(cx.Descriptor().Type())
	if err := Accept(cx, v, value, self); err != nil {
		return value, err
	}
	switch s := c.take(); s.term {
	case replaced:
		return interfaceOf(s.replacement), nil
	case removed:
		return reflect.Zero(c.elem).Interface(), nil
	}
	return value, nil
}

// Walk drives a top-level visit of value in a Singleton context and returns
// the possibly replaced value. A OnceVisitor is wrapped with Acyclic, so
// each call starts with an empty visited set.
func Walk(v apis.Visitor, value any, c apis.Codex) (any, error) {
	if ov, ok := v.(OnceVisitor); ok {
		if _, wrapped := v.(*acyclic); !wrapped {
			v = Acyclic(ov)
		}
	}
	return NewSingleton().Walk(v, value, c)
}
