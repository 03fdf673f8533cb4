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

package codex

import (
	"reflect"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/descriptor"
	uref "dirpx.dev/flatpack/utils/reflect"
	"dirpx.dev/flatpack/visit"
	"dirpx.dev/flatpack/wire"
)

// structCodex writes structs (or pointers to non-entity structs) inline as
// objects of their properties.
type structCodex struct {
	base
	reg apis.Registry
	ptr bool
}

func newStruct(d *descriptor.Descriptor, reg apis.Registry) (apis.Codex, bool) {
	t := d.Type()
	switch {
	case t.Kind() == reflect.Struct:
		return &structCodex{base: base{d}, reg: reg}, true
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		return &structCodex{base: base{d}, reg: reg, ptr: true}, true
	}
	return nil, false
}

func (c *structCodex) WriteNotNull(value any, ctx apis.SerializationContext) (wire.Node, error) {
	rv := reflect.ValueOf(value)
	if c.ptr {
		rv = rv.Elem()
	}
	td, err := c.reg.Describe(rv.Type())
	if err != nil {
		return nil, err
	}
	obj := wire.NewObject()
	if err := writeProperties(c.reg, td, rv, obj, "", ctx); err != nil {
		return nil, err
	}
	return obj, nil
}

func (c *structCodex) ReadNotNull(node wire.Node, ctx apis.DeserializationContext) (any, error) {
	obj, ok := node.(*wire.Object)
	if !ok {
		return nil, shapeError(ctx, c.d, wire.KindObject, node)
	}
	st := uref.StructOf(c.d.Type())
	td, err := c.reg.Describe(st)
	if err != nil {
		return nil, err
	}
	out := reflect.New(st)
	if err := readProperties(c.reg, td, out.Elem(), obj, ctx); err != nil {
		return nil, err
	}
	if c.ptr {
		return out.Interface(), nil
	}
	return out.Elem().Interface(), nil
}

// AcceptNotNull walks the properties. Fields of a struct held by value are
// visited in Immutable contexts, since the copy would not reach its owner.
func (c *structCodex) AcceptNotNull(v apis.Visitor, value any, ctx apis.VisitorContext) error {
	if v.VisitValue(value, c, ctx) {
		rv := reflect.ValueOf(value)
		if c.ptr {
			rv = rv.Elem()
		}
		td, err := c.reg.Describe(rv.Type())
		if err != nil {
			return err
		}
		if err := walkProperties(c.reg, td, rv, c.ptr, v); err != nil {
			return err
		}
	}
	v.EndVisitValue(value, c, ctx)
	return nil
}

// pointerCodex writes a pointer to a non-struct value as the value itself.
type pointerCodex struct {
	base
	elem *Lazy
}

func newPointer(d *descriptor.Descriptor, reg apis.Registry) (apis.Codex, bool) {
	t := d.Type()
	if t.Kind() != reflect.Pointer {
		return nil, false
	}
	return &pointerCodex{base{d}, NewLazy(reg, descriptor.MustOf(t.Elem()))}, true
}

func (c *pointerCodex) WriteNotNull(value any, ctx apis.SerializationContext) (wire.Node, error) {
	ec, err := c.elem.Get()
	if err != nil {
		return nil, err
	}
	return Write(ec, reflect.ValueOf(value).Elem().Interface(), ctx)
}

func (c *pointerCodex) ReadNotNull(node wire.Node, ctx apis.DeserializationContext) (any, error) {
	ec, err := c.elem.Get()
	if err != nil {
		return nil, err
	}
	v, err := ec.ReadNotNull(node, ctx)
	if err != nil {
		return nil, err
	}
	p := reflect.New(c.d.Type().Elem())
	if err := assign(p.Elem(), v); err != nil {
		return nil, err
	}
	return p.Interface(), nil
}

func (c *pointerCodex) AcceptNotNull(v apis.Visitor, value any, ctx apis.VisitorContext) error {
	if v.VisitValue(value, c, ctx) {
		ec, err := c.elem.Get()
		if err != nil {
			return err
		}
		p := reflect.ValueOf(value).Elem()
		sc := visit.NewSingleton()
		out, err := sc.Walk(v, p.Interface(), ec)
		if err != nil {
			return err
		}
		if sc.DidReplace() {
			if err := assign(p, out); err != nil {
				return err
			}
		}
	}
	v.EndVisitValue(value, c, ctx)
	return nil
}

// writeProperties appends the described properties of rv to obj. Null
// members are dropped when the config says so; skip names a member already
// written by the caller.
func writeProperties(reg apis.Registry, td *apis.TypeDescription, rv reflect.Value, obj *wire.Object, skip string, ctx apis.SerializationContext) error {
	omit := ctx.Config().OmitNulls
	for _, p := range td.Properties {
		if p.Name == skip {
			continue
		}
		fv := rv.FieldByIndex(p.Index)
		if p.OmitEmpty && fv.IsZero() {
			continue
		}
		pc, err := reg.CodexFor(p.Type)
		if err != nil {
			return err
		}
		ctx.PushPath("." + p.Name)
		n, err := Write(pc, fv.Interface(), ctx)
		ctx.PopPath()
		if err != nil {
			return err
		}
		if omit && wire.IsNull(n) {
			continue
		}
		obj.Set(p.Name, n)
	}
	return nil
}

// readProperties fills the addressable struct rv from obj. Members without
// a matching property are ignored; absent properties keep their value.
func readProperties(reg apis.Registry, td *apis.TypeDescription, rv reflect.Value, obj *wire.Object, ctx apis.DeserializationContext) error {
	for _, p := range td.Properties {
		n, ok := obj.Get(p.Name)
		if !ok {
			continue
		}
		pc, err := reg.CodexFor(p.Type)
		if err != nil {
			return err
		}
		ctx.PushPath("." + p.Name)
		v, err := Read(pc, n, ctx)
		if err == nil {
			err = assign(rv.FieldByIndex(p.Index), v)
		}
		ctx.PopPath()
		if err != nil {
			return err
		}
	}
	return nil
}

// walkProperties visits each property of rv. VisitProperty gets an Immutable
// context; the field value itself is visited in a Nullable or Singleton
// context when mutable is set and the result is stored back.
func walkProperties(reg apis.Registry, td *apis.TypeDescription, rv reflect.Value, mutable bool, v apis.Visitor) error {
	for _, p := range td.Properties {
		pctx := visit.NewImmutable()
		if v.VisitProperty(p, pctx) {
			if err := walkProperty(reg, p, rv.FieldByIndex(p.Index), mutable, v); err != nil {
				return err
			}
		}
		v.EndVisitProperty(p, pctx)
	}
	return nil
}

func walkProperty(reg apis.Registry, p *apis.Property, fv reflect.Value, mutable bool, v apis.Visitor) error {
	pc, err := reg.CodexFor(p.Type)
	if err != nil {
		return err
	}
	if !mutable {
		return visit.NewImmutable().Walk(v, fv.Interface(), pc)
	}

	var (
		out     any
		changed bool
	)
	if uref.Nillable(p.Type) {
		nc := visit.NewNullable()
		out, err = nc.Walk(v, fv.Interface(), pc)
		changed = nc.DidRemove() || nc.DidReplace()
	} else {
		sc := visit.NewSingleton()
		out, err = sc.Walk(v, fv.Interface(), pc)
		changed = sc.DidReplace()
	}
	if err != nil || !changed {
		return err
	}
	return assign(fv, out)
}
