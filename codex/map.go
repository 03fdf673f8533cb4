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

// mapCodex writes string-keyed maps as objects with sorted members. Each
// entry is visited in a Nullable context; removing it deletes the key.
type mapCodex struct {
	base
	elem *Lazy
}

func newMap(d *descriptor.Descriptor, reg apis.Registry) (apis.Codex, bool) {
	t := d.Type()
	if t.Kind() != reflect.Map || t.Key().Kind() != reflect.String {
		return nil, false
	}
	return &mapCodex{base{d}, NewLazy(reg, descriptor.MustOf(t.Elem()))}, true
}

func (c *mapCodex) WriteNotNull(value any, ctx apis.SerializationContext) (wire.Node, error) {
	ec, err := c.elem.Get()
	if err != nil {
		return nil, err
	}
	m := reflect.ValueOf(value)
	obj := wire.NewObject()
	for _, k := range uref.SortedKeys(m) {
		ctx.PushPath("." + k.String())
		n, err := Write(ec, m.MapIndex(k).Interface(), ctx)
		ctx.PopPath()
		if err != nil {
			return nil, err
		}
		obj.Set(k.String(), n)
	}
	return obj, nil
}

func (c *mapCodex) ReadNotNull(node wire.Node, ctx apis.DeserializationContext) (any, error) {
	obj, ok := node.(*wire.Object)
	if !ok {
		return nil, shapeError(ctx, c.d, wire.KindObject, node)
	}
	ec, err := c.elem.Get()
	if err != nil {
		return nil, err
	}
	t := c.d.Type()
	out := reflect.MakeMapWithSize(t, obj.Len())
	obj.Range(func(k string, n wire.Node) bool {
		ctx.PushPath("." + k)
		defer ctx.PopPath()
		var v any
		if v, err = Read(ec, n, ctx); err != nil {
			return false
		}
		val := reflect.New(t.Elem()).Elem()
		if err = assign(val, v); err != nil {
			return false
		}
		out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), val)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func (c *mapCodex) AcceptNotNull(v apis.Visitor, value any, ctx apis.VisitorContext) error {
	return acceptContainer(c, v, value, ctx, func() error {
		ec, err := c.elem.Get()
		if err != nil {
			return err
		}
		m := reflect.ValueOf(value)
		for _, k := range uref.SortedKeys(m) {
			nc := visit.NewNullable()
			out, err := nc.Walk(v, m.MapIndex(k).Interface(), ec)
			if err != nil {
				return err
			}
			switch {
			case nc.DidRemove():
				m.SetMapIndex(k, reflect.Value{})
			case nc.DidReplace():
				val := reflect.New(m.Type().Elem()).Elem()
				if err := assign(val, out); err != nil {
					return err
				}
				m.SetMapIndex(k, val)
			}
		}
		return nil
	})
}
