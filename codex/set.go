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

var emptyStruct = reflect.TypeFor[struct{}]()

// setCodex writes map[K]struct{} as a sequence of keys in sorted order.
type setCodex struct {
	base
	elem *Lazy
}

func newSet(d *descriptor.Descriptor, reg apis.Registry) (apis.Codex, bool) {
	t := d.Type()
	if t.Kind() != reflect.Map || t.Elem() != emptyStruct {
		return nil, false
	}
	return &setCodex{base{d}, NewLazy(reg, descriptor.MustOf(t.Key()))}, true
}

func (c *setCodex) WriteNotNull(value any, ctx apis.SerializationContext) (wire.Node, error) {
	ec, err := c.elem.Get()
	if err != nil {
		return nil, err
	}
	keys := uref.SortedKeys(reflect.ValueOf(value))
	seq := make(wire.Sequence, len(keys))
	for i, k := range keys {
		ctx.PushPath(index(i))
		n, err := Write(ec, k.Interface(), ctx)
		ctx.PopPath()
		if err != nil {
			return nil, err
		}
		seq[i] = n
	}
	return seq, nil
}

func (c *setCodex) ReadNotNull(node wire.Node, ctx apis.DeserializationContext) (any, error) {
	seq, ok := node.(wire.Sequence)
	if !ok {
		return nil, shapeError(ctx, c.d, wire.KindSequence, node)
	}
	ec, err := c.elem.Get()
	if err != nil {
		return nil, err
	}
	t := c.d.Type()
	out := reflect.MakeMapWithSize(t, len(seq))
	present := reflect.Zero(emptyStruct)
	for i, n := range seq {
		ctx.PushPath(index(i))
		v, err := Read(ec, n, ctx)
		key := reflect.New(t.Key()).Elem()
		if err == nil {
			err = assign(key, v)
		}
		ctx.PopPath()
		if err != nil {
			return nil, err
		}
		out.SetMapIndex(key, present)
	}
	return out.Interface(), nil
}

func (c *setCodex) AcceptNotNull(v apis.Visitor, value any, ctx apis.VisitorContext) error {
	return acceptContainer(c, v, value, ctx, func() error {
		ec, err := c.elem.Get()
		if err != nil {
			return err
		}
		_, err = visit.NewIterable().Walk(v, reflect.ValueOf(value), ec)
		return err
	})
}
