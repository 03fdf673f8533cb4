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
	"strconv"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/descriptor"
	"dirpx.dev/flatpack/visit"
	"dirpx.dev/flatpack/wire"
)

// sequence is shared by slices and arrays.
type sequence struct {
	base
	elem *Lazy
}

func index(i int) string { return "[" + strconv.Itoa(i) + "]" }

func (c *sequence) write(rv reflect.Value, ctx apis.SerializationContext) (wire.Node, error) {
	ec, err := c.elem.Get()
	if err != nil {
		return nil, err
	}
	seq := make(wire.Sequence, rv.Len())
	for i := range seq {
		ctx.PushPath(index(i))
		n, err := Write(ec, rv.Index(i).Interface(), ctx)
		ctx.PopPath()
		if err != nil {
			return nil, err
		}
		seq[i] = n
	}
	return seq, nil
}

func (c *sequence) read(seq wire.Sequence, out reflect.Value, ctx apis.DeserializationContext) error {
	ec, err := c.elem.Get()
	if err != nil {
		return err
	}
	for i, n := range seq {
		ctx.PushPath(index(i))
		v, err := Read(ec, n, ctx)
		if err == nil {
			err = assign(out.Index(i), v)
		}
		ctx.PopPath()
		if err != nil {
			return err
		}
	}
	return nil
}

// sliceCodex writes a slice as a sequence. Visitors may insert, remove and
// replace elements; a resized slice is handed to the enclosing context.
type sliceCodex struct{ sequence }

func newSlice(d *descriptor.Descriptor, reg apis.Registry) (apis.Codex, bool) {
	t := d.Type()
	if t.Kind() != reflect.Slice {
		return nil, false
	}
	return &sliceCodex{sequence{base{d}, NewLazy(reg, descriptor.MustOf(t.Elem()))}}, true
}

func (c *sliceCodex) WriteNotNull(value any, ctx apis.SerializationContext) (wire.Node, error) {
	return c.write(reflect.ValueOf(value), ctx)
}

func (c *sliceCodex) ReadNotNull(node wire.Node, ctx apis.DeserializationContext) (any, error) {
	seq, ok := node.(wire.Sequence)
	if !ok {
		return nil, shapeError(ctx, c.d, wire.KindSequence, node)
	}
	out := reflect.MakeSlice(c.d.Type(), len(seq), len(seq))
	if err := c.read(seq, out, ctx); err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func (c *sliceCodex) AcceptNotNull(v apis.Visitor, value any, ctx apis.VisitorContext) error {
	return acceptContainer(c, v, value, ctx, func() error {
		ec, err := c.elem.Get()
		if err != nil {
			return err
		}
		lc := visit.NewList()
		out, err := lc.Walk(v, reflect.ValueOf(value), ec)
		if err != nil {
			return err
		}
		if lc.DidInsert() || lc.DidRemove() {
			return visit.Propagate(ctx, out.Interface())
		}
		return nil
	})
}

// arrayCodex writes a fixed-size array as a sequence. Shorter sequences
// leave the trailing elements zero; longer ones are rejected.
type arrayCodex struct{ sequence }

func newArray(d *descriptor.Descriptor, reg apis.Registry) (apis.Codex, bool) {
	t := d.Type()
	if t.Kind() != reflect.Array {
		return nil, false
	}
	return &arrayCodex{sequence{base{d}, NewLazy(reg, descriptor.MustOf(t.Elem()))}}, true
}

func (c *arrayCodex) WriteNotNull(value any, ctx apis.SerializationContext) (wire.Node, error) {
	return c.write(reflect.ValueOf(value), ctx)
}

func (c *arrayCodex) ReadNotNull(node wire.Node, ctx apis.DeserializationContext) (any, error) {
	seq, ok := node.(wire.Sequence)
	if !ok {
		return nil, shapeError(ctx, c.d, wire.KindSequence, node)
	}
	if n := c.d.Type().Len(); len(seq) > n {
		return nil, valueError(ctx, "%d elements do not fit %v", len(seq), c.d.Type())
	}
	out := reflect.New(c.d.Type()).Elem()
	if err := c.read(seq, out, ctx); err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func (c *arrayCodex) AcceptNotNull(v apis.Visitor, value any, ctx apis.VisitorContext) error {
	return acceptContainer(c, v, value, ctx, func() error {
		ec, err := c.elem.Get()
		if err != nil {
			return err
		}
		ac := visit.NewArray()
		out, err := ac.Walk(v, reflect.ValueOf(value), ec)
		if err != nil {
			return err
		}
		if ac.DidReplace() {
			return visit.Propagate(ctx, out.Interface())
		}
		return nil
	})
}
