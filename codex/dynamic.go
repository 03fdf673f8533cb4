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
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/descriptor"
	uref "dirpx.dev/flatpack/utils/reflect"
	"dirpx.dev/flatpack/wire"
)

// dynamicCodex handles interface-typed slots. Values of struct types are
// written as objects tagged with their type name, entities as tagged
// references; anything else is written by the codex of its concrete type.
//
// Reading without a tag yields plain Go values: string, bool, int64,
// float64, []any and map[string]any. A tag naming an unregistered type
// yields an *Unknown and a warning.
type dynamicCodex struct {
	base
	reg apis.Registry
}

func newDynamic(d *descriptor.Descriptor, reg apis.Registry) (apis.Codex, bool) {
	if d.Type().Kind() != reflect.Interface {
		return nil, false
	}
	return &dynamicCodex{base{d}, reg}, true
}

func (c *dynamicCodex) WriteNotNull(value any, ctx apis.SerializationContext) (wire.Node, error) {
	cfg := ctx.Config()
	switch x := value.(type) {
	case *Unknown:
		if x.ID == uuid.Nil {
			uc, err := c.reg.CodexFor(unknownType)
			if err != nil {
				return nil, err
			}
			return uc.WriteNotNull(x, ctx)
		}
		return reference(cfg, x.TypeName, x.ID), nil
	case apis.Entity:
		return reference(cfg, c.reg.TypeName(x), x.UUID()), nil
	}

	rt := reflect.TypeOf(value)
	cc, err := c.reg.CodexFor(rt)
	if err != nil {
		return nil, err
	}
	n, err := cc.WriteNotNull(value, ctx)
	if err != nil {
		return nil, err
	}
	obj, ok := n.(*wire.Object)
	if !ok || uref.StructOf(rt) == nil {
		return n, nil
	}
	tagged := wire.NewObject().Set(cfg.TypeTagKey, wire.String(c.reg.TypeName(value)))
	obj.Range(func(k string, v wire.Node) bool {
		tagged.Set(k, v)
		return true
	})
	return tagged, nil
}

func reference(cfg apis.Config, name string, id uuid.UUID) *wire.Object {
	return wire.NewObject().
		Set(cfg.TypeTagKey, wire.String(name)).
		Set(cfg.IdentityKey, wire.String(id.String()))
}

func (c *dynamicCodex) ReadNotNull(node wire.Node, ctx apis.DeserializationContext) (any, error) {
	var (
		out any
		err error
	)
	switch n := node.(type) {
	case wire.Scalar:
		out = n.Value()
	case wire.Sequence:
		s := make([]any, len(n))
		for i, e := range n {
			ctx.PushPath(index(i))
			s[i], err = Read(c, e, ctx)
			ctx.PopPath()
			if err != nil {
				return nil, err
			}
		}
		out = s
	case *wire.Object:
		if tn, ok := n.Get(ctx.Config().TypeTagKey); ok {
			out, err = c.readTagged(text(tn), n, ctx)
		} else {
			out, err = c.readPlain(n, ctx)
		}
	default:
		return nil, shapeError(ctx, c.d, wire.KindObject, node)
	}
	if err != nil || out == nil {
		return out, err
	}

	if !reflect.TypeOf(out).AssignableTo(c.d.Type()) {
		if u, ok := out.(*Unknown); ok {
			ctx.Warn(fmt.Sprintf("dropped %q: not assignable to %v", u.TypeName, c.d.Type()))
			return nil, nil
		}
		return nil, valueError(ctx, "%T does not implement %v", out, c.d.Type())
	}
	return out, nil
}

func (c *dynamicCodex) readPlain(obj *wire.Object, ctx apis.DeserializationContext) (any, error) {
	m := make(map[string]any, obj.Len())
	var err error
	obj.Range(func(k string, n wire.Node) bool {
		ctx.PushPath("." + k)
		defer ctx.PopPath()
		m[k], err = Read(c, n, ctx)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// readTagged decodes obj with the codex of the named type. Entity types and
// types whose pointer satisfies the slot are read through their pointer.
func (c *dynamicCodex) readTagged(name string, obj *wire.Object, ctx apis.DeserializationContext) (any, error) {
	rest := obj.Clone()
	rest.Delete(ctx.Config().TypeTagKey)

	t, ok := c.reg.Lookup(name)
	if !ok {
		ctx.Warn(fmt.Sprintf("unknown type %q", name))
		return readUnknown(c.reg, name, rest, ctx)
	}

	target := t
	if pt := reflect.PointerTo(t); pt.Implements(entityType) ||
		(!t.AssignableTo(c.d.Type()) && pt.AssignableTo(c.d.Type())) {
		target = pt
	}
	tc, err := c.reg.CodexFor(target)
	if err != nil {
		return nil, err
	}
	return tc.ReadNotNull(rest, ctx)
}

// AcceptNotNull dispatches to the codex of the concrete type.
func (c *dynamicCodex) AcceptNotNull(v apis.Visitor, value any, ctx apis.VisitorContext) error {
	cc, err := c.reg.CodexFor(reflect.TypeOf(value))
	if err != nil {
		return err
	}
	return cc.AcceptNotNull(v, value, ctx)
}
