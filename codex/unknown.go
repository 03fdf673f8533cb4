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
	"slices"
	"sort"

	"github.com/google/uuid"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/descriptor"
	"dirpx.dev/flatpack/visit"
	"dirpx.dev/flatpack/wire"
)

// Unknown stands in for a value whose type name is not registered. It keeps
// the name and every member, so a pack can be read, visited and written
// again without losing data. An Unknown with a nil ID is a plain value.
type Unknown struct {
	TypeName string
	ID       uuid.UUID
	Fields   map[string]any
	// Order lists member names in wire order. Fields missing from it are
	// written after the listed ones, sorted by name.
	Order []string
}

var (
	_ apis.Entity    = (*Unknown)(nil)
	_ apis.TypeNamer = (*Unknown)(nil)
)

func (u *Unknown) UUID() uuid.UUID        { return u.ID }
func (u *Unknown) SetUUID(id uuid.UUID)   { u.ID = id }
func (u *Unknown) EntityTypeName() string { return u.TypeName }

var (
	unknownType = reflect.TypeFor[*Unknown]()
	anyType     = reflect.TypeFor[any]()
	fieldsType  = reflect.TypeFor[map[string]any]()
)

type unknownCodex struct {
	base
	reg apis.Registry
}

var _ EntityCodex = (*unknownCodex)(nil)

func newUnknown(d *descriptor.Descriptor, reg apis.Registry) (apis.Codex, bool) {
	if d.Type() != unknownType {
		return nil, false
	}
	return &unknownCodex{base{d}, reg}, true
}

// WriteNotNull writes an identity for entities and a tagged object otherwise.
func (c *unknownCodex) WriteNotNull(value any, ctx apis.SerializationContext) (wire.Node, error) {
	u := value.(*Unknown)
	if u.ID != uuid.Nil {
		return wire.String(u.ID.String()), nil
	}
	obj := wire.NewObject().Set(ctx.Config().TypeTagKey, wire.String(u.TypeName))
	if err := c.writeFields(u, obj, ctx); err != nil {
		return nil, err
	}
	return obj, nil
}

func (c *unknownCodex) ReadNotNull(node wire.Node, ctx apis.DeserializationContext) (any, error) {
	switch n := node.(type) {
	case wire.Scalar:
		id, err := readIdentity(n, ctx)
		if err != nil {
			return nil, err
		}
		if e, ok := ctx.Entity(id); ok {
			u, ok := e.(*Unknown)
			if !ok {
				return nil, valueError(ctx, "%s is a %T, not an unknown entity", id, e)
			}
			return u, nil
		}
		e := c.Allocate(id, "")
		ctx.PutEntity(e)
		return e, nil
	case *wire.Object:
		var name string
		if tn, ok := n.Get(ctx.Config().TypeTagKey); ok {
			name = text(tn)
			n = n.Clone()
			n.Delete(ctx.Config().TypeTagKey)
		}
		return readUnknown(c.reg, name, n, ctx)
	}
	return nil, shapeError(ctx, c.d, wire.KindObject, node)
}

func (c *unknownCodex) AcceptNotNull(v apis.Visitor, value any, ctx apis.VisitorContext) error {
	u := value.(*Unknown)
	if v.VisitValue(value, c, ctx) {
		if u.ID == uuid.Nil {
			if err := c.walkFields(v, u); err != nil {
				return err
			}
		} else {
			if v.VisitEntity(u, c, ctx) {
				if err := c.walkFields(v, u); err != nil {
					return err
				}
			}
			v.EndVisitEntity(u, c, ctx)
		}
	}
	v.EndVisitValue(value, c, ctx)
	return nil
}

func (c *unknownCodex) walkFields(v apis.Visitor, u *Unknown) error {
	mc, err := c.reg.CodexFor(fieldsType)
	if err != nil {
		return err
	}
	sc := visit.NewSingleton()
	out, err := sc.Walk(v, u.Fields, mc)
	if err != nil {
		return err
	}
	if sc.DidReplace() {
		u.Fields, _ = out.(map[string]any)
	}
	return nil
}

func (c *unknownCodex) Allocate(id uuid.UUID, typeName string) apis.Entity {
	return &Unknown{TypeName: typeName, ID: id, Fields: make(map[string]any)}
}

func (c *unknownCodex) WriteBody(e apis.Entity, ctx apis.SerializationContext) (*wire.Object, error) {
	u := e.(*Unknown)
	obj := wire.NewObject().Set(ctx.Config().IdentityKey, wire.String(u.ID.String()))
	if err := c.writeFields(u, obj, ctx); err != nil {
		return nil, err
	}
	return obj, nil
}

func (c *unknownCodex) ReadBody(e apis.Entity, obj *wire.Object, ctx apis.DeserializationContext) error {
	u := e.(*Unknown)
	if u.Fields == nil {
		u.Fields = make(map[string]any)
	}
	return readFields(c.reg, u, obj, ctx)
}

func (c *unknownCodex) writeFields(u *Unknown, obj *wire.Object, ctx apis.SerializationContext) error {
	dyn, err := c.reg.CodexFor(anyType)
	if err != nil {
		return err
	}
	skip := ctx.Config().IdentityKey
	keys := make([]string, 0, len(u.Fields))
	for _, k := range u.Order {
		if _, ok := u.Fields[k]; ok && k != skip && !obj.Has(k) && !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range u.Fields {
		if k != skip && !obj.Has(k) && !slices.Contains(keys, k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)
	for _, k := range keys {
		ctx.PushPath("." + k)
		n, err := Write(dyn, u.Fields[k], ctx)
		ctx.PopPath()
		if err != nil {
			return err
		}
		obj.Set(k, n)
	}
	return nil
}

// readUnknown decodes an object carrying an unregistered type name. When it
// has an identity the result is shared with every other reference to it.
func readUnknown(reg apis.Registry, name string, obj *wire.Object, ctx apis.DeserializationContext) (*Unknown, error) {
	u := &Unknown{TypeName: name, Fields: make(map[string]any)}
	if idn, ok := obj.Get(ctx.Config().IdentityKey); ok {
		id, err := readIdentity(idn, ctx)
		if err != nil {
			return nil, err
		}
		if e, ok := ctx.Entity(id); ok {
			prev, ok := e.(*Unknown)
			if !ok {
				return nil, valueError(ctx, "%s is a %T, not %q", id, e, name)
			}
			u = prev
			if u.TypeName == "" {
				u.TypeName = name
			}
		} else {
			u.ID = id
			ctx.PutEntity(u)
		}
	}
	if err := readFields(reg, u, obj, ctx); err != nil {
		return nil, err
	}
	return u, nil
}

func readFields(reg apis.Registry, u *Unknown, obj *wire.Object, ctx apis.DeserializationContext) error {
	dyn, err := reg.CodexFor(anyType)
	if err != nil {
		return err
	}
	skip := ctx.Config().IdentityKey
	obj.Range(func(k string, n wire.Node) bool {
		if k == skip {
			return true
		}
		ctx.PushPath("." + k)
		defer ctx.PopPath()
		var v any
		if v, err = Read(dyn, n, ctx); err != nil {
			return false
		}
		u.Fields[k] = v
		if !slices.Contains(u.Order, k) {
			u.Order = append(u.Order, k)
		}
		return true
	})
	return err
}

// text renders a scalar node, or returns "" for anything else.
func text(n wire.Node) string {
	if s, ok := n.(wire.Scalar); ok {
		return s.Text()
	}
	return ""
}
