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
	"dirpx.dev/flatpack/wire"
)

var entityType = reflect.TypeFor[apis.Entity]()

// entityCodex handles pointers to entity structs. Inside a pack an entity is
// written as its identity; the body goes to the data section through
// WriteBody and ReadBody.
type entityCodex struct {
	base
	reg apis.Registry
}

var _ EntityCodex = (*entityCodex)(nil)

func newEntity(d *descriptor.Descriptor, reg apis.Registry) (apis.Codex, bool) {
	t := d.Type()
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct || !t.Implements(entityType) {
		return nil, false
	}
	return &entityCodex{base{d}, reg}, true
}

func (c *entityCodex) WriteNotNull(value any, _ apis.SerializationContext) (wire.Node, error) {
	return wire.String(value.(apis.Entity).UUID().String()), nil
}

// ReadNotNull resolves a reference. A string is the identity; an object
// carries the identity under the configured key and, optionally, the body.
func (c *entityCodex) ReadNotNull(node wire.Node, ctx apis.DeserializationContext) (any, error) {
	var body *wire.Object
	switch n := node.(type) {
	case wire.Scalar:
	case *wire.Object:
		body = n
		id, ok := n.Get(ctx.Config().IdentityKey)
		if !ok {
			return nil, valueError(ctx, "object for %v has no %q member", c.d.Type(), ctx.Config().IdentityKey)
		}
		node = id
	default:
		return nil, shapeError(ctx, c.d, wire.KindScalar, node)
	}

	id, err := readIdentity(node, ctx)
	if err != nil {
		return nil, err
	}
	e, err := c.resolve(id, ctx)
	if err != nil || e == nil {
		return nil, err
	}
	if body != nil && body.Len() > 1 {
		if err := c.ReadBody(e, body, ctx); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (c *entityCodex) resolve(id uuid.UUID, ctx apis.DeserializationContext) (apis.Entity, error) {
	if e, ok := ctx.Entity(id); ok {
		if reflect.TypeOf(e).AssignableTo(c.d.Type()) {
			return e, nil
		}
		if u, ok := e.(*Unknown); ok {
			ctx.Warn(fmt.Sprintf("dropped reference to %q %s: not a %v", u.TypeName, id, c.d.Type()))
			return nil, nil
		}
		return nil, valueError(ctx, "%s is a %T, not %v", id, e, c.d.Type())
	}
	e := c.Allocate(id, "")
	ctx.PutEntity(e)
	return e, nil
}

func (c *entityCodex) AcceptNotNull(v apis.Visitor, value any, ctx apis.VisitorContext) error {
	e := value.(apis.Entity)
	if v.VisitValue(value, c, ctx) {
		if v.VisitEntity(e, c, ctx) {
			rv := reflect.ValueOf(value).Elem()
			td, err := c.reg.Describe(rv.Type())
			if err != nil {
				return err
			}
			if err := walkProperties(c.reg, td, rv, true, v); err != nil {
				return err
			}
		}
		v.EndVisitEntity(e, c, ctx)
	}
	v.EndVisitValue(value, c, ctx)
	return nil
}

func (c *entityCodex) Allocate(id uuid.UUID, _ string) apis.Entity {
	e := reflect.New(c.d.Type().Elem()).Interface().(apis.Entity)
	e.SetUUID(id)
	return e
}

func (c *entityCodex) WriteBody(e apis.Entity, ctx apis.SerializationContext) (*wire.Object, error) {
	rv := reflect.ValueOf(e).Elem()
	td, err := c.reg.Describe(rv.Type())
	if err != nil {
		return nil, err
	}
	key := ctx.Config().IdentityKey
	obj := wire.NewObject().Set(key, wire.String(e.UUID().String()))
	if err := writeProperties(c.reg, td, rv, obj, key, ctx); err != nil {
		return nil, err
	}
	return obj, nil
}

func (c *entityCodex) ReadBody(e apis.Entity, obj *wire.Object, ctx apis.DeserializationContext) error {
	rv := reflect.ValueOf(e).Elem()
	td, err := c.reg.Describe(rv.Type())
	if err != nil {
		return err
	}
	return readProperties(c.reg, td, rv, obj, ctx)
}

func readIdentity(node wire.Node, ctx apis.DeserializationContext) (uuid.UUID, error) {
	s, ok := node.(wire.Scalar)
	if !ok {
		return uuid.Nil, valueError(ctx, "identity must be a string, got %s", wire.KindOf(node))
	}
	id, err := uuid.Parse(s.Text())
	if err != nil {
		return uuid.Nil, valueError(ctx, "%q is not a uuid", s.Text())
	}
	return id, nil
}
