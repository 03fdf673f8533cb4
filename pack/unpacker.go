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

package pack

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/codex"
	"dirpx.dev/flatpack/wire"
)

var unknownType = reflect.TypeFor[*codex.Unknown]()

// Unpacker reads envelopes.
type Unpacker struct {
	reg apis.Registry
	options
}

// NewUnpacker returns an Unpacker resolving codices and type names through reg.
func NewUnpacker(reg apis.Registry, opts ...Option) *Unpacker {
	return &Unpacker{reg: reg, options: newOptions(opts)}
}

// pending is an allocated entity waiting for its body.
type pending struct {
	entity apis.Entity
	codex  codex.EntityCodex
	body   *wire.Object
}

// Unpack reads node as an envelope whose root has type t.
//
// Every entity in the data section is allocated before any body is read,
// so references resolve regardless of bucket order. Buckets naming an
// unregistered type become *codex.Unknown entities and add a warning.
func (u *Unpacker) Unpack(t reflect.Type, node wire.Node) (*Result, error) {
	res := newResult()
	if wire.IsNull(node) {
		if t != nil {
			res.Value = reflect.Zero(t).Interface()
		}
		return res, nil
	}
	env, ok := node.(*wire.Object)
	if !ok {
		return nil, fmt.Errorf("%w: envelope is a %s", ErrNotPack, wire.KindOf(node))
	}

	ctx := codex.NewDeserializationContext(u.reg.Config())
	var (
		value   wire.Node = wire.Null
		pendent []pending
		err     error
	)
	env.Range(func(k string, n wire.Node) bool {
		switch k {
		case wire.DataKey:
			pendent, err = u.allocate(n, ctx)
		case wire.ValueKey:
			value = n
		case wire.ErrorsKey:
			collect(n, res.Errors)
		case wire.WarningsKey:
			collect(n, res.Warnings)
		default:
			if s, ok := n.(wire.Scalar); ok {
				res.ExtraData[k] = s.Text()
			}
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	for _, p := range pendent {
		ctx.PushPath("." + wire.DataKey + "." + p.entity.UUID().String())
		err := p.codex.ReadBody(p.entity, p.body, ctx)
		ctx.PopPath()
		if err != nil {
			return nil, err
		}
	}

	root, err := u.reg.CodexFor(t)
	if err != nil {
		return nil, err
	}
	if res.Value, err = codex.Read(root, value, ctx); err != nil {
		return nil, err
	}
	res.Entities = ctx.Entities()
	for _, w := range ctx.Warnings() {
		addMessage(res.Warnings, w.Path, w.Message)
	}
	u.log.Debug("unpacked", "type", root.Descriptor(), "entities", len(res.Entities), "warnings", len(res.Warnings))
	return res, nil
}

// allocate creates an empty entity for every data-section body.
func (u *Unpacker) allocate(data wire.Node, ctx *codex.DeserializationContext) ([]pending, error) {
	buckets, ok := data.(*wire.Object)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotPack, wire.DataKey, wire.KindOf(data))
	}
	key := ctx.Config().IdentityKey

	var (
		out []pending
		err error
	)
	buckets.Range(func(name string, bucket wire.Node) bool {
		ctx.PushPath("." + wire.DataKey + "." + name)
		defer ctx.PopPath()

		seq, ok := bucket.(wire.Sequence)
		if !ok {
			err = fmt.Errorf("%w: %s: bucket is a %s", ErrNotPack, ctx.Path(), wire.KindOf(bucket))
			return false
		}
		var ec codex.EntityCodex
		if ec, err = u.bucketCodex(name, ctx); err != nil {
			return false
		}
		for i, item := range seq {
			body, ok := item.(*wire.Object)
			if !ok {
				err = fmt.Errorf("%w: %s[%d] is a %s", ErrNotPack, ctx.Path(), i, wire.KindOf(item))
				return false
			}
			var id uuid.UUID
			if id, err = identity(body, key); err != nil {
				err = fmt.Errorf("%w: %s[%d]: %v", ErrNotPack, ctx.Path(), i, err)
				return false
			}
			if _, dup := ctx.Entity(id); dup {
				continue
			}
			e := ec.Allocate(id, name)
			ctx.PutEntity(e)
			out = append(out, pending{entity: e, codex: ec, body: body})
		}
		return true
	})
	return out, err
}

func (u *Unpacker) bucketCodex(name string, ctx *codex.DeserializationContext) (codex.EntityCodex, error) {
	target := unknownType
	if t, ok := u.reg.Lookup(name); ok {
		target = reflect.PointerTo(t)
	} else {
		ctx.Warn(fmt.Sprintf("unknown type %q", name))
		u.log.Debug("unknown entity type", "name", name)
	}
	c, err := u.reg.CodexFor(target)
	if err != nil {
		return nil, err
	}
	ec, ok := c.(codex.EntityCodex)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotEntity, name)
	}
	return ec, nil
}

func identity(body *wire.Object, key string) (uuid.UUID, error) {
	n, ok := body.Get(key)
	if !ok {
		return uuid.Nil, fmt.Errorf("no %q member", key)
	}
	s, ok := n.(wire.Scalar)
	if !ok {
		return uuid.Nil, fmt.Errorf("%q is a %s", key, wire.KindOf(n))
	}
	return uuid.Parse(s.Text())
}

// collect copies the scalar members of a messages object into m.
func collect(n wire.Node, m map[string]string) {
	obj, ok := n.(*wire.Object)
	if !ok {
		return
	}
	obj.Range(func(k string, v wire.Node) bool {
		if s, ok := v.(wire.Scalar); ok {
			m[k] = s.Text()
		}
		return true
	})
}

// UnpackAs is Unpack for a root of type T.
func UnpackAs[T any](u *Unpacker, node wire.Node) (T, *Result, error) {
	var zero T
	res, err := u.Unpack(reflect.TypeFor[T](), node)
	if err != nil {
		return zero, nil, err
	}
	v, _ := res.Value.(T)
	return v, res, nil
}
