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
	uref "dirpx.dev/flatpack/utils/reflect"
	"dirpx.dev/flatpack/visit"
	"dirpx.dev/flatpack/wire"
)

// Packer writes envelopes.
type Packer struct {
	reg apis.Registry
	options
}

// NewPacker returns a Packer resolving codices through reg.
func NewPacker(reg apis.Registry, opts ...Option) *Packer {
	return &Packer{reg: reg, options: newOptions(opts)}
}

// Pack writes value as an envelope. A nil value packs to wire.Null.
func (p *Packer) Pack(value any) (wire.Node, error) {
	return p.PackResult(&Result{Value: value})
}

// PackResult writes r.Value plus the entities, messages and extra data of
// r. Entities of r.Entities are packed even when the value does not reach
// them. Entities without an identity are given a new random one.
func (p *Packer) PackResult(r *Result) (wire.Node, error) {
	if r == nil || (uref.IsNil(r.Value) && len(r.Entities) == 0 && len(r.Errors) == 0 && len(r.Warnings) == 0) {
		return wire.Null, nil
	}

	env := wire.NewObject()
	ctx := codex.NewSerializationContext(p.reg.Config())
	s := &scanner{}
	v := visit.Acyclic(s)
	if !uref.IsNil(r.Value) {
		root, err := p.reg.CodexFor(reflect.TypeOf(r.Value))
		if err != nil {
			return nil, err
		}
		if _, err := visit.Walk(v, r.Value, root); err != nil {
			return nil, err
		}
		n, err := codex.Write(root, r.Value, ctx)
		if err != nil {
			return nil, err
		}
		env.Set(wire.ValueKey, n)
	}
	for _, e := range r.Entities {
		c, err := p.reg.CodexFor(reflect.TypeOf(e))
		if err != nil {
			return nil, err
		}
		if _, err := visit.Walk(v, e, c); err != nil {
			return nil, err
		}
	}
	if len(s.entities) > 0 {
		data, err := p.data(s.entities, ctx)
		if err != nil {
			return nil, err
		}
		env.Set(wire.DataKey, data)
	}
	p.log.Debug("packed", "entities", len(s.entities))

	if len(r.Errors) > 0 {
		env.Set(wire.ErrorsKey, messages(r.Errors))
	}
	if len(r.Warnings) > 0 {
		env.Set(wire.WarningsKey, messages(r.Warnings))
	}
	messages(r.ExtraData).Range(func(k string, v wire.Node) bool {
		if !env.Has(k) {
			env.Set(k, v)
		}
		return true
	})
	return env, nil
}

// data writes the entity bodies into per-type buckets, in encounter order.
func (p *Packer) data(entities []apis.Entity, ctx *codex.SerializationContext) (*wire.Object, error) {
	data := wire.NewObject()
	for _, e := range entities {
		c, err := p.reg.CodexFor(reflect.TypeOf(e))
		if err != nil {
			return nil, err
		}
		ec, ok := c.(codex.EntityCodex)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrNotEntity, e)
		}
		name := p.reg.TypeName(e)
		ctx.PushPath("." + wire.DataKey + "." + name)
		body, err := ec.WriteBody(e, ctx)
		ctx.PopPath()
		if err != nil {
			return nil, err
		}
		bucket, _ := data.Get(name)
		seq, _ := bucket.(wire.Sequence)
		data.Set(name, append(seq, body))
	}
	return data, nil
}

// scanner collects every entity reachable from the root, once each.
type scanner struct {
	visit.AcyclicBase
	entities []apis.Entity
}

func (s *scanner) VisitOnce(e apis.Entity, _ apis.Codex, _ apis.VisitorContext) bool {
	if e.UUID() == uuid.Nil {
		e.SetUUID(uuid.New())
	}
	s.entities = append(s.entities, e)
	return true
}
