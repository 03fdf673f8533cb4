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

	"github.com/google/uuid"

	"dirpx.dev/flatpack/apis"
)

// Base is a visitor that descends into everything and does nothing.
// Embed it and override the callbacks of interest.
type Base struct{}

var _ apis.Visitor = Base{}

func (Base) VisitValue(any, apis.Codex, apis.VisitorContext) bool     { return true }
func (Base) EndVisitValue(any, apis.Codex, apis.VisitorContext)        {}
func (Base) VisitContainer(any, apis.Codex, apis.VisitorContext) bool { return true }
func (Base) EndVisitContainer(any, apis.Codex, apis.VisitorContext)    {}
func (Base) VisitEntity(apis.Entity, apis.Codex, apis.VisitorContext) bool {
	return true
}
func (Base) EndVisitEntity(apis.Entity, apis.Codex, apis.VisitorContext) {}
func (Base) VisitProperty(*apis.Property, apis.VisitorContext) bool     { return true }
func (Base) EndVisitProperty(*apis.Property, apis.VisitorContext)       {}

// OnceVisitor sees each distinct entity exactly once per walk.
type OnceVisitor interface {
	apis.Visitor
	// VisitOnce is called the first time an entity identity is met.
	VisitOnce(e apis.Entity, c apis.Codex, ctx apis.VisitorContext) bool
	// EndVisitOnce is called once per identity, after its traversal.
	EndVisitOnce(e apis.Entity, c apis.Codex, ctx apis.VisitorContext)
}

// Revisitor is implemented by a OnceVisitor that wants to observe repeated
// encounters of an already visited entity.
type Revisitor interface {
	Revisit(e apis.Entity, c apis.Codex, ctx apis.VisitorContext)
}

// AcyclicBase is Base plus greedy VisitOnce and a no-op EndVisitOnce.
type AcyclicBase struct{ Base }

func (AcyclicBase) VisitOnce(apis.Entity, apis.Codex, apis.VisitorContext) bool { return true }
func (AcyclicBase) EndVisitOnce(apis.Entity, apis.Codex, apis.VisitorContext)   {}

// Acyclic adapts v so that VisitEntity and EndVisitEntity reach it at most
// once per entity identity. EndVisitOnce pairs with the VisitOnce call, so
// it runs after the whole first traversal even when the entity is met
// again inside it. The adapter keeps its state for its whole life; Walk
// creates a fresh one per call.
func Acyclic(v OnceVisitor) apis.Visitor {
	return &acyclic{
		OnceVisitor: v,
		visited:     make(map[any]struct{}),
	}
}

type acyclic struct {
	OnceVisitor
	visited map[any]struct{}
	// first records, per open VisitEntity call, whether it was the first
	// encounter.
	first []bool
}

func (a *acyclic) VisitEntity(e apis.Entity, c apis.Codex, ctx apis.VisitorContext) bool {
	id := identity(e)
	if _, seen := a.visited[id]; seen {
		a.first = append(a.first, false)
		if r, ok := a.OnceVisitor.(Revisitor); ok {
			r.Revisit(e, c, ctx)
		}
		return false
	}
	a.visited[id] = struct{}{}
	a.first = append(a.first, true)
	enter := a.OnceVisitor.VisitOnce(e, c, ctx)
	// VisitOnce may have assigned the identity.
	if nid := identity(e); nid != id {
		a.visited[nid] = struct{}{}
	}
	return enter
}

func (a *acyclic) EndVisitEntity(e apis.Entity, c apis.Codex, ctx apis.VisitorContext) {
	n := len(a.first)
	if n == 0 {
		return
	}
	first := a.first[n-1]
	a.first = a.first[:n-1]
	if first {
		a.OnceVisitor.EndVisitOnce(e, c, ctx)
	}
}

// identity keys an entity by its UUID, or by address while it has none.
func identity(e apis.Entity) any {
	if id := e.UUID(); id != uuid.Nil {
		return id
	}
	if rv := reflect.ValueOf(e); rv.Kind() == reflect.Pointer {
		return rv.Pointer()
	}
	return e
}
