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

package apis

// Visitor receives callbacks while a codex walks a value graph.
//
// Every non-nil value gets VisitValue and EndVisitValue. When VisitValue
// returns true, containers get VisitContainer/EndVisitContainer and entities
// get VisitEntity/EndVisitEntity; the End call happens even when the
// matching Visit call returned false, which only skips the descent.
// Entity properties get VisitProperty/EndVisitProperty in the same way.
type Visitor interface {
	VisitValue(value any, c Codex, ctx VisitorContext) bool
	EndVisitValue(value any, c Codex, ctx VisitorContext)

	VisitContainer(value any, c Codex, ctx VisitorContext) bool
	EndVisitContainer(value any, c Codex, ctx VisitorContext)

	VisitEntity(e Entity, c Codex, ctx VisitorContext) bool
	EndVisitEntity(e Entity, c Codex, ctx VisitorContext)

	VisitProperty(p *Property, ctx VisitorContext) bool
	EndVisitProperty(p *Property, ctx VisitorContext)
}

// VisitorContext is bound to the slot currently being visited. Mutations are
// staged and take effect after the slot's callbacks return; an unsupported
// mutation returns an error and leaves the container untouched.
type VisitorContext interface {
	CanInsert() bool
	CanRemove() bool
	CanReplace() bool

	// DidInsert, DidRemove and DidReplace are cumulative over the walk.
	DidInsert() bool
	DidRemove() bool
	DidReplace() bool

	InsertBefore(v any) error
	InsertAfter(v any) error
	Remove() error
	Replace(v any) error
}
