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

// Package flatpack converts Go object graphs, cycles included, into a flat
// tree of wire nodes and back.
//
// A packed value is an envelope. The root value sits under "value". Every
// entity reachable from it sits once in the "data" section, grouped by
// type name, and all references to an entity are its identity:
//
//	{
//	  "value": "0b8e...",
//	  "data": {
//	    "manager":  [{"uuid": "0b8e...", "name": "Ada", "employees": ["41c2..."]}],
//	    "employee": [{"uuid": "41c2...", "name": "Bob", "manager": "0b8e..."}]
//	  }
//	}
//
// # Design
//
// The package keeps a read-mostly global snapshot. The snapshot holds:
//
//   - Config: reserved member names and traversal limits.
//
//   - Names: a bidirectional map between Go types and wire type names.
//     Unpacking needs it to turn a bucket or "@" tag back into a type.
//
//   - Resolver: answers "what is the wire name of this value or type?" by
//     trying, in order, apis.TypeNamer, the name registry, and the
//     decapitalized Go type name.
//
//   - Registry: hands out one shared Codex per type descriptor. A Codex
//     writes, reads and walks values of exactly one type.
//
//   - Builder: composes the above for a Config and carries registered names
//     and keyed factories over when the configuration changes.
//
// Readers load the snapshot pointer and never mutate it; writers build a
// new snapshot under a mutex and swap it in. Lookups are lock-free:
//
//	node, err := flatpack.Pack(manager)
//	m, res, err := flatpack.UnpackAs[*Manager](node)
//
// # Entities
//
// An entity is a pointer to a struct implementing apis.Entity, usually by
// embedding apis.EntityBase. Packing assigns a random identity to entities
// that have none. Types must be registered (Register, RegisterType) before
// packs naming them can be unpacked; unregistered names decode to
// *codex.Unknown values that keep the name and every member, so the data
// survives an unpack and repack unchanged.
//
// # Visiting
//
// Visit walks a value graph with an apis.Visitor. Containers are walked
// through visitor contexts that let the visitor insert, remove or replace
// elements; changes are applied after each element's callbacks return.
// Visitors implementing visit.OnceVisitor see each entity once per walk,
// whatever the number of references to it.
//
// # Merging
//
// Merge combines two envelopes that share entities by identity; the first
// argument wins collisions and supplies the root value.
package flatpack
