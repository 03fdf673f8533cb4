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

import (
	"reflect"
)

// Strategy is one step of wire type naming. A Resolver chains strategies
// in order (TypeNamer -> NameRegistry -> reflection).
type Strategy interface {
	// TryResolve names the type of value v, or returns ("", false) to fall through.
	TryResolve(v any, cfg Config) (name string, handled bool)
	// TryResolveType names t without an instance.
	TryResolveType(t reflect.Type, cfg Config) (name string, handled bool)
}

// Resolver produces a wire type name for any value or type.
type Resolver interface {
	// Resolve returns the wire name for v. It never returns "" for non-nil v.
	Resolve(v any, cfg Config) string
	// ResolveType returns the wire name for t, likewise never "" for non-nil t.
	ResolveType(t reflect.Type, cfg Config) string
}
