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

package strategy

import (
	"reflect"

	"dirpx.dev/flatpack/apis"
)

// NewRegistryStrategy returns the strategy naming types by their explicit
// registration. Unpacking maps bucket names and type tags back through the
// same registry, so a registered name always round-trips.
func NewRegistryStrategy(names apis.NameRegistry) apis.Strategy {
	return registered{names}
}

// registered misses for every type when names is nil.
type registered struct {
	names apis.NameRegistry
}

var _ apis.Strategy = registered{}

func (r registered) TryResolve(v any, cfg apis.Config) (string, bool) {
	if v == nil {
		return "", false
	}
	return r.TryResolveType(reflect.TypeOf(v), cfg)
}

// TryResolveType names t, *t and **t alike (up to cfg.MaxUnwrap).
func (r registered) TryResolveType(t reflect.Type, _ apis.Config) (string, bool) {
	if t == nil || r.names == nil {
		return "", false
	}
	return r.names.Lookup(t)
}
