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

// NewNamerStrategy creates an apis.Strategy that uses apis.TypeNamer.
func NewNamerStrategy() apis.Strategy {
	return &namerStrategy{}
}

// namerStrategy returns the name a value picks for itself.
type namerStrategy struct{}

var _ apis.Strategy = (*namerStrategy)(nil)

var typeNamer = reflect.TypeFor[apis.TypeNamer]()

// TryResolve checks if v implements apis.TypeNamer. An empty name falls through.
func (*namerStrategy) TryResolve(v any, _ apis.Config) (string, bool) {
	if v == nil {
		return "", false
	}
	if n, ok := v.(apis.TypeNamer); ok {
		if name := n.EntityTypeName(); name != "" {
			return name, true
		}
	}
	return "", false
}

// TryResolveType asks a zero value of t for its name. Types whose name
// depends on instance state report "" for the zero value and fall through.
func (s *namerStrategy) TryResolveType(t reflect.Type, cfg apis.Config) (string, bool) {
	if t == nil {
		return "", false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Interface || !reflect.PointerTo(t).Implements(typeNamer) {
		return "", false
	}
	return s.TryResolve(reflect.New(t).Interface(), cfg)
}
