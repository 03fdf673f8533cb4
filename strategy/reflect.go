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
	"strings"
	"sync"

	"dirpx.dev/flatpack/apis"
	uref "dirpx.dev/flatpack/utils/reflect"
)

// NewReflectStrategy creates the fallback apis.Strategy: the decapitalized
// simple name of the nearest named type ("Employee" -> "employee").
func NewReflectStrategy() apis.Strategy {
	return reflectStrategy{}
}

type reflectStrategy struct{}

var _ apis.Strategy = (*reflectStrategy)(nil)

type cacheKey struct {
	t         reflect.Type
	maxUnwrap int16
}

var typeNameCache sync.Map // cacheKey -> string

// TryResolve computes the name for v's type.
func (reflectStrategy) TryResolve(v any, cfg apis.Config) (string, bool) {
	if v == nil {
		return "", false
	}
	return byType(reflect.TypeOf(v), cfg)
}

// TryResolveType computes the name for t.
func (reflectStrategy) TryResolveType(t reflect.Type, cfg apis.Config) (string, bool) {
	if t == nil {
		return "", false
	}
	return byType(t, cfg)
}

func byType(t reflect.Type, cfg apis.Config) (string, bool) {
	key := cacheKey{t: t, maxUnwrap: int16(cfg.MaxUnwrap)}
	if v, ok := typeNameCache.Load(key); ok {
		s := v.(string)
		return s, s != ""
	}

	name := ""
	if base, err := uref.Normalize(t, cfg); err == nil {
		name = uref.Decapitalize(stripTypeParams(base.Name()))
	}
	typeNameCache.Store(key, name)
	return name, name != ""
}

// stripTypeParams removes generic type instantiation suffix: "T[int,string]" -> "T".
func stripTypeParams(s string) string {
	if i := strings.IndexByte(s, '['); i >= 0 {
		return s[:i]
	}
	return s
}
