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

// Package resolver chains naming strategies into the apis.Resolver that
// gives every packed type its wire name.
package resolver

import (
	"reflect"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/descriptor"
	"dirpx.dev/flatpack/strategy"
)

// New returns a resolver trying strategies in order. Nil strategies are
// dropped.
func New(strategies ...apis.Strategy) apis.Resolver {
	c := chain{}
	for _, s := range strategies {
		if s != nil {
			c = append(c, s)
		}
	}
	return c
}

// Default returns the standard chain: TypeNamer, then names, then reflection.
func Default(names apis.NameRegistry) apis.Resolver {
	return New(
		strategy.NewNamerStrategy(),
		strategy.NewRegistryStrategy(names),
		strategy.NewReflectStrategy(),
	)
}

// chain is immutable once built.
type chain []apis.Strategy

// Resolve names v. Values no strategy handles, such as unnamed struct or
// slice types, are named by the descriptor key of their type, so a data
// bucket or type tag is never empty.
func (c chain) Resolve(v any, cfg apis.Config) string {
	if v == nil {
		return ""
	}
	for _, s := range c {
		if name, ok := s.TryResolve(v, cfg); ok {
			return name
		}
	}
	return fallback(reflect.TypeOf(v))
}

// ResolveType names t the same way Resolve names its values.
func (c chain) ResolveType(t reflect.Type, cfg apis.Config) string {
	if t == nil {
		return ""
	}
	for _, s := range c {
		if name, ok := s.TryResolveType(t, cfg); ok {
			return name
		}
	}
	return fallback(t)
}

func fallback(t reflect.Type) string {
	for t.Kind() == reflect.Pointer && t.Name() == "" {
		t = t.Elem()
	}
	return descriptor.MustOf(t).Key()
}
