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

package strategy_test

import (
	"reflect"
	"testing"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/config"
	"dirpx.dev/flatpack/strategy"
)

type namedType struct{}

func (*namedType) EntityTypeName() string { return "custom" }

// dynamicNamed names itself from instance state.
type dynamicNamed struct{ tag string }

func (d *dynamicNamed) EntityTypeName() string { return d.tag }

func TestNamerStrategy_TryResolve(t *testing.T) {
	s := strategy.NewNamerStrategy()
	conf := config.DefaultConfig()

	got, ok := s.TryResolve(&namedType{}, conf)
	if !ok || got != "custom" {
		t.Fatalf("TryResolve: got (%q,%v), want (custom,true)", got, ok)
	}

	got, ok = s.TryResolve(struct{}{}, conf)
	if ok || got != "" {
		t.Fatalf("TryResolve(non-namer): got (%q,%v), want ('',false)", got, ok)
	}

	// empty names fall through
	if got, ok := s.TryResolve(&dynamicNamed{}, conf); ok || got != "" {
		t.Fatalf("TryResolve(empty): got (%q,%v), want ('',false)", got, ok)
	}
	if got, ok := s.TryResolve(&dynamicNamed{tag: "x"}, conf); !ok || got != "x" {
		t.Fatalf("TryResolve(tagged): got (%q,%v), want (x,true)", got, ok)
	}
}

func TestNamerStrategy_TryResolveType(t *testing.T) {
	s := strategy.NewNamerStrategy()
	conf := config.DefaultConfig()

	for _, typ := range []reflect.Type{reflect.TypeOf(namedType{}), reflect.TypeOf(&namedType{})} {
		if got, ok := s.TryResolveType(typ, conf); !ok || got != "custom" {
			t.Fatalf("TryResolveType(%v): got (%q,%v), want (custom,true)", typ, got, ok)
		}
	}
	if got, ok := s.TryResolveType(reflect.TypeOf(dynamicNamed{}), conf); ok {
		t.Fatalf("TryResolveType(dynamic) = %q, want fall through", got)
	}
	if _, ok := s.TryResolveType(reflect.TypeFor[apis.TypeNamer](), conf); ok {
		t.Fatalf("TryResolveType(interface) must fall through")
	}
	if _, ok := s.TryResolveType(nil, conf); ok {
		t.Fatalf("TryResolveType(nil) must fall through")
	}
}

var _ apis.TypeNamer = (*namedType)(nil)
