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
	"runtime"
	"sync"
	"testing"

	"dirpx.dev/flatpack/config"
	"dirpx.dev/flatpack/strategy"
)

// Local test types.
type A struct{}
type G[T any] struct{}
type HTTPRoute struct{}

func TestReflectStrategy_ByValue(t *testing.T) {
	s := strategy.NewReflectStrategy()
	conf := config.DefaultConfig()

	cases := []struct {
		name string
		val  any
		want string
		ok   bool
	}{
		{"plain struct", A{}, "a", true},
		{"ptr", &A{}, "a", true},
		{"acronym", HTTPRoute{}, "httpRoute", true},
		{"generic strips params", G[int]{}, "g", true},
		{"builtin", 42, "int", true},
		{"slice is unnamed", []A{}, "", false},
		{"nil", nil, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := s.TryResolve(tc.val, conf)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("got (%q,%v), want (%q,%v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestReflectStrategy_MaxUnwrap(t *testing.T) {
	s := strategy.NewReflectStrategy()
	tt := reflect.TypeOf((**A)(nil))

	if got, ok := s.TryResolveType(tt, config.NewConfig(config.WithMaxUnwrap(1))); ok {
		t.Fatalf("MaxUnwrap=1: expected failed resolution, got %q", got)
	}
	if got, ok := s.TryResolveType(tt, config.NewConfig(config.WithMaxUnwrap(8))); !ok || got != "a" {
		t.Fatalf("MaxUnwrap=8: got (%q,%v), want (a,true)", got, ok)
	}
}

// This test stresses the memoization path under concurrency.
func TestReflectStrategy_Concurrent(t *testing.T) {
	s := strategy.NewReflectStrategy()
	conf := config.DefaultConfig()

	types := []reflect.Type{
		reflect.TypeOf(A{}),
		reflect.TypeOf(&A{}),
		reflect.TypeOf(G[int]{}),
		reflect.TypeOf(HTTPRoute{}),
		reflect.TypeOf(0),
	}
	expect := []string{"a", "a", "g", "httpRoute", "int"}

	workers := runtime.GOMAXPROCS(0) * 4
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				idx := (i + id) % len(types)
				if got, ok := s.TryResolveType(types[idx], conf); !ok || got != expect[idx] {
					t.Errorf("TryResolveType(%v) = (%q,%v), want %q", types[idx], got, ok, expect[idx])
					return
				}
			}
		}(w)
	}
	wg.Wait()
}
