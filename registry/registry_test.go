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

package registry_test

import (
	"errors"
	"reflect"
	"testing"

	"dirpx.dev/flatpack/config"
	"dirpx.dev/flatpack/registry"
)

func TestRegister_IdempotentAndLookup(t *testing.T) {
	reg := registry.New(config.DefaultConfig())

	// pointer -> nearest named = T1
	if err := reg.Register(reflect.TypeOf(&T1{}), "t1"); err != nil {
		t.Fatalf("Register(&T1{}): unexpected error: %v", err)
	}
	if err := reg.Register(reflect.TypeOf(T1{}), "t1"); err != nil {
		t.Fatalf("Register(T1{}) idempotent: unexpected error: %v", err)
	}

	if name, ok := reg.Lookup(reflect.TypeOf(&T1{})); !ok || name != "t1" {
		t.Fatalf("Lookup(&T1{}): got (%q,%v), want (t1,true)", name, ok)
	}
	if typ, ok := reg.LookupName("t1"); !ok || typ != reflect.TypeOf(T1{}) {
		t.Fatalf("LookupName(t1): got (%v,%v), want (T1,true)", typ, ok)
	}
	// containers do not share the element name
	if _, ok := reg.Lookup(reflect.TypeOf([]T1{})); ok {
		t.Fatalf("Lookup([]T1{}) unexpectedly succeeded")
	}
	if reg.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", reg.Count())
	}
}

func TestRegister_Conflict(t *testing.T) {
	reg := registry.New(config.DefaultConfig())

	if err := reg.Register(reflect.TypeOf(&T1{}), "t1"); err != nil {
		t.Fatalf("Register: unexpected error: %v", err)
	}
	if err := reg.Register(reflect.TypeOf(T1{}), "other"); !errors.Is(err, registry.ErrConflictingRegistration) {
		t.Fatalf("type conflict: want ErrConflictingRegistration, got: %v", err)
	}
	if err := reg.Register(reflect.TypeOf(T2{}), "t1"); !errors.Is(err, registry.ErrConflictingRegistration) {
		t.Fatalf("name conflict: want ErrConflictingRegistration, got: %v", err)
	}
	if typ, _ := reg.LookupName("t1"); typ != reflect.TypeOf(T1{}) {
		t.Fatalf("first registration must win, got %v", typ)
	}
}

func TestRegister_Errors(t *testing.T) {
	reg := registry.New(config.DefaultConfig())

	if err := reg.Register(nil, "x"); err != registry.ErrNilType {
		t.Fatalf("nil type: want ErrNilType, got %v", err)
	}
	if err := reg.Register(reflect.TypeOf(&T1{}), ""); err != registry.ErrEmptyName {
		t.Fatalf("empty name: want ErrEmptyName, got %v", err)
	}
	if err := reg.Register(reflect.TypeOf([]T1{}), "list"); err == nil {
		t.Fatalf("unnamed type: want error")
	}
}

func TestNormalize_MaxUnwrapLimit(t *testing.T) {
	var x **T1

	reg := registry.New(config.NewConfig(config.WithMaxUnwrap(1)))
	if err := reg.Register(reflect.TypeOf(x), "t1"); err == nil {
		t.Fatalf("MaxUnwrap=1: expected error")
	}

	reg2 := registry.New(config.NewConfig(config.WithMaxUnwrap(8)))
	if err := reg2.Register(reflect.TypeOf(x), "t1"); err != nil {
		t.Fatalf("MaxUnwrap=8: unexpected error: %v", err)
	}
}

func TestEntriesAndReset(t *testing.T) {
	reg := registry.New(config.DefaultConfig())

	_ = reg.Register(reflect.TypeOf(&T1{}), "t1")
	_ = reg.Register(reflect.TypeOf(&T2{}), "t2")

	if n := len(reg.Entries()); n != 2 {
		t.Fatalf("Entries len = %d, want 2", n)
	}
	if reg.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", reg.Count())
	}

	reg.Reset()

	if reg.Count() != 0 {
		t.Fatalf("after Reset, Count() = %d, want 0", reg.Count())
	}
	if name, ok := reg.Lookup(reflect.TypeOf(&T1{})); ok || name != "" {
		t.Fatalf("Lookup after Reset: got (%q,%v), want ('',false)", name, ok)
	}
	if _, ok := reg.LookupName("t2"); ok {
		t.Fatalf("LookupName after Reset succeeded")
	}
}

func TestLookupNilAndUnknown(t *testing.T) {
	reg := registry.New(config.DefaultConfig())

	if name, ok := reg.Lookup(nil); ok || name != "" {
		t.Fatalf("Lookup(nil): got (%q,%v), want ('',false)", name, ok)
	}
	if name, ok := reg.Lookup(reflect.TypeOf(&T1{})); ok || name != "" {
		t.Fatalf("Lookup(unknown): got (%q,%v), want ('',false)", name, ok)
	}
	if _, ok := reg.LookupName("nope"); ok {
		t.Fatalf("LookupName(unknown) succeeded")
	}
}
