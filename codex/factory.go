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

package codex

import (
	"reflect"
	"time"

	"github.com/google/uuid"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/descriptor"
)

// DefaultFactories returns the generic factory chain, most specific first.
// A registry appends user factories after these.
func DefaultFactories() []apis.Factory {
	return []apis.Factory{
		apis.FactoryFunc(newUnknown),
		apis.FactoryFunc(newDynamic),
		apis.FactoryFunc(newEntity),
		apis.FactoryFunc(newScalar),
		apis.FactoryFunc(newSlice),
		apis.FactoryFunc(newArray),
		apis.FactoryFunc(newSet),
		apis.FactoryFunc(newMap),
		apis.FactoryFunc(newStruct),
		apis.FactoryFunc(newPointer),
	}
}

// DefaultKeyed returns the factories bound to specific named types. Keyed
// factories are consulted before the generic chain.
func DefaultKeyed() []apis.KeyedFactory {
	return []apis.KeyedFactory{
		{Raw: descriptor.Named(reflect.TypeFor[uuid.UUID]()), Arity: 0, Factory: apis.FactoryFunc(newUUID)},
		{Raw: descriptor.Named(reflect.TypeFor[time.Time]()), Arity: 0, Factory: apis.FactoryFunc(newTime)},
	}
}
