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

// Config controls naming, wire layout and traversal limits.
// It is a plain comparable value so snapshots can be compared with ==.
type Config struct {
	// IdentityKey is the reserved object member holding an entity's identity.
	IdentityKey string `yaml:"identity_key" toml:"identity_key"`
	// TypeTagKey is the reserved object member naming the concrete type of a
	// value written into an interface-typed slot.
	TypeTagKey string `yaml:"type_tag_key" toml:"type_tag_key"`
	// MaxUnwrap limits pointer unwrapping when normalizing a type to its
	// nearest named struct.
	MaxUnwrap int `yaml:"max_unwrap" toml:"max_unwrap"`
	// MaxDepth limits type descriptor nesting accepted by the registry.
	MaxDepth int `yaml:"max_depth" toml:"max_depth"`
	// OmitNulls drops null-valued properties from entity and struct bodies.
	OmitNulls bool `yaml:"omit_nulls" toml:"omit_nulls"`
}
