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

// Builder composes the runtime components for a configuration.
// Each step receives the previous instance so registrations survive a rebuild.
type Builder interface {
	// BuildNames returns a name registry seeded from prev (which may be nil).
	BuildNames(cfg Config, prev NameRegistry) NameRegistry
	// BuildResolver returns a resolver consulting names.
	BuildResolver(cfg Config, names NameRegistry) Resolver
	// BuildRegistry returns a codex registry; keyed factories of prev are carried over.
	BuildRegistry(cfg Config, names NameRegistry, res Resolver, prev Registry) Registry
}
