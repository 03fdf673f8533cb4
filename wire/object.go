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

package wire

import "slices"

// Object is a string-keyed map that remembers insertion order.
// The zero value is not usable; use NewObject.
type Object struct {
	keys []string
	m    map[string]Node
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{m: make(map[string]Node)}
}

// Kind implements Node.
func (*Object) Kind() Kind { return KindObject }

// Set stores v under k. Replacing an existing member keeps its position.
func (o *Object) Set(k string, v Node) *Object {
	if v == nil {
		v = Null
	}
	if _, ok := o.m[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.m[k] = v
	return o
}

// Get returns the member k.
func (o *Object) Get(k string) (Node, bool) {
	v, ok := o.m[k]
	return v, ok
}

// Has reports whether k is a member.
func (o *Object) Has(k string) bool {
	_, ok := o.m[k]
	return ok
}

// Delete removes k.
func (o *Object) Delete(k string) {
	if _, ok := o.m[k]; !ok {
		return
	}
	delete(o.m, k)
	o.keys = slices.DeleteFunc(o.keys, func(s string) bool { return s == k })
}

// Keys returns member names in insertion order.
func (o *Object) Keys() []string {
	return slices.Clone(o.keys)
}

// Len returns the number of members.
func (o *Object) Len() int { return len(o.keys) }

// Range calls fn for each member in order until fn returns false.
func (o *Object) Range(fn func(k string, v Node) bool) {
	for _, k := range o.keys {
		if !fn(k, o.m[k]) {
			return
		}
	}
}

// Clone returns a shallow copy.
func (o *Object) Clone() *Object {
	c := &Object{keys: slices.Clone(o.keys), m: make(map[string]Node, len(o.m))}
	for k, v := range o.m {
		c.m[k] = v
	}
	return c
}
