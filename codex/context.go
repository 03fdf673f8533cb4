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
	"strings"

	"github.com/google/uuid"

	"dirpx.dev/flatpack/apis"
)

var (
	_ apis.SerializationContext   = (*SerializationContext)(nil)
	_ apis.DeserializationContext = (*DeserializationContext)(nil)
)

// path is a stack of segments such as ".manager" or "[3]".
type path struct {
	segs []string
}

func (p *path) PushPath(segment string) { p.segs = append(p.segs, segment) }

func (p *path) PopPath() {
	if n := len(p.segs); n > 0 {
		p.segs = p.segs[:n-1]
	}
}

// Path renders the stack rooted at "$".
func (p *path) Path() string {
	if len(p.segs) == 0 {
		return "$"
	}
	return "$" + strings.Join(p.segs, "")
}

// SerializationContext is the state of one write call.
type SerializationContext struct {
	path
	cfg apis.Config
}

// NewSerializationContext returns an empty write context.
func NewSerializationContext(cfg apis.Config) *SerializationContext {
	return &SerializationContext{cfg: cfg}
}

func (c *SerializationContext) Config() apis.Config { return c.cfg }

// Warning is a non-fatal problem met while reading.
type Warning struct {
	Path    string
	Message string
}

// DeserializationContext is the state of one read call. It owns the identity
// table, so every reference to the same identity resolves to one instance.
type DeserializationContext struct {
	path
	cfg      apis.Config
	entities map[uuid.UUID]apis.Entity
	order    []apis.Entity
	warnings []Warning
}

// NewDeserializationContext returns an empty read context.
func NewDeserializationContext(cfg apis.Config) *DeserializationContext {
	return &DeserializationContext{cfg: cfg, entities: make(map[uuid.UUID]apis.Entity)}
}

func (c *DeserializationContext) Config() apis.Config { return c.cfg }

func (c *DeserializationContext) Entity(id uuid.UUID) (apis.Entity, bool) {
	e, ok := c.entities[id]
	return e, ok
}

// PutEntity records e unless its identity is already taken.
func (c *DeserializationContext) PutEntity(e apis.Entity) {
	id := e.UUID()
	if _, ok := c.entities[id]; ok {
		return
	}
	c.entities[id] = e
	c.order = append(c.order, e)
}

func (c *DeserializationContext) Warn(msg string) {
	c.warnings = append(c.warnings, Warning{Path: c.Path(), Message: msg})
}

// Warnings returns the warnings in the order they were recorded.
func (c *DeserializationContext) Warnings() []Warning { return c.warnings }

// Entities returns the allocated entities in allocation order.
func (c *DeserializationContext) Entities() []apis.Entity { return c.order }
