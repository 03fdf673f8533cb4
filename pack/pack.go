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

// Package pack turns a value graph into a self-contained envelope and back.
//
// The envelope is an object with the root under "value" and every entity
// reachable from it under "data", grouped in buckets named by entity type:
//
//	{"value": "5f0c...", "data": {"manager": [{"uuid": "5f0c...", ...}]}}
//
// Inside the envelope an entity is always written as its identity, so
// cycles and shared references cost nothing.
package pack

import (
	"errors"
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/wire"
)

var (
	// ErrNotPack is returned for input that is not a well-formed envelope.
	ErrNotPack = errors.New("flatpack(pack): not a pack")
	// ErrNotEntity is returned when a data bucket names a non-entity type.
	ErrNotEntity = errors.New("flatpack(pack): not an entity type")
)

// Result is an unpacked envelope, or the input of Packer.PackResult.
type Result struct {
	// Value is the root value.
	Value any
	// Entities are every entity of the pack in allocation order.
	Entities []apis.Entity
	// Errors and Warnings map a path to a message.
	Errors   map[string]string
	Warnings map[string]string
	// ExtraData holds any other scalar top-level members.
	ExtraData map[string]string
}

func newResult() *Result {
	return &Result{
		Errors:    make(map[string]string),
		Warnings:  make(map[string]string),
		ExtraData: make(map[string]string),
	}
}

// addMessage records msg under path, joining repeated paths.
func addMessage(m map[string]string, path, msg string) {
	if prev, ok := m[path]; ok {
		msg = prev + "; " + msg
	}
	m[path] = msg
}

// Option configures a Packer or an Unpacker.
type Option func(*options)

type options struct {
	log *log.Logger
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{log: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// messages renders m as an object with sorted members.
func messages(m map[string]string) *wire.Object {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	obj := wire.NewObject()
	for _, k := range keys {
		obj.Set(k, wire.String(m[k]))
	}
	return obj
}
