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

// Package wire is the tree-shaped node model that packs are made of:
// null, scalars, ordered sequences and insertion-ordered objects.
// Nodes encode to JSON and CBOR.
package wire

import (
	"fmt"
	"math"
	"strconv"
)

// Members of the pack envelope.
const (
	ValueKey    = "value"
	DataKey     = "data"
	ErrorsKey   = "errors"
	WarningsKey = "warnings"
)

// Kind classifies a Node.
type Kind uint8

const (
	KindNull Kind = iota
	KindScalar
	KindSequence
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Node is a wire tree node. A nil Node is treated as Null everywhere.
type Node interface {
	Kind() Kind
}

// NullNode is the type of Null.
type NullNode struct{}

// Null is the null node.
var Null Node = NullNode{}

// Kind implements Node.
func (NullNode) Kind() Kind { return KindNull }

// KindOf returns the kind of n, mapping nil to KindNull.
func KindOf(n Node) Kind {
	if n == nil {
		return KindNull
	}
	return n.Kind()
}

// IsNull reports whether n is nil or Null.
func IsNull(n Node) bool { return KindOf(n) == KindNull }

// Scalar holds a string, bool, int64 or float64.
type Scalar struct {
	v any
}

// String returns a string scalar.
func String(s string) Scalar { return Scalar{v: s} }

// Bool returns a boolean scalar.
func Bool(b bool) Scalar { return Scalar{v: b} }

// Int returns an integer scalar.
func Int(i int64) Scalar { return Scalar{v: i} }

// Float returns a floating point scalar. Integral values stay floats.
func Float(f float64) Scalar { return Scalar{v: f} }

// Kind implements Node.
func (Scalar) Kind() Kind { return KindScalar }

// Value returns the underlying string, bool, int64 or float64.
func (s Scalar) Value() any { return s.v }

// AsString returns the string value.
func (s Scalar) AsString() (string, bool) {
	v, ok := s.v.(string)
	return v, ok
}

// AsBool returns the boolean value.
func (s Scalar) AsBool() (bool, bool) {
	v, ok := s.v.(bool)
	return v, ok
}

// AsInt returns the value as an integer. Floats convert when integral.
func (s Scalar) AsInt() (int64, bool) {
	switch v := s.v.(type) {
	case int64:
		return v, true
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt64 && v <= math.MaxInt64 {
			return int64(v), true
		}
	}
	return 0, false
}

// AsFloat returns the value as a float. Integers convert.
func (s Scalar) AsFloat() (float64, bool) {
	switch v := s.v.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Text renders any scalar as a string.
func (s Scalar) Text() string {
	switch v := s.v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Sequence is an ordered list of nodes.
type Sequence []Node

// Kind implements Node.
func (Sequence) Kind() Kind { return KindSequence }

// Equal reports deep equality of two nodes. Objects compare member order too.
func Equal(a, b Node) bool {
	if KindOf(a) != KindOf(b) {
		return false
	}
	switch x := a.(type) {
	case Scalar:
		return x.v == b.(Scalar).v
	case Sequence:
		y := b.(Sequence)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Object:
		y := b.(*Object)
		if x.Len() != y.Len() {
			return false
		}
		for i, k := range x.keys {
			if y.keys[i] != k || !Equal(x.m[k], y.m[k]) {
				return false
			}
		}
		return true
	}
	return true
}
