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
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/descriptor"
	"dirpx.dev/flatpack/wire"
)

// scalarCodex handles strings, booleans and numbers, including named types
// over them. Reads are lenient: numbers and booleans also parse from strings.
type scalarCodex struct {
	base
	kind reflect.Kind
}

func newScalar(d *descriptor.Descriptor, _ apis.Registry) (apis.Codex, bool) {
	switch k := d.Type().Kind(); k {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return &scalarCodex{base: base{d}, kind: k}, true
	}
	return nil, false
}

func (c *scalarCodex) WriteNotNull(value any, ctx apis.SerializationContext) (wire.Node, error) {
	rv := reflect.ValueOf(value)
	switch c.kind {
	case reflect.String:
		return wire.String(rv.String()), nil
	case reflect.Bool:
		return wire.Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return wire.Int(rv.Int()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, valueError(ctx, "%v cannot be encoded", f)
		}
		return wire.Float(f), nil
	}
	u := rv.Uint()
	if u > math.MaxInt64 {
		return nil, valueError(ctx, "%d overflows int64", u)
	}
	return wire.Int(int64(u)), nil
}

func (c *scalarCodex) ReadNotNull(node wire.Node, ctx apis.DeserializationContext) (any, error) {
	s, ok := node.(wire.Scalar)
	if !ok {
		return nil, shapeError(ctx, c.d, wire.KindScalar, node)
	}
	out := reflect.New(c.d.Type()).Elem()
	switch c.kind {
	case reflect.String:
		out.SetString(s.Text())
	case reflect.Bool:
		b, ok := s.AsBool()
		if !ok {
			var err error
			if b, err = strconv.ParseBool(s.Text()); err != nil {
				return nil, valueError(ctx, "%q is not a boolean", s.Text())
			}
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := s.AsInt()
		if !ok {
			var err error
			if i, err = strconv.ParseInt(s.Text(), 10, 64); err != nil {
				return nil, valueError(ctx, "%q is not an integer", s.Text())
			}
		}
		if out.OverflowInt(i) {
			return nil, valueError(ctx, "%d overflows %v", i, c.d.Type())
		}
		out.SetInt(i)
	case reflect.Float32, reflect.Float64:
		f, ok := s.AsFloat()
		if !ok {
			var err error
			if f, err = strconv.ParseFloat(s.Text(), 64); err != nil {
				return nil, valueError(ctx, "%q is not a number", s.Text())
			}
		}
		if out.OverflowFloat(f) {
			return nil, valueError(ctx, "%v overflows %v", f, c.d.Type())
		}
		out.SetFloat(f)
	default:
		i, ok := s.AsInt()
		if !ok {
			u, err := strconv.ParseUint(s.Text(), 10, 64)
			if err != nil {
				return nil, valueError(ctx, "%q is not an unsigned integer", s.Text())
			}
			if out.OverflowUint(u) {
				return nil, valueError(ctx, "%d overflows %v", u, c.d.Type())
			}
			out.SetUint(u)
			break
		}
		if i < 0 || out.OverflowUint(uint64(i)) {
			return nil, valueError(ctx, "%d overflows %v", i, c.d.Type())
		}
		out.SetUint(uint64(i))
	}
	return out.Interface(), nil
}

func (c *scalarCodex) AcceptNotNull(v apis.Visitor, value any, ctx apis.VisitorContext) error {
	return acceptLeaf(c, v, value, ctx)
}

// uuidCodex writes identifiers in their canonical string form.
type uuidCodex struct{ base }

func newUUID(d *descriptor.Descriptor, _ apis.Registry) (apis.Codex, bool) {
	return &uuidCodex{base{d}}, true
}

func (c *uuidCodex) WriteNotNull(value any, _ apis.SerializationContext) (wire.Node, error) {
	return wire.String(value.(uuid.UUID).String()), nil
}

func (c *uuidCodex) ReadNotNull(node wire.Node, ctx apis.DeserializationContext) (any, error) {
	s, ok := node.(wire.Scalar)
	if !ok {
		return nil, shapeError(ctx, c.d, wire.KindScalar, node)
	}
	id, err := uuid.Parse(s.Text())
	if err != nil {
		return nil, valueError(ctx, "%q is not a uuid", s.Text())
	}
	return id, nil
}

func (c *uuidCodex) AcceptNotNull(v apis.Visitor, value any, ctx apis.VisitorContext) error {
	return acceptLeaf(c, v, value, ctx)
}

// timeCodex writes instants as RFC 3339 strings with nanoseconds.
type timeCodex struct{ base }

func newTime(d *descriptor.Descriptor, _ apis.Registry) (apis.Codex, bool) {
	return &timeCodex{base{d}}, true
}

func (c *timeCodex) WriteNotNull(value any, _ apis.SerializationContext) (wire.Node, error) {
	return wire.String(value.(time.Time).Format(time.RFC3339Nano)), nil
}

func (c *timeCodex) ReadNotNull(node wire.Node, ctx apis.DeserializationContext) (any, error) {
	s, ok := node.(wire.Scalar)
	if !ok {
		return nil, shapeError(ctx, c.d, wire.KindScalar, node)
	}
	t, err := time.Parse(time.RFC3339Nano, s.Text())
	if err != nil {
		return nil, valueError(ctx, "%q is not an RFC 3339 time", s.Text())
	}
	return t, nil
}

func (c *timeCodex) AcceptNotNull(v apis.Visitor, value any, ctx apis.VisitorContext) error {
	return acceptLeaf(c, v, value, ctx)
}
