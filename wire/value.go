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

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// FromValue converts generic Go data (as produced by encoding/json or a
// CBOR decoder into any) to a node. Maps become objects with sorted keys.
func FromValue(v any) (Node, error) {
	switch x := v.(type) {
	case nil:
		return Null, nil
	case Node:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return fromUint(uint64(x)), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return fromUint(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case json.Number:
		return number(x)
	case []byte:
		return String(base64.StdEncoding.EncodeToString(x)), nil
	case []any:
		seq := make(Sequence, len(x))
		for i, e := range x {
			n, err := FromValue(e)
			if err != nil {
				return nil, err
			}
			seq[i] = n
		}
		return seq, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		obj := NewObject()
		for _, k := range keys {
			n, err := FromValue(x[k])
			if err != nil {
				return nil, err
			}
			obj.Set(k, n)
		}
		return obj, nil
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[fmt.Sprint(k)] = e
		}
		return FromValue(m)
	}
	return nil, fmt.Errorf("flatpack(wire): unsupported value %T", v)
}

func fromUint(u uint64) Node {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

// ToValue converts a node to generic Go data: nil, string, bool, int64,
// float64, []any or map[string]any.
func ToValue(n Node) any {
	switch x := n.(type) {
	case Scalar:
		return x.v
	case Sequence:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = ToValue(e)
		}
		return out
	case *Object:
		out := make(map[string]any, x.Len())
		x.Range(func(k string, v Node) bool {
			out[k] = ToValue(v)
			return true
		})
		return out
	}
	return nil
}
