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
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Scalars use the core deterministic encoding (shortest integers and
// floats). Objects are written member by member in insertion order, so a
// pack keeps the same member order in CBOR as in JSON.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

const (
	majorArray = 4
	majorMap   = 5

	cborBreak = 0xff
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("wire: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("wire: CBOR decoder initialization failed: " + err.Error())
	}
}

// MarshalCBOR encodes n as CBOR.
func MarshalCBOR(n Node) ([]byte, error) {
	if n == nil {
		n = Null
	}
	return encMode.Marshal(n)
}

// MarshalCBOR implements cbor.Marshaler.
func (NullNode) MarshalCBOR() ([]byte, error) { return []byte{0xf6}, nil }

// MarshalCBOR implements cbor.Marshaler.
func (s Scalar) MarshalCBOR() ([]byte, error) { return encMode.Marshal(s.v) }

// MarshalCBOR implements cbor.Marshaler.
func (o *Object) MarshalCBOR() ([]byte, error) {
	buf := appendHead(nil, majorMap, uint64(len(o.keys)))
	for _, k := range o.keys {
		kb, err := encMode.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := encMode.Marshal(o.m[k])
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", k, err)
		}
		buf = append(append(buf, kb...), vb...)
	}
	return buf, nil
}

// ParseCBOR decodes one CBOR data item into a node tree, keeping map
// member order. Map keys must be text strings.
func ParseCBOR(data []byte) (Node, error) {
	n, rest, err := parseCBOR(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: trailing data after document", ErrSyntax)
	}
	return n, nil
}

func parseCBOR(data []byte) (Node, []byte, error) {
	if len(data) == 0 {
		return nil, nil, io.ErrUnexpectedEOF
	}
	switch data[0] >> 5 {
	case majorMap:
		n, indefinite, rest, err := readHead(data)
		if err != nil {
			return nil, nil, err
		}
		obj := NewObject()
		for i := uint64(0); indefinite || i < n; i++ {
			if indefinite && len(rest) > 0 && rest[0] == cborBreak {
				return obj, rest[1:], nil
			}
			var k string
			if rest, err = decMode.UnmarshalFirst(rest, &k); err != nil {
				return nil, nil, fmt.Errorf("map key: %w", err)
			}
			var v Node
			if v, rest, err = parseCBOR(rest); err != nil {
				return nil, nil, err
			}
			obj.Set(k, v)
		}
		return obj, rest, nil
	case majorArray:
		n, indefinite, rest, err := readHead(data)
		if err != nil {
			return nil, nil, err
		}
		seq := Sequence{}
		for i := uint64(0); indefinite || i < n; i++ {
			if indefinite && len(rest) > 0 && rest[0] == cborBreak {
				return seq, rest[1:], nil
			}
			var v Node
			if v, rest, err = parseCBOR(rest); err != nil {
				return nil, nil, err
			}
			seq = append(seq, v)
		}
		return seq, rest, nil
	}

	var v any
	rest, err := decMode.UnmarshalFirst(data, &v)
	if err != nil {
		return nil, nil, err
	}
	n, err := FromValue(v)
	return n, rest, err
}

// readHead decodes the head of an array or map item.
func readHead(b []byte) (n uint64, indefinite bool, rest []byte, err error) {
	info := b[0] & 0x1f
	switch {
	case info < 24:
		return uint64(info), false, b[1:], nil
	case info == 31:
		return 0, true, b[1:], nil
	case info > 27:
		return 0, false, nil, fmt.Errorf("malformed head 0x%02x", b[0])
	}
	size := 1 << (info - 24)
	if len(b) < 1+size {
		return 0, false, nil, io.ErrUnexpectedEOF
	}
	switch size {
	case 1:
		n = uint64(b[1])
	case 2:
		n = uint64(binary.BigEndian.Uint16(b[1:]))
	case 4:
		n = uint64(binary.BigEndian.Uint32(b[1:]))
	default:
		n = binary.BigEndian.Uint64(b[1:])
	}
	if n > uint64(len(b)) {
		return 0, false, nil, io.ErrUnexpectedEOF
	}
	return n, false, b[1+size:], nil
}

func appendHead(b []byte, major byte, n uint64) []byte {
	m := major << 5
	switch {
	case n < 24:
		return append(b, m|byte(n))
	case n <= math.MaxUint8:
		return append(b, m|24, byte(n))
	case n <= math.MaxUint16:
		return binary.BigEndian.AppendUint16(append(b, m|25), uint16(n))
	case n <= math.MaxUint32:
		return binary.BigEndian.AppendUint32(append(b, m|26), uint32(n))
	default:
		return binary.BigEndian.AppendUint64(append(b, m|27), n)
	}
}
