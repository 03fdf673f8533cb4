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

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"dirpx.dev/flatpack/wire"
)

// ErrFormat is returned for files whose extension names no known format.
var ErrFormat = errors.New("flatpack(cli): unknown file format")

// format is a wire encoding, optionally zstd-compressed.
type format struct {
	name string // "json" or "cbor"
	zstd bool
}

// formatOf derives the format from a file name such as "a.json",
// "a.jsonc" or "a.cbor.zst". Stdin and stdout ("-") use fallback.
func formatOf(path, fallback string) (format, error) {
	var f format
	name := path
	if path == "-" {
		name = "-." + fallback
	}
	if strings.HasSuffix(name, ".zst") {
		f.zstd = true
		name = strings.TrimSuffix(name, ".zst")
	}
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json", ".jsonc":
		f.name = "json"
	case ".cbor":
		f.name = "cbor"
	default:
		return format{}, fmt.Errorf("%w: %q", ErrFormat, path)
	}
	return f, nil
}

// readNode reads and decodes one file ("-" for in).
func readNode(path, fallback string, in io.Reader) (wire.Node, error) {
	f, err := formatOf(path, fallback)
	if err != nil {
		return nil, err
	}
	var data []byte
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if f.zstd {
		if data, err = decompress(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	var n wire.Node
	switch f.name {
	case "cbor":
		n, err = wire.ParseCBOR(data)
	default:
		n, err = wire.ParseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// writeNode encodes n to path ("-" for out).
func writeNode(path, fallback string, n wire.Node, indent bool, out io.Writer) error {
	f, err := formatOf(path, fallback)
	if err != nil {
		return err
	}
	var data []byte
	switch {
	case f.name == "cbor":
		data, err = wire.MarshalCBOR(n)
	case indent:
		data, err = wire.MarshalJSONIndent(n, "", "  ")
	default:
		data, err = wire.MarshalJSON(n)
	}
	if err != nil {
		return err
	}
	if f.name == "json" {
		data = append(data, '\n')
	}
	if f.zstd {
		if data, err = compress(data); err != nil {
			return err
		}
	}
	if path == "-" {
		_, err = out.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}
