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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"dirpx.dev/flatpack/apis"
)

// ErrUnknownFormat is returned by Load for files that are neither YAML nor TOML.
var ErrUnknownFormat = errors.New("flatpack(config): unknown config format")

// Load reads a configuration file. The format is chosen by extension
// (.yaml, .yml or .toml). Members absent from the file keep their defaults.
func Load(path string) (apis.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return apis.Config{}, fmt.Errorf("flatpack(config): read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".toml":
		return ParseTOML(data)
	default:
		return apis.Config{}, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// ParseYAML decodes a YAML document over the defaults.
func ParseYAML(data []byte) (apis.Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return apis.Config{}, fmt.Errorf("flatpack(config): yaml: %w", err)
	}
	return normalize(cfg), nil
}

// ParseTOML decodes a TOML document over the defaults.
func ParseTOML(data []byte) (apis.Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return apis.Config{}, fmt.Errorf("flatpack(config): toml: %w", err)
	}
	return normalize(cfg), nil
}
