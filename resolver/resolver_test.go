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

package resolver_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/flatpack/config"
	"dirpx.dev/flatpack/registry"
	"dirpx.dev/flatpack/resolver"
)

type Invoice struct{}
type LineItem struct{}
type Self struct{}

func (*Self) EntityTypeName() string { return "myself" }

func TestDefaultChainOrder(t *testing.T) {
	conf := config.DefaultConfig()
	names := registry.New(conf)
	require.NoError(t, names.Register(reflect.TypeOf(Invoice{}), "bill"))
	// the namer wins over the registry
	require.NoError(t, names.Register(reflect.TypeOf(Self{}), "registered"))

	res := resolver.Default(names)

	assert.Equal(t, "bill", res.Resolve(&Invoice{}, conf))
	assert.Equal(t, "lineItem", res.Resolve(LineItem{}, conf))
	assert.Equal(t, "myself", res.Resolve(&Self{}, conf))
	assert.Equal(t, "myself", res.ResolveType(reflect.TypeOf(Self{}), conf))
	assert.Equal(t, "bill", res.ResolveType(reflect.TypeOf(&Invoice{}), conf))
	assert.Equal(t, "", res.Resolve(nil, conf))
	assert.Equal(t, "", res.ResolveType(nil, conf))
}

func TestUnnamedTypesFallBackToDescriptorKey(t *testing.T) {
	conf := config.DefaultConfig()
	res := resolver.Default(registry.New(conf))

	assert.Equal(t, "[]<int>", res.ResolveType(reflect.TypeOf([]int{}), conf))
	assert.Equal(t, "map<string,[]<string>>", res.Resolve(map[string][]string{}, conf))
	assert.Equal(t, "struct { A int }", res.Resolve(&struct{ A int }{}, conf))
}

func TestNilStrategiesIgnored(t *testing.T) {
	res := resolver.New(nil, nil)
	assert.Equal(t, "dirpx.dev/flatpack/resolver_test.Invoice", res.Resolve(Invoice{}, config.DefaultConfig()))
}
