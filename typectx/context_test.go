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

package typectx_test

import (
	"errors"
	"reflect"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/codex"
	"dirpx.dev/flatpack/config"
	"dirpx.dev/flatpack/descriptor"
	"dirpx.dev/flatpack/internal/fixture"
	"dirpx.dev/flatpack/registry"
	"dirpx.dev/flatpack/resolver"
	"dirpx.dev/flatpack/typectx"
	"dirpx.dev/flatpack/wire"
)

func newContext(t *testing.T, opts ...config.Option) *typectx.Context {
	t.Helper()
	cfg := config.NewConfig(opts...)
	names := registry.New(cfg)
	return typectx.New(cfg, names, resolver.Default(names),
		typectx.WithFactories(codex.DefaultFactories()...),
		typectx.WithKeyedFactories(codex.DefaultKeyed()...),
	)
}

func TestCodex_EqualDescriptorsShareOneInstance(t *testing.T) {
	ctx := newContext(t)

	a, err := ctx.Codex(descriptor.For[[]string]())
	require.NoError(t, err)
	b, err := ctx.Codex(descriptor.SliceOf(descriptor.For[string]()))
	require.NoError(t, err)
	c, err := ctx.CodexFor(reflect.TypeOf(fixture.Drawing{}).Field(3).Type.Elem())
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Same(t, a, c)
	assert.Equal(t, "[]<string>", a.Descriptor().Key())
}

func TestCodex_ConcurrentFirstUse(t *testing.T) {
	ctx := newContext(t)
	descs := []*descriptor.Descriptor{
		descriptor.For[map[string][]int](),
		descriptor.For[*fixture.Manager](),
		descriptor.For[[]*fixture.Employee](),
		descriptor.For[fixture.Drawing](),
	}

	workers := runtime.GOMAXPROCS(0) * 4
	got := make([][]apis.Codex, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			<-start
			for _, d := range descs {
				cx, err := ctx.Codex(d)
				if err != nil {
					t.Errorf("Codex(%s): %v", d, err)
					return
				}
				got[w] = append(got[w], cx)
			}
		}(w)
	}
	close(start)
	wg.Wait()

	for w := 1; w < workers; w++ {
		require.Len(t, got[w], len(descs))
		for i := range descs {
			assert.Same(t, got[0][i], got[w][i], "worker %d, %s", w, descs[i])
		}
	}
}

func TestCodex_Unsupported(t *testing.T) {
	ctx := newContext(t)
	for i := 0; i < 2; i++ {
		_, err := ctx.Codex(descriptor.For[chan int]())
		require.Error(t, err)
		assert.ErrorIs(t, err, typectx.ErrUnsupportedType)
		assert.Contains(t, err.Error(), "chan int")
	}

	_, err := ctx.Codex(nil)
	assert.ErrorIs(t, err, descriptor.ErrNilType)
}

func TestCodex_TooDeep(t *testing.T) {
	ctx := newContext(t, config.WithMaxDepth(1))
	_, err := ctx.Codex(descriptor.For[[]string]())
	require.NoError(t, err)
	_, err = ctx.Codex(descriptor.For[[][]string]())
	assert.ErrorIs(t, err, descriptor.ErrTooDeep)
}

type list struct {
	Next *list
	Kids []list
}

func TestCodex_SelfReferentialType(t *testing.T) {
	ctx := newContext(t)
	cx, err := ctx.CodexFor(reflect.TypeFor[*list]())
	require.NoError(t, err)

	v := &list{Next: &list{}, Kids: []list{{}}}
	n, err := codex.Write(cx, v, codex.NewSerializationContext(ctx.Config()))
	require.NoError(t, err)
	js, err := wire.MarshalJSON(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"next":{},"kids":[{}]}`, string(js))
}

type celsius float64

type fixed struct {
	apis.Codex
	tag string
}

func TestRegisterFactory_KeyedWinsOverChain(t *testing.T) {
	ctx := newContext(t)
	raw := descriptor.For[celsius]().Raw()

	scalar, err := ctx.Codex(descriptor.For[float64]())
	require.NoError(t, err)
	build := func(tag string) apis.Factory {
		return apis.FactoryFunc(func(*descriptor.Descriptor, apis.Registry) (apis.Codex, bool) {
			return &fixed{Codex: scalar, tag: tag}, true
		})
	}
	ctx.RegisterFactory(raw, -1, build("any"))
	ctx.RegisterFactory(raw, 0, build("exact"))

	cx, err := ctx.Codex(descriptor.For[celsius]())
	require.NoError(t, err)
	require.IsType(t, &fixed{}, cx)
	assert.Equal(t, "exact", cx.(*fixed).tag)

	kfs := ctx.KeyedFactories()
	require.Len(t, kfs, len(codex.DefaultKeyed())+2)
	assert.Equal(t, raw, kfs[len(kfs)-1].Raw)
}

type described struct {
	apis.EntityBase
	Plain    string
	Tagged   int    `flatpack:"t"`
	JSON     bool   `json:"j,omitempty"`
	Skipped  string `flatpack:"-"`
	private  string
	HTTPPort int
	inner
}

type inner struct {
	Depth int `json:"depth"`
}

func TestDescribe(t *testing.T) {
	ctx := newContext(t)
	td, err := ctx.Describe(reflect.TypeFor[*described]())
	require.NoError(t, err)

	assert.Equal(t, reflect.TypeFor[described](), td.Type)
	assert.True(t, td.Entity)

	var names []string
	for _, p := range td.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"plain", "t", "j", "httpPort", "depth"}, names)
	assert.True(t, td.Properties[2].OmitEmpty)
	assert.Equal(t, []int{7, 0}, td.Properties[4].Index)

	assert.Equal(t, "described", ctx.TypeName(&described{}))
	require.NoError(t, ctx.RegisterType(reflect.TypeFor[described](), "renamed"))
	assert.Equal(t, "renamed", ctx.TypeName(&described{}))

	again, err := ctx.Describe(reflect.TypeFor[described]())
	require.NoError(t, err)
	assert.Same(t, td, again)

	_, err = ctx.Describe(reflect.TypeFor[[]string]())
	assert.ErrorIs(t, err, typectx.ErrUnsupportedType)
}

func TestRegisterType(t *testing.T) {
	ctx := newContext(t)
	require.NoError(t, ctx.RegisterType(reflect.TypeFor[fixture.Employee](), ""))
	require.NoError(t, ctx.RegisterType(reflect.TypeFor[*fixture.Department](), ""))

	got, ok := ctx.Lookup("employee")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[fixture.Employee](), got)

	got, ok = ctx.Lookup("dept")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[fixture.Department](), got)

	err := ctx.RegisterType(reflect.TypeFor[fixture.Manager](), "employee")
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrConflictingRegistration))
	got, _ = ctx.Lookup("employee")
	assert.Equal(t, reflect.TypeFor[fixture.Employee](), got)

	assert.Equal(t, "manager", ctx.TypeName(&fixture.Manager{}))
	assert.Equal(t, "dept", ctx.TypeName(&fixture.Department{}))
}
