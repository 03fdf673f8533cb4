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

package flatpack

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/builder"
	"dirpx.dev/flatpack/config"
	"dirpx.dev/flatpack/descriptor"
	"dirpx.dev/flatpack/internal/fixture"
	"dirpx.dev/flatpack/visit"
	"dirpx.dev/flatpack/wire"
)

// reset installs b with the default config and restores the default
// builder when the test ends.
func reset(tb testing.TB, b apis.Builder) {
	tb.Helper()
	cfg := config.DefaultConfig()
	SetAll(&cfg, b)
	tb.Cleanup(func() {
		cfg := config.DefaultConfig()
		SetAll(&cfg, builder.New())
	})
}

// ---------------------- Test doubles (mocks) ----------------------

// recordingBuilder delegates to the default builder and records its inputs.
type recordingBuilder struct {
	apis.Builder
	mu        sync.Mutex
	lastCfg   apis.Config
	prevNames apis.NameRegistry
	prevReg   apis.Registry
	builds    int
	nilNames  bool
}

func newRecordingBuilder() *recordingBuilder {
	return &recordingBuilder{Builder: builder.New()}
}

func (b *recordingBuilder) BuildNames(cfg apis.Config, prev apis.NameRegistry) apis.NameRegistry {
	b.mu.Lock()
	b.lastCfg, b.prevNames = cfg, prev
	nilNames := b.nilNames
	b.mu.Unlock()
	if nilNames {
		return nil
	}
	return b.Builder.BuildNames(cfg, prev)
}

func (b *recordingBuilder) BuildRegistry(cfg apis.Config, names apis.NameRegistry, res apis.Resolver, prev apis.Registry) apis.Registry {
	b.mu.Lock()
	b.builds++
	b.prevReg = prev
	b.mu.Unlock()
	return b.Builder.BuildRegistry(cfg, names, res, prev)
}

type celsius float64

// celsiusCodex writes temperatures as "21.5C".
type celsiusCodex struct{ d *descriptor.Descriptor }

func (c celsiusCodex) Descriptor() *descriptor.Descriptor { return c.d }

func (celsiusCodex) WriteNotNull(v any, _ apis.SerializationContext) (wire.Node, error) {
	return wire.String(strconv.FormatFloat(float64(v.(celsius)), 'f', -1, 64) + "C"), nil
}

func (celsiusCodex) ReadNotNull(n wire.Node, _ apis.DeserializationContext) (any, error) {
	s, _ := n.(wire.Scalar).AsString()
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "C"), 64)
	return celsius(f), err
}

func (c celsiusCodex) AcceptNotNull(v apis.Visitor, value any, ctx apis.VisitorContext) error {
	v.VisitValue(value, c, ctx)
	v.EndVisitValue(value, c, ctx)
	return nil
}

var celsiusFactory = apis.FactoryFunc(func(d *descriptor.Descriptor, _ apis.Registry) (apis.Codex, bool) {
	return celsiusCodex{d}, true
})

// ---------------------- Tests ----------------------

func TestDefaultsAreUsable(t *testing.T) {
	if Registry() == nil || Names() == nil || Resolver() == nil || Builder() == nil {
		t.Fatalf("default snapshot is incomplete")
	}
	if got := Config().IdentityKey; got != config.DefaultIdentityKey {
		t.Fatalf("IdentityKey = %q, want %q", got, config.DefaultIdentityKey)
	}
}

func TestSetConfig_RebuildsAndKeepsNames(t *testing.T) {
	b := newRecordingBuilder()
	reset(t, b)

	type gauge struct{}
	if err := RegisterType(reflect.TypeFor[gauge](), "gauge"); err != nil {
		t.Fatalf("RegisterType: %v", err)
	}
	reg1, names1 := Registry(), Names()

	SetConfig(config.NewConfig(config.WithIdentityKey("id")))

	if Registry() == reg1 {
		t.Fatalf("registry was not rebuilt on SetConfig")
	}
	if Names() == names1 {
		t.Fatalf("name registry was not rebuilt on SetConfig")
	}
	if got := Config().IdentityKey; got != "id" {
		t.Fatalf("IdentityKey = %q, want id", got)
	}
	if got := Registry().Config().IdentityKey; got != "id" {
		t.Fatalf("registry sees IdentityKey %q, want id", got)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastCfg.IdentityKey != "id" {
		t.Fatalf("builder received wrong cfg: %+v", b.lastCfg)
	}
	if b.prevNames != names1 || b.prevReg != reg1 {
		t.Fatalf("builder did not receive the previous components")
	}
	if tp, ok := Names().LookupName("gauge"); !ok || tp != reflect.TypeFor[gauge]() {
		t.Fatalf("registration lost on rebuild: %v, %v", tp, ok)
	}
}

func TestSetBuilder(t *testing.T) {
	reset(t, builder.New())
	b := newRecordingBuilder()

	SetBuilder(nil)
	if Builder() == apis.Builder(b) {
		t.Fatalf("nil builder must be ignored")
	}

	SetBuilder(b)
	if Builder() != apis.Builder(b) {
		t.Fatalf("builder was not installed")
	}
	b.mu.Lock()
	builds := b.builds
	b.mu.Unlock()
	if builds != 1 {
		t.Fatalf("builds = %d, want 1", builds)
	}
}

func TestSetAll_NilKeepsComponent(t *testing.T) {
	b := newRecordingBuilder()
	reset(t, b)

	cfg := config.NewConfig(config.WithMaxDepth(4))
	SetAll(&cfg, nil)
	if Builder() != apis.Builder(b) {
		t.Fatalf("builder replaced by nil")
	}
	if Config().MaxDepth != 4 {
		t.Fatalf("MaxDepth = %d, want 4", Config().MaxDepth)
	}

	SetAll(nil, builder.New())
	if Config().MaxDepth != 4 {
		t.Fatalf("config replaced by nil")
	}
}

func TestBuilderReturningNilPanics(t *testing.T) {
	reset(t, builder.New())
	before := Registry()

	b := newRecordingBuilder()
	b.nilNames = true
	func() {
		defer func() {
			r := recover()
			err, _ := r.(error)
			if !errors.Is(err, ErrNilNames) {
				t.Fatalf("recovered %v, want ErrNilNames", r)
			}
		}()
		SetBuilder(b)
	}()

	if Registry() != before {
		t.Fatalf("a failed build must not be published")
	}
}

func TestRegisterFactory_SurvivesRebuild(t *testing.T) {
	reset(t, builder.New())
	raw := descriptor.Named(reflect.TypeFor[celsius]())
	if err := RegisterFactory(raw, 0, celsiusFactory); err != nil {
		t.Fatalf("RegisterFactory: %v", err)
	}

	check := func() {
		t.Helper()
		c, err := Codex(descriptor.For[celsius]())
		if err != nil {
			t.Fatalf("Codex: %v", err)
		}
		if _, ok := c.(celsiusCodex); !ok {
			t.Fatalf("got %T, want celsiusCodex", c)
		}
	}
	check()
	SetConfig(config.NewConfig(config.WithOmitNulls(false)))
	check()

	n, err := Pack(celsius(21.5))
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	got, _, err := UnpackAs[celsius](n)
	if err != nil {
		t.Fatalf("UnpackAs: %v", err)
	}
	if got != 21.5 {
		t.Fatalf("got %v, want 21.5", got)
	}
}

func TestPackUnpack_Global(t *testing.T) {
	reset(t, builder.New())
	if err := Register[fixture.Manager](); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := Register[fixture.Employee](); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := TypeNameOf(reflect.TypeFor[*fixture.Employee]()); got != "employee" {
		t.Fatalf("TypeNameOf = %q, want employee", got)
	}

	m := fixture.Org("Ada", "Bob")
	n, err := Pack(m)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	got, res, err := UnpackAs[*fixture.Manager](n)
	if err != nil {
		t.Fatalf("UnpackAs: %v", err)
	}
	if got.Name != "Ada" || len(got.Employees) != 1 || got.Employees[0].Manager != got {
		t.Fatalf("unexpected graph: %+v", got)
	}
	if len(res.Entities) != 2 {
		t.Fatalf("entities = %d, want 2", len(res.Entities))
	}

	r2, err := Unpack(reflect.TypeFor[*fixture.Manager](), n)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if r2.Value.(*fixture.Manager) == got {
		t.Fatalf("separate unpacks must not share instances")
	}
}

// counter counts the strings it sees.
type counter struct {
	apis.Visitor
	n int
}

func (c *counter) VisitValue(v any, _ apis.Codex, _ apis.VisitorContext) bool {
	if _, ok := v.(string); ok {
		c.n++
	}
	return true
}

func TestVisit(t *testing.T) {
	reset(t, builder.New())
	c := &counter{Visitor: visit.Base{}}

	if out, err := Visit(c, nil); out != nil || err != nil {
		t.Fatalf("Visit(nil) = %v, %v", out, err)
	}
	m := &fixture.Manager{Name: "Ada", Employees: []*fixture.Employee{{Name: "Bob"}, {Name: "Cy"}}}
	if _, err := Visit(c, m); err != nil {
		t.Fatalf("Visit: %v", err)
	}
	if c.n != 3 {
		t.Fatalf("strings seen = %d, want 3", c.n)
	}
}

func TestMerge_UsesConfiguredIdentityKey(t *testing.T) {
	reset(t, builder.New())
	SetConfig(config.NewConfig(config.WithIdentityKey("id")))

	parse := func(s string) wire.Node {
		n, err := wire.ParseJSON([]byte(s))
		if err != nil {
			t.Fatalf("ParseJSON: %v", err)
		}
		return n
	}
	out, err := Merge(
		parse(`{"value":"a","data":{"user":[{"id":"a"}]}}`),
		parse(`{"data":{"user":[{"id":"a"},{"id":"b"}]}}`),
	)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	b, _ := wire.MarshalJSON(out)
	if want := `{"value":"a","data":{"user":[{"id":"a"},{"id":"b"}]}}`; string(b) != want {
		t.Fatalf("Merge = %s, want %s", b, want)
	}
}

func TestConcurrentReadersDuringReconfiguration(t *testing.T) {
	reset(t, builder.New())
	if err := Register[fixture.Manager](); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := Register[fixture.Employee](); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				n, err := Pack(fixture.Org("Ada", fmt.Sprint(j)))
				if err != nil {
					errs <- err
					return
				}
				if _, _, err := UnpackAs[*fixture.Manager](n); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		SetConfig(config.DefaultConfig())
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent use: %v", err)
	}
}
