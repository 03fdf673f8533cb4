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

package visit_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/descriptor"
	"dirpx.dev/flatpack/visit"
	"dirpx.dev/flatpack/wire"
)

// passthrough is a value codex that only reports VisitValue/EndVisitValue.
type passthrough struct{ d *descriptor.Descriptor }

func (p passthrough) Descriptor() *descriptor.Descriptor { return p.d }

func (passthrough) WriteNotNull(v any, _ apis.SerializationContext) (wire.Node, error) {
	return wire.String(v.(string)), nil
}

func (passthrough) ReadNotNull(n wire.Node, _ apis.DeserializationContext) (any, error) {
	return n.(wire.Scalar).Value(), nil
}

func (p passthrough) AcceptNotNull(v apis.Visitor, value any, ctx apis.VisitorContext) error {
	v.VisitValue(value, p, ctx)
	v.EndVisitValue(value, p, ctx)
	return nil
}

var text = passthrough{d: descriptor.For[string]()}

// recorder logs every callback and lets a test mutate from VisitValue.
type recorder struct {
	visit.Base
	seen   []string
	mutate func(value string, ctx apis.VisitorContext)
	errs   []error
}

func (r *recorder) VisitValue(value any, _ apis.Codex, ctx apis.VisitorContext) bool {
	s := value.(string)
	r.seen = append(r.seen, s)
	if r.mutate != nil {
		r.mutate(s, ctx)
	}
	return true
}

func (r *recorder) EndVisitValue(value any, _ apis.Codex, _ apis.VisitorContext) {
	r.seen = append(r.seen, value.(string))
}

func (r *recorder) try(err error) {
	if err != nil {
		r.errs = append(r.errs, err)
	}
}

func TestList_MutationsAppliedAfterEachElement(t *testing.T) {
	r := &recorder{}
	r.mutate = func(s string, ctx apis.VisitorContext) {
		switch s {
		case "a":
			r.try(ctx.InsertBefore("0"))
		case "b":
			r.try(ctx.InsertAfter("1"))
		case "c":
			r.try(ctx.Remove())
		case "d":
			r.try(ctx.Replace("3"))
		case "e":
			r.try(ctx.InsertBefore("4"))
		}
	}

	ctx := visit.NewList()
	out, err := ctx.Walk(r, reflect.ValueOf([]string{"a", "b", "c", "d", "e"}), text)
	require.NoError(t, err)
	require.Empty(t, r.errs)

	assert.Equal(t, []string{"0", "a", "b", "1", "3", "4", "e"}, out.Interface())
	// Inserted values are not visited; each original element is entered and exited once.
	assert.Equal(t, []string{"a", "a", "b", "b", "c", "c", "d", "d", "e", "e"}, r.seen)
	assert.True(t, ctx.DidInsert())
	assert.True(t, ctx.DidRemove())
	assert.True(t, ctx.DidReplace())
}

func TestList_FourElements(t *testing.T) {
	r := &recorder{}
	r.mutate = func(s string, ctx apis.VisitorContext) {
		switch s {
		case "a":
			r.try(ctx.InsertBefore("0"))
		case "b":
			r.try(ctx.InsertAfter("1"))
		case "c":
			r.try(ctx.Remove())
		case "d":
			r.try(ctx.Replace("3"))
		}
	}
	out, err := visit.NewList().Walk(r, reflect.ValueOf([]string{"a", "b", "c", "d"}), text)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "a", "b", "1", "3"}, out.Interface())
}

func TestList_RemoveThenInsertBefore(t *testing.T) {
	r := &recorder{}
	r.mutate = func(_ string, ctx apis.VisitorContext) {
		r.try(ctx.Remove())
		r.try(ctx.InsertBefore("World!"))
	}
	out, err := visit.NewList().Walk(r, reflect.ValueOf([]string{"Hello"}), text)
	require.NoError(t, err)
	require.Empty(t, r.errs)
	assert.Equal(t, []string{"World!"}, out.Interface())
}

func TestList_ReplaceOnlyIsInPlace(t *testing.T) {
	in := []string{"a", "b"}
	r := &recorder{mutate: func(s string, ctx apis.VisitorContext) {
		if s == "b" {
			_ = ctx.Replace("B")
		}
	}}
	ctx := visit.NewList()
	out, err := ctx.Walk(r, reflect.ValueOf(in), text)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "B"}, in)
	assert.Equal(t, in, out.Interface())
	assert.False(t, ctx.DidInsert())
	assert.False(t, ctx.DidRemove())
	assert.True(t, ctx.DidReplace())
}

func TestList_StructuralPassLeavesInputUntouched(t *testing.T) {
	in := []string{"a", "b", "c"}
	r := &recorder{mutate: func(s string, ctx apis.VisitorContext) {
		switch s {
		case "a":
			_ = ctx.Replace("A")
		case "b":
			_ = ctx.Remove()
		}
	}}
	out, err := visit.NewList().Walk(r, reflect.ValueOf(in), text)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "c"}, out.Interface())
	assert.Equal(t, []string{"a", "b", "c"}, in)
}

func TestList_TerminalMutationLastWriteWins(t *testing.T) {
	r := &recorder{}
	r.mutate = func(s string, ctx apis.VisitorContext) {
		switch s {
		case "a":
			r.try(ctx.Remove())
			r.try(ctx.Replace("x"))
		case "b":
			r.try(ctx.Replace("x"))
			r.try(ctx.Replace("y"))
		case "c":
			r.try(ctx.Replace("z"))
			r.try(ctx.Remove())
		}
	}
	out, err := visit.NewList().Walk(r, reflect.ValueOf([]string{"a", "b", "c"}), text)
	require.NoError(t, err)
	require.Empty(t, r.errs)
	assert.Equal(t, []string{"x", "y"}, out.Interface())
}

func TestList_IncompatibleValue(t *testing.T) {
	r := &recorder{}
	r.mutate = func(_ string, ctx apis.VisitorContext) {
		r.try(ctx.Replace(42))
		r.try(ctx.InsertAfter(nil))
	}
	out, err := visit.NewList().Walk(r, reflect.ValueOf([]string{"a"}), text)
	require.NoError(t, err)
	require.Len(t, r.errs, 2)
	for _, e := range r.errs {
		assert.ErrorIs(t, e, visit.ErrIncompatibleValue)
	}
	assert.Equal(t, []string{"a"}, out.Interface())
}

func TestArray_ReplaceInPlace(t *testing.T) {
	r := &recorder{}
	r.mutate = func(_ string, ctx apis.VisitorContext) {
		r.try(ctx.Replace("c"))
		r.try(ctx.InsertBefore("nope"))
		r.try(ctx.Remove())
	}

	in := []string{"a", "b"}
	ctx := visit.NewArray()
	_, err := ctx.Walk(r, reflect.ValueOf(in), text)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "c"}, in)
	assert.True(t, ctx.DidReplace())
	assert.False(t, ctx.DidInsert())
	assert.False(t, ctx.DidRemove())

	require.Len(t, r.errs, 4)
	for _, e := range r.errs {
		assert.ErrorIs(t, e, visit.ErrUnsupportedMutation)
	}

	arr := [2]string{"a", "b"}
	_, err = visit.NewArray().Walk(&recorder{mutate: func(_ string, ctx apis.VisitorContext) {
		_ = ctx.Replace("c")
	}}, reflect.ValueOf(&arr).Elem(), text)
	require.NoError(t, err)
	assert.Equal(t, [2]string{"c", "c"}, arr)
}

func TestArray_UnaddressableIsCopied(t *testing.T) {
	arr := [2]string{"a", "b"}
	out, err := visit.NewArray().Walk(&recorder{mutate: func(_ string, ctx apis.VisitorContext) {
		_ = ctx.Replace("c")
	}}, reflect.ValueOf(arr), text)
	require.NoError(t, err)
	assert.Equal(t, [2]string{"a", "b"}, arr)
	assert.Equal(t, [2]string{"c", "c"}, out.Interface())
}

func TestIterable_RemoveOnly(t *testing.T) {
	set := map[string]struct{}{"a": {}, "b": {}, "c": {}}
	r := &recorder{}
	r.mutate = func(_ string, ctx apis.VisitorContext) {
		assert.False(t, ctx.CanInsert())
		assert.False(t, ctx.CanReplace())
		assert.True(t, ctx.CanRemove())
		r.try(ctx.Replace("x"))
		r.try(ctx.InsertAfter("y"))
		r.try(ctx.Remove())
	}
	ctx := visit.NewIterable()
	_, err := ctx.Walk(r, reflect.ValueOf(set), text)
	require.NoError(t, err)
	assert.Empty(t, set)
	assert.True(t, ctx.DidRemove())
	assert.Len(t, r.errs, 6)
	assert.Equal(t, []string{"a", "a", "b", "b", "c", "c"}, r.seen)
}

func TestImmutable_RejectsEverything(t *testing.T) {
	r := &recorder{}
	r.mutate = func(_ string, ctx apis.VisitorContext) {
		r.try(ctx.InsertBefore("x"))
		r.try(ctx.InsertAfter("x"))
		r.try(ctx.Remove())
		r.try(ctx.Replace("x"))
	}
	ctx := visit.NewImmutable()
	require.NoError(t, ctx.Walk(r, "a", text))
	require.Len(t, r.errs, 4)
	for _, e := range r.errs {
		assert.ErrorIs(t, e, visit.ErrUnsupportedMutation)
	}
	assert.False(t, ctx.CanInsert() || ctx.CanRemove() || ctx.CanReplace())
	assert.False(t, ctx.DidInsert() || ctx.DidRemove() || ctx.DidReplace())
}

func TestSingleton_ReplaceOnly(t *testing.T) {
	r := &recorder{}
	r.mutate = func(_ string, ctx apis.VisitorContext) {
		r.try(ctx.Remove())
		r.try(ctx.Replace("x"))
	}
	ctx := visit.NewSingleton()
	out, err := ctx.Walk(r, "a", text)
	require.NoError(t, err)
	assert.Equal(t, "x", out)
	require.Len(t, r.errs, 1)
	assert.ErrorIs(t, r.errs[0], visit.ErrUnsupportedMutation)
	assert.True(t, ctx.DidReplace())
}

func TestNullable_RemoveAndReplace(t *testing.T) {
	anyCodex := passthrough{d: descriptor.For[any]()}

	removed, err := visit.NewNullable().Walk(&recorder{mutate: func(_ string, ctx apis.VisitorContext) {
		_ = ctx.Remove()
	}}, "a", anyCodex)
	require.NoError(t, err)
	assert.Nil(t, removed)

	restored, err := visit.NewNullable().Walk(&recorder{mutate: func(_ string, ctx apis.VisitorContext) {
		_ = ctx.Remove()
		_ = ctx.Replace("b")
	}}, "a", anyCodex)
	require.NoError(t, err)
	assert.Equal(t, "b", restored)

	zeroed, err := visit.NewNullable().Walk(&recorder{mutate: func(_ string, ctx apis.VisitorContext) {
		_ = ctx.Remove()
	}}, "a", text)
	require.NoError(t, err)
	assert.Equal(t, "", zeroed)
}

func TestAccept_SkipsNil(t *testing.T) {
	r := &recorder{}
	require.NoError(t, visit.Accept(text, r, nil, visit.NewImmutable()))
	assert.Empty(t, r.seen)

	out, err := visit.NewList().Walk(r, reflect.ValueOf([]any{nil, "a"}), passthrough{d: descriptor.For[any]()})
	require.NoError(t, err)
	assert.Equal(t, []any{nil, "a"}, out.Interface())
	assert.Equal(t, []string{"a", "a"}, r.seen)
}
