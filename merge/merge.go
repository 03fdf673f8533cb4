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

// Package merge combines packed envelopes that share entities by identity.
// It works on wire nodes only and needs no codices or registered types.
package merge

import (
	"errors"
	"fmt"

	"dirpx.dev/flatpack/config"
	"dirpx.dev/flatpack/wire"
)

var (
	// ErrNotPack is returned for input that is not shaped like an envelope.
	ErrNotPack = errors.New("flatpack(merge): not a pack")
	// ErrMissingIdentity is returned for a data entity without a scalar identity.
	ErrMissingIdentity = errors.New("flatpack(merge): entity has no identity")
)

// Option configures the member names Merge looks for.
type Option func(*options)

type options struct {
	identityKey string
	dataKey     string
	valueKey    string
}

// WithIdentityKey sets the identity member of entity bodies.
func WithIdentityKey(k string) Option {
	return func(o *options) {
		if k != "" {
			o.identityKey = k
		}
	}
}

// WithDataKey sets the member holding the entity buckets.
func WithDataKey(k string) Option {
	return func(o *options) {
		if k != "" {
			o.dataKey = k
		}
	}
}

// WithValueKey sets the member holding the root value.
func WithValueKey(k string) Option {
	return func(o *options) {
		if k != "" {
			o.valueKey = k
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		identityKey: config.DefaultIdentityKey,
		dataKey:     wire.DataKey,
		valueKey:    wire.ValueKey,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Merge returns one envelope holding the root value and every other
// top-level member of primary, and the union of both data sections. The
// root comes first and the data section second.
//
// Buckets keep primary's order, followed by buckets only secondary has.
// Within a bucket primary's entities come first, then the entities of
// secondary whose identity primary does not have; on a collision the
// primary copy wins. wire.Null counts as an empty pack. The inputs are not
// modified.
func Merge(primary, secondary wire.Node, opts ...Option) (wire.Node, error) {
	o := newOptions(opts)
	p, err := envelope(primary, "primary")
	if err != nil {
		return nil, err
	}
	s, err := envelope(secondary, "secondary")
	if err != nil {
		return nil, err
	}
	return o.merge(p, s)
}

// MergeAll folds packs left to right; the first pack is the primary of the
// whole fold. An empty list yields wire.Null.
func MergeAll(packs []wire.Node, opts ...Option) (wire.Node, error) {
	if len(packs) == 0 {
		return wire.Null, nil
	}
	out := packs[0]
	for i, next := range packs[1:] {
		merged, err := Merge(out, next, opts...)
		if err != nil {
			return nil, fmt.Errorf("pack %d: %w", i+1, err)
		}
		out = merged
	}
	if _, err := envelope(out, "pack 0"); err != nil {
		return nil, err
	}
	return out, nil
}

func envelope(n wire.Node, which string) (*wire.Object, error) {
	if wire.IsNull(n) {
		return wire.NewObject(), nil
	}
	obj, ok := n.(*wire.Object)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotPack, which, wire.KindOf(n))
	}
	return obj, nil
}

func (o options) merge(p, s *wire.Object) (wire.Node, error) {
	pdata, err := o.data(p, "primary")
	if err != nil {
		return nil, err
	}
	sdata, err := o.data(s, "secondary")
	if err != nil {
		return nil, err
	}

	data := wire.NewObject()
	for _, src := range []*wire.Object{pdata, sdata} {
		src.Range(func(name string, _ wire.Node) bool {
			if _, done := data.Get(name); done {
				return true
			}
			var merged wire.Sequence
			if merged, err = o.bucket(name, pdata, sdata); err != nil {
				return false
			}
			data.Set(name, merged)
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	// Envelope order: root, data, then primary's remaining members.
	out := wire.NewObject()
	if v, ok := p.Get(o.valueKey); ok {
		out.Set(o.valueKey, v)
	}
	if p.Has(o.dataKey) || data.Len() > 0 {
		out.Set(o.dataKey, data)
	}
	p.Range(func(k string, v wire.Node) bool {
		if !out.Has(k) {
			out.Set(k, v)
		}
		return true
	})
	return out, nil
}

// data returns the data section of env, or an empty one.
func (o options) data(env *wire.Object, which string) (*wire.Object, error) {
	n, ok := env.Get(o.dataKey)
	if !ok || wire.IsNull(n) {
		return wire.NewObject(), nil
	}
	obj, ok := n.(*wire.Object)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s is a %s", ErrNotPack, which, o.dataKey, wire.KindOf(n))
	}
	return obj, nil
}

// bucket unions the named bucket of both data sections.
func (o options) bucket(name string, pdata, sdata *wire.Object) (wire.Sequence, error) {
	seen := make(map[string]struct{})
	out := wire.Sequence{}
	for _, src := range []*wire.Object{pdata, sdata} {
		n, ok := src.Get(name)
		if !ok || wire.IsNull(n) {
			continue
		}
		seq, ok := n.(wire.Sequence)
		if !ok {
			return nil, fmt.Errorf("%w: bucket %q is a %s", ErrNotPack, name, wire.KindOf(n))
		}
		for i, e := range seq {
			id, err := o.identity(e)
			if err != nil {
				return nil, fmt.Errorf("%w: %s[%d]", err, name, i)
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, e)
		}
	}
	return out, nil
}

func (o options) identity(e wire.Node) (string, error) {
	obj, ok := e.(*wire.Object)
	if !ok {
		return "", ErrMissingIdentity
	}
	n, ok := obj.Get(o.identityKey)
	if !ok {
		return "", ErrMissingIdentity
	}
	s, ok := n.(wire.Scalar)
	if !ok {
		return "", ErrMissingIdentity
	}
	return s.Text(), nil
}
