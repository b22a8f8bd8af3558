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

package registry

import (
	"errors"
	"reflect"
	"sync"

	"dirpx.dev/rmx/apis"
	"dirpx.dev/rmx/config"
	uref "dirpx.dev/rmx/utils/reflect"
)

var (
	// ErrNilType is returned when a nil reflect.Type is provided.
	ErrNilType = errors.New("rmx(registry): nil reflect.Type provided")
	// ErrConflictingRegistration indicates an attempt to re-register
	// a type with a different Resource.
	ErrConflictingRegistration = errors.New("rmx(registry): conflicting type registration")
)

// New constructs a Registry that normalizes types according to cfg.
// Only MaxUnwrap is used here.
func New(cfg apis.Config) apis.Registry {
	if cfg.MaxUnwrap <= 0 {
		cfg.MaxUnwrap = config.DefaultMaxUnwrap
	}
	return &registry{cfg: cfg}
}

// registry is a simple Registry implementation backed by sync.Map.
type registry struct {
	// cfg is the configuration used for type normalization.
	cfg apis.Config
	// mu guards write-side consistency and counter
	mu sync.Mutex
	// m maps the normalized reflect.Type to its Resource.
	m sync.Map // map[reflect.Type]apis.Resource
	// count tracks the number of registered entries.
	count int
}

// Register associates the nearest named type of t with r.
// It is idempotent for the same (type, resource) pair.
func (r *registry) Register(t reflect.Type, res apis.Resource) error {
	if t == nil {
		return ErrNilType
	}

	b, err := uref.Normalize(t, r.cfg)
	if err != nil {
		return err
	}

	// Fast read path: idempotency / conflict check without locking.
	if old, ok := r.m.Load(b); ok {
		return sameOrConflict(old.(apis.Resource), res)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under lock in case another goroutine stored meanwhile.
	if old, ok := r.m.Load(b); ok {
		return sameOrConflict(old.(apis.Resource), res)
	}

	r.m.Store(b, cloneResource(res))
	r.count++
	return nil
}

// Lookup returns the Resource for a type if present.
func (r *registry) Lookup(t reflect.Type) (apis.Resource, bool) {
	if t == nil {
		return apis.Resource{}, false
	}
	nt, err := uref.Normalize(t, r.cfg)
	if err != nil {
		return apis.Resource{}, false
	}
	if v, ok := r.m.Load(nt); ok {
		return cloneResource(v.(apis.Resource)), true
	}
	return apis.Resource{}, false
}

// Entries returns a snapshot for diagnostics/docs (order is unspecified).
func (r *registry) Entries() []apis.Entry {
	entries := make([]apis.Entry, 0, r.Count())
	r.m.Range(func(key, value any) bool {
		entries = append(entries, apis.Entry{
			Type:     key.(reflect.Type),
			Resource: cloneResource(value.(apis.Resource)),
		})
		return true
	})
	return entries
}

// Count returns the number of registered entries.
func (r *registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Reset clears all registered entries.
func (r *registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m.Clear()
	r.count = 0
}

func sameOrConflict(old, res apis.Resource) error {
	if reflect.DeepEqual(old, res) {
		return nil
	}
	return ErrConflictingRegistration
}

// cloneResource copies the slices of r so callers cannot mutate stored
// declarations.
func cloneResource(r apis.Resource) apis.Resource {
	if r.Folders != nil {
		r.Folders = append([]string(nil), r.Folders...)
	}
	if r.Attributes != nil {
		r.Attributes = append([]apis.AttributeMethodInfo(nil), r.Attributes...)
	}
	if r.Operations != nil {
		ops := make([]apis.OperationInfo, len(r.Operations))
		for i, op := range r.Operations {
			if op.Params != nil {
				op.Params = append([]apis.ParamInfo(nil), op.Params...)
			}
			ops[i] = op
		}
		r.Operations = ops
	}
	return r
}
