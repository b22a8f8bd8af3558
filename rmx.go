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

package rmx

import (
	"reflect"
	"sync"
	"sync/atomic"

	"dirpx.dev/rmx/apis"
	"dirpx.dev/rmx/config"
	"dirpx.dev/rmx/naming"
	"dirpx.dev/rmx/registry"
	"dirpx.dev/rmx/resolver"
	"dirpx.dev/rmx/strategy"
)

// init publishes the default snapshot.
func init() {
	cfg := config.DefaultConfig()
	reg := buildRegistry(cfg, nil)
	st.Store(&state{cfg: cfg, reg: reg, res: buildResolver(reg)})
}

// Declare attaches r to the type t in the process-wide registry. It is the
// declaration path for types that cannot or should not implement
// apis.Resourcer, and is usually called from init.
func Declare(t reflect.Type, r apis.Resource) error {
	return st.Load().reg.Register(t, r)
}

// MustDeclare is like Declare but panics on error.
func MustDeclare(t reflect.Type, r apis.Resource) {
	if err := Declare(t, r); err != nil {
		panic(err)
	}
}

// ResourceOf returns the static Resource of v using the global resolver.
func ResourceOf(v any) (apis.Resource, bool) {
	return st.Load().res.Resource(v)
}

// ResourceOfType returns the static Resource of t using the global resolver.
func ResourceOfType(t reflect.Type) (apis.Resource, bool) {
	return st.Load().res.ResourceType(t)
}

// TypeName returns the fallback bean name of v under the global configuration.
func TypeName(v any) string {
	return strategy.TypeName(v, st.Load().cfg)
}

// NameOf computes the canonical management name of v from its static
// Resource, its apis.SelfNaming override (if v implements it) and its type
// name. It is what a server uses when registering v without an explicit name.
func NameOf(v any) (naming.Name, error) {
	s := st.Load()
	return nameOf(v, s.res, s.cfg)
}

// NameWith is NameOf with a caller-supplied resolver and configuration.
func NameWith(v any, res apis.Resolver, cfg apis.Config) (naming.Name, error) {
	if res == nil {
		res = st.Load().res
	}
	return nameOf(v, res, cfg)
}

func nameOf(v any, res apis.Resolver, cfg apis.Config) (naming.Name, error) {
	var static *apis.Resource
	if r, ok := res.Resource(v); ok {
		static = &r
	}
	override, _ := v.(apis.SelfNaming)
	return naming.Resolve(static, override, strategy.TypeName(v, cfg))
}

// Config returns the global configuration.
func Config() apis.Config {
	return st.Load().cfg
}

// SetConfig sets the global configuration. Unpinned layers are rebuilt for
// cfg; declarations of an unpinned registry are carried over.
func SetConfig(cfg apis.Config) {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()

	nreg := old.reg
	if !old.preg {
		nreg = buildRegistry(cfg, old.reg)
	}
	nres := old.res
	if !old.pres {
		nres = buildResolver(nreg)
	}

	st.Store(&state{cfg: cfg, reg: nreg, res: nres, preg: old.preg, pres: old.pres})
}

// Registry returns the global registry.
func Registry() apis.Registry {
	return st.Load().reg
}

// SetRegistry replaces and pins the global registry. An unpinned resolver is
// rebuilt on top of it.
func SetRegistry(reg apis.Registry) {
	if reg == nil {
		return
	}

	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()

	nres := old.res
	if !old.pres {
		nres = buildResolver(reg)
	}

	st.Store(&state{cfg: old.cfg, reg: reg, res: nres, preg: true, pres: old.pres})
}

// Resolver returns the global resolver.
func Resolver() apis.Resolver {
	return st.Load().res
}

// SetResolver replaces and pins the global resolver.
func SetResolver(res apis.Resolver) {
	if res == nil {
		return
	}

	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	st.Store(&state{cfg: old.cfg, reg: old.reg, res: res, preg: old.preg, pres: true})
}

// IsRegistryPinned returns whether the global registry is pinned.
func IsRegistryPinned() bool {
	return st.Load().preg
}

// UnpinRegistry lets the next SetConfig rebuild the global registry.
func UnpinRegistry() {
	setPins(func(s *state) { s.preg = false })
}

// IsResolverPinned returns whether the global resolver is pinned.
func IsResolverPinned() bool {
	return st.Load().pres
}

// UnpinResolver lets the next SetConfig or SetRegistry rebuild the global
// resolver.
func UnpinResolver() {
	setPins(func(s *state) { s.pres = false })
}

// Reset publishes a fresh default snapshot with an empty registry and no
// pins. Intended for tests.
func Reset() {
	buildMu.Lock()
	defer buildMu.Unlock()

	cfg := config.DefaultConfig()
	reg := buildRegistry(cfg, nil)
	st.Store(&state{cfg: cfg, reg: reg, res: buildResolver(reg)})
}

func setPins(fn func(*state)) {
	buildMu.Lock()
	defer buildMu.Unlock()

	next := *st.Load()
	fn(&next)
	st.Store(&next)
}

// buildRegistry builds a registry for cfg. Entries of prev are copied over.
func buildRegistry(cfg apis.Config, prev apis.Registry) apis.Registry {
	nreg := registry.New(cfg)
	if prev != nil {
		for _, e := range prev.Entries() {
			_ = nreg.Register(e.Type, e.Resource)
		}
	}
	return nreg
}

// buildResolver builds the default lookup chain: a value's own Resourcer
// implementation first, then declarations in reg.
func buildResolver(reg apis.Registry) apis.Resolver {
	return resolver.New(
		strategy.NewResourcerStrategy(),
		strategy.NewRegistryStrategy(reg),
	)
}

// buildMu serializes writers so we never publish partially-built snapshots.
var buildMu sync.Mutex

// st is the global state.
var st atomic.Pointer[state]

// state is the global snapshot. It is published atomically via st.Store and
// never mutated afterwards. Writers create a new state and swap it in.
type state struct {
	// cfg is the global configuration.
	cfg apis.Config
	// reg is the global registry.
	reg apis.Registry
	// res is the global resolver.
	res apis.Resolver
	// preg indicates whether reg is pinned.
	preg bool
	// pres indicates whether res is pinned.
	pres bool
}
