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

package apis

import "reflect"

// Origin names the lookup step that supplied a Resource.
type Origin string

const (
	// OriginNone means no step knew the type; names fall back to the type
	// name and only tagged fields are exposed.
	OriginNone Origin = "none"
	// OriginResourcer means the type implements Resourcer.
	OriginResourcer Origin = "resourcer"
	// OriginRegistry means the type was declared in a Registry.
	OriginRegistry Origin = "registry"
)

// Resolution is a Resource together with the step that supplied it.
type Resolution struct {
	Resource Resource
	Origin   Origin
}

// Resolver finds the static Resource of values and types.
// Typical chain: ResourcerStrategy -> RegistryStrategy.
type Resolver interface {
	// Resolve returns the Resource declared for v's type and the step that
	// supplied it. A miss reports OriginNone.
	Resolve(v any) (Resolution, bool)

	// Resource returns the Resource declared for v's type, if any.
	Resource(v any) (Resource, bool)

	// ResourceType returns the Resource declared for t, if any.
	ResourceType(t reflect.Type) (Resource, bool)
}

// Strategy is a pluggable lookup step. A Resolver chains strategies in order
// and stops at the first one that handles the value.
type Strategy interface {
	// TryResolve attempts to find the Resource for value v.
	// It returns (resource, true) if handled; otherwise (Resource{}, false).
	TryResolve(v any) (r Resource, handled bool)

	// TryResolveType attempts to find the Resource for the reflect.Type t.
	TryResolveType(t reflect.Type) (r Resource, handled bool)

	// Origin reports what this step consults.
	Origin() Origin
}
