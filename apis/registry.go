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

// Registry maps Go types to their declared Resource. It stands in for
// type annotations: declarations are made once, usually from init.
type Registry interface {
	// Register associates the (nearest named) type t with r.
	// Re-registering an identical Resource is a no-op; a different one fails.
	Register(t reflect.Type, r Resource) error
	// Lookup returns the Resource declared for t if present.
	Lookup(t reflect.Type) (r Resource, ok bool)
	// Entries returns a snapshot for diagnostics/docs (order is unspecified).
	Entries() []Entry
	// Count returns the number of registered entries.
	Count() int
	// Reset clears all registered entries.
	Reset()
}

// Entry is a single (type, resource) association in a Registry snapshot.
type Entry struct {
	// Type is the registered reflect.Type.
	Type reflect.Type
	// Resource is the associated declaration.
	Resource Resource
}
