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

// Package rmx exposes in-process Go values as hierarchically named,
// remotely inspectable management beans.
//
// A value is published in three steps: its canonical name is computed
// (package naming), the attributes and operations it exposes are collected
// into descriptor tables (package builder), and a dynamic bean wrapping the
// value is bound under that name by a management server (packages bean and
// server). The server brings up an endpoint (package transport by default)
// through which remote clients list names and describe, read, write and
// invoke beans.
//
// # Metadata
//
// Naming and member declarations live in an apis.Resource. A type carries
// its Resource either by implementing apis.Resourcer or by declaring it once
// in the process-wide registry:
//
//	func init() {
//		rmx.MustDeclare(reflect.TypeOf(Cache{}), apis.Resource{
//			Domain:  "dirpx.dev",
//			Folders: []string{"tier=storage", "lru"},
//			Attributes: []apis.AttributeMethodInfo{
//				{Getter: "Len", Description: "number of entries"},
//			},
//			Operations: []apis.OperationInfo{{Method: "Purge"}},
//		})
//	}
//
// Instances may override the domain, bean name or folder list by
// implementing apis.SelfNaming. Struct fields are exposed with the rmx tag:
//
//	type Cache struct {
//		Capacity int `rmx:",writable" rmxdesc:"maximum number of entries"`
//	}
//
// # Global snapshot
//
// The package holds a read-mostly snapshot with the configuration, the
// metadata Registry and the Resolver that finds a value's Resource. Readers
// load the snapshot atomically and never lock:
//
//	res, ok := rmx.ResourceOf(v)
//	name, err := rmx.NameOf(v)
//
// Writers (SetConfig, SetRegistry, SetResolver) take a short build mutex,
// assemble a new snapshot and publish it with an atomic swap, so concurrent
// callers always see a consistent view.
//
// SetRegistry and SetResolver pin the layer they replace: SetConfig will not
// rebuild a pinned layer until UnpinRegistry or UnpinResolver is called.
// Rebuilding an unpinned registry carries its declarations over.
package rmx
