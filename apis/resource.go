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

// Resource is the static, type-level management metadata of a Go type.
//
// A Resource is declared once per type, either by implementing Resourcer or
// by registering it in a Registry. It must not depend on instance state.
type Resource struct {
	// Domain is the top-level name component, e.g. "dirpx.dev".
	Domain string
	// BeanName is the terminal "name" property. Empty falls back to the
	// runtime type name.
	BeanName string
	// Description is a human-readable summary shown to management clients.
	Description string
	// Folders is the ordered list of folder specifications. Each entry is a
	// bare label ("cache") or a "key=label" pair ("tier=cache").
	Folders []string
	// Attributes declares getter/setter methods exposed as attributes.
	Attributes []AttributeMethodInfo
	// Operations declares methods exposed as invocable operations.
	Operations []OperationInfo
}

// Resourcer is implemented by types that carry their own Resource.
//
// ManagedResource is a type-level contract: it is expected to return the
// same value for every instance of the type, and to be cheap and safe for
// concurrent use.
type Resourcer interface {
	ManagedResource() Resource
}

// FolderName is one folder of a self-named value. An empty Key means the
// folder gets a positional key assigned at resolution time.
type FolderName struct {
	Key   string
	Value string
}

// SelfNaming is implemented by values that compute (part of) their
// management name per instance. Each method may return the zero value to
// defer to the static Resource: an empty domain or name, or a nil folder
// slice. A non-nil folder slice replaces the static folders entirely.
type SelfNaming interface {
	ManagedDomain() string
	ManagedName() string
	ManagedFolders() []FolderName
}

// BaseSelfNaming implements SelfNaming without overriding anything. Embed it
// to override only some of the methods.
type BaseSelfNaming struct{}

// ManagedDomain returns "".
func (BaseSelfNaming) ManagedDomain() string { return "" }

// ManagedName returns "".
func (BaseSelfNaming) ManagedName() string { return "" }

// ManagedFolders returns nil.
func (BaseSelfNaming) ManagedFolders() []FolderName { return nil }
