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

package strategy

import (
	"reflect"

	"dirpx.dev/rmx/apis"
)

// resourcerType is the reflect.Type of apis.Resourcer.
var resourcerType = reflect.TypeOf((*apis.Resourcer)(nil)).Elem()

// NewResourcerStrategy creates an apis.Strategy that uses apis.Resourcer.
func NewResourcerStrategy() apis.Strategy {
	return &resourcerStrategy{}
}

// resourcerStrategy is a zero-cost fast path: if v implements apis.Resourcer,
// return its ManagedResource() and stop the chain.
type resourcerStrategy struct{}

// Ensure resourcerStrategy implements apis.Strategy.
var _ apis.Strategy = (*resourcerStrategy)(nil)

// Origin returns apis.OriginResourcer.
func (*resourcerStrategy) Origin() apis.Origin { return apis.OriginResourcer }

// TryResolve checks if v implements apis.Resourcer and returns its Resource.
func (*resourcerStrategy) TryResolve(v any) (apis.Resource, bool) {
	if v == nil {
		return apis.Resource{}, false
	}
	if r, ok := v.(apis.Resourcer); ok {
		return r.ManagedResource(), true
	}
	return apis.Resource{}, false
}

// TryResolveType calls ManagedResource on a zero instance of t. The method is
// a type-level contract, so any instance yields the same Resource. Pointer
// receivers are served through a freshly allocated value, never a nil pointer.
func (*resourcerStrategy) TryResolveType(t reflect.Type) (apis.Resource, bool) {
	if t == nil {
		return apis.Resource{}, false
	}
	var inst reflect.Value
	switch {
	case t.Kind() == reflect.Ptr && t.Implements(resourcerType):
		inst = reflect.New(t.Elem())
	case t.Kind() == reflect.Interface:
		return apis.Resource{}, false
	case t.Implements(resourcerType):
		inst = reflect.Zero(t)
	case reflect.PointerTo(t).Implements(resourcerType):
		inst = reflect.New(t)
	default:
		return apis.Resource{}, false
	}
	return inst.Interface().(apis.Resourcer).ManagedResource(), true
}
