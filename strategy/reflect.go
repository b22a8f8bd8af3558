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
	"sync"

	"dirpx.dev/rmx/apis"
	uref "dirpx.dev/rmx/utils/reflect"
)

// cacheKey ensures memoization respects the config knobs that affect resolution.
type cacheKey struct {
	t         reflect.Type
	maxUnwrap int16
}

// typeNameCache caches resolved type names by (type, config knobs).
var typeNameCache sync.Map // key: cacheKey, val: string

// TypeName returns the fallback bean name for v: the unqualified name of its
// nearest named type with generic parameters stripped. It returns "" for nil
// and for unnamed types.
func TypeName(v any, cfg apis.Config) string {
	if v == nil {
		return ""
	}
	return TypeNameOf(reflect.TypeOf(v), cfg)
}

// TypeNameOf is TypeName for a reflect.Type.
func TypeNameOf(t reflect.Type, cfg apis.Config) string {
	if t == nil {
		return ""
	}
	key := cacheKey{t: t, maxUnwrap: int16(cfg.MaxUnwrap)}
	if v, ok := typeNameCache.Load(key); ok {
		return v.(string)
	}
	name := uref.SimpleName(t, cfg)
	typeNameCache.Store(key, name)
	return name
}
