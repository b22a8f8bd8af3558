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

package reflect

import (
	"errors"
	"reflect"
	"strings"

	"dirpx.dev/rmx/apis"
	"dirpx.dev/rmx/config"
)

var (
	// ErrReflectNilType is returned when a nil reflect.Type is provided.
	ErrReflectNilType = errors.New("reflect: nil reflect.Type provided")
	// ErrReflectTypeNotNamed indicates that the provided type (after unwrapping
	// pointers) is not a named type (e.g., anonymous struct, func, map).
	ErrReflectTypeNotNamed = errors.New("reflect: type has no name")
)

// Normalize unwraps pointers up to cfg.MaxUnwrap levels and returns the
// nearest named type, or an error if none is found. Management targets are
// usually passed as *T while metadata is declared for T (or the other way
// round); both normalize to T.
//
// If MaxUnwrap <= 0, DefaultMaxUnwrap is used.
func Normalize(t reflect.Type, cfg apis.Config) (reflect.Type, error) {
	if t == nil {
		return nil, ErrReflectNilType
	}
	maxUnwrap := cfg.MaxUnwrap
	if maxUnwrap <= 0 {
		maxUnwrap = config.DefaultMaxUnwrap
	}

	for i := 0; t.Kind() == reflect.Ptr && i < maxUnwrap; i++ {
		t = t.Elem()
	}

	if t.Kind() != reflect.Ptr && t.Name() != "" {
		return t, nil
	}
	return nil, ErrReflectTypeNotNamed
}

// SimpleName returns the unqualified name of the nearest named type of t,
// with generic instantiation parameters removed: "*pkg.Cache[string]" -> "Cache".
// It returns "" for unnamed types.
func SimpleName(t reflect.Type, cfg apis.Config) string {
	base, err := Normalize(t, cfg)
	if err != nil {
		return ""
	}
	return stripTypeParams(base.Name())
}

// stripTypeParams removes generic type instantiation suffix: "T[int,string]" -> "T".
func stripTypeParams(s string) string {
	if i := strings.IndexByte(s, '['); i >= 0 {
		return s[:i]
	}
	return s
}
