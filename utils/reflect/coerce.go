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
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/spf13/cast"

	"dirpx.dev/rmx/apis"
)

var (
	durationType    = reflect.TypeOf(time.Duration(0))
	timeType        = reflect.TypeOf(time.Time{})
	stringSliceType = reflect.TypeOf([]string(nil))
	stringMapType   = reflect.TypeOf(map[string]any(nil))
)

// Coerce converts v into a value assignable to t. Values that already fit are
// used as-is; scalars, durations, times and string slices are converted with
// cast, so "42", 42.0 and int8(42) all coerce to an int field. Failures wrap
// apis.ErrTypeMismatch.
func Coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, mismatch(v, t, nil)
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	switch t {
	case durationType:
		d, err := cast.ToDurationE(v)
		if err != nil {
			return reflect.Value{}, mismatch(v, t, err)
		}
		return reflect.ValueOf(d), nil
	case timeType:
		tm, err := cast.ToTimeE(v)
		if err != nil {
			return reflect.Value{}, mismatch(v, t, err)
		}
		return reflect.ValueOf(tm), nil
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return reflect.Value{}, mismatch(v, t, err)
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if err := checkInteger(rv, t, false); err != nil {
			return reflect.Value{}, err
		}
		n, err := cast.ToInt64E(v)
		if err != nil {
			return reflect.Value{}, mismatch(v, t, err)
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, mismatch(v, t, fmt.Errorf("%d overflows %s", n, t))
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if err := checkInteger(rv, t, true); err != nil {
			return reflect.Value{}, err
		}
		n, err := cast.ToUint64E(v)
		if err != nil {
			return reflect.Value{}, mismatch(v, t, err)
		}
		if out.OverflowUint(n) {
			return reflect.Value{}, mismatch(v, t, fmt.Errorf("%d overflows %s", n, t))
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return reflect.Value{}, mismatch(v, t, err)
		}
		if out.OverflowFloat(f) {
			return reflect.Value{}, mismatch(v, t, fmt.Errorf("%g overflows %s", f, t))
		}
		out.SetFloat(f)
	case reflect.String:
		s, err := cast.ToStringE(v)
		if err != nil {
			return reflect.Value{}, mismatch(v, t, err)
		}
		out.SetString(s)
	case reflect.Slice:
		if !stringSliceType.ConvertibleTo(t) {
			return convert(rv, t)
		}
		ss, err := cast.ToStringSliceE(v)
		if err != nil {
			return reflect.Value{}, mismatch(v, t, err)
		}
		out.Set(reflect.ValueOf(ss).Convert(t))
	case reflect.Map:
		if !stringMapType.ConvertibleTo(t) {
			return convert(rv, t)
		}
		m, err := cast.ToStringMapE(v)
		if err != nil {
			return reflect.Value{}, mismatch(v, t, err)
		}
		out.Set(reflect.ValueOf(m).Convert(t))
	default:
		return convert(rv, t)
	}
	return out, nil
}

// Bounds of the 64-bit integer kinds as exact float64 values.
const (
	minInt64Float  = -(1 << 63)
	maxInt64Float  = 1 << 63
	maxUint64Float = 1 << 64
)

// checkInteger rejects numeric sources that cast would truncate or wrap when
// converting to an integer kind: fractional, non-finite or out-of-range
// floats, and unsigned values above math.MaxInt64 for signed targets. Narrower
// targets are range checked after conversion.
func checkInteger(rv reflect.Value, t reflect.Type, unsigned bool) error {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return mismatch(rv.Interface(), t, fmt.Errorf("%g is not an integer", f))
		}
		lo, hi := float64(minInt64Float), float64(maxInt64Float)
		if unsigned {
			lo, hi = 0, float64(maxUint64Float)
		}
		if f < lo || f >= hi {
			return mismatch(rv.Interface(), t, fmt.Errorf("%g overflows %s", f, t))
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if !unsigned && rv.Uint() > math.MaxInt64 {
			return mismatch(rv.Interface(), t, fmt.Errorf("%d overflows %s", rv.Uint(), t))
		}
	}
	return nil
}

// convert is the last resort for composite kinds: a plain Go conversion.
func convert(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, mismatch(rv.Interface(), t, nil)
}

func mismatch(v any, t reflect.Type, cause error) error {
	if cause != nil {
		return fmt.Errorf("cannot use %T as %s: %w: %w", v, t, apis.ErrTypeMismatch, cause)
	}
	return fmt.Errorf("cannot use %T as %s: %w", v, t, apis.ErrTypeMismatch)
}
