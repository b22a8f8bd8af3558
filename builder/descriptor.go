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

package builder

import (
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Tables holds the resolved descriptors of one target. Every descriptor is
// bound to the target it was built for.
type Tables struct {
	Fields     []FieldAttribute
	Methods    []MethodAttribute
	Operations []Operation
}

// Len returns the total number of descriptors.
func (t *Tables) Len() int {
	return len(t.Fields) + len(t.Methods) + len(t.Operations)
}

// FieldAttribute is an attribute backed by a struct field.
type FieldAttribute struct {
	Name        string
	Description string
	// Field is the Go field name and Index its path from the target struct.
	Field    string
	Index    []int
	Type     reflect.Type
	Readable bool
	Writable bool

	v reflect.Value
}

// Get returns the current field value.
func (f *FieldAttribute) Get() any {
	return f.v.Interface()
}

// Set stores v, which must be assignable to f.Type.
func (f *FieldAttribute) Set(v reflect.Value) {
	f.v.Set(v)
}

// MethodAttribute is an attribute backed by a getter and/or a setter.
type MethodAttribute struct {
	Name        string
	Description string
	Getter      string
	Setter      string
	Type        reflect.Type

	get, set       reflect.Value
	getErr, setErr bool
}

// Readable reports whether a getter is present.
func (m *MethodAttribute) Readable() bool { return m.get.IsValid() }

// Writable reports whether a setter is present.
func (m *MethodAttribute) Writable() bool { return m.set.IsValid() }

// Get calls the getter. The error is the one the getter returned, if any.
func (m *MethodAttribute) Get() (any, error) {
	out := m.get.Call(nil)
	if m.getErr {
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, err
		}
	}
	return out[0].Interface(), nil
}

// Set calls the setter with v, which must be assignable to m.Type.
func (m *MethodAttribute) Set(v reflect.Value) error {
	out := m.set.Call([]reflect.Value{v})
	if m.setErr {
		if err, _ := out[0].Interface().(error); err != nil {
			return err
		}
	}
	return nil
}

// Param describes one operation parameter.
type Param struct {
	Name        string
	Description string
	Type        reflect.Type
}

// Operation is an invocable method.
type Operation struct {
	Name        string
	Description string
	Params      []Param
	// Returns is the result type, nil when the method returns no value.
	Returns reflect.Type

	fn     reflect.Value
	hasErr bool
}

// Call invokes the method with args, which must match Params in number and
// type. The error is the one the method returned, if any.
func (o *Operation) Call(args []reflect.Value) (any, error) {
	out := o.fn.Call(args)
	if o.hasErr {
		if err, _ := out[len(out)-1].Interface().(error); err != nil {
			return nil, err
		}
	}
	if o.Returns == nil {
		return nil, nil
	}
	return out[0].Interface(), nil
}
