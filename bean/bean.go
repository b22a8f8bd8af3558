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

package bean

import (
	"fmt"
	"reflect"
	"sort"

	"dirpx.dev/rmx/apis"
	"dirpx.dev/rmx/builder"
	uref "dirpx.dev/rmx/utils/reflect"
)

// Bean is the generic get/set/invoke surface of one target, driven by the
// descriptor tables built for it. It adds no locking: concurrent calls are
// as safe as the target is.
type Bean struct {
	typ         string
	description string
	attrs       map[string]*attribute
	ops         map[string]*builder.Operation
	info        apis.BeanInfo
}

// Ensure Bean implements apis.Bean.
var _ apis.Bean = (*Bean)(nil)

// attribute unifies field-backed and method-backed attributes.
type attribute struct {
	typ      reflect.Type
	readable bool
	writable bool
	get      func() (any, error)
	set      func(reflect.Value) error
}

// New wraps target. The tables must have been built for the same target.
func New(target any, description string, t *builder.Tables) *Bean {
	b := &Bean{
		typ:         reflect.TypeOf(target).String(),
		description: description,
		attrs:       make(map[string]*attribute, len(t.Fields)+len(t.Methods)),
		ops:         make(map[string]*builder.Operation, len(t.Operations)),
	}
	info := apis.BeanInfo{
		Type:        b.typ,
		Description: description,
		Attributes:  make([]apis.AttributeDesc, 0, len(t.Fields)+len(t.Methods)),
		Operations:  make([]apis.OperationDesc, 0, len(t.Operations)),
	}

	for i := range t.Fields {
		f := &t.Fields[i]
		b.attrs[f.Name] = &attribute{
			typ:      f.Type,
			readable: f.Readable,
			writable: f.Writable,
			get:      func() (any, error) { return f.Get(), nil },
			set:      func(v reflect.Value) error { f.Set(v); return nil },
		}
		info.Attributes = append(info.Attributes, apis.AttributeDesc{
			Name:        f.Name,
			Type:        f.Type.String(),
			Description: f.Description,
			Readable:    f.Readable,
			Writable:    f.Writable,
		})
	}
	for i := range t.Methods {
		m := &t.Methods[i]
		b.attrs[m.Name] = &attribute{
			typ:      m.Type,
			readable: m.Readable(),
			writable: m.Writable(),
			get:      m.Get,
			set:      m.Set,
		}
		info.Attributes = append(info.Attributes, apis.AttributeDesc{
			Name:        m.Name,
			Type:        m.Type.String(),
			Description: m.Description,
			Readable:    m.Readable(),
			Writable:    m.Writable(),
		})
	}
	for i := range t.Operations {
		op := &t.Operations[i]
		b.ops[op.Name] = op
		od := apis.OperationDesc{
			Name:        op.Name,
			Description: op.Description,
			Params:      make([]apis.ParamDesc, len(op.Params)),
		}
		for j, p := range op.Params {
			od.Params[j] = apis.ParamDesc{Name: p.Name, Type: p.Type.String(), Description: p.Description}
		}
		if op.Returns != nil {
			od.Returns = op.Returns.String()
		}
		info.Operations = append(info.Operations, od)
	}

	sort.Slice(info.Attributes, func(i, j int) bool { return info.Attributes[i].Name < info.Attributes[j].Name })
	sort.Slice(info.Operations, func(i, j int) bool { return info.Operations[i].Name < info.Operations[j].Name })
	b.info = info
	return b
}

// Describe returns the bean's management interface, sorted by name.
func (b *Bean) Describe() apis.BeanInfo {
	info := b.info
	info.Attributes = append([]apis.AttributeDesc(nil), b.info.Attributes...)
	info.Operations = make([]apis.OperationDesc, len(b.info.Operations))
	for i, od := range b.info.Operations {
		od.Params = append([]apis.ParamDesc(nil), od.Params...)
		info.Operations[i] = od
	}
	return info
}

// Attribute reads one attribute.
func (b *Bean) Attribute(name string) (v any, err error) {
	a, ok := b.attrs[name]
	if !ok {
		return nil, fmt.Errorf("rmx(bean): %s: %w", name, apis.ErrNoSuchAttribute)
	}
	if !a.readable {
		return nil, fmt.Errorf("rmx(bean): %s: %w", name, apis.ErrNotReadable)
	}
	defer recoverInvocation("reading "+name, &err)
	v, err = a.get()
	if err != nil {
		return nil, invocationErr("reading "+name, err)
	}
	return v, nil
}

// SetAttribute writes one attribute, coercing value to its declared type.
// The target is not touched when coercion fails.
func (b *Bean) SetAttribute(name string, value any) (err error) {
	a, ok := b.attrs[name]
	if !ok {
		return fmt.Errorf("rmx(bean): %s: %w", name, apis.ErrNoSuchAttribute)
	}
	if !a.writable {
		return fmt.Errorf("rmx(bean): %s: %w", name, apis.ErrNotWritable)
	}
	rv, err := uref.Coerce(value, a.typ)
	if err != nil {
		return fmt.Errorf("rmx(bean): %s: %w", name, err)
	}
	defer recoverInvocation("writing "+name, &err)
	if err := a.set(rv); err != nil {
		return invocationErr("writing "+name, err)
	}
	return nil
}

// Invoke calls an operation, coercing args to the declared parameter types.
func (b *Bean) Invoke(operation string, args []any) (v any, err error) {
	op, ok := b.ops[operation]
	if !ok {
		return nil, fmt.Errorf("rmx(bean): %s: %w", operation, apis.ErrNoSuchOperation)
	}
	if len(args) != len(op.Params) {
		return nil, fmt.Errorf("rmx(bean): %s takes %d arguments, got %d: %w", operation, len(op.Params), len(args), apis.ErrArityMismatch)
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		rv, err := uref.Coerce(arg, op.Params[i].Type)
		if err != nil {
			return nil, fmt.Errorf("rmx(bean): %s argument %s: %w", operation, op.Params[i].Name, err)
		}
		in[i] = rv
	}
	defer recoverInvocation("invoking "+operation, &err)
	v, err = op.Call(in)
	if err != nil {
		return nil, invocationErr("invoking "+operation, err)
	}
	return v, nil
}

// Attributes reads the named attributes and returns those that could be
// read. Unknown, unreadable and failing attributes are omitted.
func (b *Bean) Attributes(names ...string) map[string]any {
	out := make(map[string]any, len(names))
	for _, n := range names {
		if v, err := b.Attribute(n); err == nil {
			out[n] = v
		}
	}
	return out
}

// SetAttributes writes each entry of values and returns the sorted names of
// the attributes that were written.
func (b *Bean) SetAttributes(values map[string]any) []string {
	applied := make([]string, 0, len(values))
	for n, v := range values {
		if err := b.SetAttribute(n, v); err == nil {
			applied = append(applied, n)
		}
	}
	sort.Strings(applied)
	return applied
}

func invocationErr(what string, cause error) error {
	return fmt.Errorf("rmx(bean): %s: %w: %w", what, apis.ErrInvocation, cause)
}

// recoverInvocation turns a panic raised by the target into an
// apis.ErrInvocation error.
func recoverInvocation(what string, err *error) {
	if r := recover(); r != nil {
		*err = invocationErr(what, fmt.Errorf("panic: %v", r))
	}
}
