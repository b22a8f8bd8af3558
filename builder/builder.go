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
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"dirpx.dev/rmx/apis"
)

const (
	// TagName is the struct tag that exposes a field: `rmx:"[name][,writable|,writeonly]"`.
	TagName = "rmx"
	// DescTagName is the struct tag carrying a field attribute's description.
	DescTagName = "rmxdesc"
)

// Build resolves the descriptor tables of target.
//
// With an automatic source, fields tagged rmx become field attributes and the
// method attributes and operations declared in decl (may be nil) are
// resolved. With an explicit source, its three lists are used as-is and
// neither tags nor decl are consulted.
//
// Every declared member must exist on target with a usable signature. Field
// attributes need a non-nil pointer to a struct so the field is addressable.
// Failures wrap apis.ErrRegistration; no partial tables are returned.
func Build(target any, src apis.DescriptorSource, decl *apis.Resource) (*Tables, error) {
	if target == nil {
		return nil, regErr("nil target")
	}
	b := &build{
		target: reflect.ValueOf(target),
		names:  make(map[string]struct{}),
		ops:    make(map[string]struct{}),
	}

	var (
		fields  []apis.AttributeFieldInfo
		methods []apis.AttributeMethodInfo
		ops     []apis.OperationInfo
		err     error
	)
	if src.IsExplicit() {
		fields, methods, ops = src.Fields(), src.Methods(), src.Operations()
	} else {
		if fields, err = scanTags(b.target.Type()); err != nil {
			return nil, err
		}
		if decl != nil {
			methods, ops = decl.Attributes, decl.Operations
		}
	}

	t := &Tables{}
	for _, fi := range fields {
		fa, err := b.field(fi)
		if err != nil {
			return nil, err
		}
		t.Fields = append(t.Fields, fa)
	}
	for _, mi := range methods {
		ma, err := b.method(mi)
		if err != nil {
			return nil, err
		}
		t.Methods = append(t.Methods, ma)
	}
	for _, oi := range ops {
		op, err := b.operation(oi)
		if err != nil {
			return nil, err
		}
		t.Operations = append(t.Operations, op)
	}
	return t, nil
}

// ScanTags returns the field attribute declarations carried by the rmx tags
// of t (a struct or pointer to struct), including promoted fields.
func ScanTags(t reflect.Type) ([]apis.AttributeFieldInfo, error) {
	return scanTags(t)
}

func scanTags(t reflect.Type) ([]apis.AttributeFieldInfo, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, nil
	}
	var out []apis.AttributeFieldInfo
	for _, sf := range reflect.VisibleFields(t) {
		tag, ok := sf.Tag.Lookup(TagName)
		if !ok || tag == "-" {
			continue
		}
		if !sf.IsExported() {
			return nil, regErr("field %s.%s is unexported", t.Name(), sf.Name)
		}
		name, opts, _ := strings.Cut(tag, ",")
		fi := apis.AttributeFieldInfo{
			Field:       sf.Name,
			Name:        name,
			Description: sf.Tag.Get(DescTagName),
		}
		switch opts {
		case "":
		case "writable":
			fi.Access = apis.ReadWrite
		case "writeonly":
			fi.Access = apis.WriteOnly
		default:
			return nil, regErr("field %s.%s: unknown %s tag option %q", t.Name(), sf.Name, TagName, opts)
		}
		out = append(out, fi)
	}
	return out, nil
}

// build carries the per-call resolution state.
type build struct {
	target reflect.Value
	// names and ops track attribute and operation names already taken.
	names map[string]struct{}
	ops   map[string]struct{}
}

func (b *build) field(fi apis.AttributeFieldInfo) (FieldAttribute, error) {
	if fi.Field == "" {
		return FieldAttribute{}, regErr("field attribute %q has no field", fi.Name)
	}
	rv := b.target
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return FieldAttribute{}, regErr("field %s: target %s is not a non-nil pointer to a struct", fi.Field, rv.Type())
	}
	st := rv.Elem().Type()
	sf, ok := st.FieldByName(fi.Field)
	if !ok {
		return FieldAttribute{}, regErr("no field %s in %s", fi.Field, st)
	}
	if !sf.IsExported() {
		return FieldAttribute{}, regErr("field %s.%s is unexported", st.Name(), fi.Field)
	}
	fv, err := rv.Elem().FieldByIndexErr(sf.Index)
	if err != nil {
		return FieldAttribute{}, regErr("field %s.%s: %v", st.Name(), fi.Field, err)
	}
	if !fv.CanSet() {
		return FieldAttribute{}, regErr("field %s.%s is not addressable", st.Name(), fi.Field)
	}

	name := fi.Name
	if name == "" {
		name = fi.Field
	}
	if err := b.claimAttribute(name); err != nil {
		return FieldAttribute{}, err
	}
	return FieldAttribute{
		Name:        name,
		Description: fi.Description,
		Field:       fi.Field,
		Index:       sf.Index,
		Type:        sf.Type,
		Readable:    fi.Access.Readable(),
		Writable:    fi.Access.Writable(),
		v:           fv,
	}, nil
}

func (b *build) method(mi apis.AttributeMethodInfo) (MethodAttribute, error) {
	if mi.Getter == "" && mi.Setter == "" {
		return MethodAttribute{}, regErr("method attribute %q names neither getter nor setter", mi.Name)
	}
	ma := MethodAttribute{
		Name:        mi.Name,
		Description: mi.Description,
		Getter:      mi.Getter,
		Setter:      mi.Setter,
	}

	if mi.Getter != "" {
		m, err := b.lookupMethod(mi.Getter)
		if err != nil {
			return MethodAttribute{}, err
		}
		mt := m.Type()
		if mt.NumIn() != 0 || !returnsValue(mt) {
			return MethodAttribute{}, regErr("getter %s must have signature func() T or func() (T, error), has %s", mi.Getter, mt)
		}
		ma.get, ma.getErr, ma.Type = m, mt.NumOut() == 2, mt.Out(0)
	}

	if mi.Setter != "" {
		m, err := b.lookupMethod(mi.Setter)
		if err != nil {
			return MethodAttribute{}, err
		}
		mt := m.Type()
		if mt.NumIn() != 1 || mt.IsVariadic() || !returnsNothingOrError(mt) {
			return MethodAttribute{}, regErr("setter %s must have signature func(T) or func(T) error, has %s", mi.Setter, mt)
		}
		if ma.Type != nil && ma.Type != mt.In(0) {
			return MethodAttribute{}, regErr("getter %s returns %s but setter %s takes %s", mi.Getter, ma.Type, mi.Setter, mt.In(0))
		}
		ma.set, ma.setErr, ma.Type = m, mt.NumOut() == 1, mt.In(0)
	}

	if ma.Name == "" {
		ma.Name = mi.Getter
		if ma.Name == "" {
			ma.Name = mi.Setter
		}
	}
	if err := b.claimAttribute(ma.Name); err != nil {
		return MethodAttribute{}, err
	}
	return ma, nil
}

func (b *build) operation(oi apis.OperationInfo) (Operation, error) {
	if oi.Method == "" {
		return Operation{}, regErr("operation has no method")
	}
	m, err := b.lookupMethod(oi.Method)
	if err != nil {
		return Operation{}, err
	}
	mt := m.Type()
	if mt.IsVariadic() {
		return Operation{}, regErr("operation %s is variadic", oi.Method)
	}
	if len(oi.Params) > mt.NumIn() {
		return Operation{}, regErr("operation %s documents %d params but takes %d", oi.Method, len(oi.Params), mt.NumIn())
	}

	op := Operation{Name: oi.Method, Description: oi.Description, fn: m}
	switch {
	case mt.NumOut() == 0:
	case mt.NumOut() == 1 && mt.Out(0) == errorType:
		op.hasErr = true
	case mt.NumOut() == 1:
		op.Returns = mt.Out(0)
	case mt.NumOut() == 2 && mt.Out(1) == errorType:
		op.Returns, op.hasErr = mt.Out(0), true
	default:
		return Operation{}, regErr("operation %s has unsupported results %s", oi.Method, mt)
	}

	op.Params = make([]Param, mt.NumIn())
	for i := range op.Params {
		p := Param{Name: "p" + strconv.Itoa(i), Type: mt.In(i)}
		if i < len(oi.Params) {
			if oi.Params[i].Name != "" {
				p.Name = oi.Params[i].Name
			}
			p.Description = oi.Params[i].Description
		}
		op.Params[i] = p
	}

	if _, dup := b.ops[op.Name]; dup {
		return Operation{}, regErr("duplicate operation %s", op.Name)
	}
	b.ops[op.Name] = struct{}{}
	return op, nil
}

func (b *build) lookupMethod(name string) (reflect.Value, error) {
	m := b.target.MethodByName(name)
	if !m.IsValid() {
		return reflect.Value{}, regErr("no exported method %s on %s", name, b.target.Type())
	}
	return m, nil
}

func (b *build) claimAttribute(name string) error {
	if _, dup := b.names[name]; dup {
		return regErr("duplicate attribute %s", name)
	}
	b.names[name] = struct{}{}
	return nil
}

func returnsValue(mt reflect.Type) bool {
	switch mt.NumOut() {
	case 1:
		return mt.Out(0) != errorType
	case 2:
		return mt.Out(0) != errorType && mt.Out(1) == errorType
	}
	return false
}

func returnsNothingOrError(mt reflect.Type) bool {
	return mt.NumOut() == 0 || (mt.NumOut() == 1 && mt.Out(0) == errorType)
}

func regErr(format string, args ...any) error {
	return fmt.Errorf("rmx(builder): %s: %w", fmt.Sprintf(format, args...), apis.ErrRegistration)
}
