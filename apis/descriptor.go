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

// Access describes how a field-backed attribute may be used.
type Access int

const (
	// ReadOnly is the default: the attribute can be read but not written.
	ReadOnly Access = iota
	// ReadWrite allows both reads and writes.
	ReadWrite
	// WriteOnly allows writes only.
	WriteOnly
)

// Readable reports whether reads are allowed.
func (a Access) Readable() bool { return a != WriteOnly }

// Writable reports whether writes are allowed.
func (a Access) Writable() bool { return a != ReadOnly }

// String returns "r", "rw" or "w".
func (a Access) String() string {
	switch a {
	case ReadWrite:
		return "rw"
	case WriteOnly:
		return "w"
	default:
		return "r"
	}
}

// AttributeFieldInfo exposes a struct field as an attribute.
type AttributeFieldInfo struct {
	// Field is the Go field name; promoted fields of embedded structs resolve too.
	Field string
	// Name is the attribute name. Empty means Field.
	Name        string
	Description string
	Access      Access
}

// AttributeMethodInfo exposes a getter, a setter, or a pair of them as one
// attribute. A getter takes no arguments and returns a value (optionally
// followed by an error); a setter takes one argument and returns nothing or
// an error.
type AttributeMethodInfo struct {
	// Name is the attribute name. Empty means the getter name, or the setter
	// name when there is no getter.
	Name        string
	Getter      string
	Setter      string
	Description string
}

// ParamInfo describes one operation parameter.
type ParamInfo struct {
	Name        string
	Description string
}

// OperationInfo exposes a method as an invocable operation.
type OperationInfo struct {
	// Method is the Go method name, also used as the operation name.
	Method      string
	Description string
	// Params documents the parameters positionally. It may be shorter than
	// the method's arity; missing entries get generated names.
	Params []ParamInfo
}

// DescriptorSource selects where a registration takes its descriptor tables
// from. The zero value is automatic discovery from the target's declarations;
// Explicit replaces discovery entirely with the given lists.
type DescriptorSource struct {
	explicit   bool
	fields     []AttributeFieldInfo
	methods    []AttributeMethodInfo
	operations []OperationInfo
}

// Automatic returns the discovery source. It equals DescriptorSource{}.
func Automatic() DescriptorSource { return DescriptorSource{} }

// Explicit returns a source that exposes exactly the given members. Nil
// lists expose nothing of that kind.
func Explicit(fields []AttributeFieldInfo, methods []AttributeMethodInfo, operations []OperationInfo) DescriptorSource {
	return DescriptorSource{
		explicit:   true,
		fields:     fields,
		methods:    methods,
		operations: operations,
	}
}

// IsExplicit reports whether the source carries caller-supplied lists.
func (s DescriptorSource) IsExplicit() bool { return s.explicit }

// Fields returns the explicit field attribute list.
func (s DescriptorSource) Fields() []AttributeFieldInfo { return s.fields }

// Methods returns the explicit method attribute list.
func (s DescriptorSource) Methods() []AttributeMethodInfo { return s.methods }

// Operations returns the explicit operation list.
func (s DescriptorSource) Operations() []OperationInfo { return s.operations }
