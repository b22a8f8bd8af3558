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

package naming

import (
	"fmt"
	"strings"

	"dirpx.dev/rmx/apis"
)

// NameKey is the key of the terminal property holding the bean name.
const NameKey = "name"

// illegal lists the characters that may not appear in a domain, key or value.
const illegal = ":,=*?\"\n"

// Property is one key=value segment of a Name.
type Property struct {
	Key   string
	Value string
}

// String returns "key=value".
func (p Property) String() string { return p.Key + "=" + p.Value }

// Name is a canonical, hierarchical management name:
//
//	domain:key1=value1,key2=value2,name=bean
//
// Folder properties keep their resolution order and the name property is
// always last. A Name is immutable; the zero value is not a valid name.
type Name struct {
	domain string
	props  []Property
}

// New builds a Name directly from its parts. Folders follow the same keying
// rules as Resolve: empty keys receive positional keys.
func New(domain, bean string, folders ...apis.FolderName) (Name, error) {
	return assemble(domain, bean, folders)
}

// MustNew is like New but panics on error. Intended for tests and
// package-level variables.
func MustNew(domain, bean string, folders ...apis.FolderName) Name {
	n, err := New(domain, bean, folders...)
	if err != nil {
		panic(err)
	}
	return n
}

// Parse parses the textual form produced by Name.String.
func Parse(s string) (Name, error) {
	domain, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Name{}, fmt.Errorf("rmx(naming): %q has no domain separator: %w", s, apis.ErrNaming)
	}
	if rest == "" {
		return Name{}, fmt.Errorf("rmx(naming): %q has no properties: %w", s, apis.ErrNaming)
	}
	segs := strings.Split(rest, ",")
	props := make([]Property, 0, len(segs))
	for _, seg := range segs {
		k, v, ok := strings.Cut(seg, "=")
		if !ok {
			return Name{}, fmt.Errorf("rmx(naming): segment %q is not key=value: %w", seg, apis.ErrNaming)
		}
		props = append(props, Property{Key: k, Value: v})
	}
	if last := props[len(props)-1]; last.Key != NameKey {
		return Name{}, fmt.Errorf("rmx(naming): %q does not end with %s=: %w", s, NameKey, apis.ErrNaming)
	}
	n := Name{domain: domain, props: props}
	if err := n.validate(); err != nil {
		return Name{}, err
	}
	return n, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Name {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Domain returns the domain component.
func (n Name) Domain() string { return n.domain }

// Bean returns the value of the terminal name property.
func (n Name) Bean() string {
	if len(n.props) == 0 {
		return ""
	}
	return n.props[len(n.props)-1].Value
}

// Properties returns a copy of all properties, the name property last.
func (n Name) Properties() []Property {
	out := make([]Property, len(n.props))
	copy(out, n.props)
	return out
}

// Folders returns a copy of the folder properties (all but the last).
func (n Name) Folders() []Property {
	if len(n.props) == 0 {
		return nil
	}
	out := make([]Property, len(n.props)-1)
	copy(out, n.props[:len(n.props)-1])
	return out
}

// Property returns the value for key.
func (n Name) Property(key string) (string, bool) {
	for _, p := range n.props {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// IsZero reports whether n is the zero Name.
func (n Name) IsZero() bool { return n.domain == "" && len(n.props) == 0 }

// Equal reports whether n and o have the same domain and properties in the
// same order.
func (n Name) Equal(o Name) bool {
	if n.domain != o.domain || len(n.props) != len(o.props) {
		return false
	}
	for i := range n.props {
		if n.props[i] != o.props[i] {
			return false
		}
	}
	return true
}

// String renders the canonical textual form.
func (n Name) String() string {
	var b strings.Builder
	b.WriteString(n.domain)
	b.WriteByte(':')
	for i, p := range n.props {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// validate checks the legal-character and unique-key invariants.
func (n Name) validate() error {
	if err := checkPart("domain", n.domain); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(n.props))
	for _, p := range n.props {
		if err := checkPart("key", p.Key); err != nil {
			return err
		}
		if err := checkPart("value of "+p.Key, p.Value); err != nil {
			return err
		}
		if _, dup := seen[p.Key]; dup {
			return fmt.Errorf("rmx(naming): duplicate key %q: %w", p.Key, apis.ErrNaming)
		}
		seen[p.Key] = struct{}{}
	}
	return nil
}

func checkPart(what, s string) error {
	if s == "" {
		return fmt.Errorf("rmx(naming): empty %s: %w", what, apis.ErrNaming)
	}
	if i := strings.IndexAny(s, illegal); i >= 0 {
		return fmt.Errorf("rmx(naming): %s %q contains illegal character %q: %w", what, s, s[i], apis.ErrNaming)
	}
	return nil
}
