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
	"strconv"
	"strings"

	"dirpx.dev/rmx/apis"
)

// minIndexWidth is the narrowest positional key: "00", "01", ...
const minIndexWidth = 2

// Resolve computes the canonical name of a value from its static Resource
// (may be nil), its SelfNaming override (may be nil) and the value's runtime
// type name.
//
// Domain, bean name and folders are resolved independently: the override
// wins for each one it supplies. A non-nil override folder list replaces the
// static folders entirely. Resolve has no side effects and returns either a
// fully valid Name or an error wrapping apis.ErrNaming.
func Resolve(static *apis.Resource, override apis.SelfNaming, fallbackTypeName string) (Name, error) {
	var (
		sDomain, sBean string
		sFolders       []string
		oDomain, oBean string
		oFolders       []apis.FolderName
	)
	if static != nil {
		sDomain, sBean, sFolders = static.Domain, static.BeanName, static.Folders
	}
	if override != nil {
		oDomain, oBean, oFolders = override.ManagedDomain(), override.ManagedName(), override.ManagedFolders()
	}

	domain := coalesce(oDomain, sDomain)
	if domain == "" {
		return Name{}, fmt.Errorf("rmx(naming): no domain: %w", apis.ErrNaming)
	}
	bean := coalesce(oBean, sBean, fallbackTypeName)
	if bean == "" {
		return Name{}, fmt.Errorf("rmx(naming): no bean name for domain %q: %w", domain, apis.ErrNaming)
	}

	folders := oFolders
	if folders == nil {
		var err error
		if folders, err = ParseFolders(sFolders); err != nil {
			return Name{}, err
		}
	}
	return assemble(domain, bean, folders)
}

// ParseFolders converts static folder specifications into FolderNames. A spec
// is split at its first '='; specs without one are bare labels.
func ParseFolders(specs []string) ([]apis.FolderName, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make([]apis.FolderName, 0, len(specs))
	for _, spec := range specs {
		k, v, ok := strings.Cut(spec, "=")
		if !ok {
			out = append(out, apis.FolderName{Value: spec})
			continue
		}
		if k == "" || v == "" {
			return nil, fmt.Errorf("rmx(naming): malformed folder %q: %w", spec, apis.ErrNaming)
		}
		out = append(out, apis.FolderName{Key: k, Value: v})
	}
	return out, nil
}

// IndexKey returns the positional key of the i-th bare folder in a list
// holding count bare folders. All keys of one list share the same width, at
// least two digits, so lexical and numeric order agree.
func IndexKey(i, count int) string {
	width := len(strconv.Itoa(count - 1))
	if width < minIndexWidth {
		width = minIndexWidth
	}
	return fmt.Sprintf("%0*d", width, i)
}

// assemble keys the folders, appends the name property and validates.
func assemble(domain, bean string, folders []apis.FolderName) (Name, error) {
	bare := 0
	for _, f := range folders {
		if f.Key == "" {
			bare++
		}
	}

	props := make([]Property, 0, len(folders)+1)
	idx := 0
	for _, f := range folders {
		key := f.Key
		if key == "" {
			key = IndexKey(idx, bare)
			idx++
		}
		props = append(props, Property{Key: key, Value: f.Value})
	}
	props = append(props, Property{Key: NameKey, Value: bean})

	n := Name{domain: domain, props: props}
	if err := n.validate(); err != nil {
		return Name{}, err
	}
	return n, nil
}

// coalesce returns the first non-empty value.
func coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
