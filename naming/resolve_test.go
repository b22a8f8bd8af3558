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

package naming_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/rmx/apis"
	"dirpx.dev/rmx/naming"
)

const (
	domainName = "foo.com"
	beanName   = "someObj"
)

// selfNamed is a configurable SelfNaming used across tests.
type selfNamed struct {
	domain  string
	name    string
	folders []apis.FolderName
}

func (s selfNamed) ManagedDomain() string             { return s.domain }
func (s selfNamed) ManagedName() string               { return s.name }
func (s selfNamed) ManagedFolders() []apis.FolderName { return s.folders }

// onlyName overrides the bean name and nothing else.
type onlyName struct {
	apis.BaseSelfNaming
}

func (onlyName) ManagedName() string { return "FromOverride" }

func TestResolve_KeyedStaticFolders(t *testing.T) {
	static := &apis.Resource{Domain: domainName, BeanName: beanName, Folders: []string{"a=folder1", "b=folder2"}}

	n, err := naming.Resolve(static, nil, "ignored")
	require.NoError(t, err)
	assert.Equal(t, "foo.com:a=folder1,b=folder2,name=someObj", n.String())
}

func TestResolve_BareStaticFolders(t *testing.T) {
	static := &apis.Resource{Domain: domainName, BeanName: beanName, Folders: []string{"folder1", "folder2"}}

	n, err := naming.Resolve(static, nil, "ignored")
	require.NoError(t, err)
	assert.Equal(t, "foo.com:00=folder1,01=folder2,name=someObj", n.String())
}

func TestResolve_MixedFoldersIndexOnlyBare(t *testing.T) {
	static := &apis.Resource{Domain: domainName, BeanName: beanName, Folders: []string{"x", "tier=cache", "y"}}

	n, err := naming.Resolve(static, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "foo.com:00=x,tier=cache,01=y,name=someObj", n.String())
}

func TestResolve_OverrideFolders(t *testing.T) {
	static := &apis.Resource{Domain: domainName, BeanName: beanName}

	keyed := selfNamed{folders: []apis.FolderName{{Key: "a", Value: "folder1"}, {Key: "b", Value: "folder2"}}}
	n, err := naming.Resolve(static, keyed, "")
	require.NoError(t, err)
	assert.Equal(t, "foo.com:a=folder1,b=folder2,name=someObj", n.String())

	bare := selfNamed{folders: []apis.FolderName{{Value: "folder1"}, {Value: "folder2"}}}
	n, err = naming.Resolve(static, bare, "")
	require.NoError(t, err)
	assert.Equal(t, "foo.com:00=folder1,01=folder2,name=someObj", n.String())
}

func TestResolve_OverrideFoldersReplaceStatic(t *testing.T) {
	static := &apis.Resource{Domain: domainName, BeanName: beanName, Folders: []string{"folder1"}}
	override := selfNamed{name: "FoldersFromSelfNaming", folders: []apis.FolderName{{Value: "folder2"}}}

	n, err := naming.Resolve(static, override, "")
	require.NoError(t, err)

	v, ok := n.Property("00")
	require.True(t, ok)
	assert.Equal(t, "folder2", v)
	assert.Len(t, n.Folders(), 1)
	assert.NotContains(t, n.String(), "folder1")
	assert.Equal(t, "FoldersFromSelfNaming", n.Bean())
}

func TestResolve_NilOverrideFoldersKeepStatic(t *testing.T) {
	static := &apis.Resource{Domain: domainName, BeanName: beanName, Folders: []string{"folder1"}}
	override := selfNamed{name: "FoldersFromAnnotation"}

	n, err := naming.Resolve(static, override, "")
	require.NoError(t, err)

	v, _ := n.Property("00")
	assert.Equal(t, "folder1", v)
	assert.Equal(t, "FoldersFromAnnotation", n.Bean())
}

func TestResolve_EmptyOverrideFoldersClearStatic(t *testing.T) {
	static := &apis.Resource{Domain: domainName, BeanName: beanName, Folders: []string{"folder1"}}
	override := selfNamed{folders: []apis.FolderName{}}

	n, err := naming.Resolve(static, override, "")
	require.NoError(t, err)
	assert.Equal(t, "foo.com:name=someObj", n.String())
}

func TestResolve_FieldsResolvedIndependently(t *testing.T) {
	static := &apis.Resource{Domain: domainName, BeanName: beanName, Folders: []string{"f"}}

	n, err := naming.Resolve(static, onlyName{}, "")
	require.NoError(t, err)
	assert.Equal(t, "foo.com:00=f,name=FromOverride", n.String())

	n, err = naming.Resolve(static, selfNamed{domain: "bar.org"}, "")
	require.NoError(t, err)
	assert.Equal(t, "bar.org:00=f,name=someObj", n.String())
}

func TestResolve_NameFallsBackToTypeName(t *testing.T) {
	static := &apis.Resource{Domain: domainName}
	n, err := naming.Resolve(static, nil, "UseObjectClassForName")
	require.NoError(t, err)
	assert.Equal(t, "foo.com:name=UseObjectClassForName", n.String())

	n, err = naming.Resolve(nil, selfNamed{domain: "NoObjectNameInfo"}, "NoObjectNameInfo")
	require.NoError(t, err)
	assert.Equal(t, "NoObjectNameInfo", n.Bean())

	n, err = naming.Resolve(&apis.Resource{BeanName: beanName}, selfNamed{domain: domainName}, "X")
	require.NoError(t, err)
	assert.Equal(t, beanName, n.Bean())
}

func TestResolve_NoDomain(t *testing.T) {
	_, err := naming.Resolve(nil, selfNamed{}, "NoDomainInfo")
	assert.ErrorIs(t, err, apis.ErrNaming)

	_, err = naming.Resolve(&apis.Resource{BeanName: beanName}, nil, "")
	assert.ErrorIs(t, err, apis.ErrNaming)

	_, err = naming.Resolve(nil, nil, "")
	assert.ErrorIs(t, err, apis.ErrNaming)
}

func TestResolve_NoBeanName(t *testing.T) {
	_, err := naming.Resolve(&apis.Resource{Domain: domainName}, nil, "")
	assert.ErrorIs(t, err, apis.ErrNaming)
}

func TestResolve_InvalidCharacters(t *testing.T) {
	cases := []struct {
		name   string
		static apis.Resource
	}{
		{"domain colon", apis.Resource{Domain: ":::"}},
		{"domain comma", apis.Resource{Domain: "a,b", BeanName: "x"}},
		{"bean star", apis.Resource{Domain: domainName, BeanName: "x*"}},
		{"bean question", apis.Resource{Domain: domainName, BeanName: "x?"}},
		{"bean quote", apis.Resource{Domain: domainName, BeanName: `"x"`}},
		{"bean newline", apis.Resource{Domain: domainName, BeanName: "x\ny"}},
		{"folder value", apis.Resource{Domain: domainName, BeanName: "x", Folders: []string{"a:b"}}},
		{"folder key", apis.Resource{Domain: domainName, BeanName: "x", Folders: []string{"k?=v"}}},
		{"folder second equals", apis.Resource{Domain: domainName, BeanName: "x", Folders: []string{"k=v=w"}}},
		{"folder empty key", apis.Resource{Domain: domainName, BeanName: "x", Folders: []string{"=v"}}},
		{"folder empty value", apis.Resource{Domain: domainName, BeanName: "x", Folders: []string{"k="}}},
		{"folder empty bare", apis.Resource{Domain: domainName, BeanName: "x", Folders: []string{""}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := naming.Resolve(&tc.static, nil, "Fallback")
			assert.ErrorIs(t, err, apis.ErrNaming)
			assert.True(t, n.IsZero(), "no partial name may be returned")
		})
	}
}

func TestResolve_DuplicateKeys(t *testing.T) {
	_, err := naming.Resolve(&apis.Resource{Domain: domainName, BeanName: "x", Folders: []string{"a=1", "a=2"}}, nil, "")
	assert.ErrorIs(t, err, apis.ErrNaming)

	_, err = naming.Resolve(&apis.Resource{Domain: domainName, BeanName: "x", Folders: []string{"name=1"}}, nil, "")
	assert.ErrorIs(t, err, apis.ErrNaming)

	// An explicit "00" collides with the first positional key.
	_, err = naming.Resolve(&apis.Resource{Domain: domainName, BeanName: "x", Folders: []string{"00=a", "b"}}, nil, "")
	assert.ErrorIs(t, err, apis.ErrNaming)
}

func TestResolve_ElevenBareFolders(t *testing.T) {
	static := &apis.Resource{Domain: domainName, BeanName: beanName,
		Folders: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}}

	n, err := naming.Resolve(static, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "foo.com:00=a,01=b,02=c,03=d,04=e,05=f,06=g,07=h,08=i,09=j,10=k,name=someObj", n.String())
}

func TestResolve_IndexWidthGrowsPast100(t *testing.T) {
	bare := func(count int) []string {
		out := make([]string, count)
		for i := range out {
			out[i] = fmt.Sprintf("f%d", i)
		}
		return out
	}

	n, err := naming.Resolve(&apis.Resource{Domain: domainName, BeanName: "x", Folders: bare(100)}, nil, "")
	require.NoError(t, err)
	folders := n.Folders()
	require.Len(t, folders, 100)
	assert.Equal(t, "00", folders[0].Key)
	assert.Equal(t, "99", folders[99].Key)

	n, err = naming.Resolve(&apis.Resource{Domain: domainName, BeanName: "x", Folders: bare(101)}, nil, "")
	require.NoError(t, err)
	folders = n.Folders()
	require.Len(t, folders, 101)
	assert.Equal(t, "000", folders[0].Key)
	assert.Equal(t, "099", folders[99].Key)
	assert.Equal(t, "100", folders[100].Key)

	// Lexical order of the generated keys matches their numeric order.
	for i := 1; i < len(folders); i++ {
		assert.Less(t, folders[i-1].Key, folders[i].Key)
	}
}

func TestIndexKey(t *testing.T) {
	assert.Equal(t, "00", naming.IndexKey(0, 1))
	assert.Equal(t, "09", naming.IndexKey(9, 10))
	assert.Equal(t, "10", naming.IndexKey(10, 11))
	assert.Equal(t, "099", naming.IndexKey(99, 101))
	assert.Equal(t, "1000", naming.IndexKey(1000, 1001))
}

func TestResolve_RoundTrip(t *testing.T) {
	cases := []struct{ domain, bean string }{
		{"foo.com", "someObj"},
		{"a", "b"},
		{"dirpx.dev", "Cache-1"},
		{"x y", "with space"},
		{"πdomain", "ünicode"},
	}
	for _, tc := range cases {
		t.Run(tc.domain, func(t *testing.T) {
			n, err := naming.Resolve(&apis.Resource{Domain: tc.domain, BeanName: tc.bean, Folders: []string{"f", "k=v"}}, nil, "")
			require.NoError(t, err)

			back, err := naming.Parse(n.String())
			require.NoError(t, err)
			assert.Equal(t, tc.domain, back.Domain())
			assert.Equal(t, tc.bean, back.Bean())
			assert.True(t, n.Equal(back))
		})
	}
}

func TestResolve_NameAlwaysLast(t *testing.T) {
	n, err := naming.Resolve(&apis.Resource{Domain: domainName, BeanName: "x", Folders: []string{"z=1", "a=2"}}, nil, "")
	require.NoError(t, err)
	props := n.Properties()
	assert.Equal(t, naming.NameKey, props[len(props)-1].Key)
	assert.True(t, strings.HasSuffix(n.String(), ",name=x"))
}
