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

package server_test

import (
	"context"
	"errors"
	"net"
	"reflect"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"dirpx.dev/rmx/apis"
	"dirpx.dev/rmx/config"
	"dirpx.dev/rmx/naming"
	"dirpx.dev/rmx/registry"
	"dirpx.dev/rmx/resolver"
	"dirpx.dev/rmx/server"
	"dirpx.dev/rmx/strategy"
	"dirpx.dev/rmx/transport"
)

// fakeEndpoint records lifecycle calls and fails on demand.
type fakeEndpoint struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeEndpoint) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.fail[call]
}

func (f *fakeEndpoint) StartRegistry(addr string) error { return f.record("StartRegistry " + addr) }
func (f *fakeEndpoint) StartConnector(addr string) error { return f.record("StartConnector " + addr) }
func (f *fakeEndpoint) StopConnector() error { return f.record("StopConnector") }
func (f *fakeEndpoint) StopRegistry() error { return f.record("StopRegistry") }

func (f *fakeEndpoint) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// gauge is a managed value with a static Resource.
type gauge struct {
	Value int `rmx:"value"`
	Limit int `rmx:"limit,writable"`
}

func (*gauge) ManagedResource() apis.Resource {
	return apis.Resource{
		Domain:      "foo.com",
		BeanName:    "someObj",
		Description: "a gauge",
		Folders:     []string{"a=folder1", "b=folder2"},
		Operations:  []apis.OperationInfo{{Method: "Reset"}},
	}
}

func (g *gauge) Reset() { g.Value = 0 }

// namedGauge overrides the bean name per instance.
type namedGauge struct {
	gauge
	apis.BaseSelfNaming
	id string
}

func (n *namedGauge) ManagedName() string { return n.id }

// plain has no metadata at all.
type plain struct{}

func newServer(t *testing.T, ep apis.Endpoint, opts ...config.Option) *server.Server {
	t.Helper()
	opts = append([]config.Option{config.WithPort(9875)}, opts...)
	return server.New(config.NewConfig(opts...), server.WithEndpoint(ep), server.WithLogger(zaptest.NewLogger(t)))
}

func TestStart_BringsUpRegistryThenConnector(t *testing.T) {
	ep := &fakeEndpoint{}
	s := newServer(t, ep)

	require.NoError(t, s.Start())
	assert.True(t, s.IsStarted())
	assert.Equal(t, []string{"StartRegistry 127.0.0.1:9875", "StartConnector 127.0.0.1:9876"}, ep.Calls())

	// Start on a started server is a no-op.
	require.NoError(t, s.Start())
	assert.Len(t, ep.Calls(), 2)

	reg, srv := s.Ports()
	assert.Equal(t, 9875, reg)
	assert.Equal(t, 9876, srv)
}

func TestStart_ExplicitServerPort(t *testing.T) {
	ep := &fakeEndpoint{}
	s := newServer(t, ep, config.WithServerPort(7000), config.WithHost("0.0.0.0"))
	require.NoError(t, s.Start())
	assert.Equal(t, []string{"StartRegistry 0.0.0.0:9875", "StartConnector 0.0.0.0:7000"}, ep.Calls())
}

func TestStart_NotConfigured(t *testing.T) {
	ep := &fakeEndpoint{}
	s := server.New(config.NewConfig(), server.WithEndpoint(ep))
	assert.ErrorIs(t, s.Start(), apis.ErrNotConfigured)
	assert.False(t, s.IsStarted())
	assert.Empty(t, ep.Calls())
}

func TestStart_RegistryFailure(t *testing.T) {
	cause := errors.New("port in use")
	ep := &fakeEndpoint{fail: map[string]error{"StartRegistry 127.0.0.1:9875": cause}}
	s := newServer(t, ep)

	err := s.Start()
	assert.ErrorIs(t, err, apis.ErrEndpoint)
	assert.ErrorIs(t, err, cause)
	assert.False(t, s.IsStarted())
	assert.Len(t, ep.Calls(), 1)
}

func TestStart_ConnectorFailureReleasesRegistry(t *testing.T) {
	cause := errors.New("bind failed")
	ep := &fakeEndpoint{fail: map[string]error{"StartConnector 127.0.0.1:9876": cause}}
	s := newServer(t, ep)

	err := s.Start()
	assert.ErrorIs(t, err, apis.ErrEndpoint)
	assert.ErrorIs(t, err, cause)
	assert.False(t, s.IsStarted())
	assert.Equal(t, []string{"StartRegistry 127.0.0.1:9875", "StartConnector 127.0.0.1:9876", "StopRegistry"}, ep.Calls())
}

func TestStop_NeverStartedIsNoop(t *testing.T) {
	ep := &fakeEndpoint{}
	s := newServer(t, ep)

	require.NoError(t, s.StopThrow())
	s.Stop()
	assert.Empty(t, ep.Calls())
}

func TestStop_ReleasesConnectorThenRegistry(t *testing.T) {
	ep := &fakeEndpoint{}
	s := newServer(t, ep)
	require.NoError(t, s.Start())

	require.NoError(t, s.StopThrow())
	assert.False(t, s.IsStarted())
	assert.Equal(t, []string{"StopConnector", "StopRegistry"}, ep.Calls()[2:])

	// Idempotent.
	require.NoError(t, s.StopThrow())
	assert.Len(t, ep.Calls(), 4)
}

func TestStopThrow_AttemptsEveryStep(t *testing.T) {
	first, second := errors.New("connector stuck"), errors.New("registry stuck")
	ep := &fakeEndpoint{fail: map[string]error{"StopConnector": first, "StopRegistry": second}}
	s := newServer(t, ep)
	require.NoError(t, s.Start())

	err := s.StopThrow()
	assert.ErrorIs(t, err, apis.ErrEndpoint)
	assert.ErrorIs(t, err, first)
	assert.NotErrorIs(t, err, second)
	assert.Equal(t, []string{"StopConnector", "StopRegistry"}, ep.Calls()[2:])
	assert.False(t, s.IsStarted())

	// The silent variant swallows failures.
	require.NoError(t, s.Start())
	assert.NotPanics(t, s.Stop)
}

func TestRegister_ResolvesNameAndExposesMembers(t *testing.T) {
	s := newServer(t, &fakeEndpoint{})
	g := &gauge{Value: 3}

	name, err := s.Register(g)
	require.NoError(t, err)
	assert.Equal(t, "foo.com:a=folder1,b=folder2,name=someObj", name.String())
	assert.Equal(t, []string{name.String()}, s.Names())

	info, err := s.Describe(name)
	require.NoError(t, err)
	assert.Equal(t, "a gauge", info.Description)
	assert.Len(t, info.Attributes, 2)
	assert.Len(t, info.Operations, 1)

	v, err := s.Attribute(name, "value")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	require.NoError(t, s.SetAttribute(name, "limit", 10))
	assert.Equal(t, 10, g.Limit)

	_, err = s.Invoke(name, "Reset")
	require.NoError(t, err)
	assert.Equal(t, 0, g.Value)

	regs := s.Registrations()
	require.Len(t, regs, 1)
	assert.Equal(t, "*server_test.gauge", regs[0].Type)
	assert.Equal(t, apis.OriginResourcer, regs[0].Origin)
	assert.NotEqual(t, [16]byte{}, [16]byte(regs[0].Handle))
}

func TestRegister_ReadOnlyAttributeUnchanged(t *testing.T) {
	s := newServer(t, &fakeEndpoint{})
	g := &gauge{Value: 3}
	name, err := s.Register(g)
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetAttribute(name, "value", 99), apis.ErrNotWritable)
	assert.Equal(t, 3, g.Value)
}

func TestRegister_Duplicate(t *testing.T) {
	s := newServer(t, &fakeEndpoint{})
	first, second := &gauge{Value: 1}, &gauge{Value: 2}

	name, err := s.Register(first)
	require.NoError(t, err)

	_, err = s.Register(second)
	assert.ErrorIs(t, err, apis.ErrDuplicateName)

	v, err := s.Attribute(name, "value")
	require.NoError(t, err)
	assert.Equal(t, 1, v, "first binding stays intact")
}

func TestRegister_SelfNamingOverride(t *testing.T) {
	s := newServer(t, &fakeEndpoint{})

	a, err := s.Register(&namedGauge{id: "A"})
	require.NoError(t, err)
	b, err := s.Register(&namedGauge{id: "B"})
	require.NoError(t, err)

	assert.Equal(t, "foo.com:a=folder1,b=folder2,name=A", a.String())
	assert.Equal(t, "foo.com:a=folder1,b=folder2,name=B", b.String())
	assert.Len(t, s.Names(), 2)
}

func TestRegister_Failures(t *testing.T) {
	s := newServer(t, &fakeEndpoint{})

	_, err := s.Register(nil)
	assert.ErrorIs(t, err, apis.ErrRegistration)

	_, err = s.Register(&plain{})
	assert.ErrorIs(t, err, apis.ErrNaming, "no domain anywhere")

	_, err = s.RegisterWith(&gauge{}, naming.MustNew("x", "y"),
		apis.Explicit(nil, nil, []apis.OperationInfo{{Method: "Missing"}}))
	assert.ErrorIs(t, err, apis.ErrRegistration)

	assert.Empty(t, s.Names(), "failed registrations leave nothing behind")
}

func TestRegisterWith_ExplicitNameAndDescriptors(t *testing.T) {
	s := newServer(t, &fakeEndpoint{})
	name := naming.MustNew("dirpx.dev", "Plain", apis.FolderName{Value: "misc"})

	got, err := s.RegisterWith(&plain{}, name, apis.Explicit(nil, nil, nil))
	require.NoError(t, err)
	assert.True(t, got.Equal(name))
	require.Len(t, s.Registrations(), 1)
	assert.Equal(t, apis.OriginNone, s.Registrations()[0].Origin)

	info, err := s.Describe(name)
	require.NoError(t, err)
	assert.Empty(t, info.Attributes)
	assert.Empty(t, info.Operations)
}

func TestRegister_WithCustomResolver(t *testing.T) {
	reg := registry.New(config.DefaultConfig())
	require.NoError(t, reg.Register(reflect.TypeOf(plain{}), apis.Resource{Domain: "custom"}))
	s := server.New(config.NewConfig(config.WithPort(1)),
		server.WithEndpoint(&fakeEndpoint{}),
		server.WithResolver(resolver.New(strategy.NewRegistryStrategy(reg))))

	name, err := s.Register(&plain{})
	require.NoError(t, err)
	assert.Equal(t, "custom:name=plain", name.String())
	require.Len(t, s.Registrations(), 1)
	assert.Equal(t, apis.OriginRegistry, s.Registrations()[0].Origin)
}

func TestRegister_BeforeAndAfterStart(t *testing.T) {
	s := newServer(t, &fakeEndpoint{})
	_, err := s.Register(&namedGauge{id: "early"})
	require.NoError(t, err)

	require.NoError(t, s.Start())
	_, err = s.Register(&namedGauge{id: "late"})
	require.NoError(t, err)
	assert.Len(t, s.Names(), 2)
}

func TestUnregister(t *testing.T) {
	s := newServer(t, &fakeEndpoint{})
	g := &gauge{}
	name, err := s.Register(g)
	require.NoError(t, err)

	require.NoError(t, s.UnregisterThrow(g))
	assert.Empty(t, s.Names())

	assert.ErrorIs(t, s.UnregisterThrow(g), apis.ErrNotRegistered)
	assert.ErrorIs(t, s.UnregisterNameThrow(name), apis.ErrNotRegistered)
	assert.ErrorIs(t, s.UnregisterThrow(&plain{}), apis.ErrNotRegistered)

	// Silent variants never fail.
	s.Unregister(g)
	s.UnregisterName(name)

	_, err = s.Register(g)
	require.NoError(t, err, "name is free again")
	s.UnregisterName(name)
	assert.Empty(t, s.Names())

	_, ok := s.Lookup(name)
	assert.False(t, ok)
	_, err = s.Describe(name)
	assert.ErrorIs(t, err, apis.ErrNotRegistered)
}

func TestUnregister_AllBindingsOfTarget(t *testing.T) {
	s := newServer(t, &fakeEndpoint{})
	g := &gauge{}
	for _, bean := range []string{"first", "second"} {
		_, err := s.RegisterWith(g, naming.MustNew("multi", bean), apis.Automatic())
		require.NoError(t, err)
	}
	other, err := s.Register(&gauge{})
	require.NoError(t, err)
	require.Len(t, s.Names(), 3)

	require.NoError(t, s.UnregisterThrow(g))
	assert.Equal(t, []string{other.String()}, s.Names())
}

func TestUnregister_ByResolvedName(t *testing.T) {
	s := newServer(t, &fakeEndpoint{})
	_, err := s.Register(&namedGauge{id: "A"})
	require.NoError(t, err)

	// A different instance resolving to the same name unbinds it.
	require.NoError(t, s.UnregisterThrow(&namedGauge{id: "A"}))
	assert.Empty(t, s.Names())
}

func TestRegister_Concurrent(t *testing.T) {
	s := newServer(t, &fakeEndpoint{})

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			// Every two workers race for the same name.
			if _, err := s.Register(&namedGauge{id: "g" + strconv.Itoa(i/2)}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	dups := 0
	for err := range errs {
		require.ErrorIs(t, err, apis.ErrDuplicateName)
		dups++
	}
	assert.Equal(t, workers/2, dups)
	assert.Len(t, s.Names(), workers/2)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestServer_WithHTTPEndpoint(t *testing.T) {
	regPort, srvPort := freePort(t), freePort(t)
	s := server.New(
		config.NewConfig(config.WithRegistryPort(regPort), config.WithServerPort(srvPort)),
		server.WithLogger(zaptest.NewLogger(t)),
	)
	name, err := s.Register(&gauge{Value: 7})
	require.NoError(t, err)

	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)

	addr := net.JoinHostPort(config.DefaultHost, strconv.Itoa(regPort))
	names, err := transport.FetchNames(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, []string{name.String()}, names)

	conn, err := transport.FetchConnector(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, net.JoinHostPort(config.DefaultHost, strconv.Itoa(srvPort)), conn)

	require.NoError(t, s.StopThrow())
	_, err = transport.FetchNames(context.Background(), addr)
	assert.Error(t, err)
}
