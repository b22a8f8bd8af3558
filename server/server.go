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

package server

import (
	"fmt"
	"net"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"dirpx.dev/rmx"
	"dirpx.dev/rmx/apis"
	"dirpx.dev/rmx/bean"
	"dirpx.dev/rmx/builder"
	"dirpx.dev/rmx/config"
	"dirpx.dev/rmx/naming"
	"dirpx.dev/rmx/strategy"
	"dirpx.dev/rmx/transport"
)

// Server is the registration authority: it owns the endpoint lifecycle and
// the table binding names to beans. At most one bean is bound per name.
//
// A single mutex serializes lifecycle changes and table mutation. Bean calls
// made through the server never hold it.
type Server struct {
	cfg      apis.Config
	log      *zap.Logger
	resolver apis.Resolver
	endpoint apis.Endpoint

	mu      sync.Mutex
	started bool
	entries map[string]*entry
}

// entry is one binding in the server table.
type entry struct {
	name       naming.Name
	target     any
	bean       *bean.Bean
	origin     apis.Origin
	handle     uuid.UUID
	registered time.Time
}

// Registration describes one binding for diagnostics. Origin tells where
// the static metadata of the target came from.
type Registration struct {
	Name       naming.Name
	Type       string
	Origin     apis.Origin
	Handle     uuid.UUID
	Registered time.Time
}

// Ensure Server implements apis.BeanLookup.
var _ apis.BeanLookup = (*Server)(nil)

// New returns a stopped server for cfg. Registration is allowed before Start.
func New(cfg apis.Config, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		log:     zap.NewNop(),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.endpoint == nil {
		s.endpoint = transport.New(s, s.log, transport.WithTimeouts(cfg.ReadTimeout, cfg.WriteTimeout))
	}
	return s
}

// Start brings up the registry listener and then the connector. Starting a
// started server is a no-op. When the connector fails the registry listener
// is released again before the error is returned.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.cfg.RegistryPort == 0 {
		return fmt.Errorf("rmx(server): registry port unset: %w", apis.ErrNotConfigured)
	}

	regAddr, srvAddr := s.addrs()
	if err := s.endpoint.StartRegistry(regAddr); err != nil {
		return fmt.Errorf("rmx(server): start registry on %s: %w: %w", regAddr, apis.ErrEndpoint, err)
	}
	if err := s.endpoint.StartConnector(srvAddr); err != nil {
		if cerr := s.endpoint.StopRegistry(); cerr != nil {
			s.log.Warn("releasing registry after failed start", zap.Error(cerr))
		}
		return fmt.Errorf("rmx(server): start connector on %s: %w: %w", srvAddr, apis.ErrEndpoint, err)
	}

	s.started = true
	s.log.Info("management server started",
		zap.Int("registry_port", s.cfg.RegistryPort),
		zap.Int("server_port", config.EffectiveServerPort(s.cfg)),
		zap.Int("beans", len(s.entries)))
	return nil
}

// StopThrow stops the connector and then the registry listener. Both steps
// are always attempted. The first failure is returned wrapped with
// apis.ErrEndpoint; later ones are logged. Stopping a stopped server is a
// no-op.
func (s *Server) StopThrow() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	err := multierr.Combine(
		s.endpoint.StopConnector(),
		s.endpoint.StopRegistry(),
	)
	if err == nil {
		s.log.Info("management server stopped")
		return nil
	}
	errs := multierr.Errors(err)
	for _, extra := range errs[1:] {
		s.log.Warn("additional shutdown failure", zap.Error(extra))
	}
	return fmt.Errorf("rmx(server): stop: %w: %w", apis.ErrEndpoint, errs[0])
}

// Stop is StopThrow without an error: failures are logged.
func (s *Server) Stop() {
	if err := s.StopThrow(); err != nil {
		s.log.Warn("stop failed", zap.Error(err))
	}
}

// IsStarted reports whether the endpoint is up.
func (s *Server) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Ports returns the configured registry port and the effective server port.
func (s *Server) Ports() (registry, server int) {
	return s.cfg.RegistryPort, config.EffectiveServerPort(s.cfg)
}

// Register publishes target under the name resolved from its metadata, with
// descriptors discovered automatically.
func (s *Server) Register(target any) (naming.Name, error) {
	return s.RegisterWith(target, naming.Name{}, apis.Automatic())
}

// RegisterWith publishes target under name (resolved from the target's
// metadata when zero) with descriptors from src. Nothing is bound when any
// step fails; a name that is already bound yields apis.ErrDuplicateName and
// leaves the first binding intact.
func (s *Server) RegisterWith(target any, name naming.Name, src apis.DescriptorSource) (naming.Name, error) {
	if target == nil {
		return naming.Name{}, fmt.Errorf("rmx(server): nil target: %w", apis.ErrRegistration)
	}

	var decl *apis.Resource
	resolution, ok := s.lookupResolver().Resolve(target)
	if ok {
		decl = &resolution.Resource
	}

	if name.IsZero() {
		override, _ := target.(apis.SelfNaming)
		n, err := naming.Resolve(decl, override, strategy.TypeName(target, s.cfg))
		if err != nil {
			return naming.Name{}, fmt.Errorf("rmx(server): register %T: %w", target, err)
		}
		name = n
	}

	tables, err := builder.Build(target, src, decl)
	if err != nil {
		return naming.Name{}, fmt.Errorf("rmx(server): register %s: %w", name, err)
	}
	var description string
	if decl != nil {
		description = decl.Description
	}
	b := bean.New(target, description, tables)

	s.mu.Lock()
	defer s.mu.Unlock()

	key := name.String()
	if _, dup := s.entries[key]; dup {
		return naming.Name{}, fmt.Errorf("rmx(server): %s: %w", key, apis.ErrDuplicateName)
	}
	e := &entry{
		name:       name,
		target:     target,
		bean:       b,
		origin:     resolution.Origin,
		handle:     uuid.New(),
		registered: time.Now(),
	}
	s.entries[key] = e
	s.log.Debug("registered",
		zap.Stringer("name", name),
		zap.String("type", reflect.TypeOf(target).String()),
		zap.String("metadata", string(resolution.Origin)),
		zap.Stringer("handle", e.handle),
		zap.Int("members", tables.Len()))
	return name, nil
}

// UnregisterThrow removes the bindings of target. Every binding holding the
// identical target is removed, so a target bound under several explicit
// names disappears entirely. When none holds it, the binding of the target's
// resolved name is removed.
func (s *Server) UnregisterThrow(target any) error {
	s.mu.Lock()
	removed := 0
	for key, e := range s.entries {
		if sameTarget(e.target, target) {
			s.unbindLocked(key)
			removed++
		}
	}
	s.mu.Unlock()
	if removed > 0 {
		return nil
	}

	var decl *apis.Resource
	if r, ok := s.lookupResolver().Resource(target); ok {
		decl = &r
	}
	override, _ := target.(apis.SelfNaming)
	name, err := naming.Resolve(decl, override, strategy.TypeName(target, s.cfg))
	if err != nil {
		return fmt.Errorf("rmx(server): unregister %T: %w: %w", target, apis.ErrNotRegistered, err)
	}
	return s.UnregisterNameThrow(name)
}

// Unregister is UnregisterThrow without an error.
func (s *Server) Unregister(target any) {
	if err := s.UnregisterThrow(target); err != nil {
		s.log.Warn("unregister failed", zap.Error(err))
	}
}

// UnregisterNameThrow removes the binding of name.
func (s *Server) UnregisterNameThrow(name naming.Name) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := name.String()
	if _, ok := s.entries[key]; !ok {
		return fmt.Errorf("rmx(server): %s: %w", key, apis.ErrNotRegistered)
	}
	s.unbindLocked(key)
	return nil
}

// UnregisterName is UnregisterNameThrow without an error.
func (s *Server) UnregisterName(name naming.Name) {
	if err := s.UnregisterNameThrow(name); err != nil {
		s.log.Warn("unregister failed", zap.Error(err))
	}
}

func (s *Server) unbindLocked(key string) {
	e := s.entries[key]
	delete(s.entries, key)
	s.log.Debug("unregistered", zap.Stringer("name", e.name), zap.Stringer("handle", e.handle))
}

// Lookup returns the bean bound to name.
func (s *Server) Lookup(name naming.Name) (*bean.Bean, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name.String()]
	if !ok {
		return nil, false
	}
	return e.bean, true
}

// Names returns the bound names in sorted order.
func (s *Server) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for key := range s.entries {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Bean returns the bean bound to the textual name.
func (s *Server) Bean(name string) (apis.Bean, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return nil, false
	}
	return e.bean, true
}

// Registrations returns a snapshot of the table sorted by name.
func (s *Server) Registrations() []Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Registration, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, Registration{
			Name:       e.name,
			Type:       reflect.TypeOf(e.target).String(),
			Origin:     e.origin,
			Handle:     e.handle,
			Registered: e.registered,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name.String() < out[j].Name.String() })
	return out
}

// Describe returns the management interface of the bean bound to name.
func (s *Server) Describe(name naming.Name) (apis.BeanInfo, error) {
	b, err := s.mustLookup(name)
	if err != nil {
		return apis.BeanInfo{}, err
	}
	return b.Describe(), nil
}

// Attribute reads an attribute of the bean bound to name.
func (s *Server) Attribute(name naming.Name, attr string) (any, error) {
	b, err := s.mustLookup(name)
	if err != nil {
		return nil, err
	}
	return b.Attribute(attr)
}

// SetAttribute writes an attribute of the bean bound to name.
func (s *Server) SetAttribute(name naming.Name, attr string, value any) error {
	b, err := s.mustLookup(name)
	if err != nil {
		return err
	}
	return b.SetAttribute(attr, value)
}

// Invoke calls an operation of the bean bound to name.
func (s *Server) Invoke(name naming.Name, op string, args ...any) (any, error) {
	b, err := s.mustLookup(name)
	if err != nil {
		return nil, err
	}
	return b.Invoke(op, args)
}

func (s *Server) mustLookup(name naming.Name) (*bean.Bean, error) {
	b, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("rmx(server): %s: %w", name, apis.ErrNotRegistered)
	}
	return b, nil
}

func (s *Server) lookupResolver() apis.Resolver {
	if s.resolver != nil {
		return s.resolver
	}
	return rmx.Resolver()
}

func (s *Server) addrs() (registry, server string) {
	host := s.cfg.Host
	if host == "" {
		host = config.DefaultHost
	}
	return net.JoinHostPort(host, strconv.Itoa(s.cfg.RegistryPort)),
		net.JoinHostPort(host, strconv.Itoa(config.EffectiveServerPort(s.cfg)))
}

// sameTarget reports whether a and b are the same registered value. Pointers
// compare by address; other comparable values by ==.
func sameTarget(a, b any) (same bool) {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	if !ta.Comparable() {
		return false
	}
	// Comparable structs may still hold incomparable interface values.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
