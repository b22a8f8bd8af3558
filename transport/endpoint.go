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

package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"dirpx.dev/rmx/apis"
)

var (
	// ErrAlreadyListening is returned when a listener is started twice.
	ErrAlreadyListening = errors.New("rmx(transport): listener already running")
)

// Endpoint is the reference apis.Endpoint: JSON over HTTP. The registry
// listener serves the name directory and tells clients where the connector
// is; the connector serves the beans themselves.
type Endpoint struct {
	lookup       apis.BeanLookup
	log          *zap.Logger
	readTimeout  time.Duration
	writeTimeout time.Duration

	mu        sync.Mutex
	registry  *listener
	connector *listener
}

// Ensure Endpoint implements apis.Endpoint.
var _ apis.Endpoint = (*Endpoint)(nil)

// Option configures an Endpoint.
type Option func(*Endpoint)

// WithTimeouts sets the per-request read and write timeouts. Zero leaves the
// corresponding timeout disabled.
func WithTimeouts(read, write time.Duration) Option {
	return func(e *Endpoint) {
		e.readTimeout, e.writeTimeout = read, write
	}
}

// New returns an Endpoint serving the beans of lookup. A nil logger
// disables logging.
func New(lookup apis.BeanLookup, log *zap.Logger, opts ...Option) *Endpoint {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Endpoint{lookup: lookup, log: log.Named("transport")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// listener is one running HTTP server.
type listener struct {
	srv  *http.Server
	addr net.Addr
}

// StartRegistry starts the name directory on addr.
func (e *Endpoint) StartRegistry(addr string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.registry != nil {
		return fmt.Errorf("registry on %s: %w", e.registry.addr, ErrAlreadyListening)
	}
	l, err := e.listen("registry", addr, e.registryRoutes())
	if err != nil {
		return err
	}
	e.registry = l
	return nil
}

// StartConnector starts the bean data channel on addr.
func (e *Endpoint) StartConnector(addr string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.connector != nil {
		return fmt.Errorf("connector on %s: %w", e.connector.addr, ErrAlreadyListening)
	}
	l, err := e.listen("connector", addr, e.connectorRoutes())
	if err != nil {
		return err
	}
	e.connector = l
	return nil
}

// StopConnector closes the connector. It is a no-op when not running.
func (e *Endpoint) StopConnector() error {
	e.mu.Lock()
	l := e.connector
	e.connector = nil
	e.mu.Unlock()
	return e.close("connector", l)
}

// StopRegistry closes the name directory. It is a no-op when not running.
func (e *Endpoint) StopRegistry() error {
	e.mu.Lock()
	l := e.registry
	e.registry = nil
	e.mu.Unlock()
	return e.close("registry", l)
}

// RegistryAddr returns the bound registry address, or "" when not running.
func (e *Endpoint) RegistryAddr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.registry == nil {
		return ""
	}
	return e.registry.addr.String()
}

// ConnectorAddr returns the bound connector address, or "" when not running.
func (e *Endpoint) ConnectorAddr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.connector == nil {
		return ""
	}
	return e.connector.addr.String()
}

func (e *Endpoint) listen(role, addr string, h http.Handler) (*listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rmx(transport): %s listen on %s: %w", role, addr, err)
	}
	srv := &http.Server{
		Handler:      h,
		ReadTimeout:  e.readTimeout,
		WriteTimeout: e.writeTimeout,
		ErrorLog:     zap.NewStdLog(e.log.Named(role)),
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.log.Error("listener terminated", zap.String("role", role), zap.Error(err))
		}
	}()
	e.log.Info("listening", zap.String("role", role), zap.Stringer("addr", ln.Addr()))
	return &listener{srv: srv, addr: ln.Addr()}, nil
}

// close shuts l down without waiting for in-flight requests, so a caller
// holding a lock those requests need cannot deadlock.
func (e *Endpoint) close(role string, l *listener) error {
	if l == nil {
		return nil
	}
	if err := l.srv.Close(); err != nil {
		return fmt.Errorf("rmx(transport): %s close: %w", role, err)
	}
	e.log.Info("closed", zap.String("role", role), zap.Stringer("addr", l.addr))
	return nil
}
