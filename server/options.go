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
	"go.uber.org/zap"

	"dirpx.dev/rmx/apis"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithEndpoint replaces the default HTTP endpoint.
func WithEndpoint(e apis.Endpoint) Option {
	return func(s *Server) {
		s.endpoint = e
	}
}

// WithResolver sets the resolver used to find the static Resource of
// registered targets. The default is the process-wide rmx.Resolver at the
// time of each registration.
func WithResolver(r apis.Resolver) Option {
	return func(s *Server) {
		s.resolver = r
	}
}
