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

import "time"

// Config carries the knobs of a management server and of the metadata
// registry. It is passed by value and should be treated as immutable by
// implementations.
type Config struct {
	// Host is the interface both listeners bind to.
	Host string

	// RegistryPort is the port clients connect to first to discover the
	// published names. It must be set before a server is started.
	RegistryPort int

	// ServerPort is the port of the data channel serving attribute reads,
	// writes and invocations. Zero means RegistryPort + 1.
	ServerPort int

	// ReadTimeout and WriteTimeout bound a single request on either listener.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxUnwrap limits pointer unwrapping when a type is normalized for
	// metadata lookup. Acts as a safety guard against pathological nesting.
	MaxUnwrap int
}
