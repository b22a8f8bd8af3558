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

import "errors"

// Error categories. Concrete errors wrap exactly one of these together with
// the underlying cause, so callers branch with errors.Is.
var (
	// ErrNaming indicates a canonical name could not be resolved or is invalid.
	ErrNaming = errors.New("rmx: invalid management name")
	// ErrRegistration indicates a declared member could not be resolved
	// against the target's actual members.
	ErrRegistration = errors.New("rmx: cannot build management descriptors")
	// ErrDuplicateName indicates the name is already bound on the server.
	ErrDuplicateName = errors.New("rmx: name already registered")
	// ErrNotRegistered indicates the name or target is not bound on the server.
	ErrNotRegistered = errors.New("rmx: name not registered")
	// ErrNotConfigured indicates required endpoint parameters are unset.
	ErrNotConfigured = errors.New("rmx: endpoint not configured")
	// ErrEndpoint indicates the listener could not be brought up or torn down.
	ErrEndpoint = errors.New("rmx: endpoint failure")

	// ErrNoSuchAttribute indicates the attribute is not exposed.
	ErrNoSuchAttribute = errors.New("rmx: no such attribute")
	// ErrNoSuchOperation indicates the operation is not exposed.
	ErrNoSuchOperation = errors.New("rmx: no such operation")
	// ErrNotReadable indicates the attribute is write-only.
	ErrNotReadable = errors.New("rmx: attribute not readable")
	// ErrNotWritable indicates the attribute is read-only.
	ErrNotWritable = errors.New("rmx: attribute not writable")
	// ErrArityMismatch indicates the wrong number of operation arguments.
	ErrArityMismatch = errors.New("rmx: wrong number of arguments")
	// ErrTypeMismatch indicates a value cannot be coerced to the declared type.
	ErrTypeMismatch = errors.New("rmx: type mismatch")
	// ErrInvocation wraps any failure raised by the underlying field or method.
	ErrInvocation = errors.New("rmx: invocation failed")
)
