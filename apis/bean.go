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

// Bean is the uniform management surface of one published value.
// Implementations add no synchronization of their own: concurrent calls are
// as safe as the wrapped value is.
type Bean interface {
	// Describe returns the management interface of the bean.
	Describe() BeanInfo
	// Attribute reads one attribute.
	Attribute(name string) (any, error)
	// SetAttribute writes one attribute, coercing value to its declared type.
	SetAttribute(name string, value any) error
	// Invoke calls an operation, coercing args to the declared parameter types.
	Invoke(operation string, args []any) (any, error)
}

// BeanInfo advertises a bean's capabilities to management clients.
type BeanInfo struct {
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Attributes  []AttributeDesc `json:"attributes"`
	Operations  []OperationDesc `json:"operations"`
}

// AttributeDesc describes one attribute.
type AttributeDesc struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Readable    bool   `json:"readable"`
	Writable    bool   `json:"writable"`
}

// OperationDesc describes one operation.
type OperationDesc struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Params      []ParamDesc `json:"params"`
	// Returns is the result type, or "" when the operation returns nothing.
	Returns string `json:"returns,omitempty"`
}

// ParamDesc describes one operation parameter.
type ParamDesc struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// BeanLookup is the read-only view of published beans that an Endpoint
// serves. Names are canonical name strings.
type BeanLookup interface {
	// Names returns the published names in sorted order.
	Names() []string
	// Bean returns the bean bound to name.
	Bean(name string) (Bean, bool)
}

// Endpoint is the transport a server publishes its beans through. It owns
// two listeners: the registry that clients contact first, and the connector
// serving the data channel. Each can be stopped on its own so a failed
// bring-up can release what was already created.
type Endpoint interface {
	StartRegistry(addr string) error
	StartConnector(addr string) error
	StopConnector() error
	StopRegistry() error
}
