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
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"dirpx.dev/rmx/apis"
)

// maxBody bounds request bodies of the connector.
const maxBody = 1 << 20

// NamesResponse is the body of GET /names and GET /beans.
type NamesResponse struct {
	Names []string `json:"names"`
}

// ConnectorResponse is the body of GET /connector.
type ConnectorResponse struct {
	Address string `json:"address"`
}

// ValueResponse is the body of an attribute read.
type ValueResponse struct {
	Value any `json:"value"`
}

// ResultResponse is the body of an operation invocation.
type ResultResponse struct {
	Result any `json:"result"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (e *Endpoint) registryRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/names", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, NamesResponse{Names: e.lookup.Names()})
	})
	r.Get("/connector", func(w http.ResponseWriter, _ *http.Request) {
		addr := e.ConnectorAddr()
		if addr == "" {
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "connector not running"})
			return
		}
		writeJSON(w, http.StatusOK, ConnectorResponse{Address: addr})
	})
	return r
}

func (e *Endpoint) connectorRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/beans", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, NamesResponse{Names: e.lookup.Names()})
	})
	r.Route("/beans/{name}", func(r chi.Router) {
		r.Get("/", e.describe)
		r.Get("/attributes", e.attributes)
		r.Get("/attributes/{attr}", e.getAttribute)
		r.Put("/attributes/{attr}", e.setAttribute)
		r.Post("/operations/{op}", e.invoke)
	})
	return r
}

func (e *Endpoint) describe(w http.ResponseWriter, r *http.Request) {
	b, ok := e.bean(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, b.Describe())
}

// attributes returns every readable attribute that could be read.
func (e *Endpoint) attributes(w http.ResponseWriter, r *http.Request) {
	b, ok := e.bean(w, r)
	if !ok {
		return
	}
	values := make(map[string]any)
	for _, a := range b.Describe().Attributes {
		if !a.Readable {
			continue
		}
		v, err := b.Attribute(a.Name)
		if err != nil {
			e.log.Debug("attribute read failed", zap.String("attribute", a.Name), zap.Error(err))
			continue
		}
		values[a.Name] = v
	}
	writeJSON(w, http.StatusOK, values)
}

func (e *Endpoint) getAttribute(w http.ResponseWriter, r *http.Request) {
	b, ok := e.bean(w, r)
	if !ok {
		return
	}
	v, err := b.Attribute(param(r, "attr"))
	if err != nil {
		e.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ValueResponse{Value: v})
}

func (e *Endpoint) setAttribute(w http.ResponseWriter, r *http.Request) {
	b, ok := e.bean(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	value := gjson.GetBytes(body, "value")
	if !value.Exists() {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: `body must carry a "value" member`})
		return
	}
	if err := b.SetAttribute(param(r, "attr"), value.Value()); err != nil {
		e.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *Endpoint) invoke(w http.ResponseWriter, r *http.Request) {
	b, ok := e.bean(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var args []any
	if a := gjson.GetBytes(body, "args"); a.Exists() {
		if !a.IsArray() {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: `"args" must be an array`})
			return
		}
		for _, v := range a.Array() {
			args = append(args, v.Value())
		}
	}
	res, err := b.Invoke(param(r, "op"), args)
	if err != nil {
		e.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultResponse{Result: res})
}

// bean resolves the {name} parameter, answering 404 itself on a miss.
func (e *Endpoint) bean(w http.ResponseWriter, r *http.Request) (apis.Bean, bool) {
	name := param(r, "name")
	b, ok := e.lookup.Bean(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no bean " + name})
		return nil, false
	}
	return b, true
}

func (e *Endpoint) fail(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		e.log.Warn("bean call failed", zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// statusOf maps bean errors onto HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, apis.ErrNoSuchAttribute),
		errors.Is(err, apis.ErrNoSuchOperation),
		errors.Is(err, apis.ErrNotRegistered):
		return http.StatusNotFound
	case errors.Is(err, apis.ErrTypeMismatch),
		errors.Is(err, apis.ErrArityMismatch):
		return http.StatusBadRequest
	case errors.Is(err, apis.ErrNotReadable),
		errors.Is(err, apis.ErrNotWritable):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// param returns the unescaped path parameter key. chi matches on the decoded
// path unless the request carries a distinct RawPath, so only then is the
// parameter still escaped.
func param(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return nil, false
	}
	if len(body) > 0 && !gjson.ValidBytes(body) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "body is not valid JSON"})
		return nil, false
	}
	return body, true
}

// writeJSON encodes v before touching the response, so a value that cannot
// be encoded yields a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(ErrorResponse{Error: "encode response: " + err.Error()})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
