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

package main

import (
	"reflect"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dirpx.dev/rmx"
	"dirpx.dev/rmx/apis"
)

const domain = "dirpx.dev"

// runtimeStats publishes Go runtime counters. It carries its metadata
// itself through ManagedResource.
type runtimeStats struct {
	started time.Time

	mu        sync.Mutex
	gcPercent int
}

func newRuntimeStats() *runtimeStats {
	return &runtimeStats{started: time.Now(), gcPercent: 100}
}

func (*runtimeStats) ManagedResource() apis.Resource {
	return apis.Resource{
		Domain:      domain,
		BeanName:    "Runtime",
		Description: "Go runtime statistics",
		Folders:     []string{"type=runtime"},
		Attributes: []apis.AttributeMethodInfo{
			{Name: "Goroutines", Getter: "Goroutines", Description: "number of live goroutines"},
			{Name: "HeapAlloc", Getter: "HeapAlloc", Description: "bytes of allocated heap objects"},
			{Name: "NumGC", Getter: "NumGC", Description: "completed GC cycles"},
			{Name: "Uptime", Getter: "Uptime", Description: "time since start"},
			{Name: "GCPercent", Getter: "GCPercent", Setter: "SetGCPercent", Description: "GC target percentage"},
		},
		Operations: []apis.OperationInfo{
			{Method: "GC", Description: "run a garbage collection"},
			{Method: "FreeOSMemory", Description: "force a GC and return memory to the OS"},
		},
	}
}

func (*runtimeStats) Goroutines() int { return runtime.NumGoroutine() }

func (*runtimeStats) HeapAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

func (*runtimeStats) NumGC() uint32 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.NumGC
}

func (r *runtimeStats) Uptime() string { return time.Since(r.started).Round(time.Second).String() }

func (r *runtimeStats) GCPercent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gcPercent
}

func (r *runtimeStats) SetGCPercent(p int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	debug.SetGCPercent(p)
	r.gcPercent = p
}

func (*runtimeStats) GC() { runtime.GC() }

func (*runtimeStats) FreeOSMemory() { debug.FreeOSMemory() }

// beanCounter is the part of the server the daemon bean reports on.
type beanCounter interface {
	Names() []string
}

// daemonInfo names itself per process: the instance id is a bare folder.
// Its static metadata is declared in the global registry.
type daemonInfo struct {
	apis.BaseSelfNaming

	Version    string `rmx:"version" rmxdesc:"daemon version"`
	ConfigFile string `rmx:"config_file" rmxdesc:"config file in use"`
	Instance   string `rmx:"instance" rmxdesc:"process instance id"`

	level zap.AtomicLevel
	srv   beanCounter
}

func init() {
	rmx.MustDeclare(reflect.TypeOf(daemonInfo{}), apis.Resource{
		Domain:      domain,
		BeanName:    "Daemon",
		Description: "rmxd process information",
		Attributes: []apis.AttributeMethodInfo{
			{Name: "log_level", Getter: "LogLevel", Setter: "SetLogLevel", Description: "minimum enabled log level"},
			{Name: "bean_count", Getter: "BeanCount", Description: "number of published beans"},
		},
		Operations: []apis.OperationInfo{
			{Method: "Names", Description: "published bean names"},
		},
	})
}

func newDaemonInfo(version, configFile string, level zap.AtomicLevel, srv beanCounter) *daemonInfo {
	return &daemonInfo{
		Version:    version,
		ConfigFile: configFile,
		Instance:   uuid.NewString(),
		level:      level,
		srv:        srv,
	}
}

func (d *daemonInfo) ManagedFolders() []apis.FolderName {
	return []apis.FolderName{{Key: "type", Value: "daemon"}, {Value: d.Instance}}
}

func (d *daemonInfo) LogLevel() string { return d.level.Level().String() }

func (d *daemonInfo) SetLogLevel(s string) error {
	l, err := zapcore.ParseLevel(s)
	if err != nil {
		return err
	}
	d.level.SetLevel(l)
	return nil
}

func (d *daemonInfo) BeanCount() int { return len(d.srv.Names()) }

func (d *daemonInfo) Names() []string { return d.srv.Names() }
