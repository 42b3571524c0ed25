/*
Copyright 2025 The goARRG Authors.

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

/*
Package softvk is a software implementation of vk.Driver. Memory is host memory, recorded commands execute on a
queue goroutine in submission order and only transfer, barrier and clear work is actually performed, draws and
dispatches are counted. Usage errors that a validation layer would report are logged and counted in Stats.
*/
package softvk

import (
	"fmt"
	"sync"
	"sync/atomic"

	"goarrg.com/debug"
	"goarrg.com/rhi/xrhi/internal/vk"
)

type SurfaceConfig struct {
	MinImageCount uint32
	// 0 means no limit.
	MaxImageCount uint32
	// ExtraImages is added on top of the requested image count, drivers are allowed to create more images than asked.
	ExtraImages  uint32
	Formats      []vk.SurfaceFormatKHR
	PresentModes []vk.PresentModeKHR
	// ReportExtent makes the surface report the window extent as CurrentExtent instead of 0xFFFFFFFF.
	ReportExtent bool
}

type Config struct {
	Properties  vk.PhysicalDeviceProperties
	MemoryTypes []vk.MemoryType
	// 0 means every memory type.
	BufferMemoryTypeBits uint32
	ImageMemoryTypeBits  uint32
	Surface              SurfaceConfig
}

func DefaultConfig() Config {
	return Config{
		Properties: vk.PhysicalDeviceProperties{
			APIVersion:    vk.API_VERSION_1_3,
			DriverVersion: 1,
			VendorID:      0,
			DeviceID:      1,
			DeviceType:    vk.PHYSICAL_DEVICE_TYPE_CPU,
			DeviceName:    "xrhi software device",
		},
		MemoryTypes: []vk.MemoryType{
			{PropertyFlags: vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT},
			{PropertyFlags: vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT | vk.MEMORY_PROPERTY_HOST_COHERENT_BIT},
			{PropertyFlags: vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT | vk.MEMORY_PROPERTY_HOST_CACHED_BIT},
			{PropertyFlags: vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT | vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT | vk.MEMORY_PROPERTY_HOST_COHERENT_BIT},
		},
		Surface: SurfaceConfig{
			MinImageCount: 2,
			MaxImageCount: 8,
			Formats: []vk.SurfaceFormatKHR{
				{Format: vk.FORMAT_R8G8B8A8_UNORM, ColorSpace: vk.COLOR_SPACE_SRGB_NONLINEAR_KHR},
				{Format: vk.FORMAT_B8G8R8A8_UNORM, ColorSpace: vk.COLOR_SPACE_SRGB_NONLINEAR_KHR},
			},
			PresentModes: []vk.PresentModeKHR{vk.PRESENT_MODE_FIFO_KHR, vk.PRESENT_MODE_IMMEDIATE_KHR},
		},
	}
}

type Stats struct {
	Calls            uint64
	LiveObjects      int
	Submits          uint64
	Acquires         uint64
	Presents         uint64
	Draws            uint64
	Dispatches       uint64
	ValidationErrors uint64
	// LastRenderPassBegin is the most recently executed render pass begin.
	LastRenderPassBegin vk.RenderPassBeginInfo
}

type submission struct {
	infos []vk.SubmitInfo
	fence *fence
}

type Driver struct {
	cfg    Config
	logger *debug.Logger
	calls  atomic.Uint64

	mu         sync.Mutex
	cond       *sync.Cond
	nextHandle uint64
	objs       map[uint64]any
	pending    int
	stats      Stats
	outOfDate  int
	failSubmit int
	errors     []string

	queue chan submission
	done  chan struct{}
}

var _ vk.Driver = (*Driver)(nil)

func New(cfg Config) *Driver {
	d := &Driver{
		cfg:    cfg,
		logger: debug.NewLogger("xrhi", "softvk"),
		objs:   map[uint64]any{},
		queue:  make(chan submission, 64),
		done:   make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	return d
}

func (d *Driver) run() {
	defer close(d.done)
	for s := range d.queue {
		d.mu.Lock()
		for _, info := range s.infos {
			for _, h := range info.CommandBuffers {
				cb, ok := lookup[commandBuffer](d, uint64(h))
				if !ok {
					continue
				}
				for _, op := range cb.ops {
					op()
				}
			}
		}
		if s.fence != nil {
			s.fence.signaled = true
		}
		d.pending--
		d.cond.Broadcast()
		d.mu.Unlock()
	}
}

// lock counts the call and takes the driver lock, every exported method goes through it.
func (d *Driver) lock() {
	d.calls.Add(1)
	d.mu.Lock()
}

func (d *Driver) newHandle(obj any) uint64 {
	d.nextHandle++
	d.objs[d.nextHandle] = obj
	return d.nextHandle
}

func (d *Driver) release(h uint64) {
	delete(d.objs, h)
}

func lookup[T any](d *Driver, h uint64) (*T, bool) {
	o, ok := d.objs[h]
	if !ok {
		return nil, false
	}
	t, ok := o.(*T)
	return t, ok
}

func (d *Driver) validationError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	d.stats.ValidationErrors++
	d.errors = append(d.errors, msg)
	d.logger.WPrintf("[validation] %s", msg)
}

// Calls returns the number of driver entry points invoked so far.
func (d *Driver) Calls() uint64 {
	return d.calls.Load()
}

func (d *Driver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.Calls = d.calls.Load()
	s.LiveObjects = len(d.objs)
	return s
}

// ValidationMessages returns every validation error reported so far.
func (d *Driver) ValidationMessages() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.errors...)
}

// InjectOutOfDate makes the next n AcquireNextImage calls fail with ERROR_OUT_OF_DATE_KHR.
func (d *Driver) InjectOutOfDate(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outOfDate = n
}

// InjectSubmitFailure makes the next n QueueSubmit calls fail with ERROR_DEVICE_LOST before touching any state.
func (d *Driver) InjectSubmitFailure(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failSubmit = n
}

func (d *Driver) PhysicalDeviceProperties() vk.PhysicalDeviceProperties {
	d.calls.Add(1)
	return d.cfg.Properties
}

func (d *Driver) PhysicalDeviceMemoryProperties() vk.PhysicalDeviceMemoryProperties {
	d.calls.Add(1)
	props := vk.PhysicalDeviceMemoryProperties{
		MemoryTypes: append([]vk.MemoryType(nil), d.cfg.MemoryTypes...),
		MemoryHeaps: []vk.MemoryHeap{{Size: 1 << 30}},
	}
	return props
}

func (d *Driver) QueueFamilyIndex() uint32 {
	d.calls.Add(1)
	return 0
}

func (d *Driver) QueueWaitIdle() vk.Result {
	d.lock()
	defer d.mu.Unlock()
	for d.pending > 0 {
		d.cond.Wait()
	}
	return vk.SUCCESS
}

func (d *Driver) DeviceWaitIdle() vk.Result {
	return d.QueueWaitIdle()
}

func (d *Driver) Destroy() {
	d.lock()
	for d.pending > 0 {
		d.cond.Wait()
	}
	if len(d.objs) > 0 {
		d.validationError("Destroy with %d live objects", len(d.objs))
	}
	d.mu.Unlock()
	close(d.queue)
	<-d.done
}
