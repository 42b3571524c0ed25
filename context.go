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

package xrhi

import (
	"sync"
	"sync/atomic"

	"goarrg.com"
	"goarrg.com/debug"
	"goarrg.com/rhi/xrhi/internal/vk"
)

// Destroyer is anything that can be queued for destruction once the GPU is done with it.
type Destroyer interface {
	Destroy()
}

// DestroyerFunc adapts a plain function, typically a closure over a Context.Destroy* call.
type DestroyerFunc func()

func (f DestroyerFunc) Destroy() {
	f()
}

type vkBackend struct {
	drv      vk.Driver
	props    vk.PhysicalDeviceProperties
	memProps vk.PhysicalDeviceMemoryProperties

	// queueMutex serializes QueueSubmit and QueuePresent.
	queueMutex  sync.Mutex
	oneShotPool vk.CommandPool
}

/*
Context owns one device and everything created from it. Create* methods return nil after logging when the
native call fails, contract violations abort through the platform.
*/
type Context struct {
	noCopy   noCopy
	platform goarrg.PlatformInterface
	logger   *debug.Logger
	config   Config
	nextID   atomic.Uint64

	backend Backend
	vk      *vkBackend

	poolMutex   sync.Mutex
	defaultPool *ResourceSetPool
	layoutCache pipelineLayoutCache
}

/*
New opens the configured driver and initializes the backend, an unusable backend or driver aborts through
platform. A nil platform panics on abort.
*/
func New(platform goarrg.PlatformInterface, cfg Config) *Context {
	c := newContextState(platform, cfg)
	if c.backend != BackendVulkan {
		c.abortPopup("Unsupported backend: %s", c.backend)
		return nil
	}
	drv, err := openDriver(c.config)
	if err != nil {
		c.abortPopup("Failed to open %s driver: %v", c.config.Driver, err)
		return nil
	}
	c.init(drv)
	return c
}

func newContextState(p goarrg.PlatformInterface, cfg Config) *Context {
	if p == nil {
		p = platform{}
	}
	c := &Context{
		platform: p,
		logger:   newLogger(),
		config:   cfg,
		backend:  cfg.Backend,
	}
	c.noCopy.init(c)
	c.config.validate(c)
	return c
}

// newContext is New with a caller supplied driver.
func newContext(p goarrg.PlatformInterface, cfg Config, drv vk.Driver) *Context {
	c := newContextState(p, cfg)
	if c.backend != BackendVulkan {
		c.abortPopup("Unsupported backend: %s", c.backend)
		return nil
	}
	c.init(drv)
	return c
}

func (c *Context) init(drv vk.Driver) {
	if c.config.LogLevel != 0 {
		c.SetLogLevel(c.config.LogLevel)
	}
	c.logger.IPrintf("Config: %s", prettyString(&c.config))

	b := &vkBackend{
		drv:      drv,
		props:    drv.PhysicalDeviceProperties(),
		memProps: drv.PhysicalDeviceMemoryProperties(),
	}
	c.vk = b
	c.layoutCache = pipelineLayoutCache{cache: map[string]*pipelineLayout{}}

	if !c.vkCheck("vkCreateCommandPool", drv.CreateCommandPool(&vk.CommandPoolCreateInfo{
		QueueFamilyIndex:   drv.QueueFamilyIndex(),
		Transient:          true,
		ResetCommandBuffer: true,
	}, &b.oneShotPool)) {
		c.abort("Failed to create one shot command pool")
	}

	c.defaultPool = c.CreateResourceSetPool(c.config.ResourceSetPool)
	if c.defaultPool == nil {
		c.abort("Failed to create default resource set pool")
	}

	c.logger.IPrintf("Device: %s", prettyString(c.Properties()))
}

// vkb is the backend dispatch point, every backend specific path goes through it.
func (c *Context) vkb() *vkBackend {
	c.noCopy.check(c)
	switch c.backend {
	case BackendVulkan:
		return c.vk
	}
	c.abort("Backend %s has no implementation", c.backend)
	return nil
}

func (c *Context) Backend() Backend {
	c.noCopy.check(c)
	return c.backend
}

func (c *Context) Config() Config {
	c.noCopy.check(c)
	return c.config
}

// WaitForIdle blocks until every submitted command buffer has finished executing.
func (c *Context) WaitForIdle() {
	b := c.vkb()
	b.queueMutex.Lock()
	defer b.queueMutex.Unlock()
	c.vkCheck("vkDeviceWaitIdle", b.drv.DeviceWaitIdle())
}

/*
Destroy waits for idle and releases the context owned objects and the device. Handles created from the context
must be destroyed first, anything still alive is leaked.
*/
func (c *Context) Destroy() {
	if !c.noCopy.alive(c) {
		c.logger.WPrintf("Destroy called on a destroyed Context")
		return
	}
	b := c.vkb()
	c.WaitForIdle()
	c.DestroyResourceSetPool(c.defaultPool)
	c.defaultPool = nil
	c.layoutCache.destroy(c)
	b.drv.DestroyCommandPool(b.oneShotPool)
	b.drv.Destroy()
	c.noCopy.close()
	c.logger.IPrintf("Context destroyed")
}

// Finalize is Destroy.
func (c *Context) Finalize() {
	c.Destroy()
}

/*
oneShot records f into a transient command buffer, submits it and waits for completion. Used by uploads that must
be finished before Create* returns.
*/
func (c *Context) oneShot(name string, f func(cb vk.CommandBuffer)) bool {
	b := c.vkb()
	var cb vk.CommandBuffer
	if !c.vkCheck("vkAllocateCommandBuffers", b.drv.AllocateCommandBuffer(b.oneShotPool, &cb)) {
		return false
	}
	defer b.drv.FreeCommandBuffer(b.oneShotPool, cb)

	if !c.vkCheck("vkBeginCommandBuffer", b.drv.BeginCommandBuffer(cb, true)) {
		return false
	}
	f(cb)
	if !c.vkCheck("vkEndCommandBuffer", b.drv.EndCommandBuffer(cb)) {
		return false
	}

	var fence vk.Fence
	if !c.vkCheck("vkCreateFence", b.drv.CreateFence(false, &fence)) {
		return false
	}
	defer b.drv.DestroyFence(fence)

	c.logger.VPrintf("Submitting one shot command buffer: %q", name)
	b.queueMutex.Lock()
	ok := c.vkCheck("vkQueueSubmit", b.drv.QueueSubmit([]vk.SubmitInfo{{CommandBuffers: []vk.CommandBuffer{cb}}}, fence))
	b.queueMutex.Unlock()
	if !ok {
		return false
	}
	return c.vkCheck("vkWaitForFences", b.drv.WaitForFences([]vk.Fence{fence}, vk.MAX_UINT64))
}
