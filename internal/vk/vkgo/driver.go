//go:build vulkan
// +build vulkan

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
Package vkgo implements vk.Driver over the system Vulkan loader through github.com/goki/vulkan. Surfaces are
created from github.com/go-gl/glfw windows, glfw must be initialized on the main thread before New.
*/
package vkgo

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
	gvk "github.com/goki/vulkan"
	"goarrg.com/debug"
	"goarrg.com/rhi/xrhi/internal/vk"
)

type Config struct {
	AppName    string
	Validation bool
}

type Driver struct {
	logger *debug.Logger

	instance    gvk.Instance
	physDev     gvk.PhysicalDevice
	device      gvk.Device
	queue       gvk.Queue
	queueFamily uint32
	cache       gvk.PipelineCache

	props    vk.PhysicalDeviceProperties
	memProps vk.PhysicalDeviceMemoryProperties

	// mu guards the handle table only, Vulkan external synchronization is the caller's job.
	mu         sync.RWMutex
	nextHandle uint64
	objs       map[uint64]any
}

var _ vk.Driver = (*Driver)(nil)

const validationLayer = "VK_LAYER_KHRONOS_validation\x00"

func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != 0 {
		return s + "\x00"
	}
	return s
}

func bool32(b bool) gvk.Bool32 {
	if b {
		return gvk.True
	}
	return gvk.False
}

func result(r gvk.Result) vk.Result {
	return vk.Result(r)
}

func errorResult(call string, r gvk.Result) error {
	return &vk.Error{Call: call, Result: vk.Result(r)}
}

// requiredInstanceExtensions asks glfw through a hidden window, the list does not depend on the window.
func requiredInstanceExtensions() ([]string, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Visible, glfw.False)
	w, err := glfw.CreateWindow(1, 1, "", nil, nil)
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create probe window")
	}
	defer w.Destroy()
	glfw.DefaultWindowHints()
	return w.GetRequiredInstanceExtensions(), nil
}

func New(cfg Config) (*Driver, error) {
	if !glfw.VulkanSupported() {
		return nil, debug.Errorf("Vulkan loader not found")
	}
	gvk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := gvk.Init(); err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to init vulkan")
	}

	d := &Driver{
		logger: debug.NewLogger("xrhi", "vkgo"),
		objs:   map[uint64]any{},
	}
	exts, err := requiredInstanceExtensions()
	if err != nil {
		return nil, err
	}
	for i := range exts {
		exts[i] = safeString(exts[i])
	}
	var layers []string
	if cfg.Validation {
		layers = append(layers, validationLayer)
	}

	if r := gvk.CreateInstance(&gvk.InstanceCreateInfo{
		SType: gvk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &gvk.ApplicationInfo{
			SType:            gvk.StructureTypeApplicationInfo,
			ApiVersion:       uint32(gvk.MakeVersion(1, 2, 0)),
			PApplicationName: safeString(cfg.AppName),
			PEngineName:      "xrhi\x00",
		},
		EnabledExtensionCount:   uint32(len(exts)),
		PpEnabledExtensionNames: exts,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &d.instance); r != gvk.Success {
		return nil, errorResult("vkCreateInstance", r)
	}
	if err := gvk.InitInstance(d.instance); err != nil {
		gvk.DestroyInstance(d.instance, nil)
		return nil, debug.ErrorWrapf(err, "Failed to init instance")
	}
	if err := d.initDevice(layers); err != nil {
		gvk.DestroyInstance(d.instance, nil)
		return nil, err
	}
	d.logger.IPrintf("Opened device: %s", d.props.DeviceName)
	return d, nil
}

func (d *Driver) initDevice(layers []string) error {
	var count uint32
	if r := gvk.EnumeratePhysicalDevices(d.instance, &count, nil); r != gvk.Success {
		return errorResult("vkEnumeratePhysicalDevices", r)
	}
	if count == 0 {
		return debug.Errorf("No physical devices")
	}
	devs := make([]gvk.PhysicalDevice, count)
	if r := gvk.EnumeratePhysicalDevices(d.instance, &count, devs); r != gvk.Success {
		return errorResult("vkEnumeratePhysicalDevices", r)
	}

	// First device with a graphics queue, discrete preferred.
	found := false
	for _, pd := range devs {
		family, ok := graphicsQueueFamily(pd)
		if !ok {
			continue
		}
		var props gvk.PhysicalDeviceProperties
		gvk.GetPhysicalDeviceProperties(pd, &props)
		props.Deref()
		if !found || props.DeviceType == gvk.PhysicalDeviceTypeDiscreteGpu {
			d.physDev, d.queueFamily, found = pd, family, true
		}
	}
	if !found {
		return debug.Errorf("No physical device with a graphics queue")
	}

	var props gvk.PhysicalDeviceProperties
	gvk.GetPhysicalDeviceProperties(d.physDev, &props)
	props.Deref()
	d.props = vk.PhysicalDeviceProperties{
		APIVersion:        props.ApiVersion,
		DriverVersion:     props.DriverVersion,
		VendorID:          props.VendorID,
		DeviceID:          props.DeviceID,
		DeviceType:        uint32(props.DeviceType),
		DeviceName:        gvk.ToString(props.DeviceName[:]),
		PipelineCacheUUID: props.PipelineCacheUUID,
	}

	var memProps gvk.PhysicalDeviceMemoryProperties
	gvk.GetPhysicalDeviceMemoryProperties(d.physDev, &memProps)
	memProps.Deref()
	for i := range memProps.MemoryTypeCount {
		t := memProps.MemoryTypes[i]
		t.Deref()
		d.memProps.MemoryTypes = append(d.memProps.MemoryTypes, vk.MemoryType{
			PropertyFlags: vk.MemoryPropertyFlags(t.PropertyFlags),
			HeapIndex:     t.HeapIndex,
		})
	}
	for i := range memProps.MemoryHeapCount {
		h := memProps.MemoryHeaps[i]
		h.Deref()
		d.memProps.MemoryHeaps = append(d.memProps.MemoryHeaps, vk.MemoryHeap{
			Size:  uint64(h.Size),
			Flags: uint32(h.Flags),
		})
	}

	exts := []string{"VK_KHR_swapchain\x00"}
	queueInfos := []gvk.DeviceQueueCreateInfo{{
		SType:            gvk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.queueFamily,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
	if r := gvk.CreateDevice(d.physDev, &gvk.DeviceCreateInfo{
		SType:                   gvk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(exts)),
		PpEnabledExtensionNames: exts,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
		PEnabledFeatures: []gvk.PhysicalDeviceFeatures{{
			SamplerAnisotropy: gvk.True,
		}},
	}, nil, &d.device); r != gvk.Success {
		return errorResult("vkCreateDevice", r)
	}
	gvk.GetDeviceQueue(d.device, d.queueFamily, 0, &d.queue)
	if r := gvk.CreatePipelineCache(d.device, &gvk.PipelineCacheCreateInfo{
		SType: gvk.StructureTypePipelineCacheCreateInfo,
	}, nil, &d.cache); r != gvk.Success {
		gvk.DestroyDevice(d.device, nil)
		return errorResult("vkCreatePipelineCache", r)
	}
	return nil
}

func graphicsQueueFamily(pd gvk.PhysicalDevice) (uint32, bool) {
	var count uint32
	gvk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	props := make([]gvk.QueueFamilyProperties, count)
	gvk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, props)
	for i := range props {
		props[i].Deref()
		if props[i].QueueFlags&gvk.QueueFlags(gvk.QueueGraphicsBit) != 0 {
			return uint32(i), true
		}
	}
	return 0, false
}

func (d *Driver) newHandle(obj any) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextHandle++
	d.objs[d.nextHandle] = obj
	return d.nextHandle
}

func (d *Driver) release(h uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.objs, h)
}

// lookup returns the zero value for NULL_HANDLE and unknown handles.
func lookup[T any](d *Driver, h uint64) T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, _ := d.objs[h].(T)
	return v
}

func lookupAll[T any, H ~uint64](d *Driver, hs []H) []T {
	ret := make([]T, len(hs))
	for i, h := range hs {
		ret[i] = lookup[T](d, uint64(h))
	}
	return ret
}

func (d *Driver) PhysicalDeviceProperties() vk.PhysicalDeviceProperties {
	return d.props
}

func (d *Driver) PhysicalDeviceMemoryProperties() vk.PhysicalDeviceMemoryProperties {
	return vk.PhysicalDeviceMemoryProperties{
		MemoryTypes: append([]vk.MemoryType(nil), d.memProps.MemoryTypes...),
		MemoryHeaps: append([]vk.MemoryHeap(nil), d.memProps.MemoryHeaps...),
	}
}

func (d *Driver) QueueFamilyIndex() uint32 {
	return d.queueFamily
}

func (d *Driver) QueueWaitIdle() vk.Result {
	return result(gvk.QueueWaitIdle(d.queue))
}

func (d *Driver) DeviceWaitIdle() vk.Result {
	return result(gvk.DeviceWaitIdle(d.device))
}

func (d *Driver) Destroy() {
	gvk.DeviceWaitIdle(d.device)
	d.mu.RLock()
	if len(d.objs) > 0 {
		d.logger.WPrintf("Destroy with %d live objects", len(d.objs))
	}
	d.mu.RUnlock()
	gvk.DestroyPipelineCache(d.device, d.cache, nil)
	gvk.DestroyDevice(d.device, nil)
	gvk.DestroyInstance(d.instance, nil)
}
