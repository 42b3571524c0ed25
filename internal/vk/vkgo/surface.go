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

package vkgo

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	gvk "github.com/goki/vulkan"
	"goarrg.com/rhi/xrhi/internal/vk"
)

// GLFWWindow is implemented by platform windows that wrap a glfw window.
type GLFWWindow interface {
	GLFWWindow() *glfw.Window
}

/*
CreateSurface accepts a *glfw.Window or a GLFWWindow. The queue family picked in New must be able to present to
the surface, devices where graphics and present are split are not supported.
*/
func (d *Driver) CreateSurface(window any, out *vk.SurfaceKHR) vk.Result {
	var w *glfw.Window
	switch window := window.(type) {
	case *glfw.Window:
		w = window
	case GLFWWindow:
		w = window.GLFWWindow()
	}
	if w == nil {
		return vk.ERROR_INITIALIZATION_FAILED
	}

	ptr, err := w.CreateWindowSurface(d.instance, nil)
	if err != nil {
		d.logger.EPrintf("Failed to create surface: %v", err)
		return vk.ERROR_INITIALIZATION_FAILED
	}
	surface := gvk.SurfaceFromPointer(ptr)

	var supported gvk.Bool32
	gvk.GetPhysicalDeviceSurfaceSupport(d.physDev, d.queueFamily, surface, &supported)
	if supported != gvk.True {
		gvk.DestroySurface(d.instance, surface, nil)
		return vk.ERROR_INITIALIZATION_FAILED
	}
	*out = vk.SurfaceKHR(d.newHandle(surface))
	return vk.SUCCESS
}

func (d *Driver) DestroySurface(s vk.SurfaceKHR) {
	if s == vk.NULL_HANDLE {
		return
	}
	gvk.DestroySurface(d.instance, lookup[gvk.Surface](d, uint64(s)), nil)
	d.release(uint64(s))
}

func (d *Driver) GetSurfaceCapabilities(s vk.SurfaceKHR, out *vk.SurfaceCapabilitiesKHR) vk.Result {
	var caps gvk.SurfaceCapabilities
	r := gvk.GetPhysicalDeviceSurfaceCapabilities(d.physDev, lookup[gvk.Surface](d, uint64(s)), &caps)
	if r != gvk.Success {
		return result(r)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	*out = vk.SurfaceCapabilitiesKHR{
		MinImageCount:  caps.MinImageCount,
		MaxImageCount:  caps.MaxImageCount,
		CurrentExtent:  vk.Extent2D{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height},
		MinImageExtent: vk.Extent2D{Width: caps.MinImageExtent.Width, Height: caps.MinImageExtent.Height},
		MaxImageExtent: vk.Extent2D{Width: caps.MaxImageExtent.Width, Height: caps.MaxImageExtent.Height},
	}
	return vk.SUCCESS
}

func (d *Driver) GetSurfaceFormats(s vk.SurfaceKHR) ([]vk.SurfaceFormatKHR, vk.Result) {
	surface := lookup[gvk.Surface](d, uint64(s))
	var count uint32
	if r := gvk.GetPhysicalDeviceSurfaceFormats(d.physDev, surface, &count, nil); r != gvk.Success {
		return nil, result(r)
	}
	formats := make([]gvk.SurfaceFormat, count)
	if r := gvk.GetPhysicalDeviceSurfaceFormats(d.physDev, surface, &count, formats); r != gvk.Success {
		return nil, result(r)
	}
	out := make([]vk.SurfaceFormatKHR, count)
	for i := range formats[:count] {
		formats[i].Deref()
		out[i] = vk.SurfaceFormatKHR{
			Format:     vk.Format(formats[i].Format),
			ColorSpace: vk.ColorSpaceKHR(formats[i].ColorSpace),
		}
	}
	return out, vk.SUCCESS
}

func (d *Driver) GetSurfacePresentModes(s vk.SurfaceKHR) ([]vk.PresentModeKHR, vk.Result) {
	surface := lookup[gvk.Surface](d, uint64(s))
	var count uint32
	if r := gvk.GetPhysicalDeviceSurfacePresentModes(d.physDev, surface, &count, nil); r != gvk.Success {
		return nil, result(r)
	}
	modes := make([]gvk.PresentMode, count)
	if r := gvk.GetPhysicalDeviceSurfacePresentModes(d.physDev, surface, &count, modes); r != gvk.Success {
		return nil, result(r)
	}
	out := make([]vk.PresentModeKHR, count)
	for i, m := range modes[:count] {
		out[i] = vk.PresentModeKHR(m)
	}
	return out, vk.SUCCESS
}

func (d *Driver) CreateSwapchain(info *vk.SwapchainCreateInfoKHR, out *vk.SwapchainKHR) vk.Result {
	var sc gvk.Swapchain
	r := gvk.CreateSwapchain(d.device, &gvk.SwapchainCreateInfo{
		SType:           gvk.StructureTypeSwapchainCreateInfo,
		Surface:         lookup[gvk.Surface](d, uint64(info.Surface)),
		MinImageCount:   info.MinImageCount,
		ImageFormat:     gvk.Format(info.ImageFormat),
		ImageColorSpace: gvk.ColorSpace(info.ImageColorSpace),
		ImageExtent: gvk.Extent2D{
			Width:  info.ImageExtent.Width,
			Height: info.ImageExtent.Height,
		},
		ImageArrayLayers: 1,
		ImageUsage:       gvk.ImageUsageFlags(info.ImageUsage),
		ImageSharingMode: gvk.SharingModeExclusive,
		PreTransform:     gvk.SurfaceTransformIdentityBit,
		CompositeAlpha:   gvk.CompositeAlphaOpaqueBit,
		PresentMode:      gvk.PresentMode(info.PresentMode),
		Clipped:          gvk.True,
		OldSwapchain:     lookup[gvk.Swapchain](d, uint64(info.OldSwapchain)),
	}, nil, &sc)
	if r == gvk.Success {
		*out = vk.SwapchainKHR(d.newHandle(sc))
	}
	return result(r)
}

func (d *Driver) DestroySwapchain(sc vk.SwapchainKHR) {
	if sc == vk.NULL_HANDLE {
		return
	}
	d.mu.Lock()
	// Images belong to the swapchain, only their table entries are ours.
	for h, obj := range d.objs {
		if img, ok := obj.(swapchainImage); ok && img.owner == sc {
			delete(d.objs, h)
		}
	}
	d.mu.Unlock()
	gvk.DestroySwapchain(d.device, lookup[gvk.Swapchain](d, uint64(sc)), nil)
	d.release(uint64(sc))
}

type swapchainImage struct {
	owner vk.SwapchainKHR
	image gvk.Image
}

// image resolves both owned images and swapchain images.
func (d *Driver) image(h vk.Image) gvk.Image {
	d.mu.RLock()
	defer d.mu.RUnlock()
	switch img := d.objs[uint64(h)].(type) {
	case gvk.Image:
		return img
	case swapchainImage:
		return img.image
	}
	return gvk.NullImage
}

func (d *Driver) GetSwapchainImages(sc vk.SwapchainKHR) ([]vk.Image, vk.Result) {
	swapchain := lookup[gvk.Swapchain](d, uint64(sc))
	var count uint32
	if r := gvk.GetSwapchainImages(d.device, swapchain, &count, nil); r != gvk.Success {
		return nil, result(r)
	}
	images := make([]gvk.Image, count)
	if r := gvk.GetSwapchainImages(d.device, swapchain, &count, images); r != gvk.Success {
		return nil, result(r)
	}
	out := make([]vk.Image, count)
	for i, img := range images[:count] {
		out[i] = vk.Image(d.newHandle(swapchainImage{owner: sc, image: img}))
	}
	return out, vk.SUCCESS
}

func (d *Driver) AcquireNextImage(sc vk.SwapchainKHR, timeout uint64, s vk.Semaphore, f vk.Fence, index *uint32) vk.Result {
	return result(gvk.AcquireNextImage(d.device, lookup[gvk.Swapchain](d, uint64(sc)), timeout,
		lookup[gvk.Semaphore](d, uint64(s)), lookup[gvk.Fence](d, uint64(f)), index))
}

func (d *Driver) QueuePresent(info *vk.PresentInfoKHR) vk.Result {
	return result(gvk.QueuePresent(d.queue, &gvk.PresentInfo{
		SType:              gvk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(info.WaitSemaphores)),
		PWaitSemaphores:    lookupAll[gvk.Semaphore](d, info.WaitSemaphores),
		SwapchainCount:     uint32(len(info.Swapchains)),
		PSwapchains:        lookupAll[gvk.Swapchain](d, info.Swapchains),
		PImageIndices:      info.ImageIndices,
	}))
}
