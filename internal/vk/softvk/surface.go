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

package softvk

import (
	"goarrg.com/gmath"
	"goarrg.com/rhi/xrhi/internal/vk"
)

type extentReporter interface {
	SurfaceExtent() gmath.Extent2i32
}

type surface struct {
	window    any
	swapchain vk.SwapchainKHR
}

func (s *surface) windowExtent() (vk.Extent2D, bool) {
	if w, ok := s.window.(extentReporter); ok {
		e := w.SurfaceExtent()
		return vk.Extent2D{Width: uint32(max(e.X, 0)), Height: uint32(max(e.Y, 0))}, true
	}
	return vk.Extent2D{}, false
}

const maxImageExtent = 16384

type swapchain struct {
	info   vk.SwapchainCreateInfoKHR
	images []vk.Image
	next   uint32
}

// CreateSurface accepts any window, windows with a SurfaceExtent() gmath.Extent2i32 method get resize detection.
func (d *Driver) CreateSurface(window any, out *vk.SurfaceKHR) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	if window == nil {
		d.validationError("CreateSurface: nil window")
		return vk.ERROR_INITIALIZATION_FAILED
	}
	*out = vk.SurfaceKHR(d.newHandle(&surface{window: window}))
	return vk.SUCCESS
}

func (d *Driver) DestroySurface(h vk.SurfaceKHR) {
	d.lock()
	defer d.mu.Unlock()
	s, ok := lookup[surface](d, uint64(h))
	if !ok {
		d.validationError("DestroySurface: invalid handle 0x%X", uint64(h))
		return
	}
	if s.swapchain != vk.NULL_HANDLE {
		d.validationError("DestroySurface: surface 0x%X still has a swapchain", uint64(h))
	}
	d.release(uint64(h))
}

func (d *Driver) GetSurfaceCapabilities(h vk.SurfaceKHR, out *vk.SurfaceCapabilitiesKHR) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	s, ok := lookup[surface](d, uint64(h))
	if !ok {
		return vk.ERROR_SURFACE_LOST_KHR
	}
	*out = vk.SurfaceCapabilitiesKHR{
		MinImageCount:  d.cfg.Surface.MinImageCount,
		MaxImageCount:  d.cfg.Surface.MaxImageCount,
		CurrentExtent:  vk.Extent2D{Width: vk.MAX_UINT32, Height: vk.MAX_UINT32},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: maxImageExtent, Height: maxImageExtent},
	}
	if e, ok := s.windowExtent(); ok && d.cfg.Surface.ReportExtent {
		out.CurrentExtent = e
	}
	return vk.SUCCESS
}

func (d *Driver) GetSurfaceFormats(h vk.SurfaceKHR) ([]vk.SurfaceFormatKHR, vk.Result) {
	d.lock()
	defer d.mu.Unlock()
	if _, ok := lookup[surface](d, uint64(h)); !ok {
		return nil, vk.ERROR_SURFACE_LOST_KHR
	}
	return append([]vk.SurfaceFormatKHR(nil), d.cfg.Surface.Formats...), vk.SUCCESS
}

func (d *Driver) GetSurfacePresentModes(h vk.SurfaceKHR) ([]vk.PresentModeKHR, vk.Result) {
	d.lock()
	defer d.mu.Unlock()
	if _, ok := lookup[surface](d, uint64(h)); !ok {
		return nil, vk.ERROR_SURFACE_LOST_KHR
	}
	return append([]vk.PresentModeKHR(nil), d.cfg.Surface.PresentModes...), vk.SUCCESS
}

func (d *Driver) CreateSwapchain(info *vk.SwapchainCreateInfoKHR, out *vk.SwapchainKHR) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	s, ok := lookup[surface](d, uint64(info.Surface))
	if !ok {
		return vk.ERROR_SURFACE_LOST_KHR
	}
	if s.swapchain != vk.NULL_HANDLE && s.swapchain != info.OldSwapchain {
		return vk.ERROR_NATIVE_WINDOW_IN_USE_KHR
	}
	if info.MinImageCount < d.cfg.Surface.MinImageCount ||
		(d.cfg.Surface.MaxImageCount > 0 && info.MinImageCount > d.cfg.Surface.MaxImageCount) {
		d.validationError("CreateSwapchain: minImageCount %d outside [%d, %d]", info.MinImageCount, d.cfg.Surface.MinImageCount, d.cfg.Surface.MaxImageCount)
		return vk.ERROR_INITIALIZATION_FAILED
	}
	if info.ImageExtent.Width == 0 || info.ImageExtent.Height == 0 {
		d.validationError("CreateSwapchain: zero extent")
		return vk.ERROR_INITIALIZATION_FAILED
	}
	count := info.MinImageCount + d.cfg.Surface.ExtraImages
	if d.cfg.Surface.MaxImageCount > 0 {
		count = min(count, d.cfg.Surface.MaxImageCount)
	}
	sc := &swapchain{info: *info}
	for range count {
		img := &image{
			info: vk.ImageCreateInfo{
				Format:      info.ImageFormat,
				Extent:      vk.Extent3D{Width: info.ImageExtent.Width, Height: info.ImageExtent.Height, Depth: 1},
				MipLevels:   1,
				ArrayLayers: 1,
				Usage:       info.ImageUsage,
			},
			swapchain: true,
		}
		img.storage = make([]byte, img.size())
		sc.images = append(sc.images, vk.Image(d.newHandle(img)))
	}
	h := vk.SwapchainKHR(d.newHandle(sc))
	s.swapchain = h
	*out = h
	return vk.SUCCESS
}

func (d *Driver) DestroySwapchain(h vk.SwapchainKHR) {
	d.lock()
	defer d.mu.Unlock()
	sc, ok := lookup[swapchain](d, uint64(h))
	if !ok {
		d.validationError("DestroySwapchain: invalid handle 0x%X", uint64(h))
		return
	}
	for _, img := range sc.images {
		for _, o := range d.objs {
			if v, ok := o.(*imageView); ok && v.image == img {
				d.validationError("DestroySwapchain: image 0x%X still has views", uint64(img))
				break
			}
		}
		d.release(uint64(img))
	}
	if s, ok := lookup[surface](d, uint64(sc.info.Surface)); ok && s.swapchain == h {
		s.swapchain = vk.NULL_HANDLE
	}
	d.release(uint64(h))
}

func (d *Driver) GetSwapchainImages(h vk.SwapchainKHR) ([]vk.Image, vk.Result) {
	d.lock()
	defer d.mu.Unlock()
	sc, ok := lookup[swapchain](d, uint64(h))
	if !ok {
		d.validationError("GetSwapchainImages: invalid handle 0x%X", uint64(h))
		return nil, vk.ERROR_UNKNOWN
	}
	return append([]vk.Image(nil), sc.images...), vk.SUCCESS
}

func (d *Driver) stale(sc *swapchain) bool {
	s, ok := lookup[surface](d, uint64(sc.info.Surface))
	if !ok {
		return true
	}
	e, ok := s.windowExtent()
	e.Width, e.Height = min(e.Width, maxImageExtent), min(e.Height, maxImageExtent)
	return ok && e != sc.info.ImageExtent
}

func (d *Driver) AcquireNextImage(h vk.SwapchainKHR, timeout uint64, sem vk.Semaphore, fh vk.Fence, index *uint32) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	sc, ok := lookup[swapchain](d, uint64(h))
	if !ok {
		d.validationError("AcquireNextImage: invalid handle 0x%X", uint64(h))
		return vk.ERROR_SURFACE_LOST_KHR
	}
	if d.outOfDate > 0 {
		d.outOfDate--
		return vk.ERROR_OUT_OF_DATE_KHR
	}
	if d.stale(sc) {
		return vk.ERROR_OUT_OF_DATE_KHR
	}
	*index = sc.next
	sc.next = (sc.next + 1) % uint32(len(sc.images))
	if sem != vk.NULL_HANDLE {
		d.signalSemaphore("AcquireNextImage", sem)
	}
	if fh != vk.NULL_HANDLE {
		if f, ok := lookup[fence](d, uint64(fh)); ok {
			f.signaled = true
		}
	}
	d.stats.Acquires++
	return vk.SUCCESS
}

func (d *Driver) QueuePresent(info *vk.PresentInfoKHR) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	for _, h := range info.WaitSemaphores {
		d.waitSemaphore("QueuePresent", h)
	}
	ret := vk.SUCCESS
	for i, h := range info.Swapchains {
		sc, ok := lookup[swapchain](d, uint64(h))
		if !ok {
			d.validationError("QueuePresent: invalid swapchain 0x%X", uint64(h))
			return vk.ERROR_SURFACE_LOST_KHR
		}
		if int(info.ImageIndices[i]) >= len(sc.images) {
			d.validationError("QueuePresent: image index %d out of range", info.ImageIndices[i])
			return vk.ERROR_UNKNOWN
		}
		if d.stale(sc) {
			ret = vk.ERROR_OUT_OF_DATE_KHR
		}
	}
	d.stats.Presents++
	return ret
}
