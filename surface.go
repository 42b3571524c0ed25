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
	"goarrg.com/gmath"
	"goarrg.com/rhi/xrhi/internal/vk"
)

/*
NativeWindow is the platform window a swapchain presents to. Handle is passed to the driver untouched, SurfaceExtent
is the drawable size in pixels and is zero while the window is minimized.
*/
type NativeWindow interface {
	Handle() uintptr
	SurfaceExtent() gmath.Extent2i32
}

// chooseSurfaceFormat prefers B8G8R8A8_UNORM + SRGB_NONLINEAR, then the first format the surface reports.
func chooseSurfaceFormat(formats []vk.SurfaceFormatKHR) vk.SurfaceFormatKHR {
	want := vk.SurfaceFormatKHR{Format: vk.FORMAT_B8G8R8A8_UNORM, ColorSpace: vk.COLOR_SPACE_SRGB_NONLINEAR_KHR}
	for _, f := range formats {
		if f == want {
			return f
		}
	}
	if len(formats) == 0 {
		return want
	}
	ret := formats[0]
	if ret.Format == vk.FORMAT_UNDEFINED {
		ret.Format = vk.FORMAT_B8G8R8A8_UNORM
	}
	return ret
}

// choosePresentMode defaults to FIFO, MAILBOX wins outright and IMMEDIATE is taken unless MAILBOX follows.
func choosePresentMode(modes []vk.PresentModeKHR) vk.PresentModeKHR {
	ret := vk.PRESENT_MODE_FIFO_KHR
	for _, m := range modes {
		if m == vk.PRESENT_MODE_MAILBOX_KHR {
			ret = m
			break
		}
		if m == vk.PRESENT_MODE_IMMEDIATE_KHR {
			ret = m
		}
	}
	return ret
}

// chooseExtent uses the surface extent unless the surface leaves it to the window.
func chooseExtent(caps *vk.SurfaceCapabilitiesKHR, window NativeWindow) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MAX_UINT32 {
		return caps.CurrentExtent
	}
	e := window.SurfaceExtent()
	return vk.Extent2D{
		Width:  min(max(uint32(max(e.X, 0)), caps.MinImageExtent.Width), caps.MaxImageExtent.Width),
		Height: min(max(uint32(max(e.Y, 0)), caps.MinImageExtent.Height), caps.MaxImageExtent.Height),
	}
}

// maxFrameCount is the number of frames in flight, one more than the minimum image count if the surface allows it.
func maxFrameCount(minImageCount, maxImageCount uint32) uint32 {
	if maxImageCount == 0 {
		return minImageCount + 1
	}
	return min(minImageCount+1, maxImageCount)
}

func windowExtent(window NativeWindow) gmath.Extent2i32 {
	e := window.SurfaceExtent()
	return gmath.Extent2i32{X: max(e.X, 0), Y: max(e.Y, 0)}
}
