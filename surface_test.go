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
	"testing"

	"github.com/stretchr/testify/assert"
	"goarrg.com/gmath"
	"goarrg.com/rhi/xrhi/internal/vk"
)

func TestMaxFrameCount(t *testing.T) {
	assert.Equal(t, uint32(3), maxFrameCount(2, 0))
	assert.Equal(t, uint32(3), maxFrameCount(2, 8))
	assert.Equal(t, uint32(2), maxFrameCount(2, 2))
	assert.Equal(t, uint32(4), maxFrameCount(3, 0))
	assert.Equal(t, uint32(1), maxFrameCount(0, 0))
}

func TestChooseSurfaceFormat(t *testing.T) {
	rgba := vk.SurfaceFormatKHR{Format: vk.FORMAT_R8G8B8A8_UNORM, ColorSpace: vk.COLOR_SPACE_SRGB_NONLINEAR_KHR}
	bgra := vk.SurfaceFormatKHR{Format: vk.FORMAT_B8G8R8A8_UNORM, ColorSpace: vk.COLOR_SPACE_SRGB_NONLINEAR_KHR}

	assert.Equal(t, bgra, chooseSurfaceFormat([]vk.SurfaceFormatKHR{rgba, bgra}))
	assert.Equal(t, rgba, chooseSurfaceFormat([]vk.SurfaceFormatKHR{rgba}))
	assert.Equal(t, bgra, chooseSurfaceFormat(nil))
	assert.Equal(t, bgra, chooseSurfaceFormat([]vk.SurfaceFormatKHR{{Format: vk.FORMAT_UNDEFINED, ColorSpace: vk.COLOR_SPACE_SRGB_NONLINEAR_KHR}}))
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, vk.PRESENT_MODE_FIFO_KHR, choosePresentMode(nil))
	assert.Equal(t, vk.PRESENT_MODE_FIFO_KHR, choosePresentMode([]vk.PresentModeKHR{vk.PRESENT_MODE_FIFO_KHR}))
	assert.Equal(t, vk.PRESENT_MODE_IMMEDIATE_KHR, choosePresentMode([]vk.PresentModeKHR{vk.PRESENT_MODE_FIFO_KHR, vk.PRESENT_MODE_IMMEDIATE_KHR}))
	assert.Equal(t, vk.PRESENT_MODE_MAILBOX_KHR, choosePresentMode([]vk.PresentModeKHR{vk.PRESENT_MODE_IMMEDIATE_KHR, vk.PRESENT_MODE_MAILBOX_KHR}))
	assert.Equal(t, vk.PRESENT_MODE_MAILBOX_KHR, choosePresentMode([]vk.PresentModeKHR{vk.PRESENT_MODE_MAILBOX_KHR, vk.PRESENT_MODE_IMMEDIATE_KHR}))
}

func TestChooseExtent(t *testing.T) {
	caps := vk.SurfaceCapabilitiesKHR{
		CurrentExtent:  vk.Extent2D{Width: vk.MAX_UINT32, Height: vk.MAX_UINT32},
		MinImageExtent: vk.Extent2D{Width: 16, Height: 16},
		MaxImageExtent: vk.Extent2D{Width: 1024, Height: 1024},
	}
	w := &testWindow{extent: gmath.Extent2i32{X: 800, Y: 600}}
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, chooseExtent(&caps, w))

	w.extent = gmath.Extent2i32{X: 4096, Y: 8}
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 16}, chooseExtent(&caps, w))

	w.extent = gmath.Extent2i32{X: -1, Y: 100}
	assert.Equal(t, vk.Extent2D{Width: 16, Height: 100}, chooseExtent(&caps, w))

	caps.CurrentExtent = vk.Extent2D{Width: 640, Height: 480}
	assert.Equal(t, vk.Extent2D{Width: 640, Height: 480}, chooseExtent(&caps, w))
}
