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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goarrg.com/gmath"
	"goarrg.com/rhi/xrhi/internal/vk"
)

func newDriver(t *testing.T) *Driver {
	t.Helper()
	d := New(DefaultConfig())
	t.Cleanup(d.Destroy)
	return d
}

func newMappedBuffer(t *testing.T, d *Driver, size uint64) (vk.Buffer, vk.DeviceMemory, []byte) {
	t.Helper()
	var b vk.Buffer
	require.Equal(t, vk.SUCCESS, d.CreateBuffer(&vk.BufferCreateInfo{
		Size: size, Usage: vk.BUFFER_USAGE_TRANSFER_SRC_BIT | vk.BUFFER_USAGE_TRANSFER_DST_BIT,
	}, &b))
	req := d.GetBufferMemoryRequirements(b)
	var m vk.DeviceMemory
	require.Equal(t, vk.SUCCESS, d.AllocateMemory(&vk.MemoryAllocateInfo{AllocationSize: req.Size, MemoryTypeIndex: 1}, &m))
	require.Equal(t, vk.SUCCESS, d.BindBufferMemory(b, m, 0))
	var data []byte
	require.Equal(t, vk.SUCCESS, d.MapMemory(m, 0, vk.WHOLE_SIZE, &data))
	return b, m, data
}

func freeMappedBuffer(d *Driver, b vk.Buffer, m vk.DeviceMemory) {
	d.DestroyBuffer(b)
	d.UnmapMemory(m)
	d.FreeMemory(m)
}

func TestCopyExecutesOnSubmit(t *testing.T) {
	d := newDriver(t)

	src, srcMem, srcData := newMappedBuffer(t, d, 32)
	dst, dstMem, dstData := newMappedBuffer(t, d, 32)
	defer freeMappedBuffer(d, src, srcMem)
	defer freeMappedBuffer(d, dst, dstMem)
	copy(srcData, "0123456789")

	var pool vk.CommandPool
	require.Equal(t, vk.SUCCESS, d.CreateCommandPool(&vk.CommandPoolCreateInfo{ResetCommandBuffer: true}, &pool))
	defer d.DestroyCommandPool(pool)
	var cb vk.CommandBuffer
	require.Equal(t, vk.SUCCESS, d.AllocateCommandBuffer(pool, &cb))

	require.Equal(t, vk.SUCCESS, d.BeginCommandBuffer(cb, true))
	d.CmdCopyBuffer(cb, src, dst, []vk.BufferCopy{{SrcOffset: 2, DstOffset: 4, Size: 4}})
	require.Equal(t, vk.SUCCESS, d.EndCommandBuffer(cb))
	assert.Equal(t, make([]byte, 8), dstData[:8], "recording does not execute")

	var f vk.Fence
	require.Equal(t, vk.SUCCESS, d.CreateFence(false, &f))
	defer d.DestroyFence(f)
	require.Equal(t, vk.SUCCESS, d.QueueSubmit([]vk.SubmitInfo{{CommandBuffers: []vk.CommandBuffer{cb}}}, f))
	require.Equal(t, vk.SUCCESS, d.WaitForFences([]vk.Fence{f}, vk.MAX_UINT64))
	assert.True(t, d.FenceSignaled(f))
	assert.Equal(t, vk.SUCCESS, d.GetFenceStatus(f))
	assert.Equal(t, []byte("\x00\x00\x00\x002345"), dstData[:8])

	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.Submits)
	assert.Zero(t, stats.ValidationErrors)
}

func TestValidationErrors(t *testing.T) {
	d := newDriver(t)

	var b vk.Buffer
	assert.Equal(t, vk.ERROR_INITIALIZATION_FAILED, d.CreateBuffer(&vk.BufferCreateInfo{}, &b))

	var m vk.DeviceMemory
	require.Equal(t, vk.SUCCESS, d.AllocateMemory(&vk.MemoryAllocateInfo{AllocationSize: 64, MemoryTypeIndex: 0}, &m))
	var data []byte
	assert.Equal(t, vk.ERROR_MEMORY_MAP_FAILED, d.MapMemory(m, 0, vk.WHOLE_SIZE, &data), "device local memory")
	d.FlushMappedMemoryRange(m, 0, 64)
	d.FreeMemory(m)
	d.FreeMemory(m)

	var f vk.Fence
	require.Equal(t, vk.SUCCESS, d.CreateFence(false, &f))
	assert.Equal(t, vk.TIMEOUT, d.WaitForFences([]vk.Fence{f}, vk.MAX_UINT64), "nothing will signal the fence")
	d.DestroyFence(f)

	var module vk.ShaderModule
	assert.Equal(t, vk.ERROR_INITIALIZATION_FAILED, d.CreateShaderModule(&vk.ShaderModuleCreateInfo{Code: []byte{1, 2, 3}}, &module))

	msgs := d.ValidationMessages()
	require.Len(t, msgs, 6)
	assert.Contains(t, msgs[0], "CreateBuffer")
	assert.Contains(t, msgs[1], "not host visible")
	assert.Contains(t, msgs[2], "not mapped")
	assert.Contains(t, msgs[3], "FreeMemory")
	assert.Contains(t, msgs[4], "no pending signal")
	assert.Contains(t, msgs[5], "CreateShaderModule")
	assert.Equal(t, uint64(6), d.Stats().ValidationErrors)
	assert.Zero(t, d.Stats().LiveObjects)
}

func TestDescriptorPoolExhaustion(t *testing.T) {
	d := newDriver(t)

	var layout vk.DescriptorSetLayout
	require.Equal(t, vk.SUCCESS, d.CreateDescriptorSetLayout(&vk.DescriptorSetLayoutCreateInfo{
		Bindings: []vk.DescriptorSetLayoutBinding{{Binding: 0, DescriptorType: vk.DESCRIPTOR_TYPE_UNIFORM_BUFFER, DescriptorCount: 2}},
	}, &layout))
	defer d.DestroyDescriptorSetLayout(layout)

	var pool vk.DescriptorPool
	require.Equal(t, vk.SUCCESS, d.CreateDescriptorPool(&vk.DescriptorPoolCreateInfo{
		FreeDescriptorSet: true,
		MaxSets:           4,
		PoolSizes:         []vk.DescriptorPoolSize{{Type: vk.DESCRIPTOR_TYPE_UNIFORM_BUFFER, DescriptorCount: 5}},
	}, &pool))
	defer d.DestroyDescriptorPool(pool)

	var a, b, c vk.DescriptorSet
	require.Equal(t, vk.SUCCESS, d.AllocateDescriptorSet(pool, layout, &a))
	require.Equal(t, vk.SUCCESS, d.AllocateDescriptorSet(pool, layout, &b))
	assert.Equal(t, vk.ERROR_OUT_OF_POOL_MEMORY, d.AllocateDescriptorSet(pool, layout, &c), "one descriptor left")

	require.Equal(t, vk.SUCCESS, d.FreeDescriptorSet(pool, a))
	require.Equal(t, vk.SUCCESS, d.AllocateDescriptorSet(pool, layout, &c))

	require.Equal(t, vk.SUCCESS, d.ResetDescriptorPool(pool))
	assert.Equal(t, uint64(0), d.DescriptorAt(b, 0, 0))
	for range 2 {
		require.Equal(t, vk.SUCCESS, d.AllocateDescriptorSet(pool, layout, &a))
	}
	assert.Zero(t, d.Stats().ValidationErrors)
}

type resizableWindow struct {
	extent gmath.Extent2i32
}

func (w *resizableWindow) SurfaceExtent() gmath.Extent2i32 {
	return w.extent
}

func TestSwapchainOutOfDate(t *testing.T) {
	d := newDriver(t)

	w := &resizableWindow{extent: gmath.Extent2i32{X: 4, Y: 4}}
	var surface vk.SurfaceKHR
	require.Equal(t, vk.SUCCESS, d.CreateSurface(w, &surface))
	defer d.DestroySurface(surface)

	var sc vk.SwapchainKHR
	require.Equal(t, vk.SUCCESS, d.CreateSwapchain(&vk.SwapchainCreateInfoKHR{
		Surface:       surface,
		MinImageCount: 2,
		ImageFormat:   vk.FORMAT_B8G8R8A8_UNORM,
		ImageExtent:   vk.Extent2D{Width: 4, Height: 4},
	}, &sc))
	images, r := d.GetSwapchainImages(sc)
	require.Equal(t, vk.SUCCESS, r)
	require.Len(t, images, 2)
	assert.Len(t, d.ImageData(images[0]), 4*4*4)

	var index uint32
	for i := range 3 {
		require.Equal(t, vk.SUCCESS, d.AcquireNextImage(sc, vk.MAX_UINT64, vk.NULL_HANDLE, vk.NULL_HANDLE, &index))
		assert.Equal(t, uint32(i%2), index)
	}

	d.InjectOutOfDate(2)
	assert.Equal(t, vk.ERROR_OUT_OF_DATE_KHR, d.AcquireNextImage(sc, vk.MAX_UINT64, vk.NULL_HANDLE, vk.NULL_HANDLE, &index))
	assert.Equal(t, vk.ERROR_OUT_OF_DATE_KHR, d.AcquireNextImage(sc, vk.MAX_UINT64, vk.NULL_HANDLE, vk.NULL_HANDLE, &index))
	assert.Equal(t, vk.SUCCESS, d.AcquireNextImage(sc, vk.MAX_UINT64, vk.NULL_HANDLE, vk.NULL_HANDLE, &index))

	w.extent = gmath.Extent2i32{X: 8, Y: 4}
	assert.Equal(t, vk.ERROR_OUT_OF_DATE_KHR, d.AcquireNextImage(sc, vk.MAX_UINT64, vk.NULL_HANDLE, vk.NULL_HANDLE, &index))
	assert.Equal(t, vk.ERROR_OUT_OF_DATE_KHR, d.QueuePresent(&vk.PresentInfoKHR{
		Swapchains: []vk.SwapchainKHR{sc}, ImageIndices: []uint32{0},
	}))

	var second vk.SwapchainKHR
	assert.Equal(t, vk.ERROR_NATIVE_WINDOW_IN_USE_KHR, d.CreateSwapchain(&vk.SwapchainCreateInfoKHR{
		Surface: surface, MinImageCount: 2, ImageExtent: vk.Extent2D{Width: 8, Height: 4},
	}, &second))
	d.DestroySwapchain(sc)
	assert.Zero(t, d.Stats().ValidationErrors)
}

func TestSurfaceCapabilities(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Surface.ReportExtent = true
	d := New(cfg)
	defer d.Destroy()

	var surface vk.SurfaceKHR
	require.Equal(t, vk.SUCCESS, d.CreateSurface(&resizableWindow{extent: gmath.Extent2i32{X: 640, Y: 480}}, &surface))
	defer d.DestroySurface(surface)

	caps := vk.SurfaceCapabilitiesKHR{}
	require.Equal(t, vk.SUCCESS, d.GetSurfaceCapabilities(surface, &caps))
	assert.Equal(t, vk.Extent2D{Width: 640, Height: 480}, caps.CurrentExtent)
	assert.Equal(t, uint32(2), caps.MinImageCount)
	assert.Equal(t, uint32(8), caps.MaxImageCount)

	formats, r := d.GetSurfaceFormats(surface)
	require.Equal(t, vk.SUCCESS, r)
	assert.Len(t, formats, 2)
	modes, r := d.GetSurfacePresentModes(surface)
	require.Equal(t, vk.SUCCESS, r)
	assert.Contains(t, modes, vk.PRESENT_MODE_FIFO_KHR)
}

func TestInjectSubmitFailure(t *testing.T) {
	d := newDriver(t)

	var sem vk.Semaphore
	var f vk.Fence
	require.Equal(t, vk.SUCCESS, d.CreateSemaphore(&sem))
	require.Equal(t, vk.SUCCESS, d.CreateFence(false, &f))
	defer d.DestroySemaphore(sem)
	defer d.DestroyFence(f)

	info := []vk.SubmitInfo{{SignalSemaphores: []vk.Semaphore{sem}}}
	d.InjectSubmitFailure(1)
	assert.Equal(t, vk.ERROR_DEVICE_LOST, d.QueueSubmit(info, f))
	assert.Equal(t, uint64(0), d.Stats().Submits)
	assert.Equal(t, vk.NOT_READY, d.GetFenceStatus(f))

	// The failed submit left the semaphore and fence untouched.
	require.Equal(t, vk.SUCCESS, d.QueueSubmit(info, f))
	assert.Equal(t, vk.SUCCESS, d.WaitForFences([]vk.Fence{f}, vk.MAX_UINT64))
	require.Equal(t, vk.SUCCESS, d.QueueSubmit([]vk.SubmitInfo{{
		WaitSemaphores:   []vk.Semaphore{sem},
		WaitDstStageMask: []vk.PipelineStageFlags{vk.PIPELINE_STAGE_TOP_OF_PIPE_BIT},
	}}, vk.NULL_HANDLE))
	d.QueueWaitIdle()
	assert.Empty(t, d.ValidationMessages())
}
