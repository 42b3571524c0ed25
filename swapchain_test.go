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
	"github.com/stretchr/testify/require"
	"goarrg.com/gmath"
	"goarrg.com/rhi/xrhi/internal/vk"
	"goarrg.com/rhi/xrhi/internal/vk/softvk"
)

func newTestSwapchain(t *testing.T, c *Context, w *testWindow, info SwapchainInfo) *Swapchain {
	t.Helper()
	if info.Name == "" {
		info.Name = "swapchain"
	}
	sc := c.CreateSwapchain(w, info)
	require.NotNil(t, sc)
	return sc
}

// renderFrame records a single clearing render pass into the frame's command buffer, submits and presents it.
func renderFrame(t *testing.T, c *Context, sc *Swapchain, clear ClearValues) int {
	t.Helper()
	index := c.AcquireNextImage(sc)
	if index == NeedsRecreate {
		return index
	}
	cb := sc.CommandBuffer()
	require.Equal(t, CommandBufferIdle, cb.State())
	cb.Begin()
	cb.BeginRenderPass(sc.RenderPass(), sc.CurrentFramebuffer(), clear)
	cb.EndRenderPass()
	cb.End()
	require.True(t, c.Submit(sc, cb))
	c.Present(sc)
	return index
}

func TestSwapchainCreate(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	w := &testWindow{extent: gmath.Extent2i32{X: 800, Y: 600}}
	sc := newTestSwapchain(t, c, w, SwapchainInfo{ColorLoad: LoadActionClear})
	defer c.DestroySwapchain(sc)

	assert.Equal(t, SwapchainActive, sc.State())
	assert.Equal(t, 3, sc.MaxFrameCount())
	assert.Equal(t, 3, sc.ImageCount())
	assert.Equal(t, FormatBGRA8Unorm, sc.Format())
	assert.Equal(t, gmath.Extent2i32{X: 800, Y: 600}, sc.Extent())
	assert.Equal(t, 1, sc.RenderPass().ColorCount())
	for i := range sc.ImageCount() {
		assert.Equal(t, sc.Extent(), sc.Framebuffer(i).Extent())
		assert.Same(t, sc.Texture(i), sc.Framebuffer(i).Info().Colors[0])
	}
	assert.PanicsWithValue(t, "Fatal Error", func() { sc.Texture(3) })
	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateTexture(TextureInfo{Name: "extra", Swapchain: sc}, nil)
	})
}

func TestSwapchainFrameIndexIndependentOfImageIndex(t *testing.T) {
	drvCfg := softvk.DefaultConfig()
	drvCfg.Surface.ExtraImages = 1
	c, drv := newTestContextWith(t, DefaultConfig(), drvCfg)
	defer destroyTestContext(t, c, drv)

	w := &testWindow{extent: gmath.Extent2i32{X: 64, Y: 64}}
	sc := newTestSwapchain(t, c, w, SwapchainInfo{ColorLoad: LoadActionClear})
	defer c.DestroySwapchain(sc)
	require.Equal(t, 3, sc.MaxFrameCount())
	require.Equal(t, 4, sc.ImageCount())

	for i := range 9 {
		index := renderFrame(t, c, sc, ClearValues{})
		assert.Equal(t, i%4, index, "image index of frame %d", i)
		assert.Equal(t, i%3, sc.FrameIndex(), "frame index of frame %d", i)
		assert.Equal(t, index, sc.ImageIndex())
	}
	assert.Equal(t, uint64(9), drv.Stats().Presents)

	c.WaitForIdle()
	for i, f := range sc.frames {
		assert.True(t, drv.FenceSignaled(f.inFlight.vkFence), "fence of frame %d", i)
		assert.True(t, c.fenceSignaled(&f.inFlight))
	}
}

func TestSwapchainClear(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	w := &testWindow{extent: gmath.Extent2i32{X: 4, Y: 2}}
	sc := newTestSwapchain(t, c, w, SwapchainInfo{ColorLoad: LoadActionClear, DepthFormat: FormatD32Float})
	defer c.DestroySwapchain(sc)

	index := renderFrame(t, c, sc, ClearValues{Colors: [][4]float32{{1, 0.5, 0, 1}}, Depth: 1, Stencil: 7})
	require.NotEqual(t, NeedsRecreate, index)
	c.WaitForIdle()

	begin := drv.Stats().LastRenderPassBegin
	require.Len(t, begin.ClearValues, 2, "colors first then depth")
	assert.Equal(t, [4]float32{1, 0.5, 0, 1}, begin.ClearValues[0].Color)
	assert.Equal(t, float32(1), begin.ClearValues[1].Depth)
	assert.Equal(t, uint32(7), begin.ClearValues[1].Stencil)
	assert.Equal(t, vk.Extent2D{Width: 4, Height: 2}, begin.RenderArea.Extent)

	img := sc.Texture(index)
	data := drv.ImageData(img.vkImage)
	require.Len(t, data, 4*2*4)
	for px := 0; px < len(data); px += 4 {
		assert.Equal(t, []byte{0, 128, 255, 255}, data[px:px+4], "BGRA pixel at byte %d", px)
	}
	assert.Equal(t, TextureLayoutPresent, img.Layout())
	assert.Equal(t, vk.IMAGE_LAYOUT_PRESENT_SRC_KHR, drv.ImageLayout(img.vkImage))
}

func TestSwapchainRestore(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	w := &testWindow{extent: gmath.Extent2i32{X: 800, Y: 600}}
	sc := newTestSwapchain(t, c, w, SwapchainInfo{ColorLoad: LoadActionClear})
	defer c.DestroySwapchain(sc)
	require.NotEqual(t, NeedsRecreate, renderFrame(t, c, sc, ClearValues{}))

	rp := sc.RenderPass()
	fb := sc.Framebuffer(0)
	calls := drv.Calls()
	live := drv.Stats().LiveObjects
	assert.False(t, sc.Restore())
	assert.Equal(t, SwapchainActive, sc.State())
	assert.Equal(t, calls, drv.Calls(), "unchanged extent must not touch the device")
	assert.Equal(t, live, drv.Stats().LiveObjects)
	assert.Same(t, rp, sc.RenderPass())
	assert.Same(t, fb, sc.Framebuffer(0))

	w.extent = gmath.Extent2i32{X: 400, Y: 300}
	assert.Equal(t, NeedsRecreate, c.AcquireNextImage(sc))
	assert.Equal(t, SwapchainSuspended, sc.State())
	assert.Equal(t, NeedsRecreate, c.AcquireNextImage(sc))

	assert.True(t, sc.Restore())
	assert.Equal(t, SwapchainActive, sc.State())
	assert.NotSame(t, rp, sc.RenderPass())
	assert.PanicsWithValue(t, "Fatal Error", func() { rp.ColorCount() }, "old render pass is destroyed")
	assert.PanicsWithValue(t, "Fatal Error", func() { fb.Extent() }, "old framebuffers are destroyed")
	assert.Equal(t, gmath.Extent2i32{X: 400, Y: 300}, sc.Extent())
	for i := range sc.ImageCount() {
		assert.Equal(t, gmath.Extent2i32{X: 400, Y: 300}, sc.Framebuffer(i).Extent())
	}
	assert.Equal(t, live, drv.Stats().LiveObjects)
	assert.NotEqual(t, NeedsRecreate, renderFrame(t, c, sc, ClearValues{}))
}

func TestSwapchainRestoreClampedExtent(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	// Wider than the surface allows, the swapchain is built clamped.
	w := &testWindow{extent: gmath.Extent2i32{X: 20000, Y: 100}}
	sc := newTestSwapchain(t, c, w, SwapchainInfo{ColorLoad: LoadActionClear})
	defer c.DestroySwapchain(sc)
	require.Equal(t, gmath.Extent2i32{X: 16384, Y: 100}, sc.Extent())
	require.NotEqual(t, NeedsRecreate, renderFrame(t, c, sc, ClearValues{}))

	rp := sc.RenderPass()
	calls := drv.Calls()
	for range 3 {
		assert.False(t, sc.Restore())
	}
	assert.Equal(t, SwapchainActive, sc.State())
	assert.Equal(t, calls, drv.Calls(), "unchanged window must not touch the device")
	assert.Same(t, rp, sc.RenderPass())

	w.extent = gmath.Extent2i32{X: 20000, Y: 200}
	assert.True(t, sc.Restore())
	assert.Equal(t, gmath.Extent2i32{X: 16384, Y: 200}, sc.Extent())
	assert.False(t, sc.Restore())
}

func TestSwapchainSuspendWithAcquiredImage(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	w := &testWindow{extent: gmath.Extent2i32{X: 64, Y: 64}}
	sc := newTestSwapchain(t, c, w, SwapchainInfo{ColorLoad: LoadActionClear})
	defer c.DestroySwapchain(sc)

	require.NotEqual(t, NeedsRecreate, c.AcquireNextImage(sc))
	sc.Suspend()
	assert.Equal(t, SwapchainSuspended, sc.State())
	assert.Equal(t, NeedsRecreate, c.AcquireNextImage(sc))

	// The dropped image forces a rebuild even though the window kept its size.
	assert.True(t, sc.Restore())
	assert.Equal(t, SwapchainActive, sc.State())
	for range 2 * sc.MaxFrameCount() {
		require.NotEqual(t, NeedsRecreate, renderFrame(t, c, sc, ClearValues{}))
	}
	assert.False(t, sc.Restore())

	// Submitted but never presented.
	require.NotEqual(t, NeedsRecreate, c.AcquireNextImage(sc))
	cb := sc.CommandBuffer()
	cb.Begin()
	cb.End()
	require.True(t, c.Submit(sc, cb))
	sc.Suspend()
	assert.PanicsWithValue(t, "Fatal Error", func() { c.Present(sc) })
	assert.True(t, sc.Restore())
	require.NotEqual(t, NeedsRecreate, renderFrame(t, c, sc, ClearValues{}))
	assert.Empty(t, drv.ValidationMessages())
}

func TestSwapchainSubmitFailure(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	w := &testWindow{extent: gmath.Extent2i32{X: 64, Y: 64}}
	sc := newTestSwapchain(t, c, w, SwapchainInfo{ColorLoad: LoadActionClear})
	defer c.DestroySwapchain(sc)

	require.NotEqual(t, NeedsRecreate, c.AcquireNextImage(sc))
	cb := sc.CommandBuffer()
	cb.Begin()
	cb.End()
	drv.InjectSubmitFailure(1)
	assert.False(t, c.Submit(sc, cb))
	assert.Equal(t, SwapchainSuspended, sc.State())
	assert.PanicsWithValue(t, "Fatal Error", func() { c.Present(sc) })

	// The slot's fence was signaled by the empty submit, cycling through every slot must not block.
	assert.True(t, sc.Restore())
	for range 2 * sc.MaxFrameCount() {
		require.NotEqual(t, NeedsRecreate, renderFrame(t, c, sc, ClearValues{}))
	}
	assert.Empty(t, drv.ValidationMessages())
}

func TestSwapchainRenderFinishedPerImage(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	w := &testWindow{extent: gmath.Extent2i32{X: 64, Y: 64}}
	sc := newTestSwapchain(t, c, w, SwapchainInfo{ColorLoad: LoadActionClear})
	defer c.DestroySwapchain(sc)

	require.Len(t, sc.renderFinished, sc.ImageCount())
	for range 3 * sc.ImageCount() {
		index := renderFrame(t, c, sc, ClearValues{})
		require.NotEqual(t, NeedsRecreate, index)
		assert.Equal(t, uint32(index), sc.curImageIndex)
	}
	assert.Empty(t, drv.ValidationMessages())
}

func TestSwapchainMinimized(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	w := &testWindow{}
	sc := newTestSwapchain(t, c, w, SwapchainInfo{ColorLoad: LoadActionClear})
	defer c.DestroySwapchain(sc)

	assert.Equal(t, SwapchainSuspended, sc.State())
	assert.Equal(t, NeedsRecreate, c.AcquireNextImage(sc))
	assert.PanicsWithValue(t, "Fatal Error", func() { sc.CommandBuffer() })
	assert.False(t, sc.Restore())
	assert.False(t, sc.Recreate())
	assert.Equal(t, SwapchainSuspended, sc.State())

	ran := false
	sc.DeferDestroy(DestroyerFunc(func() { ran = true }))
	assert.True(t, ran, "nothing is in flight without frames")

	w.extent = gmath.Extent2i32{X: 32, Y: 32}
	assert.True(t, sc.Restore())
	assert.Equal(t, SwapchainActive, sc.State())
	assert.NotEqual(t, NeedsRecreate, renderFrame(t, c, sc, ClearValues{}))

	sc.Suspend()
	assert.Equal(t, SwapchainSuspended, sc.State())
	assert.Equal(t, NeedsRecreate, c.AcquireNextImage(sc))
	assert.False(t, sc.Restore())
	assert.Equal(t, SwapchainActive, sc.State())
}

func TestSwapchainOutOfDate(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	w := &testWindow{extent: gmath.Extent2i32{X: 16, Y: 16}}
	sc := newTestSwapchain(t, c, w, SwapchainInfo{ColorLoad: LoadActionClear})
	defer c.DestroySwapchain(sc)

	drv.InjectOutOfDate(1)
	assert.Equal(t, NeedsRecreate, renderFrame(t, c, sc, ClearValues{}))
	assert.Equal(t, SwapchainSuspended, sc.State())

	// The window did not change so only Recreate rebuilds.
	assert.True(t, sc.Recreate())
	assert.Equal(t, SwapchainActive, sc.State())
	assert.Equal(t, 0, renderFrame(t, c, sc, ClearValues{}))
}

func TestSwapchainDeferDestroy(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	w := &testWindow{extent: gmath.Extent2i32{X: 16, Y: 16}}
	sc := newTestSwapchain(t, c, w, SwapchainInfo{ColorLoad: LoadActionClear})
	defer c.DestroySwapchain(sc)

	buf := c.CreateBuffer(BufferInfo{Name: "per_frame", Size: 64, Usage: BufferUsageUniform, Memory: MemoryMapped}, nil)
	require.NotNil(t, buf)

	require.NotEqual(t, NeedsRecreate, renderFrame(t, c, sc, ClearValues{}))
	destroyed := 0
	sc.DeferDestroy(DestroyerFunc(func() {
		c.DestroyBuffer(buf)
		destroyed++
	}))

	for range sc.MaxFrameCount() - 1 {
		require.NotEqual(t, NeedsRecreate, renderFrame(t, c, sc, ClearValues{}))
		assert.Zero(t, destroyed, "frame slot still in flight")
	}
	require.NotEqual(t, NeedsRecreate, renderFrame(t, c, sc, ClearValues{}))
	assert.Equal(t, 1, destroyed)

	pending := 0
	sc.DeferDestroy(DestroyerFunc(func() { pending++ }))
	c.DestroySwapchain(sc)
	assert.Equal(t, 1, pending, "teardown runs pending destroyers")
	assert.Equal(t, SwapchainDestroyed, sc.state)
}

func TestSwapchainContract(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	assert.PanicsWithValue(t, "Fatal Error", func() { c.CreateSwapchain(nil, SwapchainInfo{Name: "nil"}) })
	w := &testWindow{extent: gmath.Extent2i32{X: 16, Y: 16}}
	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateSwapchain(w, SwapchainInfo{Name: "depth", DepthFormat: FormatRGBA8Unorm})
	})

	sc := newTestSwapchain(t, c, w, SwapchainInfo{ColorLoad: LoadActionClear})
	defer c.DestroySwapchain(sc)

	assert.PanicsWithValue(t, "Fatal Error", func() { c.Present(sc) }, "present without an acquired image")
	assert.PanicsWithValue(t, "Fatal Error", func() { c.Submit(sc) }, "submit without an acquired image")

	require.Equal(t, 0, c.AcquireNextImage(sc))
	cb := sc.CommandBuffer()
	assert.PanicsWithValue(t, "Fatal Error", func() { c.AcquireNextImage(sc) }, "acquire twice")
	assert.PanicsWithValue(t, "Fatal Error", func() { c.Present(sc) }, "present before submit")

	cb.Begin()
	assert.PanicsWithValue(t, "Fatal Error", func() { c.Submit(sc, cb) }, "submit while recording")
	cb.BeginRenderPass(sc.RenderPass(), sc.CurrentFramebuffer(), ClearValues{})
	cb.EndRenderPass()
	cb.End()
	require.True(t, c.Submit(sc, cb))
	assert.PanicsWithValue(t, "Fatal Error", func() { c.Submit(sc) }, "submit twice")
	assert.PanicsWithValue(t, "Fatal Error", func() { c.Submit(nil, cb) }, "recording was consumed by the submit")
	c.Present(sc)
}
