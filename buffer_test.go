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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goarrg.com/gmath"
	"goarrg.com/rhi/xrhi/internal/vk"
)

func TestBufferReadback(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	for _, m := range []MemoryOption{MemoryMapped, MemoryDynamic} {
		t.Run(m.String(), func(t *testing.T) {
			b := c.CreateBuffer(BufferInfo{Name: "readback", Size: 32, Usage: BufferUsageStorage, Memory: m}, data)
			require.NotNil(t, b)
			defer c.DestroyBuffer(b)

			got := make([]byte, len(data))
			b.Invalidate(0, uint64(len(got)))
			b.Read(0, got)
			assert.Equal(t, data, got)

			b.Write(20, []byte{0xAA, 0xBB})
			b.Flush(20, 2)
			got = make([]byte, 4)
			b.Read(19, got)
			assert.Equal(t, []byte{0, 0xAA, 0xBB, 0}, got)
		})
	}
}

func TestBufferStaticUploadAndCopy(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	data := []byte("static buffer contents")
	src := c.CreateBuffer(BufferInfo{Name: "src", Size: 64, Usage: BufferUsageVertex | BufferUsageTransferSrc, Memory: MemoryStatic}, data)
	require.NotNil(t, src)
	defer c.DestroyBuffer(src)
	assert.True(t, src.Usage().HasBits(BufferUsageTransferDst), "static buffers with data are transfer destinations")

	dst := c.CreateBuffer(BufferInfo{Name: "dst", Size: 64, Usage: BufferUsageTransferDst, Memory: MemoryMapped}, nil)
	require.NotNil(t, dst)
	defer c.DestroyBuffer(dst)

	pool := c.CreateCommandPool(CommandPoolInfo{Name: "pool", Transient: true})
	require.NotNil(t, pool)
	defer c.DestroyCommandPool(pool)
	cb := c.CreateCommandBuffer(pool, "copy")
	require.NotNil(t, cb)
	defer c.DestroyCommandBuffer(pool, cb)

	cb.Begin()
	cb.BeginBlitPass()
	cb.CopyBuffer(src, 0, dst, 8, uint64(len(data)))
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.CopyBuffer(src, math.MaxUint64-7, dst, 0, 16) })
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.CopyBuffer(src, 0, dst, 8, math.MaxUint64-3) })
	cb.EndBlitPass()
	cb.End()
	require.True(t, c.Submit(nil, cb))
	c.WaitForIdle()

	got := make([]byte, len(data))
	dst.Read(8, got)
	assert.Equal(t, data, got)
}

func TestBufferContract(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateBuffer(BufferInfo{Name: "empty", Usage: BufferUsageUniform, Memory: MemoryMapped}, nil)
	})
	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateBuffer(BufferInfo{Name: "small", Size: 2, Usage: BufferUsageUniform, Memory: MemoryMapped}, []byte{1, 2, 3})
	})

	static := c.CreateBuffer(BufferInfo{Name: "static", Size: 16, Usage: BufferUsageStorage, Memory: MemoryStatic}, nil)
	require.NotNil(t, static)
	defer c.DestroyBuffer(static)
	assert.PanicsWithValue(t, "Fatal Error", func() { static.Read(0, make([]byte, 4)) })

	mapped := c.CreateBuffer(BufferInfo{Name: "mapped", Size: 16, Usage: BufferUsageStorage, Memory: MemoryMapped}, nil)
	require.NotNil(t, mapped)
	defer c.DestroyBuffer(mapped)
	assert.PanicsWithValue(t, "Fatal Error", func() { mapped.Write(12, make([]byte, 8)) })
	assert.NotPanics(t, func() { mapped.Write(12, make([]byte, 4)) })

	// offset+len wraps around to a value inside the buffer.
	assert.PanicsWithValue(t, "Fatal Error", func() { mapped.Write(math.MaxUint64, []byte{1, 2}) })
	assert.PanicsWithValue(t, "Fatal Error", func() { mapped.Read(math.MaxUint64-1, make([]byte, 4)) })
	assert.PanicsWithValue(t, "Fatal Error", func() { mapped.Flush(4, math.MaxUint64) })
	assert.PanicsWithValue(t, "Fatal Error", func() { mapped.Write(17, nil) })
}

func TestDestroyNilMakesNoNativeCalls(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	before := drv.Calls()
	c.DestroyTexture(nil)
	c.DestroyBuffer(nil)
	c.DestroySampler(nil)
	c.DestroyShader(nil)
	c.DestroyResourceLayout(nil)
	c.DestroyResourceSet(nil, nil)
	c.DestroyResourceSetPool(nil)
	c.DestroyRenderPass(nil)
	c.DestroyFramebuffer(nil)
	c.DestroyGraphicsPipeline(nil)
	c.DestroyComputePipeline(nil)
	c.DestroyCommandPool(nil)
	c.DestroySwapchain(nil)
	assert.Equal(t, before, drv.Calls())
}

func TestTextureUpload(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	data := make([]byte, 4*4*4)
	for i := range data {
		data[i] = byte(i)
	}
	tex := c.CreateTexture(TextureInfo{
		Name:   "upload",
		Format: FormatRGBA8Unorm,
		Extent: gmath.Extent3i32{X: 4, Y: 4},
		Usage:  TextureUsageSampled,
	}, data)
	require.NotNil(t, tex)
	defer c.DestroyTexture(tex)

	assert.Equal(t, int32(1), tex.Extent().Z)
	assert.Equal(t, TextureLayoutShaderReadOnly, tex.Layout())
	assert.True(t, tex.Info().Usage.HasBits(TextureUsageTransferDst))
	assert.Equal(t, data, drv.ImageData(tex.vkImage))
	assert.Equal(t, vk.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL, drv.ImageLayout(tex.vkImage))

	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateTexture(TextureInfo{Name: "short", Format: FormatRGBA8Unorm, Extent: gmath.Extent3i32{X: 4, Y: 4}}, data[:8])
	})
	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateTexture(TextureInfo{Name: "flat", Format: FormatRGBA8Unorm, Extent: gmath.Extent3i32{X: 0, Y: 4}}, nil)
	})
}

func TestCopyBufferToTexture(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	data := []byte{10, 20, 30, 40, 50, 60, 70, 80}
	staging := c.CreateBuffer(BufferInfo{Name: "staging", Size: 16, Usage: BufferUsageTransferSrc, Memory: MemoryMapped}, nil)
	require.NotNil(t, staging)
	defer c.DestroyBuffer(staging)
	staging.Write(4, data)

	tex := c.CreateTexture(TextureInfo{
		Name:   "target",
		Format: FormatR32Float,
		Extent: gmath.Extent3i32{X: 2, Y: 1},
		Usage:  TextureUsageSampled | TextureUsageTransferDst,
	}, nil)
	require.NotNil(t, tex)
	defer c.DestroyTexture(tex)

	pool := c.CreateCommandPool(CommandPoolInfo{Name: "pool"})
	require.NotNil(t, pool)
	defer c.DestroyCommandPool(pool)
	cb := c.CreateCommandBuffer(pool, "upload")
	require.NotNil(t, cb)
	defer c.DestroyCommandBuffer(pool, cb)

	cb.Begin()
	cb.BeginBlitPass()
	cb.CopyBufferToTexture(staging, 4, tex)
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.CopyBufferToTexture(staging, math.MaxUint64-3, tex) })
	cb.TransitionTexture(tex, TextureLayoutShaderReadOnly)
	cb.EndBlitPass()
	cb.End()
	require.True(t, c.Submit(nil, cb))
	c.WaitForIdle()

	assert.Equal(t, TextureLayoutShaderReadOnly, tex.Layout())
	assert.Equal(t, data, drv.ImageData(tex.vkImage))
}
