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

package managed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goarrg.com/gmath"
	"goarrg.com/rhi/xrhi"
)

type window struct{}

func (window) Handle() uintptr {
	return 0
}

func (window) SurfaceExtent() gmath.Extent2i32 {
	return gmath.Extent2i32{X: 8, Y: 8}
}

// endFrame acquires, submits an empty recording and presents so the frame slots keep cycling.
func endFrame(t *testing.T, c *xrhi.Context, sc *xrhi.Swapchain) {
	t.Helper()
	require.NotEqual(t, xrhi.NeedsRecreate, c.AcquireNextImage(sc))
	cb := sc.CommandBuffer()
	cb.Begin()
	cb.End()
	require.True(t, c.Submit(sc, cb))
	c.Present(sc)
}

func TestResourceArrayBuffer(t *testing.T) {
	c := xrhi.New(nil, xrhi.DefaultConfig())
	require.NotNil(t, c)
	defer c.Destroy()

	layout := c.CreateResourceLayout(xrhi.ResourceLayoutInfo{
		Name: "bindless",
		Bindings: []xrhi.ResourceBinding{
			{Slot: 0, Kind: xrhi.ResourceStorageBuffer, Stages: xrhi.ShaderStageCompute, Count: 3},
		},
	})
	require.NotNil(t, layout)
	defer c.DestroyResourceLayout(layout)
	set := c.CreateResourceSet(nil, layout)
	require.NotNil(t, set)
	defer c.DestroyResourceSet(nil, set)

	assert.PanicsWithValue(t, "Fatal Error", func() { NewResourceArrayBuffer(set, 1) })
	a := NewResourceArrayBuffer(set, 0)

	var buffers []*xrhi.Buffer
	for range 4 {
		b := c.CreateBuffer(xrhi.BufferInfo{Name: "element", Size: 16, Usage: xrhi.BufferUsageStorage, Memory: xrhi.MemoryMapped}, nil)
		require.NotNil(t, b)
		defer c.DestroyBuffer(b)
		buffers = append(buffers, b)
	}

	for i, b := range buffers[:3] {
		assert.Equal(t, uint32(i), a.Push(xrhi.ResourceBufferInfo{Buffer: b}))
	}
	assert.Equal(t, uint32(1), a.Push(xrhi.ResourceBufferInfo{Buffer: buffers[1]}), "pushing twice returns the same element")
	assert.Equal(t, 3, a.Len())
	assert.PanicsWithValue(t, "Fatal Error", func() { a.Push(xrhi.ResourceBufferInfo{Buffer: buffers[3]}) })

	sc := c.CreateSwapchain(window{}, xrhi.SwapchainInfo{Name: "sc", ColorLoad: xrhi.LoadActionClear})
	require.NotNil(t, sc)
	defer c.DestroySwapchain(sc)

	endFrame(t, c, sc)
	a.Pop(sc, buffers[1])
	a.Pop(sc, buffers[3])
	i, ok := a.Index(buffers[1])
	assert.True(t, ok, "element stays valid while its frame is in flight")
	assert.Equal(t, uint32(1), i)

	for range sc.MaxFrameCount() {
		endFrame(t, c, sc)
	}
	_, ok = a.Index(buffers[1])
	assert.False(t, ok)
	assert.Equal(t, 2, a.Len())

	assert.Equal(t, uint32(1), a.Push(xrhi.ResourceBufferInfo{Buffer: buffers[3]}), "freed element is reused")
	c.WaitForIdle()
}

func TestResourceArrayTexture(t *testing.T) {
	c := xrhi.New(nil, xrhi.DefaultConfig())
	require.NotNil(t, c)
	defer c.Destroy()

	layout := c.CreateResourceLayout(xrhi.ResourceLayoutInfo{
		Name: "textures",
		Bindings: []xrhi.ResourceBinding{
			{Slot: 0, Kind: xrhi.ResourceSampledTexture, Stages: xrhi.ShaderStageFragment, Count: 2},
			{Slot: 1, Kind: xrhi.ResourceCombinedTextureSampler, Stages: xrhi.ShaderStageFragment, Count: 2},
		},
	})
	require.NotNil(t, layout)
	defer c.DestroyResourceLayout(layout)
	set := c.CreateResourceSet(nil, layout)
	require.NotNil(t, set)
	defer c.DestroyResourceSet(nil, set)

	tex := c.CreateTexture(xrhi.TextureInfo{
		Name:   "albedo",
		Format: xrhi.FormatRGBA8Unorm,
		Extent: gmath.Extent3i32{X: 1, Y: 1, Z: 1},
		Usage:  xrhi.TextureUsageSampled,
	}, []byte{1, 2, 3, 4})
	require.NotNil(t, tex)
	defer c.DestroyTexture(tex)
	sampler := c.CreateSampler(xrhi.SamplerInfo{Name: "linear"})
	require.NotNil(t, sampler)
	defer c.DestroySampler(sampler)

	textures := NewResourceArrayTexture(set, 0)
	assert.Equal(t, uint32(0), textures.Push(xrhi.ResourceTextureInfo{Texture: tex, Layout: xrhi.TextureLayoutShaderReadOnly}))
	combined := NewResourceArrayCombinedTextureSampler(set, 1)
	assert.Equal(t, uint32(0), combined.Push(xrhi.ResourceCombinedTextureSamplerInfo{
		Texture: tex, Sampler: sampler, Layout: xrhi.TextureLayoutShaderReadOnly,
	}))
	i, ok := combined.Index(tex)
	assert.True(t, ok)
	assert.Zero(t, i)
}
