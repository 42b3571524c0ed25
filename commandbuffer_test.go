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
)

// spirvStub is only the SPIR-V magic number, enough for a module the software driver accepts.
var spirvStub = []byte{0x03, 0x02, 0x23, 0x07}

func newTestCommandBuffer(t *testing.T, c *Context, name string) (*CommandPool, *CommandBuffer) {
	t.Helper()
	pool := c.CreateCommandPool(CommandPoolInfo{Name: name + "_pool"})
	require.NotNil(t, pool)
	cb := c.CreateCommandBuffer(pool, name)
	require.NotNil(t, cb)
	return pool, cb
}

func TestCommandBufferStateMachine(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	pool, cb := newTestCommandBuffer(t, c, "states")
	defer c.DestroyCommandPool(pool)
	defer c.DestroyCommandBuffer(pool, cb)

	assert.Same(t, pool, cb.Pool())
	assert.Equal(t, CommandBufferIdle, cb.State())
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.End() }, "end without begin")
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.BeginBlitPass() }, "pass without begin")
	assert.PanicsWithValue(t, "Fatal Error", func() { c.Submit(nil, cb) }, "nothing recorded")

	cb.Begin()
	assert.Equal(t, CommandBufferBegan, cb.State())
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.Begin() })
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.EndComputePass() })

	cb.BeginComputePass()
	assert.Equal(t, CommandBufferComputePass, cb.State())
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.BeginBlitPass() }, "passes do not nest")
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.Dispatch(1, 1, 1) }, "no pipeline bound")
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.PushConstants(0, make([]byte, 4)) }, "no pipeline bound")
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.End() }, "pass still open")
	cb.EndComputePass()

	cb.BeginBlitPass()
	assert.Equal(t, CommandBufferBlitPass, cb.State())
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.Draw(3, 1, 0, 0) })

	// Reset works from inside a pass.
	cb.Reset()
	assert.Equal(t, CommandBufferIdle, cb.State())
	assert.PanicsWithValue(t, "Fatal Error", func() { c.Submit(nil, cb) }, "reset discards the recording")

	cb.Begin()
	cb.End()
	require.True(t, c.Submit(nil, cb))
	c.WaitForIdle()
	assert.Equal(t, uint64(1), drv.Stats().Submits)

	other := c.CreateCommandPool(CommandPoolInfo{Name: "other"})
	require.NotNil(t, other)
	defer c.DestroyCommandPool(other)
	assert.PanicsWithValue(t, "Fatal Error", func() { c.DestroyCommandBuffer(other, cb) })
}

func TestComputeDispatch(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	shader := c.CreateShader(ShaderInfo{Name: "cs", Stage: ShaderStageCompute, Code: spirvStub})
	require.NotNil(t, shader)
	assert.Equal(t, "main", shader.Info().EntryPoint)
	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateShader(ShaderInfo{Name: "two_stages", Stage: ShaderStageGraphics, Code: spirvStub})
	})

	p := c.CreateComputePipeline(ComputePipelineInfo{
		Name:          "cp",
		Shader:        shader,
		Layout:        PipelineLayoutInfo{PushConstants: PushConstantRange{Stages: ShaderStageCompute, Size: 16}},
		WorkGroupSize: [3]uint32{64},
	})
	require.NotNil(t, p)
	c.DestroyShader(shader)
	assert.Equal(t, [3]uint32{64, 1, 1}, p.Info().WorkGroupSize)
	assert.Equal(t, PushConstantRange{Stages: ShaderStageCompute, Size: 16}, p.PushConstants())

	pool, cb := newTestCommandBuffer(t, c, "compute")
	cb.Begin()
	cb.BeginComputePass()
	cb.BindComputePipeline(p)
	cb.PushConstants(0, make([]byte, 16))
	cb.PushConstants(12, make([]byte, 4))
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.PushConstants(0, make([]byte, 20)) })
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.PushConstants(16, make([]byte, 4)) })
	cb.Dispatch(4, 1, 1)
	cb.DispatchInvocations(100, 1, 1)
	cb.Dispatch(0, 1, 1)
	cb.EndComputePass()
	cb.End()
	require.True(t, c.Submit(nil, cb))
	c.WaitForIdle()

	assert.Equal(t, uint64(2), drv.Stats().Dispatches, "empty dispatches are dropped")
	c.DestroyCommandBuffer(pool, cb)
	c.DestroyCommandPool(pool)
	c.DestroyComputePipeline(p)
	assert.Empty(t, c.layoutCache.cache)

	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateComputePipeline(ComputePipelineInfo{Name: "destroyed_shader", Shader: shader})
	}, "destroyed shader")
}

func TestComputePipelineContract(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	vs := c.CreateShader(ShaderInfo{Name: "vs", Stage: ShaderStageVertex, Code: spirvStub})
	require.NotNil(t, vs)
	defer c.DestroyShader(vs)
	cs := c.CreateShader(ShaderInfo{Name: "cs", Stage: ShaderStageCompute, Code: spirvStub})
	require.NotNil(t, cs)
	defer c.DestroyShader(cs)

	assert.PanicsWithValue(t, "Fatal Error", func() { c.CreateComputePipeline(ComputePipelineInfo{Name: "none"}) })
	assert.PanicsWithValue(t, "Fatal Error", func() { c.CreateComputePipeline(ComputePipelineInfo{Name: "vs", Shader: vs}) })
	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateComputePipeline(ComputePipelineInfo{
			Name: "unaligned", Shader: cs,
			Layout: PipelineLayoutInfo{PushConstants: PushConstantRange{Stages: ShaderStageCompute, Size: 6}},
		})
	})
	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateComputePipeline(ComputePipelineInfo{
			Name: "stageless", Shader: cs,
			Layout: PipelineLayoutInfo{PushConstants: PushConstantRange{Size: 8}},
		})
	})
	assert.Empty(t, c.layoutCache.cache)
}

func TestGraphicsDraw(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	color := c.CreateTexture(TextureInfo{
		Name:   "color",
		Format: FormatRGBA8Unorm,
		Extent: gmath.Extent3i32{X: 2, Y: 2, Z: 1},
		Usage:  TextureUsageColorAttachment | TextureUsageSampled,
	}, nil)
	require.NotNil(t, color)
	defer c.DestroyTexture(color)

	rp := c.CreateRenderPass(RenderPassInfo{
		Name:   "offscreen",
		Colors: []ColorAttachment{{Format: FormatRGBA8Unorm, Load: LoadActionClear, FinalLayout: TextureLayoutShaderReadOnly}},
	})
	require.NotNil(t, rp)
	defer c.DestroyRenderPass(rp)
	fb := c.CreateFramebuffer(FramebufferInfo{Name: "offscreen", RenderPass: rp, Colors: []*Texture{color}})
	require.NotNil(t, fb)
	defer c.DestroyFramebuffer(fb)
	assert.Equal(t, gmath.Extent2i32{X: 2, Y: 2}, fb.Extent())

	vs := c.CreateShader(ShaderInfo{Name: "vs", Stage: ShaderStageVertex, Code: spirvStub})
	fs := c.CreateShader(ShaderInfo{Name: "fs", Stage: ShaderStageFragment, Code: spirvStub})
	require.NotNil(t, vs)
	require.NotNil(t, fs)
	defer c.DestroyShader(vs)
	defer c.DestroyShader(fs)

	layout := newUniformLayout(t, c, 1)
	defer c.DestroyResourceLayout(layout)
	layoutInfo := PipelineLayoutInfo{
		Layouts:       []*ResourceLayout{layout},
		PushConstants: PushConstantRange{Stages: ShaderStageGraphics, Size: 8},
	}
	info := GraphicsPipelineInfo{
		Name:             "opaque",
		Vertex:           vs,
		Fragment:         fs,
		RenderPass:       rp,
		Layout:           layoutInfo,
		VertexBindings:   []VertexBinding{{Binding: 0, Stride: 8}},
		VertexAttributes: []VertexAttribute{{Location: 0, Format: FormatRG32Float}},
	}
	p := c.CreateGraphicsPipeline(info)
	require.NotNil(t, p)
	defer c.DestroyGraphicsPipeline(p)
	info.Name = "blended"
	info.Blend = []BlendState{BlendStateAlpha}
	blended := c.CreateGraphicsPipeline(info)
	require.NotNil(t, blended)
	defer c.DestroyGraphicsPipeline(blended)
	require.Len(t, c.layoutCache.cache, 1, "pipelines with the same layout share it")
	for _, l := range c.layoutCache.cache {
		assert.Equal(t, 2, l.refs)
	}

	info.Name = "depth"
	info.Depth = DepthState{Test: true}
	assert.PanicsWithValue(t, "Fatal Error", func() { c.CreateGraphicsPipeline(info) }, "render pass has no depth")
	info.Depth = DepthState{}
	info.Blend = []BlendState{{}, {}}
	assert.PanicsWithValue(t, "Fatal Error", func() { c.CreateGraphicsPipeline(info) }, "too many blend states")
	info.Blend = nil
	info.Fragment = vs
	assert.PanicsWithValue(t, "Fatal Error", func() { c.CreateGraphicsPipeline(info) }, "wrong stage")

	vertices := c.CreateBuffer(BufferInfo{Name: "vertices", Size: 24, Usage: BufferUsageVertex, Memory: MemoryMapped}, nil)
	indices := c.CreateBuffer(BufferInfo{Name: "indices", Size: 6, Usage: BufferUsageIndex, Memory: MemoryMapped}, []byte{0, 0, 1, 0, 2, 0})
	uniforms := c.CreateBuffer(BufferInfo{Name: "uniforms", Size: 64, Usage: BufferUsageUniform, Memory: MemoryMapped}, nil)
	require.NotNil(t, vertices)
	require.NotNil(t, indices)
	require.NotNil(t, uniforms)
	defer c.DestroyBuffer(vertices)
	defer c.DestroyBuffer(indices)
	defer c.DestroyBuffer(uniforms)

	set := c.CreateResourceSet(nil, layout)
	require.NotNil(t, set)
	defer c.DestroyResourceSet(nil, set)
	set.Bind(0, 0, ResourceBufferInfo{Buffer: uniforms, Range: 64})

	pool, cb := newTestCommandBuffer(t, c, "draw")
	defer c.DestroyCommandPool(pool)
	defer c.DestroyCommandBuffer(pool, cb)

	cb.Begin()
	cb.BeginRenderPass(rp, fb, ClearValues{Colors: [][4]float32{{0, 0, 1, 1}}})
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.Draw(3, 1, 0, 0) }, "no pipeline bound")
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.BindIndexBuffer(vertices, 0, IndexTypeUint16) })
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.BindVertexBuffers(0, []*Buffer{vertices}, []uint64{0, 0}) })
	cb.BindGraphicsPipeline(p)
	cb.BindResourceSets(0, set)
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.BindResourceSets(1, set) })
	cb.PushConstants(0, make([]byte, 8))
	cb.SetViewport(Viewport{Width: 1, Height: 1, MaxDepth: 1})
	cb.SetScissor(Rect{Width: 1, Height: 1})
	cb.BindVertexBuffers(0, []*Buffer{vertices}, nil)
	cb.BindIndexBuffer(indices, 0, IndexTypeUint16)
	cb.Draw(3, 1, 0, 0)
	cb.BindGraphicsPipeline(blended)
	cb.DrawIndexed(3, 1, 0, 0, 0)
	cb.EndRenderPass()
	cb.End()
	assert.Equal(t, TextureLayoutShaderReadOnly, color.Layout())

	require.True(t, c.Submit(nil, cb))
	c.WaitForIdle()
	assert.Equal(t, uint64(2), drv.Stats().Draws)
	assert.Equal(t, []byte{0, 0, 255, 255}, drv.ImageData(color.vkImage)[:4])
}

func TestRenderPassContract(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	assert.PanicsWithValue(t, "Fatal Error", func() { c.CreateRenderPass(RenderPassInfo{Name: "empty"}) })
	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateRenderPass(RenderPassInfo{Name: "depth_color", Colors: []ColorAttachment{{Format: FormatD32Float}}})
	})

	rp := c.CreateRenderPass(RenderPassInfo{
		Name:   "rp",
		Colors: []ColorAttachment{{Format: FormatRGBA8Unorm}},
		Depth:  &DepthAttachment{Format: FormatD32Float, Load: LoadActionClear},
	})
	require.NotNil(t, rp)
	defer c.DestroyRenderPass(rp)
	info := rp.Info()
	assert.Equal(t, TextureLayoutColorAttachment, info.Colors[0].FinalLayout)
	assert.Equal(t, TextureLayoutDepthStencilAttachment, info.Depth.FinalLayout)

	color := c.CreateTexture(TextureInfo{Name: "color", Format: FormatRGBA8Unorm, Extent: gmath.Extent3i32{X: 4, Y: 4, Z: 1}, Usage: TextureUsageColorAttachment}, nil)
	small := c.CreateTexture(TextureInfo{Name: "small", Format: FormatD32Float, Extent: gmath.Extent3i32{X: 2, Y: 2, Z: 1}, Usage: TextureUsageDepthStencilAttachment}, nil)
	require.NotNil(t, color)
	require.NotNil(t, small)
	defer c.DestroyTexture(color)
	defer c.DestroyTexture(small)

	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateFramebuffer(FramebufferInfo{Name: "no_depth", RenderPass: rp, Colors: []*Texture{color}})
	})
	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateFramebuffer(FramebufferInfo{Name: "swapped", RenderPass: rp, Colors: []*Texture{small}, Depth: color})
	})
	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateFramebuffer(FramebufferInfo{Name: "extent", RenderPass: rp, Colors: []*Texture{color}, Depth: small})
	})

	other := c.CreateRenderPass(RenderPassInfo{Name: "other", Colors: []ColorAttachment{{Format: FormatRGBA8Unorm}}})
	require.NotNil(t, other)
	defer c.DestroyRenderPass(other)
	fb := c.CreateFramebuffer(FramebufferInfo{Name: "fb", RenderPass: other, Colors: []*Texture{color}})
	require.NotNil(t, fb)
	defer c.DestroyFramebuffer(fb)

	pool, cb := newTestCommandBuffer(t, c, "rp")
	defer c.DestroyCommandPool(pool)
	defer c.DestroyCommandBuffer(pool, cb)
	cb.Begin()
	assert.PanicsWithValue(t, "Fatal Error", func() { cb.BeginRenderPass(rp, fb, ClearValues{}) }, "framebuffer of another render pass")
	cb.Reset()
}
