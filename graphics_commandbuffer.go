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
	"goarrg.com/rhi/xrhi/internal/vk"
)

type IndexType vk.IndexType

const (
	IndexTypeUint16 = IndexType(vk.INDEX_TYPE_UINT16)
	IndexTypeUint32 = IndexType(vk.INDEX_TYPE_UINT32)
)

type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

type Rect struct {
	X, Y          int32
	Width, Height uint32
}

/*
BeginRenderPass starts rp on fb, fb must have been created against rp. Viewport and scissor are set to cover fb.
*/
func (cb *CommandBuffer) BeginRenderPass(rp *RenderPass, fb *Framebuffer, clear ClearValues) {
	cb.requireState("BeginRenderPass", CommandBufferBegan)
	rp.check()
	fb.check()
	if fb.info.RenderPass != rp {
		cb.ctx.abort("[%s] Framebuffer %q was created for render pass %q, not %q", cb.name, fb.name, fb.info.RenderPass.name, rp.name)
	}

	extent := vk.Extent2D{Width: uint32(fb.extent.X), Height: uint32(fb.extent.Y)}
	drv := cb.drv()
	drv.CmdBeginRenderPass(cb.vkCommandBuffer, &vk.RenderPassBeginInfo{
		RenderPass:  rp.vkRenderPass,
		Framebuffer: fb.vkFramebuffer,
		RenderArea:  vk.Rect2D{Extent: extent},
		ClearValues: clear.vkClearValues(rp),
	})
	drv.CmdSetViewport(cb.vkCommandBuffer, vk.Viewport{Width: float32(extent.Width), Height: float32(extent.Height), MaxDepth: 1})
	drv.CmdSetScissor(cb.vkCommandBuffer, vk.Rect2D{Extent: extent})

	cb.state = CommandBufferGraphicsPass
	cb.renderPass = rp
	cb.framebuffer = fb
	cb.computePipeline = nil
}

// EndRenderPass ends the pass, attachments are tracked as being in their final layouts.
func (cb *CommandBuffer) EndRenderPass() {
	cb.requireState("EndRenderPass", CommandBufferGraphicsPass)
	cb.drv().CmdEndRenderPass(cb.vkCommandBuffer)

	for i, t := range cb.framebuffer.attachments() {
		if i < len(cb.renderPass.info.Colors) {
			t.layout = cb.renderPass.info.Colors[i].FinalLayout
		} else {
			t.layout = cb.renderPass.info.Depth.FinalLayout
		}
	}
	cb.state = CommandBufferBegan
	cb.renderPass = nil
	cb.framebuffer = nil
	cb.graphicsPipeline = nil
}

func (cb *CommandBuffer) BindGraphicsPipeline(p *GraphicsPipeline) {
	cb.requireState("BindGraphicsPipeline", CommandBufferGraphicsPass)
	p.check()
	if p.info.RenderPass != cb.renderPass {
		cb.ctx.abort("[%s] Pipeline %q was created for render pass %q, active pass is %q", cb.name, p.name, p.info.RenderPass.name, cb.renderPass.name)
	}
	cb.drv().CmdBindPipeline(cb.vkCommandBuffer, vk.PIPELINE_BIND_POINT_GRAPHICS, p.vkPipeline)
	cb.graphicsPipeline = p
	cb.computePipeline = nil
}

func (cb *CommandBuffer) BindVertexBuffers(firstBinding uint32, buffers []*Buffer, offsets []uint64) {
	cb.requireState("BindVertexBuffers", CommandBufferGraphicsPass)
	if offsets != nil && len(offsets) != len(buffers) {
		cb.ctx.abort("[%s] %d vertex buffers with %d offsets", cb.name, len(buffers), len(offsets))
	}
	vkBuffers := make([]vk.Buffer, 0, len(buffers))
	for _, b := range buffers {
		b.check()
		if !b.info.Usage.HasBits(BufferUsageVertex) {
			cb.ctx.abort("[%s] Buffer %q bound as vertex buffer without BufferUsageVertex", cb.name, b.name)
		}
		vkBuffers = append(vkBuffers, b.vkBuffer)
	}
	if offsets == nil {
		offsets = make([]uint64, len(buffers))
	}
	cb.drv().CmdBindVertexBuffers(cb.vkCommandBuffer, firstBinding, vkBuffers, offsets)
}

func (cb *CommandBuffer) BindIndexBuffer(b *Buffer, offset uint64, indexType IndexType) {
	cb.requireState("BindIndexBuffer", CommandBufferGraphicsPass)
	b.check()
	if !b.info.Usage.HasBits(BufferUsageIndex) {
		cb.ctx.abort("[%s] Buffer %q bound as index buffer without BufferUsageIndex", cb.name, b.name)
	}
	cb.drv().CmdBindIndexBuffer(cb.vkCommandBuffer, b.vkBuffer, offset, vk.IndexType(indexType))
}

func (cb *CommandBuffer) SetViewport(v Viewport) {
	cb.requireState("SetViewport", CommandBufferGraphicsPass)
	cb.drv().CmdSetViewport(cb.vkCommandBuffer, vk.Viewport{
		X: v.X, Y: v.Y, Width: v.Width, Height: v.Height, MinDepth: v.MinDepth, MaxDepth: v.MaxDepth,
	})
}

func (cb *CommandBuffer) SetScissor(r Rect) {
	cb.requireState("SetScissor", CommandBufferGraphicsPass)
	cb.drv().CmdSetScissor(cb.vkCommandBuffer, vk.Rect2D{
		Offset: vk.Offset2D{X: r.X, Y: r.Y},
		Extent: vk.Extent2D{Width: r.Width, Height: r.Height},
	})
}

func (cb *CommandBuffer) requireGraphicsPipeline(op string) {
	cb.requireState(op, CommandBufferGraphicsPass)
	if cb.graphicsPipeline == nil {
		cb.ctx.abort("[%s] %s requires a bound graphics pipeline", cb.name, op)
	}
}

func (cb *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	cb.requireGraphicsPipeline("Draw")
	cb.drv().CmdDraw(cb.vkCommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (cb *CommandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	cb.requireGraphicsPipeline("DrawIndexed")
	cb.drv().CmdDrawIndexed(cb.vkCommandBuffer, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}
