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
	"fmt"

	"goarrg.com/rhi/xrhi/internal/vk"
)

type CommandPoolInfo struct {
	Name string
	// Transient hints that buffers from the pool are short lived.
	Transient bool
}

type CommandPool struct {
	handle
	info   CommandPoolInfo
	vkPool vk.CommandPool
	live   int
}

func (p *CommandPool) Info() CommandPoolInfo {
	p.check()
	return p.info
}

func (c *Context) CreateCommandPool(info CommandPoolInfo) *CommandPool {
	b := c.vkb()
	p := &CommandPool{info: info}
	if !c.vkCheck("vkCreateCommandPool", b.drv.CreateCommandPool(&vk.CommandPoolCreateInfo{
		QueueFamilyIndex:   b.drv.QueueFamilyIndex(),
		Transient:          info.Transient,
		ResetCommandBuffer: true,
	}, &p.vkPool)) {
		return nil
	}
	p.handle.init(c, HandleCommandPool, info.Name)
	return p
}

// DestroyCommandPool frees every buffer still allocated from p, those handles must not be used afterwards.
func (c *Context) DestroyCommandPool(p *CommandPool) {
	if p == nil || !p.release(c) {
		return
	}
	if p.live > 0 {
		c.logger.WPrintf("%s destroyed with %d live command buffers", &p.handle, p.live)
	}
	c.vkb().drv.DestroyCommandPool(p.vkPool)
	p.close()
}

type CommandBufferState uint32

const (
	CommandBufferIdle CommandBufferState = iota
	CommandBufferBegan
	CommandBufferGraphicsPass
	CommandBufferComputePass
	CommandBufferBlitPass
)

func (s CommandBufferState) String() string {
	switch s {
	case CommandBufferIdle:
		return "Idle"
	case CommandBufferBegan:
		return "Began"
	case CommandBufferGraphicsPass:
		return "GraphicsPass"
	case CommandBufferComputePass:
		return "ComputePass"
	case CommandBufferBlitPass:
		return "BlitPass"
	default:
		return fmt.Sprintf("CommandBufferState(%d)", uint32(s))
	}
}

type CommandBuffer struct {
	handle
	pool            *CommandPool
	vkCommandBuffer vk.CommandBuffer

	state      CommandBufferState
	executable bool

	renderPass       *RenderPass
	framebuffer      *Framebuffer
	graphicsPipeline *GraphicsPipeline
	computePipeline  *ComputePipeline
}

func (c *Context) CreateCommandBuffer(pool *CommandPool, name string) *CommandBuffer {
	b := c.vkb()
	pool.check()
	if pool.ctx != c {
		c.abort("[%s] Command pool %q belongs to another context", name, pool.name)
	}
	cb := &CommandBuffer{pool: pool}
	if !c.vkCheck("vkAllocateCommandBuffers", b.drv.AllocateCommandBuffer(pool.vkPool, &cb.vkCommandBuffer)) {
		return nil
	}
	pool.live++
	cb.handle.init(c, HandleCommandBuffer, name)
	return cb
}

// DestroyCommandBuffer returns cb to pool, pool must be the one that allocated it.
func (c *Context) DestroyCommandBuffer(pool *CommandPool, cb *CommandBuffer) {
	if cb == nil || !cb.release(c) {
		return
	}
	pool.check()
	if cb.pool != pool {
		c.abort("%s freed through command pool %q, it was allocated from %q", &cb.handle, pool.name, cb.pool.name)
	}
	c.vkb().drv.FreeCommandBuffer(pool.vkPool, cb.vkCommandBuffer)
	pool.live--
	cb.close()
}

func (cb *CommandBuffer) State() CommandBufferState {
	cb.check()
	return cb.state
}

func (cb *CommandBuffer) Pool() *CommandPool {
	cb.check()
	return cb.pool
}

func (cb *CommandBuffer) requireState(op string, states ...CommandBufferState) {
	cb.check()
	for _, s := range states {
		if cb.state == s {
			return
		}
	}
	cb.ctx.abort("[%s] %s called in state %s, requires %v", cb.name, op, cb.state, states)
}

func (cb *CommandBuffer) drv() vk.Driver {
	return cb.ctx.vkb().drv
}

// Begin starts one time submit recording, it aborts if the buffer is already recording.
func (cb *CommandBuffer) Begin() {
	cb.requireState("Begin", CommandBufferIdle)
	if !cb.ctx.vkCheck("vkBeginCommandBuffer", cb.drv().BeginCommandBuffer(cb.vkCommandBuffer, true)) {
		cb.ctx.abort("[%s] Failed to begin command buffer", cb.name)
	}
	cb.state = CommandBufferBegan
	cb.executable = false
}

// End finishes recording, every pass must have been ended.
func (cb *CommandBuffer) End() {
	cb.requireState("End", CommandBufferBegan)
	if !cb.ctx.vkCheck("vkEndCommandBuffer", cb.drv().EndCommandBuffer(cb.vkCommandBuffer)) {
		cb.ctx.abort("[%s] Failed to end command buffer", cb.name)
	}
	cb.state = CommandBufferIdle
	cb.executable = true
	cb.graphicsPipeline = nil
	cb.computePipeline = nil
}

// Reset discards everything recorded and returns to Idle from any state.
func (cb *CommandBuffer) Reset() {
	cb.check()
	cb.ctx.vkCheck("vkResetCommandBuffer", cb.drv().ResetCommandBuffer(cb.vkCommandBuffer))
	cb.state = CommandBufferIdle
	cb.executable = false
	cb.renderPass = nil
	cb.framebuffer = nil
	cb.graphicsPipeline = nil
	cb.computePipeline = nil
}

func (cb *CommandBuffer) BeginBlitPass() {
	cb.requireState("BeginBlitPass", CommandBufferBegan)
	cb.state = CommandBufferBlitPass
}

func (cb *CommandBuffer) EndBlitPass() {
	cb.requireState("EndBlitPass", CommandBufferBlitPass)
	cb.state = CommandBufferBegan
}

func (cb *CommandBuffer) CopyBuffer(src *Buffer, srcOffset uint64, dst *Buffer, dstOffset uint64, size uint64) {
	cb.requireState("CopyBuffer", CommandBufferBlitPass)
	src.check()
	dst.check()
	if srcOffset > src.info.Size || size > src.info.Size-srcOffset || dstOffset > dst.info.Size || size > dst.info.Size-dstOffset {
		cb.ctx.abort("[%s] CopyBuffer(%d, %d, %d) out of range of %q (%d) or %q (%d)", cb.name, srcOffset, dstOffset, size,
			src.name, src.info.Size, dst.name, dst.info.Size)
	}
	if !src.info.Usage.HasBits(BufferUsageTransferSrc) || !dst.info.Usage.HasBits(BufferUsageTransferDst) {
		cb.ctx.abort("[%s] CopyBuffer needs TransferSrc on %q and TransferDst on %q", cb.name, src.name, dst.name)
	}
	cb.drv().CmdCopyBuffer(cb.vkCommandBuffer, src.vkBuffer, dst.vkBuffer, []vk.BufferCopy{{
		SrcOffset: srcOffset, DstOffset: dstOffset, Size: size,
	}})
}

// TransitionTexture records a barrier moving t from its tracked layout to layout.
func (cb *CommandBuffer) TransitionTexture(t *Texture, layout TextureLayout) {
	cb.requireState("TransitionTexture", CommandBufferBlitPass)
	t.check()
	if t.layout == layout {
		return
	}
	t.vkBarrier(cb.drv(), cb.vkCommandBuffer, layout)
}

/*
CopyBufferToTexture copies one full image from src at srcOffset into t. The texture is transitioned to
TextureLayoutTransferDst first if needed and left there.
*/
func (cb *CommandBuffer) CopyBufferToTexture(src *Buffer, srcOffset uint64, t *Texture) {
	cb.requireState("CopyBufferToTexture", CommandBufferBlitPass)
	src.check()
	t.check()
	if srcOffset > src.info.Size || t.byteSize() > src.info.Size-srcOffset {
		cb.ctx.abort("[%s] CopyBufferToTexture needs %d bytes at offset %d, %q has %d", cb.name, t.byteSize(), srcOffset, src.name, src.info.Size)
	}
	cb.TransitionTexture(t, TextureLayoutTransferDst)
	cb.drv().CmdCopyBufferToImage(cb.vkCommandBuffer, src.vkBuffer, t.vkImage, vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, []vk.BufferImageCopy{{
		BufferOffset: srcOffset,
		Aspect:       t.info.Format.vkAspect(),
		ImageExtent:  t.vkExtent(),
	}})
}

func (cb *CommandBuffer) boundPipeline(op string) (*pipelineBase, vk.PipelineBindPoint) {
	cb.requireState(op, CommandBufferGraphicsPass, CommandBufferComputePass)
	switch {
	case cb.state == CommandBufferGraphicsPass && cb.graphicsPipeline != nil:
		return &cb.graphicsPipeline.pipelineBase, vk.PIPELINE_BIND_POINT_GRAPHICS
	case cb.state == CommandBufferComputePass && cb.computePipeline != nil:
		return &cb.computePipeline.pipelineBase, vk.PIPELINE_BIND_POINT_COMPUTE
	}
	cb.ctx.abort("[%s] %s requires a bound pipeline", cb.name, op)
	return nil, 0
}

// BindResourceSets binds sets starting at firstSet, each must use the layout the pipeline declares at its index.
func (cb *CommandBuffer) BindResourceSets(firstSet uint32, sets ...*ResourceSet) {
	p, bindPoint := cb.boundPipeline("BindResourceSets")
	if int(firstSet)+len(sets) > len(p.layouts) {
		cb.ctx.abort("[%s] Binding %d sets at %d, pipeline %q has %d layouts", cb.name, len(sets), firstSet, p.name, len(p.layouts))
	}
	vkSets := make([]vk.DescriptorSet, 0, len(sets))
	for i, s := range sets {
		s.check()
		if want := p.layouts[int(firstSet)+i]; s.layout != want {
			cb.ctx.abort("[%s] Set %d uses layout %q, pipeline %q expects %q", cb.name, int(firstSet)+i, s.layout.name, p.name, want.name)
		}
		vkSets = append(vkSets, s.vkSet)
	}
	cb.drv().CmdBindDescriptorSets(cb.vkCommandBuffer, bindPoint, p.layout.vkLayout, firstSet, vkSets)
}

func (cb *CommandBuffer) PushConstants(offset uint32, data []byte) {
	p, _ := cb.boundPipeline("PushConstants")
	if uint64(offset)+uint64(len(data)) > uint64(p.pushConstants.Size) {
		cb.ctx.abort("[%s] PushConstants(%d, len(data): %d) overflows pipeline %q push constants of size %d",
			cb.name, offset, len(data), p.name, p.pushConstants.Size)
	}
	cb.drv().CmdPushConstants(cb.vkCommandBuffer, p.layout.vkLayout, p.pushConstants.Stages.vkShaderStageFlags(), offset, data)
}
