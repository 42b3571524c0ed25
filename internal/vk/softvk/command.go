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
	"encoding/binary"
	"math"

	"goarrg.com/rhi/xrhi/internal/vk"
)

type renderPass struct {
	info vk.RenderPassCreateInfo
}

type framebuffer struct {
	info vk.FramebufferCreateInfo
}

type pipelineLayout struct {
	info vk.PipelineLayoutCreateInfo
}

type pipeline struct {
	bindPoint vk.PipelineBindPoint
	layout    vk.PipelineLayout
}

type commandPool struct {
	info    vk.CommandPoolCreateInfo
	buffers map[vk.CommandBuffer]struct{}
}

const (
	cbInitial = iota
	cbRecording
	cbExecutable
)

type commandBuffer struct {
	pool          vk.CommandPool
	state         int
	oneTimeSubmit bool
	inRenderPass  bool
	ops           []func()
}

func (d *Driver) CreateRenderPass(info *vk.RenderPassCreateInfo, out *vk.RenderPass) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	for _, r := range info.ColorAttachments {
		if int(r.Attachment) >= len(info.Attachments) {
			d.validationError("CreateRenderPass: color reference %d out of range", r.Attachment)
			return vk.ERROR_INITIALIZATION_FAILED
		}
	}
	rp := &renderPass{info: *info}
	rp.info.Attachments = append([]vk.AttachmentDescription(nil), info.Attachments...)
	rp.info.ColorAttachments = append([]vk.AttachmentReference(nil), info.ColorAttachments...)
	*out = vk.RenderPass(d.newHandle(rp))
	return vk.SUCCESS
}

func (d *Driver) DestroyRenderPass(h vk.RenderPass) {
	d.lock()
	defer d.mu.Unlock()
	if _, ok := lookup[renderPass](d, uint64(h)); !ok {
		d.validationError("DestroyRenderPass: invalid handle 0x%X", uint64(h))
		return
	}
	d.release(uint64(h))
}

func (d *Driver) CreateFramebuffer(info *vk.FramebufferCreateInfo, out *vk.Framebuffer) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	rp, ok := lookup[renderPass](d, uint64(info.RenderPass))
	if !ok {
		d.validationError("CreateFramebuffer: invalid render pass 0x%X", uint64(info.RenderPass))
		return vk.ERROR_UNKNOWN
	}
	if len(info.Attachments) != len(rp.info.Attachments) {
		d.validationError("CreateFramebuffer: %d attachments given, render pass has %d", len(info.Attachments), len(rp.info.Attachments))
		return vk.ERROR_INITIALIZATION_FAILED
	}
	for _, v := range info.Attachments {
		if _, ok := lookup[imageView](d, uint64(v)); !ok {
			d.validationError("CreateFramebuffer: invalid image view 0x%X", uint64(v))
			return vk.ERROR_UNKNOWN
		}
	}
	fb := &framebuffer{info: *info}
	fb.info.Attachments = append([]vk.ImageView(nil), info.Attachments...)
	*out = vk.Framebuffer(d.newHandle(fb))
	return vk.SUCCESS
}

func (d *Driver) DestroyFramebuffer(h vk.Framebuffer) {
	d.lock()
	defer d.mu.Unlock()
	if _, ok := lookup[framebuffer](d, uint64(h)); !ok {
		d.validationError("DestroyFramebuffer: invalid handle 0x%X", uint64(h))
		return
	}
	d.release(uint64(h))
}

func (d *Driver) CreatePipelineLayout(info *vk.PipelineLayoutCreateInfo, out *vk.PipelineLayout) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	for _, l := range info.SetLayouts {
		if _, ok := lookup[setLayout](d, uint64(l)); !ok {
			d.validationError("CreatePipelineLayout: invalid set layout 0x%X", uint64(l))
			return vk.ERROR_UNKNOWN
		}
	}
	*out = vk.PipelineLayout(d.newHandle(&pipelineLayout{info: *info}))
	return vk.SUCCESS
}

func (d *Driver) DestroyPipelineLayout(h vk.PipelineLayout) {
	d.lock()
	defer d.mu.Unlock()
	if _, ok := lookup[pipelineLayout](d, uint64(h)); !ok {
		d.validationError("DestroyPipelineLayout: invalid handle 0x%X", uint64(h))
		return
	}
	d.release(uint64(h))
}

func (d *Driver) checkStage(s vk.PipelineShaderStageCreateInfo) bool {
	if _, ok := lookup[shaderModule](d, uint64(s.Module)); !ok {
		d.validationError("invalid shader module 0x%X", uint64(s.Module))
		return false
	}
	if s.Name == "" {
		d.validationError("shader stage 0x%X has no entry point", uint32(s.Stage))
		return false
	}
	return true
}

func (d *Driver) CreateGraphicsPipeline(info *vk.GraphicsPipelineCreateInfo, out *vk.Pipeline) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	for _, s := range info.Stages {
		if !d.checkStage(s) {
			return vk.ERROR_INITIALIZATION_FAILED
		}
	}
	rp, ok := lookup[renderPass](d, uint64(info.RenderPass))
	if !ok {
		d.validationError("CreateGraphicsPipeline: invalid render pass 0x%X", uint64(info.RenderPass))
		return vk.ERROR_UNKNOWN
	}
	if len(info.ColorBlend) != len(rp.info.ColorAttachments) {
		d.validationError("CreateGraphicsPipeline: %d blend states for %d color attachments", len(info.ColorBlend), len(rp.info.ColorAttachments))
		return vk.ERROR_INITIALIZATION_FAILED
	}
	if _, ok := lookup[pipelineLayout](d, uint64(info.Layout)); !ok {
		d.validationError("CreateGraphicsPipeline: invalid layout 0x%X", uint64(info.Layout))
		return vk.ERROR_UNKNOWN
	}
	*out = vk.Pipeline(d.newHandle(&pipeline{bindPoint: vk.PIPELINE_BIND_POINT_GRAPHICS, layout: info.Layout}))
	return vk.SUCCESS
}

func (d *Driver) CreateComputePipeline(info *vk.ComputePipelineCreateInfo, out *vk.Pipeline) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	if !d.checkStage(info.Stage) {
		return vk.ERROR_INITIALIZATION_FAILED
	}
	if _, ok := lookup[pipelineLayout](d, uint64(info.Layout)); !ok {
		d.validationError("CreateComputePipeline: invalid layout 0x%X", uint64(info.Layout))
		return vk.ERROR_UNKNOWN
	}
	*out = vk.Pipeline(d.newHandle(&pipeline{bindPoint: vk.PIPELINE_BIND_POINT_COMPUTE, layout: info.Layout}))
	return vk.SUCCESS
}

func (d *Driver) DestroyPipeline(h vk.Pipeline) {
	d.lock()
	defer d.mu.Unlock()
	if _, ok := lookup[pipeline](d, uint64(h)); !ok {
		d.validationError("DestroyPipeline: invalid handle 0x%X", uint64(h))
		return
	}
	d.release(uint64(h))
}

func (d *Driver) CreateCommandPool(info *vk.CommandPoolCreateInfo, out *vk.CommandPool) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	*out = vk.CommandPool(d.newHandle(&commandPool{info: *info, buffers: map[vk.CommandBuffer]struct{}{}}))
	return vk.SUCCESS
}

func (d *Driver) DestroyCommandPool(h vk.CommandPool) {
	d.lock()
	defer d.mu.Unlock()
	p, ok := lookup[commandPool](d, uint64(h))
	if !ok {
		d.validationError("DestroyCommandPool: invalid handle 0x%X", uint64(h))
		return
	}
	for cb := range p.buffers {
		d.release(uint64(cb))
	}
	d.release(uint64(h))
}

func (d *Driver) ResetCommandPool(h vk.CommandPool) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	p, ok := lookup[commandPool](d, uint64(h))
	if !ok {
		d.validationError("ResetCommandPool: invalid handle 0x%X", uint64(h))
		return vk.ERROR_UNKNOWN
	}
	for h := range p.buffers {
		if cb, ok := lookup[commandBuffer](d, uint64(h)); ok {
			cb.state, cb.ops, cb.inRenderPass = cbInitial, nil, false
		}
	}
	return vk.SUCCESS
}

func (d *Driver) AllocateCommandBuffer(ph vk.CommandPool, out *vk.CommandBuffer) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	p, ok := lookup[commandPool](d, uint64(ph))
	if !ok {
		d.validationError("AllocateCommandBuffer: invalid pool 0x%X", uint64(ph))
		return vk.ERROR_UNKNOWN
	}
	cb := vk.CommandBuffer(d.newHandle(&commandBuffer{pool: ph}))
	p.buffers[cb] = struct{}{}
	*out = cb
	return vk.SUCCESS
}

func (d *Driver) FreeCommandBuffer(ph vk.CommandPool, h vk.CommandBuffer) {
	d.lock()
	defer d.mu.Unlock()
	p, ok := lookup[commandPool](d, uint64(ph))
	cb, cbok := lookup[commandBuffer](d, uint64(h))
	if !ok || !cbok || cb.pool != ph {
		d.validationError("FreeCommandBuffer: command buffer 0x%X does not belong to pool 0x%X", uint64(h), uint64(ph))
		return
	}
	delete(p.buffers, h)
	d.release(uint64(h))
}

func (d *Driver) BeginCommandBuffer(h vk.CommandBuffer, oneTimeSubmit bool) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	cb, ok := lookup[commandBuffer](d, uint64(h))
	if !ok {
		d.validationError("BeginCommandBuffer: invalid handle 0x%X", uint64(h))
		return vk.ERROR_UNKNOWN
	}
	if cb.state == cbRecording {
		d.validationError("BeginCommandBuffer: 0x%X is already recording", uint64(h))
		return vk.ERROR_UNKNOWN
	}
	cb.state, cb.ops, cb.oneTimeSubmit, cb.inRenderPass = cbRecording, nil, oneTimeSubmit, false
	return vk.SUCCESS
}

func (d *Driver) EndCommandBuffer(h vk.CommandBuffer) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	cb, ok := lookup[commandBuffer](d, uint64(h))
	if !ok || cb.state != cbRecording {
		d.validationError("EndCommandBuffer: 0x%X is not recording", uint64(h))
		return vk.ERROR_UNKNOWN
	}
	if cb.inRenderPass {
		d.validationError("EndCommandBuffer: 0x%X has an active render pass", uint64(h))
		return vk.ERROR_UNKNOWN
	}
	cb.state = cbExecutable
	return vk.SUCCESS
}

func (d *Driver) ResetCommandBuffer(h vk.CommandBuffer) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	cb, ok := lookup[commandBuffer](d, uint64(h))
	if !ok {
		d.validationError("ResetCommandBuffer: invalid handle 0x%X", uint64(h))
		return vk.ERROR_UNKNOWN
	}
	cb.state, cb.ops, cb.inRenderPass = cbInitial, nil, false
	return vk.SUCCESS
}

// record appends op to a recording command buffer, op runs on the queue goroutine with the driver locked.
func (d *Driver) record(name string, h vk.CommandBuffer, op func()) *commandBuffer {
	d.lock()
	defer d.mu.Unlock()
	cb, ok := lookup[commandBuffer](d, uint64(h))
	if !ok || cb.state != cbRecording {
		d.validationError("%s: command buffer 0x%X is not recording", name, uint64(h))
		return nil
	}
	cb.ops = append(cb.ops, op)
	return cb
}

func (d *Driver) CmdPipelineBarrier(h vk.CommandBuffer, src, dst vk.PipelineStageFlags, barriers []vk.ImageMemoryBarrier) {
	barriers = append([]vk.ImageMemoryBarrier(nil), barriers...)
	d.record("CmdPipelineBarrier", h, func() {
		for _, b := range barriers {
			img, ok := lookup[image](d, uint64(b.Image))
			if !ok {
				d.validationError("CmdPipelineBarrier: invalid image 0x%X", uint64(b.Image))
				continue
			}
			if b.OldLayout != vk.IMAGE_LAYOUT_UNDEFINED && b.OldLayout != img.layout {
				d.validationError("CmdPipelineBarrier: image 0x%X is in layout %d, barrier expects %d", uint64(b.Image), img.layout, b.OldLayout)
			}
			img.layout = b.NewLayout
		}
	})
}

func (d *Driver) CmdCopyBuffer(h vk.CommandBuffer, src, dst vk.Buffer, regions []vk.BufferCopy) {
	regions = append([]vk.BufferCopy(nil), regions...)
	d.record("CmdCopyBuffer", h, func() {
		s, sok := lookup[buffer](d, uint64(src))
		t, tok := lookup[buffer](d, uint64(dst))
		if !sok || !tok {
			d.validationError("CmdCopyBuffer: invalid buffer")
			return
		}
		for _, r := range regions {
			if r.SrcOffset+r.Size > s.info.Size || r.DstOffset+r.Size > t.info.Size {
				d.validationError("CmdCopyBuffer: region out of range")
				continue
			}
			copy(t.bytes()[r.DstOffset:r.DstOffset+r.Size], s.bytes()[r.SrcOffset:r.SrcOffset+r.Size])
		}
	})
}

func (d *Driver) CmdCopyBufferToImage(h vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, regions []vk.BufferImageCopy) {
	regions = append([]vk.BufferImageCopy(nil), regions...)
	d.record("CmdCopyBufferToImage", h, func() {
		s, sok := lookup[buffer](d, uint64(src))
		img, iok := lookup[image](d, uint64(dst))
		if !sok || !iok {
			d.validationError("CmdCopyBufferToImage: invalid handle")
			return
		}
		if img.layout != layout || layout != vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL {
			d.validationError("CmdCopyBufferToImage: image 0x%X is in layout %d, copy expects %d", uint64(dst), img.layout, layout)
		}
		bpp := vk.FormatSize(img.info.Format)
		ie := img.info.Extent
		from, to := s.bytes(), img.bytes()
		for _, r := range regions {
			row := uint64(r.ImageExtent.Width) * bpp
			for z := uint64(0); z < uint64(max(r.ImageExtent.Depth, 1)); z++ {
				for y := uint64(0); y < uint64(r.ImageExtent.Height); y++ {
					so := r.BufferOffset + (z*uint64(r.ImageExtent.Height)+y)*row
					do := ((uint64(r.ImageOffset.Z)+z)*uint64(ie.Height)+uint64(r.ImageOffset.Y)+y)*uint64(ie.Width)*bpp +
						uint64(r.ImageOffset.X)*bpp
					if so+row > uint64(len(from)) || do+row > uint64(len(to)) {
						d.validationError("CmdCopyBufferToImage: region out of range")
						return
					}
					copy(to[do:do+row], from[so:so+row])
				}
			}
		}
	})
}

func packColor(f vk.Format, c [4]float32) []byte {
	unorm := func(v float32) byte {
		return byte(math.Round(float64(min(max(v, 0), 1)) * 255))
	}
	switch f {
	case vk.FORMAT_R8G8B8A8_UNORM, vk.FORMAT_R8G8B8A8_SRGB:
		return []byte{unorm(c[0]), unorm(c[1]), unorm(c[2]), unorm(c[3])}
	case vk.FORMAT_B8G8R8A8_UNORM, vk.FORMAT_B8G8R8A8_SRGB:
		return []byte{unorm(c[2]), unorm(c[1]), unorm(c[0]), unorm(c[3])}
	case vk.FORMAT_R32_SFLOAT:
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(c[0]))
	}
	return nil
}

func (d *Driver) CmdBeginRenderPass(h vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	begin := *info
	begin.ClearValues = append([]vk.ClearValue(nil), info.ClearValues...)
	cb := d.record("CmdBeginRenderPass", h, func() {
		d.stats.LastRenderPassBegin = begin
		rp, rok := lookup[renderPass](d, uint64(begin.RenderPass))
		fb, fok := lookup[framebuffer](d, uint64(begin.Framebuffer))
		if !rok || !fok {
			d.validationError("CmdBeginRenderPass: invalid handle")
			return
		}
		if fb.info.RenderPass != begin.RenderPass {
			d.validationError("CmdBeginRenderPass: framebuffer 0x%X was created for another render pass", uint64(begin.Framebuffer))
		}
		for i, a := range rp.info.Attachments {
			v, _ := lookup[imageView](d, uint64(fb.info.Attachments[i]))
			if v == nil {
				continue
			}
			img, _ := lookup[image](d, uint64(v.image))
			if img == nil {
				continue
			}
			if a.LoadOp == vk.ATTACHMENT_LOAD_OP_CLEAR {
				if i >= len(begin.ClearValues) {
					d.validationError("CmdBeginRenderPass: attachment %d clears but only %d clear values given", i, len(begin.ClearValues))
					continue
				}
				if px := packColor(img.info.Format, begin.ClearValues[i].Color); px != nil {
					data := img.bytes()
					for o := 0; o+len(px) <= len(data); o += len(px) {
						copy(data[o:], px)
					}
				}
			}
			img.layout = a.FinalLayout
		}
	})
	if cb != nil {
		d.mu.Lock()
		if cb.inRenderPass {
			d.validationError("CmdBeginRenderPass: render pass already active")
		}
		cb.inRenderPass = true
		d.mu.Unlock()
	}
}

func (d *Driver) CmdEndRenderPass(h vk.CommandBuffer) {
	cb := d.record("CmdEndRenderPass", h, func() {})
	if cb != nil {
		d.mu.Lock()
		if !cb.inRenderPass {
			d.validationError("CmdEndRenderPass: no active render pass")
		}
		cb.inRenderPass = false
		d.mu.Unlock()
	}
}

func (d *Driver) CmdBindPipeline(h vk.CommandBuffer, bindPoint vk.PipelineBindPoint, p vk.Pipeline) {
	d.record("CmdBindPipeline", h, func() {
		if pl, ok := lookup[pipeline](d, uint64(p)); !ok || pl.bindPoint != bindPoint {
			d.validationError("CmdBindPipeline: pipeline 0x%X cannot bind to point %d", uint64(p), bindPoint)
		}
	})
}

func (d *Driver) CmdBindDescriptorSets(h vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	sets = append([]vk.DescriptorSet(nil), sets...)
	d.record("CmdBindDescriptorSets", h, func() {
		for _, s := range sets {
			if _, ok := lookup[descriptorSet](d, uint64(s)); !ok {
				d.validationError("CmdBindDescriptorSets: invalid set 0x%X", uint64(s))
			}
		}
	})
}

func (d *Driver) CmdBindVertexBuffers(h vk.CommandBuffer, firstBinding uint32, buffers []vk.Buffer, offsets []uint64) {
	buffers = append([]vk.Buffer(nil), buffers...)
	d.record("CmdBindVertexBuffers", h, func() {
		for _, b := range buffers {
			if _, ok := lookup[buffer](d, uint64(b)); !ok {
				d.validationError("CmdBindVertexBuffers: invalid buffer 0x%X", uint64(b))
			}
		}
	})
}

func (d *Driver) CmdBindIndexBuffer(h vk.CommandBuffer, b vk.Buffer, offset uint64, indexType vk.IndexType) {
	d.record("CmdBindIndexBuffer", h, func() {
		if _, ok := lookup[buffer](d, uint64(b)); !ok {
			d.validationError("CmdBindIndexBuffer: invalid buffer 0x%X", uint64(b))
		}
	})
}

func (d *Driver) CmdSetViewport(h vk.CommandBuffer, v vk.Viewport) {
	d.record("CmdSetViewport", h, func() {})
}

func (d *Driver) CmdSetScissor(h vk.CommandBuffer, r vk.Rect2D) {
	d.record("CmdSetScissor", h, func() {})
}

func (d *Driver) CmdDraw(h vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	d.record("CmdDraw", h, func() { d.stats.Draws++ })
}

func (d *Driver) CmdDrawIndexed(h vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	d.record("CmdDrawIndexed", h, func() { d.stats.Draws++ })
}

func (d *Driver) CmdDispatch(h vk.CommandBuffer, x, y, z uint32) {
	d.record("CmdDispatch", h, func() { d.stats.Dispatches++ })
}

func (d *Driver) CmdPushConstants(h vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte) {
	size := uint32(len(data))
	d.record("CmdPushConstants", h, func() {
		l, ok := lookup[pipelineLayout](d, uint64(layout))
		if !ok {
			d.validationError("CmdPushConstants: invalid layout 0x%X", uint64(layout))
			return
		}
		for _, r := range l.info.PushConstantRanges {
			if r.StageFlags&stages == stages && offset >= r.Offset && offset+size <= r.Offset+r.Size {
				return
			}
		}
		d.validationError("CmdPushConstants: range [%d, %d) not covered by layout 0x%X", offset, offset+size, uint64(layout))
	})
}
