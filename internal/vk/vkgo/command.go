//go:build vulkan
// +build vulkan

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

package vkgo

import (
	"unsafe"

	gvk "github.com/goki/vulkan"
	"goarrg.com/rhi/xrhi/internal/vk"
)

func (d *Driver) CreateCommandPool(info *vk.CommandPoolCreateInfo, out *vk.CommandPool) vk.Result {
	var flags gvk.CommandPoolCreateFlags
	if info.Transient {
		flags |= gvk.CommandPoolCreateFlags(gvk.CommandPoolCreateTransientBit)
	}
	if info.ResetCommandBuffer {
		flags |= gvk.CommandPoolCreateFlags(gvk.CommandPoolCreateResetCommandBufferBit)
	}
	var p gvk.CommandPool
	r := gvk.CreateCommandPool(d.device, &gvk.CommandPoolCreateInfo{
		SType:            gvk.StructureTypeCommandPoolCreateInfo,
		Flags:            flags,
		QueueFamilyIndex: info.QueueFamilyIndex,
	}, nil, &p)
	if r == gvk.Success {
		*out = vk.CommandPool(d.newHandle(p))
	}
	return result(r)
}

func (d *Driver) DestroyCommandPool(p vk.CommandPool) {
	if p == vk.NULL_HANDLE {
		return
	}
	gvk.DestroyCommandPool(d.device, lookup[gvk.CommandPool](d, uint64(p)), nil)
	d.release(uint64(p))
}

func (d *Driver) ResetCommandPool(p vk.CommandPool) vk.Result {
	return result(gvk.ResetCommandPool(d.device, lookup[gvk.CommandPool](d, uint64(p)), 0))
}

func (d *Driver) AllocateCommandBuffer(p vk.CommandPool, out *vk.CommandBuffer) vk.Result {
	cbs := make([]gvk.CommandBuffer, 1)
	r := gvk.AllocateCommandBuffers(d.device, &gvk.CommandBufferAllocateInfo{
		SType:              gvk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        lookup[gvk.CommandPool](d, uint64(p)),
		Level:              gvk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, cbs)
	if r == gvk.Success {
		*out = vk.CommandBuffer(d.newHandle(cbs[0]))
	}
	return result(r)
}

func (d *Driver) FreeCommandBuffer(p vk.CommandPool, cb vk.CommandBuffer) {
	if cb == vk.NULL_HANDLE {
		return
	}
	gvk.FreeCommandBuffers(d.device, lookup[gvk.CommandPool](d, uint64(p)), 1,
		[]gvk.CommandBuffer{lookup[gvk.CommandBuffer](d, uint64(cb))})
	d.release(uint64(cb))
}

func (d *Driver) cmd(cb vk.CommandBuffer) gvk.CommandBuffer {
	return lookup[gvk.CommandBuffer](d, uint64(cb))
}

func (d *Driver) BeginCommandBuffer(cb vk.CommandBuffer, oneTimeSubmit bool) vk.Result {
	var flags gvk.CommandBufferUsageFlags
	if oneTimeSubmit {
		flags |= gvk.CommandBufferUsageFlags(gvk.CommandBufferUsageOneTimeSubmitBit)
	}
	return result(gvk.BeginCommandBuffer(d.cmd(cb), &gvk.CommandBufferBeginInfo{
		SType: gvk.StructureTypeCommandBufferBeginInfo,
		Flags: flags,
	}))
}

func (d *Driver) EndCommandBuffer(cb vk.CommandBuffer) vk.Result {
	return result(gvk.EndCommandBuffer(d.cmd(cb)))
}

func (d *Driver) ResetCommandBuffer(cb vk.CommandBuffer) vk.Result {
	return result(gvk.ResetCommandBuffer(d.cmd(cb), 0))
}

func (d *Driver) CmdPipelineBarrier(cb vk.CommandBuffer, src, dst vk.PipelineStageFlags, barriers []vk.ImageMemoryBarrier) {
	out := make([]gvk.ImageMemoryBarrier, len(barriers))
	for i, b := range barriers {
		out[i] = gvk.ImageMemoryBarrier{
			SType:               gvk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       gvk.AccessFlags(b.SrcAccessMask),
			DstAccessMask:       gvk.AccessFlags(b.DstAccessMask),
			OldLayout:           gvk.ImageLayout(b.OldLayout),
			NewLayout:           gvk.ImageLayout(b.NewLayout),
			SrcQueueFamilyIndex: gvk.QueueFamilyIgnored,
			DstQueueFamilyIndex: gvk.QueueFamilyIgnored,
			Image:               d.image(b.Image),
			SubresourceRange: gvk.ImageSubresourceRange{
				AspectMask: gvk.ImageAspectFlags(b.Aspect),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
	}
	gvk.CmdPipelineBarrier(d.cmd(cb), gvk.PipelineStageFlags(src), gvk.PipelineStageFlags(dst), 0,
		0, nil, 0, nil, uint32(len(out)), out)
}

func (d *Driver) CmdCopyBuffer(cb vk.CommandBuffer, src, dst vk.Buffer, regions []vk.BufferCopy) {
	out := make([]gvk.BufferCopy, len(regions))
	for i, r := range regions {
		out[i] = gvk.BufferCopy{
			SrcOffset: gvk.DeviceSize(r.SrcOffset),
			DstOffset: gvk.DeviceSize(r.DstOffset),
			Size:      gvk.DeviceSize(r.Size),
		}
	}
	gvk.CmdCopyBuffer(d.cmd(cb), lookup[gvk.Buffer](d, uint64(src)), lookup[gvk.Buffer](d, uint64(dst)),
		uint32(len(out)), out)
}

func (d *Driver) CmdCopyBufferToImage(cb vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, regions []vk.BufferImageCopy) {
	out := make([]gvk.BufferImageCopy, len(regions))
	for i, r := range regions {
		out[i] = gvk.BufferImageCopy{
			BufferOffset: gvk.DeviceSize(r.BufferOffset),
			ImageSubresource: gvk.ImageSubresourceLayers{
				AspectMask: gvk.ImageAspectFlags(r.Aspect),
				LayerCount: 1,
			},
			ImageOffset: gvk.Offset3D{X: r.ImageOffset.X, Y: r.ImageOffset.Y, Z: r.ImageOffset.Z},
			ImageExtent: gvk.Extent3D{
				Width:  r.ImageExtent.Width,
				Height: r.ImageExtent.Height,
				Depth:  max(r.ImageExtent.Depth, 1),
			},
		}
	}
	gvk.CmdCopyBufferToImage(d.cmd(cb), lookup[gvk.Buffer](d, uint64(src)), d.image(dst),
		gvk.ImageLayout(layout), uint32(len(out)), out)
}

func (d *Driver) CmdBeginRenderPass(cb vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	clears := make([]gvk.ClearValue, len(info.ClearValues))
	for i, c := range info.ClearValues {
		// Attachments ignore the half of the union that does not match their aspect.
		if c.Depth != 0 || c.Stencil != 0 {
			clears[i] = gvk.NewClearDepthStencil(c.Depth, c.Stencil)
		} else {
			clears[i] = gvk.NewClearValue(c.Color[:])
		}
	}
	gvk.CmdBeginRenderPass(d.cmd(cb), &gvk.RenderPassBeginInfo{
		SType:       gvk.StructureTypeRenderPassBeginInfo,
		RenderPass:  lookup[gvk.RenderPass](d, uint64(info.RenderPass)),
		Framebuffer: lookup[gvk.Framebuffer](d, uint64(info.Framebuffer)),
		RenderArea: gvk.Rect2D{
			Offset: gvk.Offset2D{X: info.RenderArea.Offset.X, Y: info.RenderArea.Offset.Y},
			Extent: gvk.Extent2D{Width: info.RenderArea.Extent.Width, Height: info.RenderArea.Extent.Height},
		},
		ClearValueCount: uint32(len(clears)),
		PClearValues:    clears,
	}, gvk.SubpassContentsInline)
}

func (d *Driver) CmdEndRenderPass(cb vk.CommandBuffer) {
	gvk.CmdEndRenderPass(d.cmd(cb))
}

func (d *Driver) CmdBindPipeline(cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, p vk.Pipeline) {
	gvk.CmdBindPipeline(d.cmd(cb), gvk.PipelineBindPoint(bindPoint), lookup[gvk.Pipeline](d, uint64(p)))
}

func (d *Driver) CmdBindDescriptorSets(cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	vsets := lookupAll[gvk.DescriptorSet](d, sets)
	gvk.CmdBindDescriptorSets(d.cmd(cb), gvk.PipelineBindPoint(bindPoint), lookup[gvk.PipelineLayout](d, uint64(layout)),
		firstSet, uint32(len(vsets)), vsets, 0, nil)
}

func (d *Driver) CmdBindVertexBuffers(cb vk.CommandBuffer, firstBinding uint32, buffers []vk.Buffer, offsets []uint64) {
	vbufs := lookupAll[gvk.Buffer](d, buffers)
	voffs := make([]gvk.DeviceSize, len(offsets))
	for i, o := range offsets {
		voffs[i] = gvk.DeviceSize(o)
	}
	gvk.CmdBindVertexBuffers(d.cmd(cb), firstBinding, uint32(len(vbufs)), vbufs, voffs)
}

func (d *Driver) CmdBindIndexBuffer(cb vk.CommandBuffer, buffer vk.Buffer, offset uint64, indexType vk.IndexType) {
	gvk.CmdBindIndexBuffer(d.cmd(cb), lookup[gvk.Buffer](d, uint64(buffer)), gvk.DeviceSize(offset), gvk.IndexType(indexType))
}

func (d *Driver) CmdSetViewport(cb vk.CommandBuffer, v vk.Viewport) {
	gvk.CmdSetViewport(d.cmd(cb), 0, 1, []gvk.Viewport{{
		X:        v.X,
		Y:        v.Y,
		Width:    v.Width,
		Height:   v.Height,
		MinDepth: v.MinDepth,
		MaxDepth: v.MaxDepth,
	}})
}

func (d *Driver) CmdSetScissor(cb vk.CommandBuffer, r vk.Rect2D) {
	gvk.CmdSetScissor(d.cmd(cb), 0, 1, []gvk.Rect2D{{
		Offset: gvk.Offset2D{X: r.Offset.X, Y: r.Offset.Y},
		Extent: gvk.Extent2D{Width: r.Extent.Width, Height: r.Extent.Height},
	}})
}

func (d *Driver) CmdDraw(cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	gvk.CmdDraw(d.cmd(cb), vertexCount, instanceCount, firstVertex, firstInstance)
}

func (d *Driver) CmdDrawIndexed(cb vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	gvk.CmdDrawIndexed(d.cmd(cb), indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func (d *Driver) CmdDispatch(cb vk.CommandBuffer, x, y, z uint32) {
	gvk.CmdDispatch(d.cmd(cb), x, y, z)
}

func (d *Driver) CmdPushConstants(cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	gvk.CmdPushConstants(d.cmd(cb), lookup[gvk.PipelineLayout](d, uint64(layout)), gvk.ShaderStageFlags(stages),
		offset, uint32(len(data)), unsafe.Pointer(unsafe.SliceData(data)))
}
