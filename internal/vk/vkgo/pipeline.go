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
	gvk "github.com/goki/vulkan"
	"goarrg.com/rhi/xrhi/internal/vk"
)

func attachmentRefs(refs []vk.AttachmentReference) []gvk.AttachmentReference {
	out := make([]gvk.AttachmentReference, len(refs))
	for i, r := range refs {
		out[i] = gvk.AttachmentReference{Attachment: r.Attachment, Layout: gvk.ImageLayout(r.Layout)}
	}
	return out
}

func (d *Driver) CreateRenderPass(info *vk.RenderPassCreateInfo, out *vk.RenderPass) vk.Result {
	attachments := make([]gvk.AttachmentDescription, len(info.Attachments))
	for i, a := range info.Attachments {
		attachments[i] = gvk.AttachmentDescription{
			Format:         gvk.Format(a.Format),
			Samples:        gvk.SampleCount1Bit,
			LoadOp:         gvk.AttachmentLoadOp(a.LoadOp),
			StoreOp:        gvk.AttachmentStoreOp(a.StoreOp),
			StencilLoadOp:  gvk.AttachmentLoadOp(a.StencilLoadOp),
			StencilStoreOp: gvk.AttachmentStoreOp(a.StencilStoreOp),
			InitialLayout:  gvk.ImageLayout(a.InitialLayout),
			FinalLayout:    gvk.ImageLayout(a.FinalLayout),
		}
	}
	subpass := gvk.SubpassDescription{
		PipelineBindPoint:    gvk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(info.ColorAttachments)),
		PColorAttachments:    attachmentRefs(info.ColorAttachments),
	}
	if info.DepthStencilAttachment != nil {
		subpass.PDepthStencilAttachment = &attachmentRefs([]vk.AttachmentReference{*info.DepthStencilAttachment})[0]
	}

	// Orders the layout transition against the previous frame's use of the attachments.
	stages := gvk.PipelineStageFlags(gvk.PipelineStageColorAttachmentOutputBit | gvk.PipelineStageEarlyFragmentTestsBit)
	dependencies := []gvk.SubpassDependency{{
		SrcSubpass:    gvk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  stages,
		DstStageMask:  stages,
		DstAccessMask: gvk.AccessFlags(gvk.AccessColorAttachmentWriteBit | gvk.AccessDepthStencilAttachmentWriteBit),
	}}

	var rp gvk.RenderPass
	r := gvk.CreateRenderPass(d.device, &gvk.RenderPassCreateInfo{
		SType:           gvk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []gvk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}, nil, &rp)
	if r == gvk.Success {
		*out = vk.RenderPass(d.newHandle(rp))
	}
	return result(r)
}

func (d *Driver) DestroyRenderPass(rp vk.RenderPass) {
	if rp == vk.NULL_HANDLE {
		return
	}
	gvk.DestroyRenderPass(d.device, lookup[gvk.RenderPass](d, uint64(rp)), nil)
	d.release(uint64(rp))
}

func (d *Driver) CreateFramebuffer(info *vk.FramebufferCreateInfo, out *vk.Framebuffer) vk.Result {
	views := lookupAll[gvk.ImageView](d, info.Attachments)
	var fb gvk.Framebuffer
	r := gvk.CreateFramebuffer(d.device, &gvk.FramebufferCreateInfo{
		SType:           gvk.StructureTypeFramebufferCreateInfo,
		RenderPass:      lookup[gvk.RenderPass](d, uint64(info.RenderPass)),
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           info.Width,
		Height:          info.Height,
		Layers:          max(info.Layers, 1),
	}, nil, &fb)
	if r == gvk.Success {
		*out = vk.Framebuffer(d.newHandle(fb))
	}
	return result(r)
}

func (d *Driver) DestroyFramebuffer(fb vk.Framebuffer) {
	if fb == vk.NULL_HANDLE {
		return
	}
	gvk.DestroyFramebuffer(d.device, lookup[gvk.Framebuffer](d, uint64(fb)), nil)
	d.release(uint64(fb))
}

func (d *Driver) CreatePipelineLayout(info *vk.PipelineLayoutCreateInfo, out *vk.PipelineLayout) vk.Result {
	setLayouts := lookupAll[gvk.DescriptorSetLayout](d, info.SetLayouts)
	ranges := make([]gvk.PushConstantRange, len(info.PushConstantRanges))
	for i, r := range info.PushConstantRanges {
		ranges[i] = gvk.PushConstantRange{
			StageFlags: gvk.ShaderStageFlags(r.StageFlags),
			Offset:     r.Offset,
			Size:       r.Size,
		}
	}
	var l gvk.PipelineLayout
	r := gvk.CreatePipelineLayout(d.device, &gvk.PipelineLayoutCreateInfo{
		SType:                  gvk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(setLayouts)),
		PSetLayouts:            setLayouts,
		PushConstantRangeCount: uint32(len(ranges)),
		PPushConstantRanges:    ranges,
	}, nil, &l)
	if r == gvk.Success {
		*out = vk.PipelineLayout(d.newHandle(l))
	}
	return result(r)
}

func (d *Driver) DestroyPipelineLayout(l vk.PipelineLayout) {
	if l == vk.NULL_HANDLE {
		return
	}
	gvk.DestroyPipelineLayout(d.device, lookup[gvk.PipelineLayout](d, uint64(l)), nil)
	d.release(uint64(l))
}

func (d *Driver) shaderStage(s vk.PipelineShaderStageCreateInfo) gvk.PipelineShaderStageCreateInfo {
	name := s.Name
	if name == "" {
		name = "main"
	}
	return gvk.PipelineShaderStageCreateInfo{
		SType:  gvk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  gvk.ShaderStageFlagBits(s.Stage),
		Module: lookup[gvk.ShaderModule](d, uint64(s.Module)),
		PName:  safeString(name),
	}
}

func (d *Driver) CreateGraphicsPipeline(info *vk.GraphicsPipelineCreateInfo, out *vk.Pipeline) vk.Result {
	stages := make([]gvk.PipelineShaderStageCreateInfo, len(info.Stages))
	for i, s := range info.Stages {
		stages[i] = d.shaderStage(s)
	}
	bindings := make([]gvk.VertexInputBindingDescription, len(info.VertexBindings))
	for i, b := range info.VertexBindings {
		bindings[i] = gvk.VertexInputBindingDescription{
			Binding:   b.Binding,
			Stride:    b.Stride,
			InputRate: gvk.VertexInputRate(b.InputRate),
		}
	}
	attributes := make([]gvk.VertexInputAttributeDescription, len(info.VertexAttributes))
	for i, a := range info.VertexAttributes {
		attributes[i] = gvk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   gvk.Format(a.Format),
			Offset:   a.Offset,
		}
	}
	blends := make([]gvk.PipelineColorBlendAttachmentState, len(info.ColorBlend))
	for i, b := range info.ColorBlend {
		blends[i] = gvk.PipelineColorBlendAttachmentState{
			BlendEnable:         bool32(b.BlendEnable),
			SrcColorBlendFactor: gvk.BlendFactor(b.SrcColorBlendFactor),
			DstColorBlendFactor: gvk.BlendFactor(b.DstColorBlendFactor),
			ColorBlendOp:        gvk.BlendOp(b.ColorBlendOp),
			SrcAlphaBlendFactor: gvk.BlendFactor(b.SrcAlphaBlendFactor),
			DstAlphaBlendFactor: gvk.BlendFactor(b.DstAlphaBlendFactor),
			AlphaBlendOp:        gvk.BlendOp(b.AlphaBlendOp),
			ColorWriteMask:      gvk.ColorComponentFlags(b.ColorWriteMask),
		}
	}
	dynamic := []gvk.DynamicState{gvk.DynamicStateViewport, gvk.DynamicStateScissor}

	pipelines := make([]gvk.Pipeline, 1)
	r := gvk.CreateGraphicsPipelines(d.device, d.cache, 1, []gvk.GraphicsPipelineCreateInfo{{
		SType:      gvk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &gvk.PipelineVertexInputStateCreateInfo{
			SType:                           gvk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(bindings)),
			PVertexBindingDescriptions:      bindings,
			VertexAttributeDescriptionCount: uint32(len(attributes)),
			PVertexAttributeDescriptions:    attributes,
		},
		PInputAssemblyState: &gvk.PipelineInputAssemblyStateCreateInfo{
			SType:    gvk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: gvk.PrimitiveTopology(info.Topology),
		},
		PViewportState: &gvk.PipelineViewportStateCreateInfo{
			SType:         gvk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &gvk.PipelineRasterizationStateCreateInfo{
			SType:       gvk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: gvk.PolygonMode(info.PolygonMode),
			CullMode:    gvk.CullModeFlags(info.CullMode),
			FrontFace:   gvk.FrontFace(info.FrontFace),
			LineWidth:   max(info.LineWidth, 1),
		},
		PMultisampleState: &gvk.PipelineMultisampleStateCreateInfo{
			SType:                gvk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: gvk.SampleCount1Bit,
		},
		PDepthStencilState: &gvk.PipelineDepthStencilStateCreateInfo{
			SType:            gvk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:  bool32(info.DepthTestEnable),
			DepthWriteEnable: bool32(info.DepthWriteEnable),
			DepthCompareOp:   gvk.CompareOp(info.DepthCompareOp),
		},
		PColorBlendState: &gvk.PipelineColorBlendStateCreateInfo{
			SType:           gvk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: uint32(len(blends)),
			PAttachments:    blends,
		},
		PDynamicState: &gvk.PipelineDynamicStateCreateInfo{
			SType:             gvk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(dynamic)),
			PDynamicStates:    dynamic,
		},
		Layout:     lookup[gvk.PipelineLayout](d, uint64(info.Layout)),
		RenderPass: lookup[gvk.RenderPass](d, uint64(info.RenderPass)),
		Subpass:    info.Subpass,
	}}, nil, pipelines)
	if r == gvk.Success {
		*out = vk.Pipeline(d.newHandle(pipelines[0]))
	}
	return result(r)
}

func (d *Driver) CreateComputePipeline(info *vk.ComputePipelineCreateInfo, out *vk.Pipeline) vk.Result {
	pipelines := make([]gvk.Pipeline, 1)
	r := gvk.CreateComputePipelines(d.device, d.cache, 1, []gvk.ComputePipelineCreateInfo{{
		SType:  gvk.StructureTypeComputePipelineCreateInfo,
		Stage:  d.shaderStage(info.Stage),
		Layout: lookup[gvk.PipelineLayout](d, uint64(info.Layout)),
	}}, nil, pipelines)
	if r == gvk.Success {
		*out = vk.Pipeline(d.newHandle(pipelines[0]))
	}
	return result(r)
}

func (d *Driver) DestroyPipeline(p vk.Pipeline) {
	if p == vk.NULL_HANDLE {
		return
	}
	gvk.DestroyPipeline(d.device, lookup[gvk.Pipeline](d, uint64(p)), nil)
	d.release(uint64(p))
}
