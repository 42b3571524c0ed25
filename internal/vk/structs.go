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

package vk

type Extent2D struct {
	Width  uint32
	Height uint32
}

type Extent3D struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

type Offset2D struct {
	X int32
	Y int32
}

type Offset3D struct {
	X int32
	Y int32
	Z int32
}

type Rect2D struct {
	Offset Offset2D
	Extent Extent2D
}

type Viewport struct {
	X        float32
	Y        float32
	Width    float32
	Height   float32
	MinDepth float32
	MaxDepth float32
}

type PhysicalDeviceProperties struct {
	APIVersion        uint32
	DriverVersion     uint32
	VendorID          uint32
	DeviceID          uint32
	DeviceType        uint32
	DeviceName        string
	PipelineCacheUUID [16]byte
}

type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
	HeapIndex     uint32
}

type MemoryHeap struct {
	Size  uint64
	Flags uint32
}

type PhysicalDeviceMemoryProperties struct {
	MemoryTypes []MemoryType
	MemoryHeaps []MemoryHeap
}

type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

type MemoryAllocateInfo struct {
	AllocationSize  uint64
	MemoryTypeIndex uint32
}

type BufferCreateInfo struct {
	Size  uint64
	Usage BufferUsageFlags
}

type ImageCreateInfo struct {
	Format      Format
	Extent      Extent3D
	MipLevels   uint32
	ArrayLayers uint32
	Usage       ImageUsageFlags
}

type ImageViewCreateInfo struct {
	Image  Image
	Format Format
	Aspect ImageAspectFlags
}

type SamplerCreateInfo struct {
	MagFilter        Filter
	MinFilter        Filter
	MipmapMode       SamplerMipmapMode
	AddressModeU     SamplerAddressMode
	AddressModeV     SamplerAddressMode
	AddressModeW     SamplerAddressMode
	AnisotropyEnable bool
	MaxAnisotropy    float32
	MinLod           float32
	MaxLod           float32
}

type ShaderModuleCreateInfo struct {
	Code []byte
}

type DescriptorSetLayoutBinding struct {
	Binding         uint32
	DescriptorType  DescriptorType
	DescriptorCount uint32
	StageFlags      ShaderStageFlags
}

type DescriptorSetLayoutCreateInfo struct {
	Bindings []DescriptorSetLayoutBinding
}

type DescriptorPoolSize struct {
	Type            DescriptorType
	DescriptorCount uint32
}

type DescriptorPoolCreateInfo struct {
	FreeDescriptorSet bool
	MaxSets           uint32
	PoolSizes         []DescriptorPoolSize
}

type DescriptorImageInfo struct {
	Sampler     Sampler
	ImageView   ImageView
	ImageLayout ImageLayout
}

type DescriptorBufferInfo struct {
	Buffer Buffer
	Offset uint64
	Range  uint64
}

type WriteDescriptorSet struct {
	DstSet          DescriptorSet
	DstBinding      uint32
	DstArrayElement uint32
	DescriptorType  DescriptorType
	ImageInfo       []DescriptorImageInfo
	BufferInfo      []DescriptorBufferInfo
}

type AttachmentDescription struct {
	Format         Format
	LoadOp         AttachmentLoadOp
	StoreOp        AttachmentStoreOp
	StencilLoadOp  AttachmentLoadOp
	StencilStoreOp AttachmentStoreOp
	InitialLayout  ImageLayout
	FinalLayout    ImageLayout
}

type AttachmentReference struct {
	Attachment uint32
	Layout     ImageLayout
}

// RenderPassCreateInfo describes a single subpass render pass.
type RenderPassCreateInfo struct {
	Attachments            []AttachmentDescription
	ColorAttachments       []AttachmentReference
	DepthStencilAttachment *AttachmentReference
}

type FramebufferCreateInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Width       uint32
	Height      uint32
	Layers      uint32
}

type PushConstantRange struct {
	StageFlags ShaderStageFlags
	Offset     uint32
	Size       uint32
}

type PipelineLayoutCreateInfo struct {
	SetLayouts         []DescriptorSetLayout
	PushConstantRanges []PushConstantRange
}

type PipelineShaderStageCreateInfo struct {
	Stage  ShaderStageFlags
	Module ShaderModule
	Name   string
}

type VertexInputBindingDescription struct {
	Binding   uint32
	Stride    uint32
	InputRate VertexInputRate
}

type VertexInputAttributeDescription struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

type PipelineColorBlendAttachmentState struct {
	BlendEnable         bool
	SrcColorBlendFactor BlendFactor
	DstColorBlendFactor BlendFactor
	ColorBlendOp        BlendOp
	SrcAlphaBlendFactor BlendFactor
	DstAlphaBlendFactor BlendFactor
	AlphaBlendOp        BlendOp
	ColorWriteMask      ColorComponentFlags
}

// GraphicsPipelineCreateInfo flattens the fixed function state, viewport and scissor are always dynamic.
type GraphicsPipelineCreateInfo struct {
	Stages           []PipelineShaderStageCreateInfo
	VertexBindings   []VertexInputBindingDescription
	VertexAttributes []VertexInputAttributeDescription
	Topology         PrimitiveTopology
	PolygonMode      PolygonMode
	CullMode         CullModeFlags
	FrontFace        FrontFace
	LineWidth        float32
	DepthTestEnable  bool
	DepthWriteEnable bool
	DepthCompareOp   CompareOp
	ColorBlend       []PipelineColorBlendAttachmentState
	Layout           PipelineLayout
	RenderPass       RenderPass
	Subpass          uint32
}

type ComputePipelineCreateInfo struct {
	Stage  PipelineShaderStageCreateInfo
	Layout PipelineLayout
}

type CommandPoolCreateInfo struct {
	QueueFamilyIndex   uint32
	Transient          bool
	ResetCommandBuffer bool
}

type ImageMemoryBarrier struct {
	SrcAccessMask AccessFlags
	DstAccessMask AccessFlags
	OldLayout     ImageLayout
	NewLayout     ImageLayout
	Image         Image
	Aspect        ImageAspectFlags
}

type BufferCopy struct {
	SrcOffset uint64
	DstOffset uint64
	Size      uint64
}

type BufferImageCopy struct {
	BufferOffset uint64
	Aspect       ImageAspectFlags
	ImageOffset  Offset3D
	ImageExtent  Extent3D
}

type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

type RenderPassBeginInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	RenderArea  Rect2D
	ClearValues []ClearValue
}

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitDstStageMask []PipelineStageFlags
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

type SurfaceCapabilitiesKHR struct {
	MinImageCount  uint32
	MaxImageCount  uint32
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
}

type SurfaceFormatKHR struct {
	Format     Format
	ColorSpace ColorSpaceKHR
}

type SwapchainCreateInfoKHR struct {
	Surface         SurfaceKHR
	MinImageCount   uint32
	ImageFormat     Format
	ImageColorSpace ColorSpaceKHR
	ImageExtent     Extent2D
	ImageUsage      ImageUsageFlags
	PresentMode     PresentModeKHR
	OldSwapchain    SwapchainKHR
}

type PresentInfoKHR struct {
	WaitSemaphores []Semaphore
	Swapchains     []SwapchainKHR
	ImageIndices   []uint32
}
