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

/*
Package vk is the Vulkan shaped surface every native driver implements. Handles are opaque 64 bit values
owned by the driver that produced them, enum values match the Vulkan registry so drivers over the real API can
cast them directly.
*/
package vk

import "fmt"

type (
	Buffer              uint64
	DeviceMemory        uint64
	Image               uint64
	ImageView           uint64
	Sampler             uint64
	ShaderModule        uint64
	DescriptorSetLayout uint64
	DescriptorPool      uint64
	DescriptorSet       uint64
	RenderPass          uint64
	Framebuffer         uint64
	PipelineLayout      uint64
	Pipeline            uint64
	CommandPool         uint64
	CommandBuffer       uint64
	Semaphore           uint64
	Fence               uint64
	SurfaceKHR          uint64
	SwapchainKHR        uint64
)

const (
	NULL_HANDLE = 0
	TRUE        = 1
	FALSE       = 0
	MAX_UINT32  = ^uint32(0)
	MAX_UINT64  = ^uint64(0)
	WHOLE_SIZE  = ^uint64(0)
)

type Format uint32

const (
	FORMAT_UNDEFINED           Format = 0
	FORMAT_R8_UNORM            Format = 9
	FORMAT_R8G8_UNORM          Format = 16
	FORMAT_R8G8B8A8_UNORM      Format = 37
	FORMAT_R8G8B8A8_SRGB       Format = 43
	FORMAT_B8G8R8A8_UNORM      Format = 44
	FORMAT_B8G8R8A8_SRGB       Format = 50
	FORMAT_R16G16B16A16_SFLOAT Format = 97
	FORMAT_R32_SFLOAT          Format = 100
	FORMAT_R32G32_SFLOAT       Format = 103
	FORMAT_R32G32B32_SFLOAT    Format = 106
	FORMAT_R32G32B32A32_SFLOAT Format = 109
	FORMAT_D16_UNORM           Format = 124
	FORMAT_D32_SFLOAT          Format = 126
	FORMAT_D24_UNORM_S8_UINT   Format = 129
	FORMAT_D32_SFLOAT_S8_UINT  Format = 130
)

// FormatSize returns the texel block size in bytes, 0 for unknown formats.
func FormatSize(f Format) uint64 {
	switch f {
	case FORMAT_R8_UNORM:
		return 1
	case FORMAT_R8G8_UNORM, FORMAT_D16_UNORM:
		return 2
	case FORMAT_R8G8B8A8_UNORM, FORMAT_R8G8B8A8_SRGB, FORMAT_B8G8R8A8_UNORM, FORMAT_B8G8R8A8_SRGB,
		FORMAT_R32_SFLOAT, FORMAT_D32_SFLOAT, FORMAT_D24_UNORM_S8_UINT:
		return 4
	case FORMAT_R16G16B16A16_SFLOAT, FORMAT_R32G32_SFLOAT, FORMAT_D32_SFLOAT_S8_UINT:
		return 8
	case FORMAT_R32G32B32_SFLOAT:
		return 12
	case FORMAT_R32G32B32A32_SFLOAT:
		return 16
	}
	return 0
}

type ColorSpaceKHR uint32

const COLOR_SPACE_SRGB_NONLINEAR_KHR ColorSpaceKHR = 0

type PresentModeKHR uint32

const (
	PRESENT_MODE_IMMEDIATE_KHR    PresentModeKHR = 0
	PRESENT_MODE_MAILBOX_KHR      PresentModeKHR = 1
	PRESENT_MODE_FIFO_KHR         PresentModeKHR = 2
	PRESENT_MODE_FIFO_RELAXED_KHR PresentModeKHR = 3
)

func (m PresentModeKHR) String() string {
	switch m {
	case PRESENT_MODE_IMMEDIATE_KHR:
		return "VK_PRESENT_MODE_IMMEDIATE_KHR"
	case PRESENT_MODE_MAILBOX_KHR:
		return "VK_PRESENT_MODE_MAILBOX_KHR"
	case PRESENT_MODE_FIFO_KHR:
		return "VK_PRESENT_MODE_FIFO_KHR"
	case PRESENT_MODE_FIFO_RELAXED_KHR:
		return "VK_PRESENT_MODE_FIFO_RELAXED_KHR"
	default:
		return fmt.Sprintf("VkPresentModeKHR(%d)", uint32(m))
	}
}

type ImageLayout uint32

const (
	IMAGE_LAYOUT_UNDEFINED                        ImageLayout = 0
	IMAGE_LAYOUT_GENERAL                          ImageLayout = 1
	IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL         ImageLayout = 2
	IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT_OPTIMAL ImageLayout = 3
	IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL         ImageLayout = 5
	IMAGE_LAYOUT_TRANSFER_SRC_OPTIMAL             ImageLayout = 6
	IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL             ImageLayout = 7
	IMAGE_LAYOUT_PRESENT_SRC_KHR                  ImageLayout = 1000001002
)

type BufferUsageFlags uint32

const (
	BUFFER_USAGE_TRANSFER_SRC_BIT         BufferUsageFlags = 0x00000001
	BUFFER_USAGE_TRANSFER_DST_BIT         BufferUsageFlags = 0x00000002
	BUFFER_USAGE_UNIFORM_TEXEL_BUFFER_BIT BufferUsageFlags = 0x00000004
	BUFFER_USAGE_STORAGE_TEXEL_BUFFER_BIT BufferUsageFlags = 0x00000008
	BUFFER_USAGE_UNIFORM_BUFFER_BIT       BufferUsageFlags = 0x00000010
	BUFFER_USAGE_STORAGE_BUFFER_BIT       BufferUsageFlags = 0x00000020
	BUFFER_USAGE_INDEX_BUFFER_BIT         BufferUsageFlags = 0x00000040
	BUFFER_USAGE_VERTEX_BUFFER_BIT        BufferUsageFlags = 0x00000080
	BUFFER_USAGE_INDIRECT_BUFFER_BIT      BufferUsageFlags = 0x00000100
)

type ImageUsageFlags uint32

const (
	IMAGE_USAGE_TRANSFER_SRC_BIT             ImageUsageFlags = 0x00000001
	IMAGE_USAGE_TRANSFER_DST_BIT             ImageUsageFlags = 0x00000002
	IMAGE_USAGE_SAMPLED_BIT                  ImageUsageFlags = 0x00000004
	IMAGE_USAGE_STORAGE_BIT                  ImageUsageFlags = 0x00000008
	IMAGE_USAGE_COLOR_ATTACHMENT_BIT         ImageUsageFlags = 0x00000010
	IMAGE_USAGE_DEPTH_STENCIL_ATTACHMENT_BIT ImageUsageFlags = 0x00000020
)

type ImageAspectFlags uint32

const (
	IMAGE_ASPECT_COLOR_BIT   ImageAspectFlags = 0x00000001
	IMAGE_ASPECT_DEPTH_BIT   ImageAspectFlags = 0x00000002
	IMAGE_ASPECT_STENCIL_BIT ImageAspectFlags = 0x00000004
)

type MemoryPropertyFlags uint32

const (
	MEMORY_PROPERTY_DEVICE_LOCAL_BIT     MemoryPropertyFlags = 0x00000001
	MEMORY_PROPERTY_HOST_VISIBLE_BIT     MemoryPropertyFlags = 0x00000002
	MEMORY_PROPERTY_HOST_COHERENT_BIT    MemoryPropertyFlags = 0x00000004
	MEMORY_PROPERTY_HOST_CACHED_BIT      MemoryPropertyFlags = 0x00000008
	MEMORY_PROPERTY_LAZILY_ALLOCATED_BIT MemoryPropertyFlags = 0x00000010
)

type DescriptorType uint32

const (
	DESCRIPTOR_TYPE_SAMPLER                DescriptorType = 0
	DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER DescriptorType = 1
	DESCRIPTOR_TYPE_SAMPLED_IMAGE          DescriptorType = 2
	DESCRIPTOR_TYPE_STORAGE_IMAGE          DescriptorType = 3
	DESCRIPTOR_TYPE_UNIFORM_TEXEL_BUFFER   DescriptorType = 4
	DESCRIPTOR_TYPE_STORAGE_TEXEL_BUFFER   DescriptorType = 5
	DESCRIPTOR_TYPE_UNIFORM_BUFFER         DescriptorType = 6
	DESCRIPTOR_TYPE_STORAGE_BUFFER         DescriptorType = 7
)

type ShaderStageFlags uint32

const (
	SHADER_STAGE_VERTEX_BIT   ShaderStageFlags = 0x00000001
	SHADER_STAGE_FRAGMENT_BIT ShaderStageFlags = 0x00000010
	SHADER_STAGE_COMPUTE_BIT  ShaderStageFlags = 0x00000020
	SHADER_STAGE_ALL_GRAPHICS ShaderStageFlags = 0x0000001F
	SHADER_STAGE_ALL          ShaderStageFlags = 0x7FFFFFFF
)

type PipelineStageFlags uint32

const (
	PIPELINE_STAGE_TOP_OF_PIPE_BIT             PipelineStageFlags = 0x00000001
	PIPELINE_STAGE_VERTEX_INPUT_BIT            PipelineStageFlags = 0x00000004
	PIPELINE_STAGE_VERTEX_SHADER_BIT           PipelineStageFlags = 0x00000008
	PIPELINE_STAGE_FRAGMENT_SHADER_BIT         PipelineStageFlags = 0x00000080
	PIPELINE_STAGE_EARLY_FRAGMENT_TESTS_BIT    PipelineStageFlags = 0x00000100
	PIPELINE_STAGE_LATE_FRAGMENT_TESTS_BIT     PipelineStageFlags = 0x00000200
	PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT PipelineStageFlags = 0x00000400
	PIPELINE_STAGE_COMPUTE_SHADER_BIT          PipelineStageFlags = 0x00000800
	PIPELINE_STAGE_TRANSFER_BIT                PipelineStageFlags = 0x00001000
	PIPELINE_STAGE_BOTTOM_OF_PIPE_BIT          PipelineStageFlags = 0x00002000
	PIPELINE_STAGE_ALL_COMMANDS_BIT            PipelineStageFlags = 0x00010000
)

type AccessFlags uint32

const (
	ACCESS_NONE                           AccessFlags = 0
	ACCESS_SHADER_READ_BIT                AccessFlags = 0x00000020
	ACCESS_SHADER_WRITE_BIT               AccessFlags = 0x00000040
	ACCESS_COLOR_ATTACHMENT_WRITE_BIT     AccessFlags = 0x00000100
	ACCESS_DEPTH_STENCIL_ATTACHMENT_WRITE AccessFlags = 0x00000400
	ACCESS_TRANSFER_READ_BIT              AccessFlags = 0x00000800
	ACCESS_TRANSFER_WRITE_BIT             AccessFlags = 0x00001000
	ACCESS_HOST_WRITE_BIT                 AccessFlags = 0x00004000
)

type AttachmentLoadOp uint32

const (
	ATTACHMENT_LOAD_OP_LOAD      AttachmentLoadOp = 0
	ATTACHMENT_LOAD_OP_CLEAR     AttachmentLoadOp = 1
	ATTACHMENT_LOAD_OP_DONT_CARE AttachmentLoadOp = 2
)

type AttachmentStoreOp uint32

const (
	ATTACHMENT_STORE_OP_STORE     AttachmentStoreOp = 0
	ATTACHMENT_STORE_OP_DONT_CARE AttachmentStoreOp = 1
)

type PipelineBindPoint uint32

const (
	PIPELINE_BIND_POINT_GRAPHICS PipelineBindPoint = 0
	PIPELINE_BIND_POINT_COMPUTE  PipelineBindPoint = 1
)

type IndexType uint32

const (
	INDEX_TYPE_UINT16 IndexType = 0
	INDEX_TYPE_UINT32 IndexType = 1
)

type Filter uint32

const (
	FILTER_NEAREST Filter = 0
	FILTER_LINEAR  Filter = 1
)

type SamplerMipmapMode uint32

const (
	SAMPLER_MIPMAP_MODE_NEAREST SamplerMipmapMode = 0
	SAMPLER_MIPMAP_MODE_LINEAR  SamplerMipmapMode = 1
)

type SamplerAddressMode uint32

const (
	SAMPLER_ADDRESS_MODE_REPEAT          SamplerAddressMode = 0
	SAMPLER_ADDRESS_MODE_MIRRORED_REPEAT SamplerAddressMode = 1
	SAMPLER_ADDRESS_MODE_CLAMP_TO_EDGE   SamplerAddressMode = 2
	SAMPLER_ADDRESS_MODE_CLAMP_TO_BORDER SamplerAddressMode = 3
)

type PrimitiveTopology uint32

const (
	PRIMITIVE_TOPOLOGY_POINT_LIST     PrimitiveTopology = 0
	PRIMITIVE_TOPOLOGY_LINE_LIST      PrimitiveTopology = 1
	PRIMITIVE_TOPOLOGY_LINE_STRIP     PrimitiveTopology = 2
	PRIMITIVE_TOPOLOGY_TRIANGLE_LIST  PrimitiveTopology = 3
	PRIMITIVE_TOPOLOGY_TRIANGLE_STRIP PrimitiveTopology = 4
)

type PolygonMode uint32

const (
	POLYGON_MODE_FILL PolygonMode = 0
	POLYGON_MODE_LINE PolygonMode = 1
)

type CullModeFlags uint32

const (
	CULL_MODE_NONE      CullModeFlags = 0
	CULL_MODE_FRONT_BIT CullModeFlags = 1
	CULL_MODE_BACK_BIT  CullModeFlags = 2
)

type FrontFace uint32

const (
	FRONT_FACE_COUNTER_CLOCKWISE FrontFace = 0
	FRONT_FACE_CLOCKWISE         FrontFace = 1
)

type CompareOp uint32

const (
	COMPARE_OP_NEVER            CompareOp = 0
	COMPARE_OP_LESS             CompareOp = 1
	COMPARE_OP_EQUAL            CompareOp = 2
	COMPARE_OP_LESS_OR_EQUAL    CompareOp = 3
	COMPARE_OP_GREATER          CompareOp = 4
	COMPARE_OP_NOT_EQUAL        CompareOp = 5
	COMPARE_OP_GREATER_OR_EQUAL CompareOp = 6
	COMPARE_OP_ALWAYS           CompareOp = 7
)

type BlendFactor uint32

const (
	BLEND_FACTOR_ZERO                BlendFactor = 0
	BLEND_FACTOR_ONE                 BlendFactor = 1
	BLEND_FACTOR_SRC_ALPHA           BlendFactor = 6
	BLEND_FACTOR_ONE_MINUS_SRC_ALPHA BlendFactor = 7
)

type BlendOp uint32

const (
	BLEND_OP_ADD              BlendOp = 0
	BLEND_OP_SUBTRACT         BlendOp = 1
	BLEND_OP_REVERSE_SUBTRACT BlendOp = 2
	BLEND_OP_MIN              BlendOp = 3
	BLEND_OP_MAX              BlendOp = 4
)

type ColorComponentFlags uint32

const (
	COLOR_COMPONENT_R_BIT ColorComponentFlags = 0x1
	COLOR_COMPONENT_G_BIT ColorComponentFlags = 0x2
	COLOR_COMPONENT_B_BIT ColorComponentFlags = 0x4
	COLOR_COMPONENT_A_BIT ColorComponentFlags = 0x8
	COLOR_COMPONENT_ALL   ColorComponentFlags = 0xF
)

type VertexInputRate uint32

const (
	VERTEX_INPUT_RATE_VERTEX   VertexInputRate = 0
	VERTEX_INPUT_RATE_INSTANCE VertexInputRate = 1
)

const (
	PHYSICAL_DEVICE_TYPE_OTHER          = 0
	PHYSICAL_DEVICE_TYPE_INTEGRATED_GPU = 1
	PHYSICAL_DEVICE_TYPE_DISCRETE_GPU   = 2
	PHYSICAL_DEVICE_TYPE_VIRTUAL_GPU    = 3
	PHYSICAL_DEVICE_TYPE_CPU            = 4
)

func MakeAPIVersion(major, minor, patch uint32) uint32 {
	return (major << 22) | (minor << 12) | patch
}

const (
	API_VERSION_1_0 = 1 << 22
	API_VERSION_1_3 = (1 << 22) | (3 << 12)
)
