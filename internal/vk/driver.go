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

/*
Driver is one logical device with a single graphics+present queue. Methods mirror the Vulkan entry point of
the same name with the device, allocator and count arguments dropped. Drivers are safe for use from multiple
goroutines, command buffers and the objects they reference are not.
*/
type Driver interface {
	PhysicalDeviceProperties() PhysicalDeviceProperties
	PhysicalDeviceMemoryProperties() PhysicalDeviceMemoryProperties
	QueueFamilyIndex() uint32

	CreateBuffer(*BufferCreateInfo, *Buffer) Result
	DestroyBuffer(Buffer)
	GetBufferMemoryRequirements(Buffer) MemoryRequirements
	BindBufferMemory(Buffer, DeviceMemory, uint64) Result

	CreateImage(*ImageCreateInfo, *Image) Result
	DestroyImage(Image)
	GetImageMemoryRequirements(Image) MemoryRequirements
	BindImageMemory(Image, DeviceMemory, uint64) Result
	CreateImageView(*ImageViewCreateInfo, *ImageView) Result
	DestroyImageView(ImageView)

	AllocateMemory(*MemoryAllocateInfo, *DeviceMemory) Result
	FreeMemory(DeviceMemory)
	// MapMemory returns a slice aliasing the mapped range, it is invalid after UnmapMemory.
	MapMemory(mem DeviceMemory, offset, size uint64, data *[]byte) Result
	UnmapMemory(DeviceMemory)
	FlushMappedMemoryRange(mem DeviceMemory, offset, size uint64) Result
	InvalidateMappedMemoryRange(mem DeviceMemory, offset, size uint64) Result

	CreateSampler(*SamplerCreateInfo, *Sampler) Result
	DestroySampler(Sampler)
	CreateShaderModule(*ShaderModuleCreateInfo, *ShaderModule) Result
	DestroyShaderModule(ShaderModule)

	CreateDescriptorSetLayout(*DescriptorSetLayoutCreateInfo, *DescriptorSetLayout) Result
	DestroyDescriptorSetLayout(DescriptorSetLayout)
	CreateDescriptorPool(*DescriptorPoolCreateInfo, *DescriptorPool) Result
	DestroyDescriptorPool(DescriptorPool)
	ResetDescriptorPool(DescriptorPool) Result
	AllocateDescriptorSet(DescriptorPool, DescriptorSetLayout, *DescriptorSet) Result
	FreeDescriptorSet(DescriptorPool, DescriptorSet) Result
	UpdateDescriptorSets([]WriteDescriptorSet)

	CreateRenderPass(*RenderPassCreateInfo, *RenderPass) Result
	DestroyRenderPass(RenderPass)
	CreateFramebuffer(*FramebufferCreateInfo, *Framebuffer) Result
	DestroyFramebuffer(Framebuffer)
	CreatePipelineLayout(*PipelineLayoutCreateInfo, *PipelineLayout) Result
	DestroyPipelineLayout(PipelineLayout)
	CreateGraphicsPipeline(*GraphicsPipelineCreateInfo, *Pipeline) Result
	CreateComputePipeline(*ComputePipelineCreateInfo, *Pipeline) Result
	DestroyPipeline(Pipeline)

	CreateCommandPool(*CommandPoolCreateInfo, *CommandPool) Result
	DestroyCommandPool(CommandPool)
	ResetCommandPool(CommandPool) Result
	AllocateCommandBuffer(CommandPool, *CommandBuffer) Result
	FreeCommandBuffer(CommandPool, CommandBuffer)
	BeginCommandBuffer(cb CommandBuffer, oneTimeSubmit bool) Result
	EndCommandBuffer(CommandBuffer) Result
	ResetCommandBuffer(CommandBuffer) Result

	CmdPipelineBarrier(cb CommandBuffer, src, dst PipelineStageFlags, barriers []ImageMemoryBarrier)
	CmdCopyBuffer(cb CommandBuffer, src, dst Buffer, regions []BufferCopy)
	CmdCopyBufferToImage(cb CommandBuffer, src Buffer, dst Image, layout ImageLayout, regions []BufferImageCopy)
	CmdBeginRenderPass(CommandBuffer, *RenderPassBeginInfo)
	CmdEndRenderPass(CommandBuffer)
	CmdBindPipeline(CommandBuffer, PipelineBindPoint, Pipeline)
	CmdBindDescriptorSets(cb CommandBuffer, bindPoint PipelineBindPoint, layout PipelineLayout, firstSet uint32, sets []DescriptorSet)
	CmdBindVertexBuffers(cb CommandBuffer, firstBinding uint32, buffers []Buffer, offsets []uint64)
	CmdBindIndexBuffer(cb CommandBuffer, buffer Buffer, offset uint64, indexType IndexType)
	CmdSetViewport(CommandBuffer, Viewport)
	CmdSetScissor(CommandBuffer, Rect2D)
	CmdDraw(cb CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdDrawIndexed(cb CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	CmdDispatch(cb CommandBuffer, x, y, z uint32)
	CmdPushConstants(cb CommandBuffer, layout PipelineLayout, stages ShaderStageFlags, offset uint32, data []byte)

	CreateSemaphore(*Semaphore) Result
	DestroySemaphore(Semaphore)
	CreateFence(signaled bool, fence *Fence) Result
	DestroyFence(Fence)
	WaitForFences(fences []Fence, timeout uint64) Result
	ResetFences([]Fence) Result
	GetFenceStatus(Fence) Result

	QueueSubmit([]SubmitInfo, Fence) Result
	QueueWaitIdle() Result
	DeviceWaitIdle() Result

	// CreateSurface accepts the platform window, drivers document which window types they understand.
	CreateSurface(window any, surface *SurfaceKHR) Result
	DestroySurface(SurfaceKHR)
	GetSurfaceCapabilities(SurfaceKHR, *SurfaceCapabilitiesKHR) Result
	GetSurfaceFormats(SurfaceKHR) ([]SurfaceFormatKHR, Result)
	GetSurfacePresentModes(SurfaceKHR) ([]PresentModeKHR, Result)
	CreateSwapchain(*SwapchainCreateInfoKHR, *SwapchainKHR) Result
	DestroySwapchain(SwapchainKHR)
	GetSwapchainImages(SwapchainKHR) ([]Image, Result)
	AcquireNextImage(swapchain SwapchainKHR, timeout uint64, semaphore Semaphore, fence Fence, index *uint32) Result
	QueuePresent(*PresentInfoKHR) Result

	Destroy()
}
