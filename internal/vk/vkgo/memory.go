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

type mappedMemory struct {
	mem  gvk.DeviceMemory
	size uint64
	data unsafe.Pointer
}

func (d *Driver) CreateBuffer(info *vk.BufferCreateInfo, out *vk.Buffer) vk.Result {
	var b gvk.Buffer
	r := gvk.CreateBuffer(d.device, &gvk.BufferCreateInfo{
		SType:       gvk.StructureTypeBufferCreateInfo,
		Size:        gvk.DeviceSize(info.Size),
		Usage:       gvk.BufferUsageFlags(info.Usage),
		SharingMode: gvk.SharingModeExclusive,
	}, nil, &b)
	if r == gvk.Success {
		*out = vk.Buffer(d.newHandle(b))
	}
	return result(r)
}

func (d *Driver) DestroyBuffer(b vk.Buffer) {
	if b == vk.NULL_HANDLE {
		return
	}
	gvk.DestroyBuffer(d.device, lookup[gvk.Buffer](d, uint64(b)), nil)
	d.release(uint64(b))
}

func (d *Driver) GetBufferMemoryRequirements(b vk.Buffer) vk.MemoryRequirements {
	var req gvk.MemoryRequirements
	gvk.GetBufferMemoryRequirements(d.device, lookup[gvk.Buffer](d, uint64(b)), &req)
	req.Deref()
	return vk.MemoryRequirements{
		Size:           uint64(req.Size),
		Alignment:      uint64(req.Alignment),
		MemoryTypeBits: req.MemoryTypeBits,
	}
}

func (d *Driver) BindBufferMemory(b vk.Buffer, mem vk.DeviceMemory, offset uint64) vk.Result {
	return result(gvk.BindBufferMemory(d.device, lookup[gvk.Buffer](d, uint64(b)),
		lookup[*mappedMemory](d, uint64(mem)).mem, gvk.DeviceSize(offset)))
}

func (d *Driver) CreateImage(info *vk.ImageCreateInfo, out *vk.Image) vk.Result {
	var img gvk.Image
	r := gvk.CreateImage(d.device, &gvk.ImageCreateInfo{
		SType:     gvk.StructureTypeImageCreateInfo,
		ImageType: gvk.ImageType2d,
		Format:    gvk.Format(info.Format),
		Extent: gvk.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  max(info.Extent.Depth, 1),
		},
		MipLevels:     max(info.MipLevels, 1),
		ArrayLayers:   max(info.ArrayLayers, 1),
		Samples:       gvk.SampleCount1Bit,
		Tiling:        gvk.ImageTilingOptimal,
		Usage:         gvk.ImageUsageFlags(info.Usage),
		SharingMode:   gvk.SharingModeExclusive,
		InitialLayout: gvk.ImageLayoutUndefined,
	}, nil, &img)
	if r == gvk.Success {
		*out = vk.Image(d.newHandle(img))
	}
	return result(r)
}

func (d *Driver) DestroyImage(img vk.Image) {
	if img == vk.NULL_HANDLE {
		return
	}
	gvk.DestroyImage(d.device, lookup[gvk.Image](d, uint64(img)), nil)
	d.release(uint64(img))
}

func (d *Driver) GetImageMemoryRequirements(img vk.Image) vk.MemoryRequirements {
	var req gvk.MemoryRequirements
	gvk.GetImageMemoryRequirements(d.device, lookup[gvk.Image](d, uint64(img)), &req)
	req.Deref()
	return vk.MemoryRequirements{
		Size:           uint64(req.Size),
		Alignment:      uint64(req.Alignment),
		MemoryTypeBits: req.MemoryTypeBits,
	}
}

func (d *Driver) BindImageMemory(img vk.Image, mem vk.DeviceMemory, offset uint64) vk.Result {
	return result(gvk.BindImageMemory(d.device, lookup[gvk.Image](d, uint64(img)),
		lookup[*mappedMemory](d, uint64(mem)).mem, gvk.DeviceSize(offset)))
}

func (d *Driver) CreateImageView(info *vk.ImageViewCreateInfo, out *vk.ImageView) vk.Result {
	var view gvk.ImageView
	r := gvk.CreateImageView(d.device, &gvk.ImageViewCreateInfo{
		SType:    gvk.StructureTypeImageViewCreateInfo,
		Image:    d.image(info.Image),
		ViewType: gvk.ImageViewType2d,
		Format:   gvk.Format(info.Format),
		Components: gvk.ComponentMapping{
			R: gvk.ComponentSwizzleIdentity,
			G: gvk.ComponentSwizzleIdentity,
			B: gvk.ComponentSwizzleIdentity,
			A: gvk.ComponentSwizzleIdentity,
		},
		SubresourceRange: gvk.ImageSubresourceRange{
			AspectMask: gvk.ImageAspectFlags(info.Aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	if r == gvk.Success {
		*out = vk.ImageView(d.newHandle(view))
	}
	return result(r)
}

func (d *Driver) DestroyImageView(view vk.ImageView) {
	if view == vk.NULL_HANDLE {
		return
	}
	gvk.DestroyImageView(d.device, lookup[gvk.ImageView](d, uint64(view)), nil)
	d.release(uint64(view))
}

func (d *Driver) AllocateMemory(info *vk.MemoryAllocateInfo, out *vk.DeviceMemory) vk.Result {
	var mem gvk.DeviceMemory
	r := gvk.AllocateMemory(d.device, &gvk.MemoryAllocateInfo{
		SType:           gvk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  gvk.DeviceSize(info.AllocationSize),
		MemoryTypeIndex: info.MemoryTypeIndex,
	}, nil, &mem)
	if r == gvk.Success {
		*out = vk.DeviceMemory(d.newHandle(&mappedMemory{mem: mem, size: info.AllocationSize}))
	}
	return result(r)
}

func (d *Driver) FreeMemory(mem vk.DeviceMemory) {
	if mem == vk.NULL_HANDLE {
		return
	}
	m := lookup[*mappedMemory](d, uint64(mem))
	if m == nil {
		return
	}
	gvk.FreeMemory(d.device, m.mem, nil)
	d.release(uint64(mem))
}

func (d *Driver) MapMemory(mem vk.DeviceMemory, offset, size uint64, data *[]byte) vk.Result {
	m := lookup[*mappedMemory](d, uint64(mem))
	if m == nil {
		return vk.ERROR_MEMORY_MAP_FAILED
	}
	if size == vk.WHOLE_SIZE {
		size = m.size - offset
	}
	var ptr unsafe.Pointer
	r := gvk.MapMemory(d.device, m.mem, gvk.DeviceSize(offset), gvk.DeviceSize(size), 0, &ptr)
	if r != gvk.Success {
		return result(r)
	}
	m.data = ptr
	*data = unsafe.Slice((*byte)(ptr), size)
	return vk.SUCCESS
}

func (d *Driver) UnmapMemory(mem vk.DeviceMemory) {
	m := lookup[*mappedMemory](d, uint64(mem))
	if m == nil || m.data == nil {
		return
	}
	gvk.UnmapMemory(d.device, m.mem)
	m.data = nil
}

func (d *Driver) mappedRange(mem vk.DeviceMemory, offset, size uint64) []gvk.MappedMemoryRange {
	return []gvk.MappedMemoryRange{{
		SType:  gvk.StructureTypeMappedMemoryRange,
		Memory: lookup[*mappedMemory](d, uint64(mem)).mem,
		Offset: gvk.DeviceSize(offset),
		Size:   gvk.DeviceSize(size),
	}}
}

func (d *Driver) FlushMappedMemoryRange(mem vk.DeviceMemory, offset, size uint64) vk.Result {
	return result(gvk.FlushMappedMemoryRanges(d.device, 1, d.mappedRange(mem, offset, size)))
}

func (d *Driver) InvalidateMappedMemoryRange(mem vk.DeviceMemory, offset, size uint64) vk.Result {
	return result(gvk.InvalidateMappedMemoryRanges(d.device, 1, d.mappedRange(mem, offset, size)))
}

func (d *Driver) CreateSampler(info *vk.SamplerCreateInfo, out *vk.Sampler) vk.Result {
	var s gvk.Sampler
	r := gvk.CreateSampler(d.device, &gvk.SamplerCreateInfo{
		SType:            gvk.StructureTypeSamplerCreateInfo,
		MagFilter:        gvk.Filter(info.MagFilter),
		MinFilter:        gvk.Filter(info.MinFilter),
		MipmapMode:       gvk.SamplerMipmapMode(info.MipmapMode),
		AddressModeU:     gvk.SamplerAddressMode(info.AddressModeU),
		AddressModeV:     gvk.SamplerAddressMode(info.AddressModeV),
		AddressModeW:     gvk.SamplerAddressMode(info.AddressModeW),
		AnisotropyEnable: bool32(info.AnisotropyEnable),
		MaxAnisotropy:    info.MaxAnisotropy,
		MinLod:           info.MinLod,
		MaxLod:           info.MaxLod,
		BorderColor:      gvk.BorderColorFloatTransparentBlack,
	}, nil, &s)
	if r == gvk.Success {
		*out = vk.Sampler(d.newHandle(s))
	}
	return result(r)
}

func (d *Driver) DestroySampler(s vk.Sampler) {
	if s == vk.NULL_HANDLE {
		return
	}
	gvk.DestroySampler(d.device, lookup[gvk.Sampler](d, uint64(s)), nil)
	d.release(uint64(s))
}

func (d *Driver) CreateShaderModule(info *vk.ShaderModuleCreateInfo, out *vk.ShaderModule) vk.Result {
	if len(info.Code)%4 != 0 {
		return vk.ERROR_INITIALIZATION_FAILED
	}
	code := make([]uint32, len(info.Code)/4)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(code))), len(info.Code)), info.Code)

	var m gvk.ShaderModule
	r := gvk.CreateShaderModule(d.device, &gvk.ShaderModuleCreateInfo{
		SType:    gvk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(info.Code)),
		PCode:    code,
	}, nil, &m)
	if r == gvk.Success {
		*out = vk.ShaderModule(d.newHandle(m))
	}
	return result(r)
}

func (d *Driver) DestroyShaderModule(m vk.ShaderModule) {
	if m == vk.NULL_HANDLE {
		return
	}
	gvk.DestroyShaderModule(d.device, lookup[gvk.ShaderModule](d, uint64(m)), nil)
	d.release(uint64(m))
}
