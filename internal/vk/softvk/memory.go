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
	"goarrg.com/rhi/xrhi/internal/vk"
)

const (
	bufferAlignment = 16
	imageAlignment  = 256
)

type memory struct {
	typeIndex uint32
	data      []byte
	mapped    bool
}

type buffer struct {
	info   vk.BufferCreateInfo
	mem    *memory
	offset uint64
}

func (b *buffer) bytes() []byte {
	if b.mem == nil {
		return nil
	}
	return b.mem.data[b.offset : b.offset+b.info.Size]
}

type image struct {
	info      vk.ImageCreateInfo
	mem       *memory
	offset    uint64
	layout    vk.ImageLayout
	swapchain bool
	// swapchain images own their storage
	storage []byte
}

func (i *image) size() uint64 {
	e := i.info.Extent
	return uint64(e.Width) * uint64(e.Height) * uint64(max(e.Depth, 1)) * uint64(max(i.info.ArrayLayers, 1)) * vk.FormatSize(i.info.Format)
}

func (i *image) bytes() []byte {
	if i.storage != nil {
		return i.storage
	}
	if i.mem == nil {
		return nil
	}
	return i.mem.data[i.offset : i.offset+i.size()]
}

type imageView struct {
	image vk.Image
	info  vk.ImageViewCreateInfo
}

type sampler struct {
	info vk.SamplerCreateInfo
}

type shaderModule struct {
	size int
}

func alignUp(v, a uint64) uint64 {
	return (v + a - 1) &^ (a - 1)
}

func (d *Driver) typeBits(bits uint32) uint32 {
	if bits != 0 {
		return bits
	}
	return (uint32(1) << len(d.cfg.MemoryTypes)) - 1
}

func (d *Driver) AllocateMemory(info *vk.MemoryAllocateInfo, out *vk.DeviceMemory) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	if int(info.MemoryTypeIndex) >= len(d.cfg.MemoryTypes) {
		d.validationError("AllocateMemory: memory type %d out of range", info.MemoryTypeIndex)
		return vk.ERROR_OUT_OF_DEVICE_MEMORY
	}
	*out = vk.DeviceMemory(d.newHandle(&memory{typeIndex: info.MemoryTypeIndex, data: make([]byte, info.AllocationSize)}))
	return vk.SUCCESS
}

func (d *Driver) FreeMemory(h vk.DeviceMemory) {
	d.lock()
	defer d.mu.Unlock()
	if _, ok := lookup[memory](d, uint64(h)); !ok {
		d.validationError("FreeMemory: invalid handle 0x%X", uint64(h))
		return
	}
	d.release(uint64(h))
}

func (d *Driver) MapMemory(h vk.DeviceMemory, offset, size uint64, data *[]byte) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	m, ok := lookup[memory](d, uint64(h))
	if !ok {
		d.validationError("MapMemory: invalid handle 0x%X", uint64(h))
		return vk.ERROR_MEMORY_MAP_FAILED
	}
	if d.cfg.MemoryTypes[m.typeIndex].PropertyFlags&vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT == 0 {
		d.validationError("MapMemory: memory type %d is not host visible", m.typeIndex)
		return vk.ERROR_MEMORY_MAP_FAILED
	}
	if m.mapped {
		d.validationError("MapMemory: memory 0x%X is already mapped", uint64(h))
		return vk.ERROR_MEMORY_MAP_FAILED
	}
	if size == vk.WHOLE_SIZE {
		size = uint64(len(m.data)) - offset
	}
	if offset+size > uint64(len(m.data)) {
		d.validationError("MapMemory: range [%d, %d) exceeds allocation of %d", offset, offset+size, len(m.data))
		return vk.ERROR_MEMORY_MAP_FAILED
	}
	m.mapped = true
	*data = m.data[offset : offset+size : offset+size]
	return vk.SUCCESS
}

func (d *Driver) UnmapMemory(h vk.DeviceMemory) {
	d.lock()
	defer d.mu.Unlock()
	if m, ok := lookup[memory](d, uint64(h)); ok {
		m.mapped = false
	}
}

func (d *Driver) FlushMappedMemoryRange(h vk.DeviceMemory, offset, size uint64) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	if m, ok := lookup[memory](d, uint64(h)); !ok || !m.mapped {
		d.validationError("FlushMappedMemoryRange: memory 0x%X is not mapped", uint64(h))
	}
	return vk.SUCCESS
}

func (d *Driver) InvalidateMappedMemoryRange(h vk.DeviceMemory, offset, size uint64) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	if m, ok := lookup[memory](d, uint64(h)); !ok || !m.mapped {
		d.validationError("InvalidateMappedMemoryRange: memory 0x%X is not mapped", uint64(h))
	}
	return vk.SUCCESS
}

func (d *Driver) CreateBuffer(info *vk.BufferCreateInfo, out *vk.Buffer) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	if info.Size == 0 {
		d.validationError("CreateBuffer: size must be > 0")
		return vk.ERROR_INITIALIZATION_FAILED
	}
	*out = vk.Buffer(d.newHandle(&buffer{info: *info}))
	return vk.SUCCESS
}

func (d *Driver) DestroyBuffer(h vk.Buffer) {
	d.lock()
	defer d.mu.Unlock()
	if _, ok := lookup[buffer](d, uint64(h)); !ok {
		d.validationError("DestroyBuffer: invalid handle 0x%X", uint64(h))
		return
	}
	d.release(uint64(h))
}

func (d *Driver) GetBufferMemoryRequirements(h vk.Buffer) vk.MemoryRequirements {
	d.lock()
	defer d.mu.Unlock()
	b, ok := lookup[buffer](d, uint64(h))
	if !ok {
		d.validationError("GetBufferMemoryRequirements: invalid handle 0x%X", uint64(h))
		return vk.MemoryRequirements{}
	}
	return vk.MemoryRequirements{
		Size:           alignUp(b.info.Size, bufferAlignment),
		Alignment:      bufferAlignment,
		MemoryTypeBits: d.typeBits(d.cfg.BufferMemoryTypeBits),
	}
}

func (d *Driver) BindBufferMemory(h vk.Buffer, mh vk.DeviceMemory, offset uint64) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	b, ok := lookup[buffer](d, uint64(h))
	m, mok := lookup[memory](d, uint64(mh))
	if !ok || !mok {
		d.validationError("BindBufferMemory: invalid handle")
		return vk.ERROR_UNKNOWN
	}
	if offset+b.info.Size > uint64(len(m.data)) {
		d.validationError("BindBufferMemory: buffer of %d bytes does not fit at offset %d", b.info.Size, offset)
		return vk.ERROR_OUT_OF_DEVICE_MEMORY
	}
	b.mem, b.offset = m, offset
	return vk.SUCCESS
}

func (d *Driver) CreateImage(info *vk.ImageCreateInfo, out *vk.Image) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	if vk.FormatSize(info.Format) == 0 {
		return vk.ERROR_FORMAT_NOT_SUPPORTED
	}
	if info.Extent.Width == 0 || info.Extent.Height == 0 {
		d.validationError("CreateImage: extent must be non zero")
		return vk.ERROR_INITIALIZATION_FAILED
	}
	*out = vk.Image(d.newHandle(&image{info: *info, layout: vk.IMAGE_LAYOUT_UNDEFINED}))
	return vk.SUCCESS
}

func (d *Driver) DestroyImage(h vk.Image) {
	d.lock()
	defer d.mu.Unlock()
	i, ok := lookup[image](d, uint64(h))
	if !ok {
		d.validationError("DestroyImage: invalid handle 0x%X", uint64(h))
		return
	}
	if i.swapchain {
		d.validationError("DestroyImage: image 0x%X is owned by a swapchain", uint64(h))
		return
	}
	d.release(uint64(h))
}

func (d *Driver) GetImageMemoryRequirements(h vk.Image) vk.MemoryRequirements {
	d.lock()
	defer d.mu.Unlock()
	i, ok := lookup[image](d, uint64(h))
	if !ok {
		d.validationError("GetImageMemoryRequirements: invalid handle 0x%X", uint64(h))
		return vk.MemoryRequirements{}
	}
	return vk.MemoryRequirements{
		Size:           alignUp(i.size(), imageAlignment),
		Alignment:      imageAlignment,
		MemoryTypeBits: d.typeBits(d.cfg.ImageMemoryTypeBits),
	}
}

func (d *Driver) BindImageMemory(h vk.Image, mh vk.DeviceMemory, offset uint64) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	i, ok := lookup[image](d, uint64(h))
	m, mok := lookup[memory](d, uint64(mh))
	if !ok || !mok {
		d.validationError("BindImageMemory: invalid handle")
		return vk.ERROR_UNKNOWN
	}
	if offset+i.size() > uint64(len(m.data)) {
		d.validationError("BindImageMemory: image of %d bytes does not fit at offset %d", i.size(), offset)
		return vk.ERROR_OUT_OF_DEVICE_MEMORY
	}
	i.mem, i.offset = m, offset
	return vk.SUCCESS
}

func (d *Driver) CreateImageView(info *vk.ImageViewCreateInfo, out *vk.ImageView) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	if _, ok := lookup[image](d, uint64(info.Image)); !ok {
		d.validationError("CreateImageView: invalid image 0x%X", uint64(info.Image))
		return vk.ERROR_UNKNOWN
	}
	*out = vk.ImageView(d.newHandle(&imageView{image: info.Image, info: *info}))
	return vk.SUCCESS
}

func (d *Driver) DestroyImageView(h vk.ImageView) {
	d.lock()
	defer d.mu.Unlock()
	if _, ok := lookup[imageView](d, uint64(h)); !ok {
		d.validationError("DestroyImageView: invalid handle 0x%X", uint64(h))
		return
	}
	d.release(uint64(h))
}

func (d *Driver) CreateSampler(info *vk.SamplerCreateInfo, out *vk.Sampler) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	*out = vk.Sampler(d.newHandle(&sampler{info: *info}))
	return vk.SUCCESS
}

func (d *Driver) DestroySampler(h vk.Sampler) {
	d.lock()
	defer d.mu.Unlock()
	if _, ok := lookup[sampler](d, uint64(h)); !ok {
		d.validationError("DestroySampler: invalid handle 0x%X", uint64(h))
		return
	}
	d.release(uint64(h))
}

func (d *Driver) CreateShaderModule(info *vk.ShaderModuleCreateInfo, out *vk.ShaderModule) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	if len(info.Code) == 0 || len(info.Code)%4 != 0 {
		d.validationError("CreateShaderModule: code size %d is not a non zero multiple of 4", len(info.Code))
		return vk.ERROR_INITIALIZATION_FAILED
	}
	*out = vk.ShaderModule(d.newHandle(&shaderModule{size: len(info.Code)}))
	return vk.SUCCESS
}

func (d *Driver) DestroyShaderModule(h vk.ShaderModule) {
	d.lock()
	defer d.mu.Unlock()
	if _, ok := lookup[shaderModule](d, uint64(h)); !ok {
		d.validationError("DestroyShaderModule: invalid handle 0x%X", uint64(h))
		return
	}
	d.release(uint64(h))
}

// ImageData returns a copy of the image contents.
func (d *Driver) ImageData(h vk.Image) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	i, ok := lookup[image](d, uint64(h))
	if !ok {
		return nil
	}
	return append([]byte(nil), i.bytes()...)
}

func (d *Driver) ImageLayout(h vk.Image) vk.ImageLayout {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i, ok := lookup[image](d, uint64(h)); ok {
		return i.layout
	}
	return vk.IMAGE_LAYOUT_UNDEFINED
}
