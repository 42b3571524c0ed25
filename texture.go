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
	"bytes"
	"fmt"
	"strings"

	"goarrg.com/gmath"
	"goarrg.com/rhi/xrhi/internal/vk"
)

type Format vk.Format

const (
	FormatUndefined      = Format(vk.FORMAT_UNDEFINED)
	FormatR8Unorm        = Format(vk.FORMAT_R8_UNORM)
	FormatRG8Unorm       = Format(vk.FORMAT_R8G8_UNORM)
	FormatRGBA8Unorm     = Format(vk.FORMAT_R8G8B8A8_UNORM)
	FormatRGBA8Srgb      = Format(vk.FORMAT_R8G8B8A8_SRGB)
	FormatBGRA8Unorm     = Format(vk.FORMAT_B8G8R8A8_UNORM)
	FormatBGRA8Srgb      = Format(vk.FORMAT_B8G8R8A8_SRGB)
	FormatRGBA16Float    = Format(vk.FORMAT_R16G16B16A16_SFLOAT)
	FormatR32Float       = Format(vk.FORMAT_R32_SFLOAT)
	FormatRG32Float      = Format(vk.FORMAT_R32G32_SFLOAT)
	FormatRGB32Float     = Format(vk.FORMAT_R32G32B32_SFLOAT)
	FormatRGBA32Float    = Format(vk.FORMAT_R32G32B32A32_SFLOAT)
	FormatD16Unorm       = Format(vk.FORMAT_D16_UNORM)
	FormatD32Float       = Format(vk.FORMAT_D32_SFLOAT)
	FormatD24UnormS8Uint = Format(vk.FORMAT_D24_UNORM_S8_UINT)
	FormatD32FloatS8Uint = Format(vk.FORMAT_D32_SFLOAT_S8_UINT)
)

func (f Format) String() string {
	switch f {
	case FormatUndefined:
		return "Undefined"
	case FormatR8Unorm:
		return "R8Unorm"
	case FormatRG8Unorm:
		return "RG8Unorm"
	case FormatRGBA8Unorm:
		return "RGBA8Unorm"
	case FormatRGBA8Srgb:
		return "RGBA8Srgb"
	case FormatBGRA8Unorm:
		return "BGRA8Unorm"
	case FormatBGRA8Srgb:
		return "BGRA8Srgb"
	case FormatRGBA16Float:
		return "RGBA16Float"
	case FormatR32Float:
		return "R32Float"
	case FormatRG32Float:
		return "RG32Float"
	case FormatRGB32Float:
		return "RGB32Float"
	case FormatRGBA32Float:
		return "RGBA32Float"
	case FormatD16Unorm:
		return "D16Unorm"
	case FormatD32Float:
		return "D32Float"
	case FormatD24UnormS8Uint:
		return "D24UnormS8Uint"
	case FormatD32FloatS8Uint:
		return "D32FloatS8Uint"
	default:
		return fmt.Sprintf("Format(%d)", uint32(f))
	}
}

// Size returns the bytes per texel.
func (f Format) Size() uint64 {
	return vk.FormatSize(vk.Format(f))
}

func (f Format) IsDepth() bool {
	switch f {
	case FormatD16Unorm, FormatD32Float, FormatD24UnormS8Uint, FormatD32FloatS8Uint:
		return true
	}
	return false
}

func (f Format) HasStencil() bool {
	return f == FormatD24UnormS8Uint || f == FormatD32FloatS8Uint
}

func (f Format) vkAspect() vk.ImageAspectFlags {
	switch {
	case f.HasStencil():
		return vk.IMAGE_ASPECT_DEPTH_BIT | vk.IMAGE_ASPECT_STENCIL_BIT
	case f.IsDepth():
		return vk.IMAGE_ASPECT_DEPTH_BIT
	}
	return vk.IMAGE_ASPECT_COLOR_BIT
}

type TextureUsage uint32

const (
	TextureUsageTransferSrc TextureUsage = 1 << iota
	TextureUsageTransferDst
	TextureUsageSampled
	TextureUsageStorage
	TextureUsageColorAttachment
	TextureUsageDepthStencilAttachment
)

func (u TextureUsage) HasBits(want TextureUsage) bool {
	return (u & want) == want
}

func (u TextureUsage) String() string {
	str := ""
	if u.HasBits(TextureUsageTransferSrc) {
		str += "TransferSrc|"
	}
	if u.HasBits(TextureUsageTransferDst) {
		str += "TransferDst|"
	}
	if u.HasBits(TextureUsageSampled) {
		str += "Sampled|"
	}
	if u.HasBits(TextureUsageStorage) {
		str += "Storage|"
	}
	if u.HasBits(TextureUsageColorAttachment) {
		str += "ColorAttachment|"
	}
	if u.HasBits(TextureUsageDepthStencilAttachment) {
		str += "DepthStencilAttachment|"
	}
	return strings.TrimSuffix(str, "|")
}

func (u TextureUsage) vkImageUsageFlags() vk.ImageUsageFlags {
	var flags vk.ImageUsageFlags
	if u.HasBits(TextureUsageTransferSrc) {
		flags |= vk.IMAGE_USAGE_TRANSFER_SRC_BIT
	}
	if u.HasBits(TextureUsageTransferDst) {
		flags |= vk.IMAGE_USAGE_TRANSFER_DST_BIT
	}
	if u.HasBits(TextureUsageSampled) {
		flags |= vk.IMAGE_USAGE_SAMPLED_BIT
	}
	if u.HasBits(TextureUsageStorage) {
		flags |= vk.IMAGE_USAGE_STORAGE_BIT
	}
	if u.HasBits(TextureUsageColorAttachment) {
		flags |= vk.IMAGE_USAGE_COLOR_ATTACHMENT_BIT
	}
	if u.HasBits(TextureUsageDepthStencilAttachment) {
		flags |= vk.IMAGE_USAGE_DEPTH_STENCIL_ATTACHMENT_BIT
	}
	return flags
}

type TextureLayout vk.ImageLayout

const (
	TextureLayoutUndefined              = TextureLayout(vk.IMAGE_LAYOUT_UNDEFINED)
	TextureLayoutGeneral                = TextureLayout(vk.IMAGE_LAYOUT_GENERAL)
	TextureLayoutColorAttachment        = TextureLayout(vk.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL)
	TextureLayoutDepthStencilAttachment = TextureLayout(vk.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT_OPTIMAL)
	TextureLayoutShaderReadOnly         = TextureLayout(vk.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL)
	TextureLayoutTransferSrc            = TextureLayout(vk.IMAGE_LAYOUT_TRANSFER_SRC_OPTIMAL)
	TextureLayoutTransferDst            = TextureLayout(vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL)
	TextureLayoutPresent                = TextureLayout(vk.IMAGE_LAYOUT_PRESENT_SRC_KHR)
)

func (l TextureLayout) String() string {
	switch l {
	case TextureLayoutUndefined:
		return "Undefined"
	case TextureLayoutGeneral:
		return "General"
	case TextureLayoutColorAttachment:
		return "ColorAttachment"
	case TextureLayoutDepthStencilAttachment:
		return "DepthStencilAttachment"
	case TextureLayoutShaderReadOnly:
		return "ShaderReadOnly"
	case TextureLayoutTransferSrc:
		return "TransferSrc"
	case TextureLayoutTransferDst:
		return "TransferDst"
	case TextureLayoutPresent:
		return "Present"
	default:
		return fmt.Sprintf("TextureLayout(%d)", uint32(l))
	}
}

func (l TextureLayout) vkImageLayout() vk.ImageLayout {
	return vk.ImageLayout(l)
}

// vkAccess returns the access mask and stages that read or write a texture in layout l.
func (l TextureLayout) vkAccess() (vk.AccessFlags, vk.PipelineStageFlags) {
	switch l {
	case TextureLayoutGeneral:
		return vk.ACCESS_SHADER_READ_BIT | vk.ACCESS_SHADER_WRITE_BIT, vk.PIPELINE_STAGE_COMPUTE_SHADER_BIT | vk.PIPELINE_STAGE_FRAGMENT_SHADER_BIT
	case TextureLayoutColorAttachment:
		return vk.ACCESS_COLOR_ATTACHMENT_WRITE_BIT, vk.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT
	case TextureLayoutDepthStencilAttachment:
		return vk.ACCESS_DEPTH_STENCIL_ATTACHMENT_WRITE, vk.PIPELINE_STAGE_EARLY_FRAGMENT_TESTS_BIT | vk.PIPELINE_STAGE_LATE_FRAGMENT_TESTS_BIT
	case TextureLayoutShaderReadOnly:
		return vk.ACCESS_SHADER_READ_BIT, vk.PIPELINE_STAGE_VERTEX_SHADER_BIT | vk.PIPELINE_STAGE_FRAGMENT_SHADER_BIT | vk.PIPELINE_STAGE_COMPUTE_SHADER_BIT
	case TextureLayoutTransferSrc:
		return vk.ACCESS_TRANSFER_READ_BIT, vk.PIPELINE_STAGE_TRANSFER_BIT
	case TextureLayoutTransferDst:
		return vk.ACCESS_TRANSFER_WRITE_BIT, vk.PIPELINE_STAGE_TRANSFER_BIT
	case TextureLayoutPresent:
		return vk.ACCESS_NONE, vk.PIPELINE_STAGE_BOTTOM_OF_PIPE_BIT
	}
	return vk.ACCESS_NONE, vk.PIPELINE_STAGE_TOP_OF_PIPE_BIT
}

type TextureInfo struct {
	Name   string
	Format Format
	// Extent.Z is the depth, 0 is treated as 1.
	Extent gmath.Extent3i32
	Usage  TextureUsage
	// Swapchain makes the texture wrap the swapchain's next unclaimed image, Format, Extent and Usage are ignored.
	Swapchain *Swapchain
}

func (info *TextureInfo) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")
	buff.WriteString(fmt.Sprintf("\"Name\": %q,", info.Name))
	buff.WriteString(fmt.Sprintf("\"Format\": %q,", info.Format))
	buff.WriteString(fmt.Sprintf("\"Extent\": [%d, %d, %d],", info.Extent.X, info.Extent.Y, info.Extent.Z))
	buff.WriteString(fmt.Sprintf("\"Usage\": %q,", info.Usage))
	buff.WriteString(fmt.Sprintf("\"Swapchain\": %t", info.Swapchain != nil))
	buff.WriteString("}")
	return buff.Bytes(), nil
}

type Texture struct {
	handle
	info    TextureInfo
	vkImage vk.Image
	vkView  vk.ImageView
	memory  memory
	// layout is the layout the last recorded command left the image in.
	layout TextureLayout
}

func (t *Texture) Info() TextureInfo {
	t.check()
	return t.info
}

func (t *Texture) Format() Format {
	t.check()
	return t.info.Format
}

func (t *Texture) Extent() gmath.Extent3i32 {
	t.check()
	return t.info.Extent
}

func (t *Texture) Layout() TextureLayout {
	t.check()
	return t.layout
}

func (t *Texture) byteSize() uint64 {
	return t.info.Format.Size() * uint64(t.info.Extent.X) * uint64(t.info.Extent.Y) * uint64(t.info.Extent.Z)
}

func (t *Texture) vkExtent() vk.Extent3D {
	return vk.Extent3D{Width: uint32(t.info.Extent.X), Height: uint32(t.info.Extent.Y), Depth: uint32(t.info.Extent.Z)}
}

func (t *Texture) swapchainOwned() bool {
	return t.info.Swapchain != nil
}

// vkBarrier transitions t to layout and records the new layout.
func (t *Texture) vkBarrier(drv vk.Driver, cb vk.CommandBuffer, layout TextureLayout) {
	srcAccess, srcStage := t.layout.vkAccess()
	dstAccess, dstStage := layout.vkAccess()
	drv.CmdPipelineBarrier(cb, srcStage, dstStage, []vk.ImageMemoryBarrier{{
		SrcAccessMask: srcAccess,
		DstAccessMask: dstAccess,
		OldLayout:     t.layout.vkImageLayout(),
		NewLayout:     layout.vkImageLayout(),
		Image:         t.vkImage,
		Aspect:        t.info.Format.vkAspect(),
	}})
	t.layout = layout
}

func (c *Context) createSwapchainTexture(info TextureInfo) *Texture {
	sc := info.Swapchain
	sc.check()
	if sc.claimed >= len(sc.images) {
		c.abort("[%s] Requested swapchain texture %d but the swapchain only has %d images", info.Name, sc.claimed, len(sc.images))
	}
	info.Format = sc.format
	info.Extent = gmath.Extent3i32{X: int32(sc.extent.Width), Y: int32(sc.extent.Height), Z: 1}
	info.Usage = TextureUsageColorAttachment | TextureUsageTransferDst

	t := &Texture{info: info, vkImage: sc.images[sc.claimed]}
	if !c.vkCheck("vkCreateImageView", c.vkb().drv.CreateImageView(&vk.ImageViewCreateInfo{
		Image:  t.vkImage,
		Format: vk.Format(info.Format),
		Aspect: info.Format.vkAspect(),
	}, &t.vkView)) {
		return nil
	}
	sc.claimed++
	t.handle.init(c, HandleTexture, info.Name)
	return t
}

/*
CreateTexture creates a device local texture. When data is given it must hold exactly one full image, it is
uploaded through a staging buffer and the texture is left in TextureLayoutShaderReadOnly.
*/
func (c *Context) CreateTexture(info TextureInfo, data []byte) *Texture {
	drv := c.vkb().drv
	if info.Swapchain != nil {
		if len(data) > 0 {
			c.abort("[%s] Swapchain textures cannot have initial data", info.Name)
		}
		return c.createSwapchainTexture(info)
	}

	if info.Extent.Z == 0 {
		info.Extent.Z = 1
	}
	if info.Extent.X <= 0 || info.Extent.Y <= 0 || info.Extent.Z <= 0 {
		c.abort("[%s] Invalid texture extent: %+v", info.Name, info.Extent)
	}
	if info.Format.Size() == 0 {
		c.abort("[%s] Unsupported texture format: %s", info.Name, info.Format)
	}
	if len(data) > 0 {
		info.Usage |= TextureUsageTransferDst
	}

	t := &Texture{info: info}
	if want := t.byteSize(); len(data) > 0 && uint64(len(data)) != want {
		c.abort("[%s] Initial data is %d bytes, %s %dx%dx%d needs %d", info.Name, len(data), info.Format,
			info.Extent.X, info.Extent.Y, info.Extent.Z, want)
	}

	if !c.vkCheck("vkCreateImage", drv.CreateImage(&vk.ImageCreateInfo{
		Format:      vk.Format(info.Format),
		Extent:      t.vkExtent(),
		MipLevels:   1,
		ArrayLayers: 1,
		Usage:       info.Usage.vkImageUsageFlags(),
	}, &t.vkImage)) {
		return nil
	}
	mem, ok := c.allocateMemory(info.Name, drv.GetImageMemoryRequirements(t.vkImage), vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT)
	if !ok {
		drv.DestroyImage(t.vkImage)
		return nil
	}
	t.memory = mem
	if !c.vkCheck("vkBindImageMemory", drv.BindImageMemory(t.vkImage, mem.vkMemory, 0)) ||
		!c.vkCheck("vkCreateImageView", drv.CreateImageView(&vk.ImageViewCreateInfo{
			Image:  t.vkImage,
			Format: vk.Format(info.Format),
			Aspect: info.Format.vkAspect(),
		}, &t.vkView)) {
		drv.DestroyImage(t.vkImage)
		c.freeMemory(mem)
		return nil
	}
	t.handle.init(c, HandleTexture, info.Name)

	if len(data) > 0 && !c.uploadTexture(t, data) {
		c.destroyTexture(t)
		return nil
	}

	c.logger.VPrintf("Created texture: %s", jsonString(&t.info))
	return t
}

func (c *Context) uploadTexture(t *Texture, data []byte) bool {
	drv := c.vkb().drv
	staging := c.newStagingBuffer(t.info.Name, data)
	if staging == nil {
		return false
	}
	defer c.destroyBuffer(staging)

	return c.oneShot(t.info.Name, func(cb vk.CommandBuffer) {
		t.vkBarrier(drv, cb, TextureLayoutTransferDst)
		drv.CmdCopyBufferToImage(cb, staging.vkBuffer, t.vkImage, vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, []vk.BufferImageCopy{{
			Aspect:      t.info.Format.vkAspect(),
			ImageExtent: t.vkExtent(),
		}})
		t.vkBarrier(drv, cb, TextureLayoutShaderReadOnly)
	})
}

func (c *Context) destroyTexture(t *Texture) {
	drv := c.vkb().drv
	drv.DestroyImageView(t.vkView)
	if !t.swapchainOwned() {
		drv.DestroyImage(t.vkImage)
		c.freeMemory(t.memory)
	}
	t.close()
}

// DestroyTexture releases t immediately, swapchain textures only release their view.
func (c *Context) DestroyTexture(t *Texture) {
	if t == nil || !t.release(c) {
		return
	}
	c.destroyTexture(t)
}
