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

	"goarrg.com/rhi/xrhi/internal/vk"
)

type BufferUsage uint32

const (
	BufferUsageTransferSrc BufferUsage = 1 << iota
	BufferUsageTransferDst
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageIndex
	BufferUsageVertex
	BufferUsageIndirect
)

func (u BufferUsage) HasBits(want BufferUsage) bool {
	return (u & want) == want
}

func (u BufferUsage) String() string {
	str := ""
	if u.HasBits(BufferUsageTransferSrc) {
		str += "TransferSrc|"
	}
	if u.HasBits(BufferUsageTransferDst) {
		str += "TransferDst|"
	}
	if u.HasBits(BufferUsageUniform) {
		str += "Uniform|"
	}
	if u.HasBits(BufferUsageStorage) {
		str += "Storage|"
	}
	if u.HasBits(BufferUsageIndex) {
		str += "Index|"
	}
	if u.HasBits(BufferUsageVertex) {
		str += "Vertex|"
	}
	if u.HasBits(BufferUsageIndirect) {
		str += "Indirect|"
	}
	return strings.TrimSuffix(str, "|")
}

func (u BufferUsage) vkBufferUsageFlags() vk.BufferUsageFlags {
	var flags vk.BufferUsageFlags
	if u.HasBits(BufferUsageTransferSrc) {
		flags |= vk.BUFFER_USAGE_TRANSFER_SRC_BIT
	}
	if u.HasBits(BufferUsageTransferDst) {
		flags |= vk.BUFFER_USAGE_TRANSFER_DST_BIT
	}
	if u.HasBits(BufferUsageUniform) {
		flags |= vk.BUFFER_USAGE_UNIFORM_BUFFER_BIT
	}
	if u.HasBits(BufferUsageStorage) {
		flags |= vk.BUFFER_USAGE_STORAGE_BUFFER_BIT
	}
	if u.HasBits(BufferUsageIndex) {
		flags |= vk.BUFFER_USAGE_INDEX_BUFFER_BIT
	}
	if u.HasBits(BufferUsageVertex) {
		flags |= vk.BUFFER_USAGE_VERTEX_BUFFER_BIT
	}
	if u.HasBits(BufferUsageIndirect) {
		flags |= vk.BUFFER_USAGE_INDIRECT_BUFFER_BIT
	}
	return flags
}

type BufferInfo struct {
	Name   string
	Size   uint64
	Usage  BufferUsage
	Memory MemoryOption
}

func (info *BufferInfo) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")
	buff.WriteString(fmt.Sprintf("\"Name\": %q,", info.Name))
	buff.WriteString(fmt.Sprintf("\"Size\": %d,", info.Size))
	buff.WriteString(fmt.Sprintf("\"Usage\": %q,", info.Usage))
	buff.WriteString(fmt.Sprintf("\"Memory\": %q", info.Memory))
	buff.WriteString("}")
	return buff.Bytes(), nil
}

type Buffer struct {
	handle
	info     BufferInfo
	vkBuffer vk.Buffer
	memory   memory
}

func (b *Buffer) Info() BufferInfo {
	b.check()
	return b.info
}

func (b *Buffer) Size() uint64 {
	b.check()
	return b.info.Size
}

func (b *Buffer) Usage() BufferUsage {
	b.check()
	return b.info.Usage
}

func (b *Buffer) hostAccess(op string, offset, size uint64) {
	b.check()
	if !b.info.Memory.hostVisible() {
		b.ctx.abort("[%s] %s on %s memory", b.name, op, b.info.Memory)
	}
	if offset > b.info.Size || size > b.info.Size-offset {
		b.ctx.abort("[%s] %s(%d, len(data): %d) will overflow buffer of size %d", b.name, op, offset, size, b.info.Size)
	}
}

// Write copies data into the buffer at offset, the buffer must be host visible.
func (b *Buffer) Write(offset uint64, data []byte) {
	b.hostAccess("Write", offset, uint64(len(data)))
	if len(data) == 0 {
		return
	}
	copy(b.memory.mapped[offset:], data)
}

// Read copies len(data) bytes at offset out of the buffer, the buffer must be host visible.
func (b *Buffer) Read(offset uint64, data []byte) {
	b.hostAccess("Read", offset, uint64(len(data)))
	if len(data) == 0 {
		return
	}
	copy(data, b.memory.mapped[offset:])
}

func (b *Buffer) HostWrite(offset uintptr, data []byte) {
	b.Write(uint64(offset), data)
}

func (b *Buffer) HostRead(offset uintptr, data []byte) {
	b.Read(uint64(offset), data)
}

// Flush makes host writes visible to the device, only needed for MemoryDynamic.
func (b *Buffer) Flush(offset, size uint64) {
	b.hostAccess("Flush", offset, size)
	if b.info.Memory == MemoryDynamic {
		b.ctx.vkCheck("vkFlushMappedMemoryRanges", b.ctx.vkb().drv.FlushMappedMemoryRange(b.memory.vkMemory, offset, size))
	}
}

// Invalidate makes device writes visible to the host, only needed for MemoryDynamic.
func (b *Buffer) Invalidate(offset, size uint64) {
	b.hostAccess("Invalidate", offset, size)
	if b.info.Memory == MemoryDynamic {
		b.ctx.vkCheck("vkInvalidateMappedMemoryRanges", b.ctx.vkb().drv.InvalidateMappedMemoryRange(b.memory.vkMemory, offset, size))
	}
}

func (c *Context) newBuffer(info BufferInfo) *Buffer {
	drv := c.vkb().drv
	buf := &Buffer{info: info}
	if !c.vkCheck("vkCreateBuffer", drv.CreateBuffer(&vk.BufferCreateInfo{
		Size:  info.Size,
		Usage: info.Usage.vkBufferUsageFlags(),
	}, &buf.vkBuffer)) {
		return nil
	}

	mem, ok := c.allocateMemory(info.Name, drv.GetBufferMemoryRequirements(buf.vkBuffer), info.Memory.vkMemoryPropertyFlags())
	if !ok {
		drv.DestroyBuffer(buf.vkBuffer)
		return nil
	}
	buf.memory = mem
	if !c.vkCheck("vkBindBufferMemory", drv.BindBufferMemory(buf.vkBuffer, mem.vkMemory, 0)) {
		drv.DestroyBuffer(buf.vkBuffer)
		c.freeMemory(mem)
		return nil
	}
	buf.handle.init(c, HandleBuffer, info.Name)
	return buf
}

func (c *Context) destroyBuffer(b *Buffer) {
	drv := c.vkb().drv
	drv.DestroyBuffer(b.vkBuffer)
	c.freeMemory(b.memory)
	b.close()
}

// newStagingBuffer returns a mapped transfer source holding a copy of data.
func (c *Context) newStagingBuffer(name string, data []byte) *Buffer {
	staging := c.newBuffer(BufferInfo{
		Name:   name + "_staging",
		Size:   uint64(len(data)),
		Usage:  BufferUsageTransferSrc,
		Memory: MemoryMapped,
	})
	if staging == nil {
		return nil
	}
	staging.Write(0, data)
	return staging
}

/*
CreateBuffer creates a buffer and fills its first len(data) bytes with data. MemoryStatic buffers are filled
through a staging buffer and a one shot copy, the others through their persistent mapping.
*/
func (c *Context) CreateBuffer(info BufferInfo, data []byte) *Buffer {
	c.vkb()
	if info.Size == 0 {
		c.abort("[%s] Buffer size must be > 0", info.Name)
	}
	if uint64(len(data)) > info.Size {
		c.abort("[%s] Initial data of %d bytes does not fit in buffer of size %d", info.Name, len(data), info.Size)
	}
	if info.Memory == MemoryStatic && len(data) > 0 {
		info.Usage |= BufferUsageTransferDst
	}

	buf := c.newBuffer(info)
	if buf == nil {
		return nil
	}
	if len(data) == 0 {
		c.logger.VPrintf("Created buffer: %s", jsonString(&buf.info))
		return buf
	}

	if info.Memory.hostVisible() {
		buf.Write(0, data)
		buf.Flush(0, uint64(len(data)))
	} else {
		staging := c.newStagingBuffer(info.Name, data)
		if staging == nil {
			c.destroyBuffer(buf)
			return nil
		}
		ok := c.oneShot(info.Name, func(cb vk.CommandBuffer) {
			c.vkb().drv.CmdCopyBuffer(cb, staging.vkBuffer, buf.vkBuffer, []vk.BufferCopy{{Size: uint64(len(data))}})
		})
		c.destroyBuffer(staging)
		if !ok {
			c.destroyBuffer(buf)
			return nil
		}
	}

	c.logger.VPrintf("Created buffer: %s", jsonString(&buf.info))
	return buf
}

func (c *Context) DestroyBuffer(b *Buffer) {
	if b == nil || !b.release(c) {
		return
	}
	c.destroyBuffer(b)
}
