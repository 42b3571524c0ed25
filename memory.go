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
	"fmt"

	"goarrg.com/rhi/xrhi/internal/vk"
)

type MemoryOption uint32

const (
	// MemoryStatic is device local, host access goes through staging copies.
	MemoryStatic MemoryOption = iota
	// MemoryMapped is host visible and coherent.
	MemoryMapped
	// MemoryDynamic is host visible and cached, writes need Flush and reads need Invalidate.
	MemoryDynamic
)

func (m MemoryOption) String() string {
	switch m {
	case MemoryStatic:
		return "Static"
	case MemoryMapped:
		return "Mapped"
	case MemoryDynamic:
		return "Dynamic"
	default:
		return fmt.Sprintf("MemoryOption(%d)", uint32(m))
	}
}

func (m MemoryOption) vkMemoryPropertyFlags() vk.MemoryPropertyFlags {
	switch m {
	case MemoryMapped:
		return vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT | vk.MEMORY_PROPERTY_HOST_COHERENT_BIT
	case MemoryDynamic:
		return vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT | vk.MEMORY_PROPERTY_HOST_CACHED_BIT
	default:
		return vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT
	}
}

func (m MemoryOption) hostVisible() bool {
	return m == MemoryMapped || m == MemoryDynamic
}

// findMemoryType returns the first type allowed by typeBits whose flags contain want.
func findMemoryType(props *vk.PhysicalDeviceMemoryProperties, typeBits uint32, want vk.MemoryPropertyFlags) (uint32, bool) {
	for i, t := range props.MemoryTypes {
		if i >= 32 {
			break
		}
		if typeBits&(1<<uint32(i)) != 0 && hasBits(t.PropertyFlags, want) {
			return uint32(i), true
		}
	}
	return 0, false
}

type memory struct {
	vkMemory  vk.DeviceMemory
	typeIndex uint32
	size      uint64
	// mapped covers the whole allocation for host visible memory, it stays mapped until freeMemory.
	mapped []byte
}

func (c *Context) allocateMemory(name string, req vk.MemoryRequirements, want vk.MemoryPropertyFlags) (memory, bool) {
	b := c.vkb()
	index, ok := findMemoryType(&b.memProps, req.MemoryTypeBits, want)
	if !ok {
		c.logger.EPrintf("[%s] No memory type in mask %s with properties %s", name, toHex(req.MemoryTypeBits), toHex(uint32(want)))
		return memory{}, false
	}
	m := memory{typeIndex: index, size: req.Size}
	if !c.vkCheck("vkAllocateMemory", b.drv.AllocateMemory(&vk.MemoryAllocateInfo{
		AllocationSize:  req.Size,
		MemoryTypeIndex: index,
	}, &m.vkMemory)) {
		return memory{}, false
	}
	if hasBits(want, vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT) {
		if !c.vkCheck("vkMapMemory", b.drv.MapMemory(m.vkMemory, 0, vk.WHOLE_SIZE, &m.mapped)) {
			b.drv.FreeMemory(m.vkMemory)
			return memory{}, false
		}
	}
	return m, true
}

func (c *Context) freeMemory(m memory) {
	if m.vkMemory == vk.NULL_HANDLE {
		return
	}
	drv := c.vkb().drv
	if m.mapped != nil {
		drv.UnmapMemory(m.vkMemory)
	}
	drv.FreeMemory(m.vkMemory)
}
