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

	"goarrg.com/debug"
	"goarrg.com/rhi/xrhi/internal/vk"
)

type ResourceKind uint32

const (
	ResourceUniformBuffer ResourceKind = iota
	ResourceStorageBuffer
	ResourceSampledTexture
	ResourceStorageTexture
	ResourceSampler
	ResourceCombinedTextureSampler
	resourceKindCount
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceUniformBuffer:
		return "UniformBuffer"
	case ResourceStorageBuffer:
		return "StorageBuffer"
	case ResourceSampledTexture:
		return "SampledTexture"
	case ResourceStorageTexture:
		return "StorageTexture"
	case ResourceSampler:
		return "Sampler"
	case ResourceCombinedTextureSampler:
		return "CombinedTextureSampler"
	default:
		return fmt.Sprintf("ResourceKind(%d)", uint32(k))
	}
}

func (k ResourceKind) MarshalText() ([]byte, error) {
	if k >= resourceKindCount {
		return nil, debug.Errorf("Unknown ResourceKind: %d", uint32(k))
	}
	return []byte(k.String()), nil
}

func (k *ResourceKind) UnmarshalText(text []byte) error {
	for i := ResourceKind(0); i < resourceKindCount; i++ {
		if strings.EqualFold(i.String(), string(text)) {
			*k = i
			return nil
		}
	}
	return debug.Errorf("Unknown resource kind: %q", text)
}

func (k ResourceKind) vkDescriptorType() vk.DescriptorType {
	switch k {
	case ResourceUniformBuffer:
		return vk.DESCRIPTOR_TYPE_UNIFORM_BUFFER
	case ResourceStorageBuffer:
		return vk.DESCRIPTOR_TYPE_STORAGE_BUFFER
	case ResourceSampledTexture:
		return vk.DESCRIPTOR_TYPE_SAMPLED_IMAGE
	case ResourceStorageTexture:
		return vk.DESCRIPTOR_TYPE_STORAGE_IMAGE
	case ResourceSampler:
		return vk.DESCRIPTOR_TYPE_SAMPLER
	case ResourceCombinedTextureSampler:
		return vk.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER
	}
	panic(fmt.Sprintf("Unknown ResourceKind: %d", uint32(k)))
}

type ResourceBinding struct {
	Slot   uint32
	Kind   ResourceKind
	Stages ShaderStage
	// Count is the array length, 0 is treated as 1.
	Count uint32
}

type ResourceLayoutInfo struct {
	Name     string
	Bindings []ResourceBinding
}

func (info *ResourceLayoutInfo) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")
	buff.WriteString(fmt.Sprintf("\"Name\": %q,", info.Name))
	buff.WriteString("\"Bindings\": [")
	if len(info.Bindings) > 0 {
		for _, b := range info.Bindings {
			buff.WriteString(fmt.Sprintf("{\"Slot\": %d, \"Kind\": %q, \"Stages\": %q, \"Count\": %d},", b.Slot, b.Kind, b.Stages, b.Count))
		}
		buff.Truncate(buff.Len() - 1)
	}
	buff.WriteString("]")
	buff.WriteString("}")
	return buff.Bytes(), nil
}

type ResourceLayout struct {
	handle
	info     ResourceLayoutInfo
	vkLayout vk.DescriptorSetLayout
}

func (l *ResourceLayout) Info() ResourceLayoutInfo {
	l.check()
	info := l.info
	info.Bindings = append([]ResourceBinding(nil), l.info.Bindings...)
	return info
}

// Binding returns the normalized binding for slot.
func (l *ResourceLayout) Binding(slot uint32) (ResourceBinding, bool) {
	l.check()
	return l.binding(slot)
}

func (l *ResourceLayout) binding(slot uint32) (ResourceBinding, bool) {
	for _, b := range l.info.Bindings {
		if b.Slot == slot {
			return b, true
		}
	}
	return ResourceBinding{}, false
}

func (c *Context) CreateResourceLayout(info ResourceLayoutInfo) *ResourceLayout {
	b := c.vkb()
	info.Bindings = append([]ResourceBinding(nil), info.Bindings...)

	slots := map[uint32]bool{}
	vkBindings := make([]vk.DescriptorSetLayoutBinding, 0, len(info.Bindings))
	for i := range info.Bindings {
		binding := &info.Bindings[i]
		if binding.Kind >= resourceKindCount {
			c.abort("[%s] Binding %d has unknown kind %d", info.Name, binding.Slot, uint32(binding.Kind))
		}
		if slots[binding.Slot] {
			c.abort("[%s] Duplicate binding slot %d", info.Name, binding.Slot)
		}
		slots[binding.Slot] = true
		if binding.Count == 0 {
			binding.Count = 1
		}
		vkBindings = append(vkBindings, vk.DescriptorSetLayoutBinding{
			Binding:         binding.Slot,
			DescriptorType:  binding.Kind.vkDescriptorType(),
			DescriptorCount: binding.Count,
			StageFlags:      binding.Stages.vkShaderStageFlags(),
		})
	}

	l := &ResourceLayout{info: info}
	if !c.vkCheck("vkCreateDescriptorSetLayout", b.drv.CreateDescriptorSetLayout(&vk.DescriptorSetLayoutCreateInfo{Bindings: vkBindings}, &l.vkLayout)) {
		return nil
	}
	l.handle.init(c, HandleResourceLayout, info.Name)
	c.logger.VPrintf("Created resource layout: %s", jsonString(&l.info))
	return l
}

// DestroyResourceLayout destroys the native layout, sets allocated against it stay valid.
func (c *Context) DestroyResourceLayout(l *ResourceLayout) {
	if l == nil || !l.release(c) {
		return
	}
	c.vkb().drv.DestroyDescriptorSetLayout(l.vkLayout)
	l.close()
}

type ResourceInfo interface {
	isResourceInfo()
}

// ResourceBufferInfo binds Range bytes of Buffer starting at Offset, a Range of 0 binds to the end.
type ResourceBufferInfo struct {
	Buffer *Buffer
	Offset uint64
	Range  uint64
}

func (ResourceBufferInfo) isResourceInfo() {}

type ResourceTextureInfo struct {
	Texture *Texture
	Layout  TextureLayout
}

func (ResourceTextureInfo) isResourceInfo() {}

type ResourceCombinedTextureSamplerInfo struct {
	Sampler *Sampler
	Texture *Texture
	Layout  TextureLayout
}

func (ResourceCombinedTextureSamplerInfo) isResourceInfo() {}

func (*Sampler) isResourceInfo() {}

type ResourceSet struct {
	handle
	layout *ResourceLayout
	pool   *ResourceSetPool
	bank   *descriptorPool
	vkSet  vk.DescriptorSet
}

func (s *ResourceSet) Layout() *ResourceLayout {
	s.check()
	return s.layout
}

func (s *ResourceSet) Pool() *ResourceSetPool {
	s.check()
	return s.pool
}

/*
Bind writes resources into consecutive array elements of slot starting at element. The resource types must match
the binding's kind, textures are bound through their default view.
*/
func (s *ResourceSet) Bind(slot, element uint32, resources ...ResourceInfo) {
	s.check()
	if len(resources) == 0 {
		return
	}
	binding, ok := s.layout.binding(slot)
	if !ok {
		s.ctx.abort("[%s] Layout %q has no slot %d", s.name, s.layout.name, slot)
	}
	if uint64(element)+uint64(len(resources)) > uint64(binding.Count) {
		s.ctx.abort("[%s] Trying to bind %d resources at element %d of slot %d while its count is %d",
			s.name, len(resources), element, slot, binding.Count)
	}

	write := vk.WriteDescriptorSet{
		DstSet:          s.vkSet,
		DstBinding:      slot,
		DstArrayElement: element,
		DescriptorType:  binding.Kind.vkDescriptorType(),
	}
	for _, r := range resources {
		switch r := r.(type) {
		case ResourceBufferInfo:
			if binding.Kind != ResourceUniformBuffer && binding.Kind != ResourceStorageBuffer {
				s.ctx.abort("[%s] Slot %d is %s, got a buffer", s.name, slot, binding.Kind)
			}
			r.Buffer.check()
			rng := r.Range
			if rng == 0 {
				rng = vk.WHOLE_SIZE
			}
			write.BufferInfo = append(write.BufferInfo, vk.DescriptorBufferInfo{Buffer: r.Buffer.vkBuffer, Offset: r.Offset, Range: rng})
		case ResourceTextureInfo:
			if binding.Kind != ResourceSampledTexture && binding.Kind != ResourceStorageTexture {
				s.ctx.abort("[%s] Slot %d is %s, got a texture", s.name, slot, binding.Kind)
			}
			r.Texture.check()
			write.ImageInfo = append(write.ImageInfo, vk.DescriptorImageInfo{ImageView: r.Texture.vkView, ImageLayout: r.Layout.vkImageLayout()})
		case ResourceCombinedTextureSamplerInfo:
			if binding.Kind != ResourceCombinedTextureSampler {
				s.ctx.abort("[%s] Slot %d is %s, got a combined texture sampler", s.name, slot, binding.Kind)
			}
			r.Texture.check()
			r.Sampler.check()
			write.ImageInfo = append(write.ImageInfo, vk.DescriptorImageInfo{
				Sampler: r.Sampler.vkSampler, ImageView: r.Texture.vkView, ImageLayout: r.Layout.vkImageLayout(),
			})
		case *Sampler:
			if binding.Kind != ResourceSampler {
				s.ctx.abort("[%s] Slot %d is %s, got a sampler", s.name, slot, binding.Kind)
			}
			r.check()
			write.ImageInfo = append(write.ImageInfo, vk.DescriptorImageInfo{Sampler: r.vkSampler})
		default:
			s.ctx.abort("[%s] Unknown resource info type: %T", s.name, r)
		}
	}
	s.ctx.vkb().drv.UpdateDescriptorSets([]vk.WriteDescriptorSet{write})
}

/*
CreateResourceSet allocates a set for layout from pool, a nil pool selects the context's default pool. Returns
nil when the pool cannot grow.
*/
func (c *Context) CreateResourceSet(pool *ResourceSetPool, layout *ResourceLayout) *ResourceSet {
	layout.check()
	if pool == nil {
		c.poolMutex.Lock()
		defer c.poolMutex.Unlock()
		pool = c.defaultPool
	}
	pool.check()
	if pool.ctx != c || layout.ctx != c {
		c.abort("[%s] Pool and layout must belong to the allocating context", layout.name)
	}

	bank, vkSet := pool.allocator.allocate(c, layout.vkLayout)
	if bank == nil {
		return nil
	}
	s := &ResourceSet{layout: layout, pool: pool, bank: bank, vkSet: vkSet}
	s.handle.init(c, HandleResourceSet, fmt.Sprintf("%s_%s_%d", layout.name, pool.name, bank.live))
	return s
}

// DestroyResourceSet returns s to the pool that allocated it, pool must be nil for sets from the default pool.
func (c *Context) DestroyResourceSet(pool *ResourceSetPool, s *ResourceSet) {
	if s == nil || !s.release(c) {
		return
	}
	if pool == nil {
		c.poolMutex.Lock()
		defer c.poolMutex.Unlock()
		pool = c.defaultPool
	}
	pool.check()
	if s.pool != pool {
		c.abort("%s freed through pool %q, it was allocated from %q", &s.handle, pool.name, s.pool.name)
	}
	pool.allocator.free(c, s.bank, s.vkSet)
	s.close()
}
