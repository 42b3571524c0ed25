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

func (d *Driver) CreateDescriptorSetLayout(info *vk.DescriptorSetLayoutCreateInfo, out *vk.DescriptorSetLayout) vk.Result {
	bindings := make([]gvk.DescriptorSetLayoutBinding, len(info.Bindings))
	for i, b := range info.Bindings {
		bindings[i] = gvk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  gvk.DescriptorType(b.DescriptorType),
			DescriptorCount: b.DescriptorCount,
			StageFlags:      gvk.ShaderStageFlags(b.StageFlags),
		}
	}
	var l gvk.DescriptorSetLayout
	r := gvk.CreateDescriptorSetLayout(d.device, &gvk.DescriptorSetLayoutCreateInfo{
		SType:        gvk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}, nil, &l)
	if r == gvk.Success {
		*out = vk.DescriptorSetLayout(d.newHandle(l))
	}
	return result(r)
}

func (d *Driver) DestroyDescriptorSetLayout(l vk.DescriptorSetLayout) {
	if l == vk.NULL_HANDLE {
		return
	}
	gvk.DestroyDescriptorSetLayout(d.device, lookup[gvk.DescriptorSetLayout](d, uint64(l)), nil)
	d.release(uint64(l))
}

func (d *Driver) CreateDescriptorPool(info *vk.DescriptorPoolCreateInfo, out *vk.DescriptorPool) vk.Result {
	sizes := make([]gvk.DescriptorPoolSize, len(info.PoolSizes))
	for i, s := range info.PoolSizes {
		sizes[i] = gvk.DescriptorPoolSize{
			Type:            gvk.DescriptorType(s.Type),
			DescriptorCount: s.DescriptorCount,
		}
	}
	var flags gvk.DescriptorPoolCreateFlags
	if info.FreeDescriptorSet {
		flags |= gvk.DescriptorPoolCreateFlags(gvk.DescriptorPoolCreateFreeDescriptorSetBit)
	}
	var p gvk.DescriptorPool
	r := gvk.CreateDescriptorPool(d.device, &gvk.DescriptorPoolCreateInfo{
		SType:         gvk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         flags,
		MaxSets:       info.MaxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}, nil, &p)
	if r == gvk.Success {
		*out = vk.DescriptorPool(d.newHandle(p))
	}
	return result(r)
}

func (d *Driver) DestroyDescriptorPool(p vk.DescriptorPool) {
	if p == vk.NULL_HANDLE {
		return
	}
	gvk.DestroyDescriptorPool(d.device, lookup[gvk.DescriptorPool](d, uint64(p)), nil)
	d.release(uint64(p))
}

// ResetDescriptorPool does not release set handles from the table, sets are expected to be freed or the
// pool destroyed.
func (d *Driver) ResetDescriptorPool(p vk.DescriptorPool) vk.Result {
	return result(gvk.ResetDescriptorPool(d.device, lookup[gvk.DescriptorPool](d, uint64(p)), 0))
}

func (d *Driver) AllocateDescriptorSet(p vk.DescriptorPool, l vk.DescriptorSetLayout, out *vk.DescriptorSet) vk.Result {
	var set gvk.DescriptorSet
	r := gvk.AllocateDescriptorSets(d.device, &gvk.DescriptorSetAllocateInfo{
		SType:              gvk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     lookup[gvk.DescriptorPool](d, uint64(p)),
		DescriptorSetCount: 1,
		PSetLayouts:        []gvk.DescriptorSetLayout{lookup[gvk.DescriptorSetLayout](d, uint64(l))},
	}, &set)
	if r == gvk.Success {
		*out = vk.DescriptorSet(d.newHandle(set))
	}
	return result(r)
}

func (d *Driver) FreeDescriptorSet(p vk.DescriptorPool, set vk.DescriptorSet) vk.Result {
	s := lookup[gvk.DescriptorSet](d, uint64(set))
	r := gvk.FreeDescriptorSets(d.device, lookup[gvk.DescriptorPool](d, uint64(p)), 1, &s)
	d.release(uint64(set))
	return result(r)
}

func (d *Driver) UpdateDescriptorSets(writes []vk.WriteDescriptorSet) {
	if len(writes) == 0 {
		return
	}
	out := make([]gvk.WriteDescriptorSet, len(writes))
	for i, w := range writes {
		out[i] = gvk.WriteDescriptorSet{
			SType:           gvk.StructureTypeWriteDescriptorSet,
			DstSet:          lookup[gvk.DescriptorSet](d, uint64(w.DstSet)),
			DstBinding:      w.DstBinding,
			DstArrayElement: w.DstArrayElement,
			DescriptorType:  gvk.DescriptorType(w.DescriptorType),
		}
		if len(w.ImageInfo) > 0 {
			infos := make([]gvk.DescriptorImageInfo, len(w.ImageInfo))
			for j, info := range w.ImageInfo {
				infos[j] = gvk.DescriptorImageInfo{
					Sampler:     lookup[gvk.Sampler](d, uint64(info.Sampler)),
					ImageView:   lookup[gvk.ImageView](d, uint64(info.ImageView)),
					ImageLayout: gvk.ImageLayout(info.ImageLayout),
				}
			}
			out[i].DescriptorCount = uint32(len(infos))
			out[i].PImageInfo = infos
		} else {
			infos := make([]gvk.DescriptorBufferInfo, len(w.BufferInfo))
			for j, info := range w.BufferInfo {
				infos[j] = gvk.DescriptorBufferInfo{
					Buffer: lookup[gvk.Buffer](d, uint64(info.Buffer)),
					Offset: gvk.DeviceSize(info.Offset),
					Range:  gvk.DeviceSize(info.Range),
				}
			}
			out[i].DescriptorCount = uint32(len(infos))
			out[i].PBufferInfo = infos
		}
	}
	gvk.UpdateDescriptorSets(d.device, uint32(len(out)), out, 0, nil)
}
