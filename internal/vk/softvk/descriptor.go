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

type setLayout struct {
	bindings []vk.DescriptorSetLayoutBinding
}

type descriptorPool struct {
	info      vk.DescriptorPoolCreateInfo
	remaining map[vk.DescriptorType]uint32
	sets      map[vk.DescriptorSet]struct{}
}

func (p *descriptorPool) reset() {
	p.remaining = map[vk.DescriptorType]uint32{}
	for _, s := range p.info.PoolSizes {
		p.remaining[s.Type] += s.DescriptorCount
	}
	p.sets = map[vk.DescriptorSet]struct{}{}
}

type slot struct {
	binding uint32
	element uint32
}

type descriptorSet struct {
	pool   vk.DescriptorPool
	layout *setLayout
	writes map[slot]uint64
}

func (d *Driver) CreateDescriptorSetLayout(info *vk.DescriptorSetLayoutCreateInfo, out *vk.DescriptorSetLayout) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	seen := map[uint32]bool{}
	for _, b := range info.Bindings {
		if seen[b.Binding] {
			d.validationError("CreateDescriptorSetLayout: binding %d declared twice", b.Binding)
			return vk.ERROR_INITIALIZATION_FAILED
		}
		seen[b.Binding] = true
	}
	*out = vk.DescriptorSetLayout(d.newHandle(&setLayout{bindings: append([]vk.DescriptorSetLayoutBinding(nil), info.Bindings...)}))
	return vk.SUCCESS
}

func (d *Driver) DestroyDescriptorSetLayout(h vk.DescriptorSetLayout) {
	d.lock()
	defer d.mu.Unlock()
	if _, ok := lookup[setLayout](d, uint64(h)); !ok {
		d.validationError("DestroyDescriptorSetLayout: invalid handle 0x%X", uint64(h))
		return
	}
	d.release(uint64(h))
}

func (d *Driver) CreateDescriptorPool(info *vk.DescriptorPoolCreateInfo, out *vk.DescriptorPool) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	if info.MaxSets == 0 {
		d.validationError("CreateDescriptorPool: maxSets must be > 0")
		return vk.ERROR_INITIALIZATION_FAILED
	}
	p := &descriptorPool{info: *info}
	p.info.PoolSizes = append([]vk.DescriptorPoolSize(nil), info.PoolSizes...)
	p.reset()
	*out = vk.DescriptorPool(d.newHandle(p))
	return vk.SUCCESS
}

func (d *Driver) DestroyDescriptorPool(h vk.DescriptorPool) {
	d.lock()
	defer d.mu.Unlock()
	p, ok := lookup[descriptorPool](d, uint64(h))
	if !ok {
		d.validationError("DestroyDescriptorPool: invalid handle 0x%X", uint64(h))
		return
	}
	for s := range p.sets {
		d.release(uint64(s))
	}
	d.release(uint64(h))
}

func (d *Driver) ResetDescriptorPool(h vk.DescriptorPool) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	p, ok := lookup[descriptorPool](d, uint64(h))
	if !ok {
		d.validationError("ResetDescriptorPool: invalid handle 0x%X", uint64(h))
		return vk.ERROR_UNKNOWN
	}
	for s := range p.sets {
		d.release(uint64(s))
	}
	p.reset()
	return vk.SUCCESS
}

func (d *Driver) AllocateDescriptorSet(ph vk.DescriptorPool, lh vk.DescriptorSetLayout, out *vk.DescriptorSet) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	p, ok := lookup[descriptorPool](d, uint64(ph))
	l, lok := lookup[setLayout](d, uint64(lh))
	if !ok || !lok {
		d.validationError("AllocateDescriptorSet: invalid handle")
		return vk.ERROR_UNKNOWN
	}
	if uint32(len(p.sets)) >= p.info.MaxSets {
		return vk.ERROR_OUT_OF_POOL_MEMORY
	}
	need := map[vk.DescriptorType]uint32{}
	for _, b := range l.bindings {
		need[b.DescriptorType] += b.DescriptorCount
	}
	for t, n := range need {
		if p.remaining[t] < n {
			return vk.ERROR_OUT_OF_POOL_MEMORY
		}
	}
	for t, n := range need {
		p.remaining[t] -= n
	}
	s := vk.DescriptorSet(d.newHandle(&descriptorSet{pool: ph, layout: l, writes: map[slot]uint64{}}))
	p.sets[s] = struct{}{}
	*out = s
	return vk.SUCCESS
}

func (d *Driver) FreeDescriptorSet(ph vk.DescriptorPool, sh vk.DescriptorSet) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	p, ok := lookup[descriptorPool](d, uint64(ph))
	s, sok := lookup[descriptorSet](d, uint64(sh))
	if !ok || !sok {
		d.validationError("FreeDescriptorSet: invalid handle")
		return vk.ERROR_UNKNOWN
	}
	if s.pool != ph {
		d.validationError("FreeDescriptorSet: set 0x%X was not allocated from pool 0x%X", uint64(sh), uint64(ph))
		return vk.ERROR_UNKNOWN
	}
	if !p.info.FreeDescriptorSet {
		d.validationError("FreeDescriptorSet: pool 0x%X was not created with FREE_DESCRIPTOR_SET_BIT", uint64(ph))
		return vk.ERROR_UNKNOWN
	}
	for _, b := range s.layout.bindings {
		p.remaining[b.DescriptorType] += b.DescriptorCount
	}
	delete(p.sets, sh)
	d.release(uint64(sh))
	return vk.SUCCESS
}

func (d *Driver) UpdateDescriptorSets(writes []vk.WriteDescriptorSet) {
	d.lock()
	defer d.mu.Unlock()
	for _, w := range writes {
		s, ok := lookup[descriptorSet](d, uint64(w.DstSet))
		if !ok {
			d.validationError("UpdateDescriptorSets: invalid set 0x%X", uint64(w.DstSet))
			continue
		}
		var binding *vk.DescriptorSetLayoutBinding
		for i := range s.layout.bindings {
			if s.layout.bindings[i].Binding == w.DstBinding {
				binding = &s.layout.bindings[i]
			}
		}
		if binding == nil {
			d.validationError("UpdateDescriptorSets: set 0x%X has no binding %d", uint64(w.DstSet), w.DstBinding)
			continue
		}
		if binding.DescriptorType != w.DescriptorType {
			d.validationError("UpdateDescriptorSets: binding %d type mismatch", w.DstBinding)
			continue
		}
		n := uint32(len(w.ImageInfo) + len(w.BufferInfo))
		if w.DstArrayElement+n > binding.DescriptorCount {
			d.validationError("UpdateDescriptorSets: binding %d elements [%d, %d) out of range %d",
				w.DstBinding, w.DstArrayElement, w.DstArrayElement+n, binding.DescriptorCount)
			continue
		}
		for i, info := range w.ImageInfo {
			h := uint64(info.ImageView)
			if h == vk.NULL_HANDLE {
				h = uint64(info.Sampler)
			}
			s.writes[slot{w.DstBinding, w.DstArrayElement + uint32(i)}] = h
		}
		for i, info := range w.BufferInfo {
			s.writes[slot{w.DstBinding, w.DstArrayElement + uint32(i)}] = uint64(info.Buffer)
		}
	}
}

// DescriptorAt returns the handle written to the given binding element, 0 when never written.
func (d *Driver) DescriptorAt(h vk.DescriptorSet, binding, element uint32) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := lookup[descriptorSet](d, uint64(h)); ok {
		return s.writes[slot{binding, element}]
	}
	return 0
}
