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
	"math"
	"slices"
	"strings"

	"goarrg.com/debug"
	"goarrg.com/rhi/xrhi/internal/container"
	"goarrg.com/rhi/xrhi/internal/vk"
	"golang.org/x/exp/maps"
)

type descriptorPool struct {
	name   string
	vkPool vk.DescriptorPool
	live   int
}

func (p *descriptorPool) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")
	buff.WriteString(fmt.Sprintf("\"name\": %q,", p.name))
	buff.WriteString(fmt.Sprintf("\"vkDescriptorPool\": %q,", toHex(p.vkPool)))
	buff.WriteString(fmt.Sprintf("\"live\": %d", p.live))
	buff.WriteString("}")
	return buff.Bytes(), nil
}

/*
descriptorPoolAllocator grows by one native pool whenever ready is empty. Pools that run out move to full and
are re-promoted to ready when one of their sets is freed.
*/
type descriptorPoolAllocator struct {
	name        string
	setsPerPool uint32
	poolSizes   []vk.DescriptorPoolSize
	created     int

	ready container.Stack[*descriptorPool]
	full  []*descriptorPool
}

func newDescriptorPoolAllocator(info ResourceSetPoolInfo) descriptorPoolAllocator {
	a := descriptorPoolAllocator{name: info.Name, setsPerPool: info.SetsPerPool}
	_ = mapRunFuncSorted(info.Ratios, func(k ResourceKind, ratio float32) error {
		a.poolSizes = append(a.poolSizes, vk.DescriptorPoolSize{
			Type:            k.vkDescriptorType(),
			DescriptorCount: max(1, uint32(math.Ceil(float64(ratio)*float64(info.SetsPerPool)))),
		})
		return nil
	})
	return a
}

func (a *descriptorPoolAllocator) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")
	buff.WriteString(fmt.Sprintf("\"name\": %q,", a.name))
	buff.WriteString(fmt.Sprintf("\"setsPerPool\": %d,", a.setsPerPool))

	writePools := func(key string, pools []*descriptorPool) {
		buff.WriteString(fmt.Sprintf("%q: [", key))
		if len(pools) > 0 {
			for _, p := range pools {
				buff.WriteString(jsonString(p))
				buff.WriteString(",")
			}
			buff.Truncate(buff.Len() - 1)
		}
		buff.WriteString("]")
	}
	writePools("ready", a.ready.Data())
	buff.WriteString(",")
	writePools("full", a.full)

	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (a *descriptorPoolAllocator) poolCount() int {
	return a.ready.Len() + len(a.full)
}

func (a *descriptorPoolAllocator) acquirePool(c *Context) *descriptorPool {
	p := &descriptorPool{name: fmt.Sprintf("%s_pool_%d", a.name, a.created)}
	info := vk.DescriptorPoolCreateInfo{
		FreeDescriptorSet: true,
		MaxSets:           a.setsPerPool,
		PoolSizes:         a.poolSizes,
	}
	if !c.vkCheck("vkCreateDescriptorPool", c.vkb().drv.CreateDescriptorPool(&info, &p.vkPool)) {
		return nil
	}
	a.created++
	c.logger.VPrintf("[%s] Created descriptor pool %q with %d sets", a.name, p.name, a.setsPerPool)
	return p
}

func (a *descriptorPoolAllocator) popReady(c *Context) *descriptorPool {
	if a.ready.Empty() {
		return a.acquirePool(c)
	}
	return a.ready.Pop()
}

/*
allocate tries the top ready pool and on exhaustion retries exactly once with a newly created pool. The returned
pool is nil on failure.
*/
func (a *descriptorPoolAllocator) allocate(c *Context, layout vk.DescriptorSetLayout) (*descriptorPool, vk.DescriptorSet) {
	drv := c.vkb().drv
	p := a.popReady(c)
	for retry := 0; p != nil; retry++ {
		var set vk.DescriptorSet
		r := drv.AllocateDescriptorSet(p.vkPool, layout, &set)
		switch r {
		case vk.SUCCESS:
			p.live++
			a.ready.Push(p)
			return p, set

		case vk.ERROR_OUT_OF_POOL_MEMORY, vk.ERROR_FRAGMENTED_POOL:
			c.logger.VPrintf("[%s] Descriptor pool %q is full: %s", a.name, p.name, r)
			a.full = append(a.full, p)
			if retry > 0 {
				c.logger.EPrintf("[%s] Failed to allocate resource set: fresh pool exhausted with %s", a.name, r)
				return nil, vk.NULL_HANDLE
			}
			p = a.acquirePool(c)

		default:
			a.ready.Push(p)
			c.vkCheck("vkAllocateDescriptorSets", r)
			return nil, vk.NULL_HANDLE
		}
	}
	return nil, vk.NULL_HANDLE
}

func (a *descriptorPoolAllocator) free(c *Context, p *descriptorPool, set vk.DescriptorSet) {
	if !c.vkCheck("vkFreeDescriptorSets", c.vkb().drv.FreeDescriptorSet(p.vkPool, set)) {
		return
	}
	p.live--
	if i := slices.Index(a.full, p); i >= 0 {
		a.full = slices.Delete(a.full, i, i+1)
		a.ready.Push(p)
		c.logger.VPrintf("[%s] Descriptor pool %q is ready again", a.name, p.name)
	}
}

func (a *descriptorPoolAllocator) reset(c *Context) {
	drv := c.vkb().drv
	pools := append(a.ready.Data(), a.full...)
	a.full = nil
	a.ready.Clear()
	for _, p := range pools {
		c.vkCheck("vkResetDescriptorPool", drv.ResetDescriptorPool(p.vkPool))
		p.live = 0
		a.ready.Push(p)
	}
}

func (a *descriptorPoolAllocator) destroy(c *Context) {
	drv := c.vkb().drv
	for _, p := range append(a.ready.Data(), a.full...) {
		drv.DestroyDescriptorPool(p.vkPool)
	}
	a.full = nil
	a.ready.Clear()
}

type ResourceSetPoolInfo struct {
	Name string
	// SetsPerPool is the number of sets each native pool can hold.
	SetsPerPool uint32
	// Ratios is the number of descriptors of each kind per set, a pool holds ceil(ratio*SetsPerPool) of each.
	Ratios map[ResourceKind]float32
}

func (info *ResourceSetPoolInfo) validate() error {
	if info.SetsPerPool == 0 {
		return debug.Errorf("SetsPerPool must be > 0")
	}
	if len(info.Ratios) == 0 {
		return debug.Errorf("Ratios must not be empty")
	}
	return mapRunFuncSorted(info.Ratios, func(k ResourceKind, ratio float32) error {
		if k >= resourceKindCount {
			return debug.Errorf("Unknown resource kind: %d", uint32(k))
		}
		if !(ratio > 0) {
			return debug.Errorf("Ratio of %s must be > 0, got %f", k, ratio)
		}
		return nil
	})
}

type ResourceSetPool struct {
	handle
	info      ResourceSetPoolInfo
	allocator descriptorPoolAllocator
}

func (p *ResourceSetPool) Info() ResourceSetPoolInfo {
	p.check()
	info := p.info
	info.Ratios = maps.Clone(p.info.Ratios)
	return info
}

func (p *ResourceSetPool) MarshalJSON() ([]byte, error) {
	return p.allocator.MarshalJSON()
}

/*
CreateResourceSetPool creates a pool allocator, native pools are created lazily on first allocation. Missing
fields of info take the DefaultConfig values.
*/
func (c *Context) CreateResourceSetPool(info ResourceSetPoolInfo) *ResourceSetPool {
	c.vkb()
	if info.SetsPerPool == 0 {
		info.SetsPerPool = DefaultSetsPerPool
	}
	if len(info.Ratios) == 0 {
		info.Ratios = DefaultResourceSetRatios()
	}
	if err := info.validate(); err != nil {
		c.logger.EPrintf("[%s] Invalid ResourceSetPoolInfo: %v", info.Name, err)
		return nil
	}
	p := &ResourceSetPool{info: info, allocator: newDescriptorPoolAllocator(info)}
	p.info.Ratios = maps.Clone(info.Ratios)
	p.handle.init(c, HandleResourceSetPool, info.Name)
	return p
}

/*
ResetResourceSetPool returns every set allocated from p to the native pools, the ResourceSet handles are not
invalidated and must not be used or destroyed afterwards.
*/
func (c *Context) ResetResourceSetPool(p *ResourceSetPool) {
	if p == nil {
		c.poolMutex.Lock()
		defer c.poolMutex.Unlock()
		p = c.defaultPool
	}
	p.check()
	p.allocator.reset(c)
}

func (c *Context) DestroyResourceSetPool(p *ResourceSetPool) {
	if p == nil || !p.release(c) {
		return
	}
	p.allocator.destroy(c)
	p.close()
}

type pipelineLayout struct {
	key      string
	vkLayout vk.PipelineLayout
	refs     int
}

// pipelineLayoutCache shares native pipeline layouts between pipelines with the same resource layouts and push constants.
type pipelineLayoutCache struct {
	cache map[string]*pipelineLayout
}

func (c *pipelineLayoutCache) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")
	err := mapRunFuncSorted(c.cache, func(k string, v *pipelineLayout) error {
		buff.WriteString(fmt.Sprintf("%q: {\"vkPipelineLayout\": %q, \"refs\": %d},", k, toHex(v.vkLayout), v.refs))
		return nil
	})
	if err == nil && len(c.cache) > 0 {
		buff.Truncate(buff.Len() - 1)
	}
	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (c *pipelineLayoutCache) createOrRetrieve(ctx *Context, layouts []*ResourceLayout, pushConstants PushConstantRange) *pipelineLayout {
	key := strings.Builder{}
	vkLayouts := make([]vk.DescriptorSetLayout, 0, len(layouts))
	for _, l := range layouts {
		l.check()
		key.WriteString(fmt.Sprintf("%d,", l.id))
		vkLayouts = append(vkLayouts, l.vkLayout)
	}
	key.WriteString(fmt.Sprintf("pc:%s:%d", pushConstants.Stages, pushConstants.Size))

	if l, ok := c.cache[key.String()]; ok {
		l.refs++
		return l
	}

	info := vk.PipelineLayoutCreateInfo{SetLayouts: vkLayouts}
	if pushConstants.Size > 0 {
		info.PushConstantRanges = []vk.PushConstantRange{{
			StageFlags: pushConstants.Stages.vkShaderStageFlags(),
			Size:       pushConstants.Size,
		}}
	}
	l := &pipelineLayout{key: key.String(), refs: 1}
	if !ctx.vkCheck("vkCreatePipelineLayout", ctx.vkb().drv.CreatePipelineLayout(&info, &l.vkLayout)) {
		return nil
	}
	c.cache[l.key] = l
	return l
}

func (c *pipelineLayoutCache) release(ctx *Context, l *pipelineLayout) {
	l.refs--
	if l.refs == 0 {
		ctx.vkb().drv.DestroyPipelineLayout(l.vkLayout)
		delete(c.cache, l.key)
	}
}

func (c *pipelineLayoutCache) destroy(ctx *Context) {
	for k, l := range c.cache {
		ctx.logger.WPrintf("Pipeline layout %q still referenced by %d pipelines at context destroy", k, l.refs)
		ctx.vkb().drv.DestroyPipelineLayout(l.vkLayout)
	}
	clear(c.cache)
}
