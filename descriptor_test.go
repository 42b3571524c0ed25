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
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUniformLayout(t *testing.T, c *Context, count uint32) *ResourceLayout {
	t.Helper()
	l := c.CreateResourceLayout(ResourceLayoutInfo{
		Name:     "uniforms",
		Bindings: []ResourceBinding{{Slot: 0, Kind: ResourceUniformBuffer, Stages: ShaderStageGraphics, Count: count}},
	})
	require.NotNil(t, l)
	return l
}

func TestResourceSetPoolGrowsAndRepromotes(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	pool := c.CreateResourceSetPool(ResourceSetPoolInfo{
		Name:        "small",
		SetsPerPool: 16,
		Ratios:      map[ResourceKind]float32{ResourceUniformBuffer: 1},
	})
	require.NotNil(t, pool)
	defer c.DestroyResourceSetPool(pool)
	layout := newUniformLayout(t, c, 1)
	defer c.DestroyResourceLayout(layout)

	assert.Zero(t, pool.allocator.poolCount(), "native pools are created lazily")

	sets := make([]*ResourceSet, 0, 17)
	for range 16 {
		s := c.CreateResourceSet(pool, layout)
		require.NotNil(t, s)
		sets = append(sets, s)
	}
	assert.Equal(t, 1, pool.allocator.poolCount())
	first := sets[0].bank

	s := c.CreateResourceSet(pool, layout)
	require.NotNil(t, s)
	sets = append(sets, s)
	assert.Equal(t, 2, pool.allocator.poolCount())
	assert.NotSame(t, first, s.bank)
	assert.Equal(t, []*descriptorPool{first}, pool.allocator.full)

	// Freeing a set from the full pool makes it the next pool allocated from.
	c.DestroyResourceSet(pool, sets[3])
	assert.Empty(t, pool.allocator.full)
	assert.Equal(t, 2, pool.allocator.ready.Len())
	s = c.CreateResourceSet(pool, layout)
	require.NotNil(t, s)
	assert.Same(t, first, s.bank)
	sets[3] = s
	assert.Equal(t, 2, pool.allocator.poolCount())

	data, err := json.Marshal(pool)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	for _, s := range sets {
		c.DestroyResourceSet(pool, s)
	}
	assert.Zero(t, first.live)
}

func TestResourceSetTooLargeForPool(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	pool := c.CreateResourceSetPool(ResourceSetPoolInfo{
		Name:        "tiny",
		SetsPerPool: 4,
		Ratios:      map[ResourceKind]float32{ResourceUniformBuffer: 1},
	})
	require.NotNil(t, pool)
	defer c.DestroyResourceSetPool(pool)
	layout := newUniformLayout(t, c, 8)
	defer c.DestroyResourceLayout(layout)

	assert.Nil(t, c.CreateResourceSet(pool, layout))
	assert.Equal(t, 2, pool.allocator.poolCount(), "a fresh pool is tried exactly once")
	assert.Len(t, pool.allocator.full, 2)
}

func TestResetResourceSetPool(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	layout := newUniformLayout(t, c, 1)
	defer c.DestroyResourceLayout(layout)

	pool := c.CreateResourceSetPool(ResourceSetPoolInfo{Name: "reset", SetsPerPool: 2, Ratios: map[ResourceKind]float32{ResourceUniformBuffer: 1}})
	require.NotNil(t, pool)
	defer c.DestroyResourceSetPool(pool)
	for range 3 {
		require.NotNil(t, c.CreateResourceSet(pool, layout))
	}
	require.Equal(t, 2, pool.allocator.poolCount())

	c.ResetResourceSetPool(pool)
	assert.Empty(t, pool.allocator.full)
	assert.Equal(t, 2, pool.allocator.ready.Len())
	for _, p := range pool.allocator.ready.Data() {
		assert.Zero(t, p.live)
	}
	for range 2 {
		require.NotNil(t, c.CreateResourceSet(pool, layout))
	}
	assert.Equal(t, 2, pool.allocator.poolCount(), "reset pools are reused before growing")
}

func TestResourceSetBind(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	layout := c.CreateResourceLayout(ResourceLayoutInfo{
		Name: "bind",
		Bindings: []ResourceBinding{
			{Slot: 0, Kind: ResourceUniformBuffer, Stages: ShaderStageVertex, Count: 2},
			{Slot: 3, Kind: ResourceSampler, Stages: ShaderStageFragment},
		},
	})
	require.NotNil(t, layout)
	defer c.DestroyResourceLayout(layout)
	b, ok := layout.Binding(3)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), b.Count)
	_, ok = layout.Binding(1)
	assert.False(t, ok)

	set := c.CreateResourceSet(nil, layout)
	require.NotNil(t, set)
	defer c.DestroyResourceSet(nil, set)
	assert.Same(t, c.defaultPool, set.Pool())

	buf0 := c.CreateBuffer(BufferInfo{Name: "u0", Size: 64, Usage: BufferUsageUniform, Memory: MemoryMapped}, nil)
	buf1 := c.CreateBuffer(BufferInfo{Name: "u1", Size: 64, Usage: BufferUsageUniform, Memory: MemoryMapped}, nil)
	sampler := c.CreateSampler(SamplerInfo{Name: "s"})
	require.NotNil(t, buf0)
	require.NotNil(t, buf1)
	require.NotNil(t, sampler)
	defer c.DestroyBuffer(buf0)
	defer c.DestroyBuffer(buf1)
	defer c.DestroySampler(sampler)

	set.Bind(0, 0, ResourceBufferInfo{Buffer: buf0}, ResourceBufferInfo{Buffer: buf1, Offset: 16, Range: 16})
	set.Bind(3, 0, sampler)
	assert.Equal(t, uint64(buf0.vkBuffer), drv.DescriptorAt(set.vkSet, 0, 0))
	assert.Equal(t, uint64(buf1.vkBuffer), drv.DescriptorAt(set.vkSet, 0, 1))
	assert.Equal(t, uint64(sampler.vkSampler), drv.DescriptorAt(set.vkSet, 3, 0))

	assert.PanicsWithValue(t, "Fatal Error", func() { set.Bind(0, 1, ResourceBufferInfo{Buffer: buf0}, ResourceBufferInfo{Buffer: buf1}) })
	assert.PanicsWithValue(t, "Fatal Error", func() { set.Bind(3, 0, ResourceBufferInfo{Buffer: buf0}) })
	assert.PanicsWithValue(t, "Fatal Error", func() { set.Bind(1, 0, sampler) })

	// element+len wraps around uint32 to a value inside the slot.
	assert.PanicsWithValue(t, "Fatal Error", func() { set.Bind(3, math.MaxUint32, sampler) })
	assert.PanicsWithValue(t, "Fatal Error", func() {
		set.Bind(0, math.MaxUint32, ResourceBufferInfo{Buffer: buf0}, ResourceBufferInfo{Buffer: buf1})
	})
	assert.Empty(t, drv.ValidationMessages())
}

func TestResourceSetWrongPoolAborts(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	layout := newUniformLayout(t, c, 1)
	defer c.DestroyResourceLayout(layout)
	pool := c.CreateResourceSetPool(ResourceSetPoolInfo{Name: "other"})
	require.NotNil(t, pool)
	defer c.DestroyResourceSetPool(pool)

	set := c.CreateResourceSet(nil, layout)
	require.NotNil(t, set)
	assert.PanicsWithValue(t, "Fatal Error", func() { c.DestroyResourceSet(pool, set) })
	c.DestroyResourceSet(nil, set)
}

func TestCreateResourceLayoutContract(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateResourceLayout(ResourceLayoutInfo{Name: "dup", Bindings: []ResourceBinding{
			{Slot: 0, Kind: ResourceUniformBuffer}, {Slot: 0, Kind: ResourceSampler},
		}})
	})
	assert.PanicsWithValue(t, "Fatal Error", func() {
		c.CreateResourceLayout(ResourceLayoutInfo{Name: "kind", Bindings: []ResourceBinding{{Slot: 0, Kind: resourceKindCount}}})
	})
}
