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
	"testing"

	"github.com/stretchr/testify/assert"
	"goarrg.com/rhi/xrhi/internal/vk"
)

func TestFindMemoryType(t *testing.T) {
	props := vk.PhysicalDeviceMemoryProperties{
		MemoryTypes: []vk.MemoryType{
			{PropertyFlags: vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT},
			{PropertyFlags: vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT | vk.MEMORY_PROPERTY_HOST_COHERENT_BIT},
			{PropertyFlags: vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT | vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT | vk.MEMORY_PROPERTY_HOST_COHERENT_BIT},
		},
	}
	mapped := MemoryMapped.vkMemoryPropertyFlags()

	tests := []struct {
		name     string
		typeBits uint32
		want     vk.MemoryPropertyFlags
		index    uint32
		found    bool
	}{
		{"first match wins", 0b111, mapped, 1, true},
		{"masked out", 0b101, mapped, 2, true},
		{"superset matches", 0b100, vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT, 2, true},
		{"device local", 0b111, vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT, 0, true},
		{"none allowed", 0, mapped, 0, false},
		{"no cached type", 0b111, MemoryDynamic.vkMemoryPropertyFlags(), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, found := findMemoryType(&props, tt.typeBits, tt.want)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.index, index)
			}
		})
	}
}

func TestMemoryOptionTypes(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	for _, tt := range []struct {
		memory MemoryOption
		index  uint32
	}{
		{MemoryStatic, 0},
		{MemoryMapped, 1},
		{MemoryDynamic, 2},
	} {
		b := c.CreateBuffer(BufferInfo{Name: tt.memory.String(), Size: 4, Usage: BufferUsageUniform, Memory: tt.memory}, nil)
		if assert.NotNil(t, b) {
			assert.Equal(t, tt.index, b.memory.typeIndex, tt.memory.String())
			c.DestroyBuffer(b)
		}
	}
}
