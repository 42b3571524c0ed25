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

package managed

import (
	"goarrg.com/rhi/xrhi"
	"goarrg.com/rhi/xrhi/internal/container"
	"goarrg.com/rhi/xrhi/internal/util"
)

type resourceArray[Key comparable] struct {
	noCopy    util.NoCopy
	set       *xrhi.ResourceSet
	slot      uint32
	count     uint32
	next      uint32
	freeStack container.Stack[uint32]
	elements  map[Key]uint32
}

func (a *resourceArray[Key]) init(set *xrhi.ResourceSet, slot uint32) {
	binding, ok := set.Layout().Binding(slot)
	if !ok {
		abort("Layout of %s has no slot %d", set, slot)
	}
	a.set = set
	a.slot = slot
	a.count = binding.Count
	a.elements = map[Key]uint32{}
	a.noCopy.Init()
}

func (a *resourceArray[Key]) push(key Key, info xrhi.ResourceInfo) uint32 {
	a.noCopy.Check()
	if i, found := a.elements[key]; found {
		return i
	}
	var i uint32
	if a.freeStack.Empty() {
		if a.next >= a.count {
			abort("Trying to push into full slot %d of %s, count is %d", a.slot, a.set, a.count)
		}
		i = a.next
		a.next++
	} else {
		i = a.freeStack.Pop()
	}
	a.elements[key] = i
	a.set.Bind(a.slot, i, info)
	return i
}

/*
Pop marks the element holding target as unused. The element is only reused once the frame that is current on sc
has finished executing, so draws already recorded against it stay valid.
*/
func (a *resourceArray[Key]) Pop(sc *xrhi.Swapchain, target Key) {
	a.noCopy.Check()
	i, found := a.elements[target]
	if !found {
		return
	}
	sc.DeferDestroy(xrhi.DestroyerFunc(func() {
		if cur, ok := a.elements[target]; ok && cur == i {
			delete(a.elements, target)
			a.freeStack.Push(i)
		}
	}))
}

// Index returns the element holding target.
func (a *resourceArray[Key]) Index(target Key) (uint32, bool) {
	a.noCopy.Check()
	i, found := a.elements[target]
	return i, found
}

func (a *resourceArray[Key]) Len() int {
	a.noCopy.Check()
	return len(a.elements)
}

/*
ResourceArrayBuffer manages inserting and removing Buffers from an arrayed buffer slot,
it is the user's responsibility to handle sync.
*/
type ResourceArrayBuffer struct {
	resourceArray[*xrhi.Buffer]
}

func NewResourceArrayBuffer(set *xrhi.ResourceSet, slot uint32) *ResourceArrayBuffer {
	ret := &ResourceArrayBuffer{}
	ret.init(set, slot)
	return ret
}

func (a *ResourceArrayBuffer) Push(info xrhi.ResourceBufferInfo) uint32 {
	return a.push(info.Buffer, info)
}

/*
ResourceArrayTexture manages inserting and removing Textures from an arrayed texture slot,
it is the user's responsibility to handle sync and layout changes.
*/
type ResourceArrayTexture struct {
	resourceArray[*xrhi.Texture]
}

func NewResourceArrayTexture(set *xrhi.ResourceSet, slot uint32) *ResourceArrayTexture {
	ret := &ResourceArrayTexture{}
	ret.init(set, slot)
	return ret
}

func (a *ResourceArrayTexture) Push(info xrhi.ResourceTextureInfo) uint32 {
	return a.push(info.Texture, info)
}

type ResourceArrayCombinedTextureSampler struct {
	resourceArray[*xrhi.Texture]
}

func NewResourceArrayCombinedTextureSampler(set *xrhi.ResourceSet, slot uint32) *ResourceArrayCombinedTextureSampler {
	ret := &ResourceArrayCombinedTextureSampler{}
	ret.init(set, slot)
	return ret
}

func (a *ResourceArrayCombinedTextureSampler) Push(info xrhi.ResourceCombinedTextureSamplerInfo) uint32 {
	return a.push(info.Texture, info)
}
