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

func (d *Driver) CreateSemaphore(out *vk.Semaphore) vk.Result {
	var s gvk.Semaphore
	r := gvk.CreateSemaphore(d.device, &gvk.SemaphoreCreateInfo{
		SType: gvk.StructureTypeSemaphoreCreateInfo,
	}, nil, &s)
	if r == gvk.Success {
		*out = vk.Semaphore(d.newHandle(s))
	}
	return result(r)
}

func (d *Driver) DestroySemaphore(s vk.Semaphore) {
	if s == vk.NULL_HANDLE {
		return
	}
	gvk.DestroySemaphore(d.device, lookup[gvk.Semaphore](d, uint64(s)), nil)
	d.release(uint64(s))
}

func (d *Driver) CreateFence(signaled bool, out *vk.Fence) vk.Result {
	var flags gvk.FenceCreateFlags
	if signaled {
		flags |= gvk.FenceCreateFlags(gvk.FenceCreateSignaledBit)
	}
	var f gvk.Fence
	r := gvk.CreateFence(d.device, &gvk.FenceCreateInfo{
		SType: gvk.StructureTypeFenceCreateInfo,
		Flags: flags,
	}, nil, &f)
	if r == gvk.Success {
		*out = vk.Fence(d.newHandle(f))
	}
	return result(r)
}

func (d *Driver) DestroyFence(f vk.Fence) {
	if f == vk.NULL_HANDLE {
		return
	}
	gvk.DestroyFence(d.device, lookup[gvk.Fence](d, uint64(f)), nil)
	d.release(uint64(f))
}

func (d *Driver) WaitForFences(fences []vk.Fence, timeout uint64) vk.Result {
	if len(fences) == 0 {
		return vk.SUCCESS
	}
	vfences := lookupAll[gvk.Fence](d, fences)
	return result(gvk.WaitForFences(d.device, uint32(len(vfences)), vfences, gvk.True, timeout))
}

func (d *Driver) ResetFences(fences []vk.Fence) vk.Result {
	if len(fences) == 0 {
		return vk.SUCCESS
	}
	vfences := lookupAll[gvk.Fence](d, fences)
	return result(gvk.ResetFences(d.device, uint32(len(vfences)), vfences))
}

func (d *Driver) GetFenceStatus(f vk.Fence) vk.Result {
	return result(gvk.GetFenceStatus(d.device, lookup[gvk.Fence](d, uint64(f))))
}

func (d *Driver) QueueSubmit(submits []vk.SubmitInfo, f vk.Fence) vk.Result {
	out := make([]gvk.SubmitInfo, len(submits))
	for i, s := range submits {
		waitStages := make([]gvk.PipelineStageFlags, len(s.WaitDstStageMask))
		for j, st := range s.WaitDstStageMask {
			waitStages[j] = gvk.PipelineStageFlags(st)
		}
		out[i] = gvk.SubmitInfo{
			SType:                gvk.StructureTypeSubmitInfo,
			WaitSemaphoreCount:   uint32(len(s.WaitSemaphores)),
			PWaitSemaphores:      lookupAll[gvk.Semaphore](d, s.WaitSemaphores),
			PWaitDstStageMask:    waitStages,
			CommandBufferCount:   uint32(len(s.CommandBuffers)),
			PCommandBuffers:      lookupAll[gvk.CommandBuffer](d, s.CommandBuffers),
			SignalSemaphoreCount: uint32(len(s.SignalSemaphores)),
			PSignalSemaphores:    lookupAll[gvk.Semaphore](d, s.SignalSemaphores),
		}
	}
	return result(gvk.QueueSubmit(d.queue, uint32(len(out)), out, lookup[gvk.Fence](d, uint64(f))))
}
