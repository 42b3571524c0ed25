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
	"goarrg.com/rhi/xrhi/internal/vk"
)

type binarySemaphore struct {
	vkSemaphore vk.Semaphore
}

func (c *Context) createBinarySemaphore(name string) (binarySemaphore, bool) {
	s := binarySemaphore{}
	if !c.vkCheck("vkCreateSemaphore", c.vkb().drv.CreateSemaphore(&s.vkSemaphore)) {
		c.logger.EPrintf("[%s] Failed to create semaphore", name)
		return s, false
	}
	return s, true
}

func (c *Context) destroyBinarySemaphore(s *binarySemaphore) {
	if s.vkSemaphore == vk.NULL_HANDLE {
		return
	}
	c.vkb().drv.DestroySemaphore(s.vkSemaphore)
	s.vkSemaphore = vk.NULL_HANDLE
}

type fence struct {
	vkFence vk.Fence
}

func (c *Context) createFence(name string, signaled bool) (fence, bool) {
	f := fence{}
	if !c.vkCheck("vkCreateFence", c.vkb().drv.CreateFence(signaled, &f.vkFence)) {
		c.logger.EPrintf("[%s] Failed to create fence", name)
		return f, false
	}
	return f, true
}

func (c *Context) destroyFence(f *fence) {
	if f.vkFence == vk.NULL_HANDLE {
		return
	}
	c.vkb().drv.DestroyFence(f.vkFence)
	f.vkFence = vk.NULL_HANDLE
}

// waitFence blocks without a timeout.
func (c *Context) waitFence(f *fence) {
	c.vkCheck("vkWaitForFences", c.vkb().drv.WaitForFences([]vk.Fence{f.vkFence}, vk.MAX_UINT64))
}

func (c *Context) resetFence(f *fence) {
	c.vkCheck("vkResetFences", c.vkb().drv.ResetFences([]vk.Fence{f.vkFence}))
}

// fenceSignaled polls the fence, it never blocks.
func (c *Context) fenceSignaled(f *fence) bool {
	return c.vkb().drv.GetFenceStatus(f.vkFence) == vk.SUCCESS
}
