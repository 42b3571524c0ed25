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

// NeedsRecreate is returned by AcquireNextImage when the swapchain has to be restored or recreated first.
const NeedsRecreate = -1

/*
AcquireNextImage advances to the next frame slot, waits for the slot's previous submission, runs its deferred
destroys and acquires the next presentable image. It returns the image index or NeedsRecreate. On success the
slot's command buffer has been reset and is ready for Begin.
*/
func (c *Context) AcquireNextImage(sc *Swapchain) int {
	b := c.vkb()
	sc.check()
	if sc.ctx != c {
		c.abort("%s belongs to another context", &sc.handle)
	}
	if sc.imageAcquired {
		c.abort("[%s] AcquireNextImage called before presenting image %d", sc.name, sc.curImageIndex)
	}
	if sc.state != SwapchainActive {
		return NeedsRecreate
	}

	sc.frameIndex = (sc.frameIndex + 1) % sc.maxFrameCount
	f := sc.frames[sc.frameIndex]
	f.wait(c)

	var index uint32
	switch r := b.drv.AcquireNextImage(sc.vkSwapchain, vk.MAX_UINT64, f.imageAvailable.vkSemaphore, vk.NULL_HANDLE, &index); r {
	case vk.SUCCESS:
	case vk.SUBOPTIMAL_KHR:
		c.logger.WPrintf("[%s] vkAcquireNextImageKHR returned %s", sc.name, r)
	case vk.ERROR_OUT_OF_DATE_KHR:
		c.logger.VPrintf("[%s] Swapchain out of date", sc.name)
		sc.state = SwapchainSuspended
		return NeedsRecreate
	default:
		c.vkCheck("vkAcquireNextImageKHR", r)
		sc.state = SwapchainSuspended
		return NeedsRecreate
	}

	c.resetFence(&f.inFlight)
	f.submitted = false
	f.cb.Reset()
	sc.curImageIndex = index
	sc.imageAcquired = true
	return int(index)
}

/*
Submit queues command buffers in one batch. With a swapchain the batch waits for the acquired image, signals the
image's render finished semaphore and fences the slot, it may only be done once per acquired image. If that submit
fails the image is dropped and the swapchain suspended. Without a swapchain the batch is unsynchronized, use
WaitForIdle to know when it is done.
*/
func (c *Context) Submit(sc *Swapchain, cbs ...*CommandBuffer) bool {
	b := c.vkb()
	info := vk.SubmitInfo{}
	for _, cb := range cbs {
		cb.check()
		if cb.ctx != c {
			c.abort("%s belongs to another context", &cb.handle)
		}
		if cb.state != CommandBufferIdle || !cb.executable {
			c.abort("[%s] Submitted in state %s without a completed recording, call End first", cb.name, cb.state)
		}
		info.CommandBuffers = append(info.CommandBuffers, cb.vkCommandBuffer)
	}

	var f *frame
	vkFence := vk.Fence(vk.NULL_HANDLE)
	if sc != nil {
		sc.check()
		if sc.ctx != c {
			c.abort("%s belongs to another context", &sc.handle)
		}
		if !sc.imageAcquired {
			c.abort("[%s] Submit called without an acquired image", sc.name)
		}
		f = sc.frames[sc.frameIndex]
		if f.submitted {
			c.abort("[%s] Frame %d already submitted", sc.name, sc.frameIndex)
		}
		info.WaitSemaphores = []vk.Semaphore{f.imageAvailable.vkSemaphore}
		info.WaitDstStageMask = []vk.PipelineStageFlags{vk.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT}
		info.SignalSemaphores = []vk.Semaphore{sc.renderFinished[sc.curImageIndex].vkSemaphore}
		vkFence = f.inFlight.vkFence
	}

	b.queueMutex.Lock()
	r := b.drv.QueueSubmit([]vk.SubmitInfo{info}, vkFence)
	b.queueMutex.Unlock()
	if !c.vkCheck("vkQueueSubmit", r) {
		if sc != nil {
			sc.dropImage()
			sc.state = SwapchainSuspended
		}
		return false
	}

	// One time submit, recording again needs a Reset.
	for _, cb := range cbs {
		cb.executable = false
	}
	if f != nil {
		f.submitted = true
	}
	return true
}

// Present queues the acquired image for presentation once the frame's submission has finished rendering.
func (c *Context) Present(sc *Swapchain) {
	b := c.vkb()
	sc.check()
	if sc.ctx != c {
		c.abort("%s belongs to another context", &sc.handle)
	}
	if !sc.imageAcquired {
		c.abort("[%s] Present called without an acquired image", sc.name)
	}
	f := sc.frames[sc.frameIndex]
	if !f.submitted {
		c.abort("[%s] Present called before Submit for frame %d", sc.name, sc.frameIndex)
	}

	b.queueMutex.Lock()
	r := b.drv.QueuePresent(&vk.PresentInfoKHR{
		WaitSemaphores: []vk.Semaphore{sc.renderFinished[sc.curImageIndex].vkSemaphore},
		Swapchains:     []vk.SwapchainKHR{sc.vkSwapchain},
		ImageIndices:   []uint32{sc.curImageIndex},
	})
	b.queueMutex.Unlock()
	sc.imageAcquired = false

	switch r {
	case vk.SUCCESS:
	case vk.SUBOPTIMAL_KHR:
		c.logger.WPrintf("[%s] vkQueuePresentKHR returned %s", sc.name, r)
	case vk.ERROR_OUT_OF_DATE_KHR:
		c.logger.WPrintf("[%s] vkQueuePresentKHR returned %s", sc.name, r)
		sc.state = SwapchainSuspended
	default:
		c.vkCheck("vkQueuePresentKHR", r)
	}
}
