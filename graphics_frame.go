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
	"fmt"

	"goarrg.com/rhi/xrhi/internal/vk"
)

// frame is one frame in flight slot, selected by Swapchain.frameIndex.
type frame struct {
	cb             *CommandBuffer
	imageAvailable binarySemaphore
	inFlight       fence
	submitted      bool
	destroyers     []Destroyer
}

func (c *Context) createFrame(sc *Swapchain, index int) (*frame, bool) {
	name := fmt.Sprintf("%s_frame_%d", sc.name, index)
	f := &frame{}
	ok := false
	defer func() {
		if !ok {
			c.destroyFrame(sc, f)
		}
	}()

	if f.cb = c.CreateCommandBuffer(sc.pool, name); f.cb == nil {
		return nil, false
	}
	if f.imageAvailable, ok = c.createBinarySemaphore(name + "_imageAvailable"); !ok {
		return nil, false
	}
	// Signaled so the first wait on the slot returns immediately.
	if f.inFlight, ok = c.createFence(name+"_inFlight", true); !ok {
		return nil, false
	}
	return f, true
}

// wait blocks until the slot's last submission is done, then runs everything queued for destruction on it.
func (f *frame) wait(c *Context) {
	if !c.fenceSignaled(&f.inFlight) {
		c.logger.VPrintf("Frame %q still in flight, waiting", f.cb.name)
		c.waitFence(&f.inFlight)
	}
	f.runDestroyers()
}

/*
signalEmpty submits a batch with no command buffers that waits on the image available semaphore and signals the
slot's fence. If even that fails the fence is recreated signaled so waiting on the slot cannot hang.
*/
func (f *frame) signalEmpty(c *Context) {
	b := c.vkb()
	b.queueMutex.Lock()
	r := b.drv.QueueSubmit([]vk.SubmitInfo{{
		WaitSemaphores:   []vk.Semaphore{f.imageAvailable.vkSemaphore},
		WaitDstStageMask: []vk.PipelineStageFlags{vk.PIPELINE_STAGE_TOP_OF_PIPE_BIT},
	}}, f.inFlight.vkFence)
	b.queueMutex.Unlock()
	if c.vkCheck("vkQueueSubmit", r) {
		return
	}
	c.destroyFence(&f.inFlight)
	f.inFlight, _ = c.createFence(f.cb.name+"_inFlight", true)
}

func (f *frame) runDestroyers() {
	for _, d := range f.destroyers {
		d.Destroy()
	}
	clear(f.destroyers)
	f.destroyers = f.destroyers[:0]
}

// destroyFrame expects the device to be idle.
func (c *Context) destroyFrame(sc *Swapchain, f *frame) {
	f.runDestroyers()
	c.destroyFence(&f.inFlight)
	c.destroyBinarySemaphore(&f.imageAvailable)
	c.DestroyCommandBuffer(sc.pool, f.cb)
	f.cb = nil
}
