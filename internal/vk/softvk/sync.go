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

// semaphore is binary, signaled is set once a signal operation has been queued.
type semaphore struct {
	signaled bool
}

type fence struct {
	signaled bool
	// submitted is set while a signal operation is queued.
	submitted bool
}

func (d *Driver) CreateSemaphore(out *vk.Semaphore) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	*out = vk.Semaphore(d.newHandle(&semaphore{}))
	return vk.SUCCESS
}

func (d *Driver) DestroySemaphore(h vk.Semaphore) {
	d.lock()
	defer d.mu.Unlock()
	if _, ok := lookup[semaphore](d, uint64(h)); !ok {
		d.validationError("DestroySemaphore: invalid handle 0x%X", uint64(h))
		return
	}
	d.release(uint64(h))
}

func (d *Driver) CreateFence(signaled bool, out *vk.Fence) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	*out = vk.Fence(d.newHandle(&fence{signaled: signaled}))
	return vk.SUCCESS
}

func (d *Driver) DestroyFence(h vk.Fence) {
	d.lock()
	defer d.mu.Unlock()
	f, ok := lookup[fence](d, uint64(h))
	if !ok {
		d.validationError("DestroyFence: invalid handle 0x%X", uint64(h))
		return
	}
	if f.submitted && !f.signaled {
		d.validationError("DestroyFence: fence 0x%X is in use", uint64(h))
	}
	d.release(uint64(h))
}

/*
WaitForFences waits for all fences. A timeout of 0 polls, any other value waits until signaled. Waiting on a fence
that nothing will signal would hang a real device, here it is a validation error and returns TIMEOUT.
*/
func (d *Driver) WaitForFences(fences []vk.Fence, timeout uint64) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	for {
		done := true
		for _, h := range fences {
			f, ok := lookup[fence](d, uint64(h))
			if !ok {
				d.validationError("WaitForFences: invalid handle 0x%X", uint64(h))
				return vk.ERROR_UNKNOWN
			}
			if !f.signaled {
				if !f.submitted {
					d.validationError("WaitForFences: fence 0x%X is unsignaled with no pending signal", uint64(h))
					return vk.TIMEOUT
				}
				done = false
			}
		}
		if done {
			return vk.SUCCESS
		}
		if timeout == 0 {
			return vk.TIMEOUT
		}
		d.cond.Wait()
	}
}

func (d *Driver) ResetFences(fences []vk.Fence) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	for _, h := range fences {
		f, ok := lookup[fence](d, uint64(h))
		if !ok {
			d.validationError("ResetFences: invalid handle 0x%X", uint64(h))
			return vk.ERROR_UNKNOWN
		}
		if f.submitted && !f.signaled {
			d.validationError("ResetFences: fence 0x%X is in use", uint64(h))
		}
		f.signaled, f.submitted = false, false
	}
	return vk.SUCCESS
}

func (d *Driver) GetFenceStatus(h vk.Fence) vk.Result {
	d.lock()
	defer d.mu.Unlock()
	f, ok := lookup[fence](d, uint64(h))
	if !ok {
		d.validationError("GetFenceStatus: invalid handle 0x%X", uint64(h))
		return vk.ERROR_DEVICE_LOST
	}
	if f.signaled {
		return vk.SUCCESS
	}
	return vk.NOT_READY
}

// FenceSignaled reports the fence state without counting as a driver call.
func (d *Driver) FenceSignaled(h vk.Fence) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := lookup[fence](d, uint64(h))
	return ok && f.signaled
}

func (d *Driver) waitSemaphore(call string, h vk.Semaphore) {
	s, ok := lookup[semaphore](d, uint64(h))
	if !ok {
		d.validationError("%s: invalid semaphore 0x%X", call, uint64(h))
		return
	}
	if !s.signaled {
		d.validationError("%s: semaphore 0x%X has no pending signal", call, uint64(h))
	}
	s.signaled = false
}

func (d *Driver) signalSemaphore(call string, h vk.Semaphore) {
	s, ok := lookup[semaphore](d, uint64(h))
	if !ok {
		d.validationError("%s: invalid semaphore 0x%X", call, uint64(h))
		return
	}
	if s.signaled {
		d.validationError("%s: semaphore 0x%X is already signaled", call, uint64(h))
	}
	s.signaled = true
}

func (d *Driver) QueueSubmit(infos []vk.SubmitInfo, fh vk.Fence) vk.Result {
	d.lock()
	if d.failSubmit > 0 {
		d.failSubmit--
		d.mu.Unlock()
		return vk.ERROR_DEVICE_LOST
	}
	s := submission{}
	for _, info := range infos {
		if len(info.WaitSemaphores) != len(info.WaitDstStageMask) {
			d.validationError("QueueSubmit: %d wait semaphores with %d stage masks", len(info.WaitSemaphores), len(info.WaitDstStageMask))
		}
		for _, h := range info.WaitSemaphores {
			d.waitSemaphore("QueueSubmit", h)
		}
		for _, h := range info.CommandBuffers {
			cb, ok := lookup[commandBuffer](d, uint64(h))
			if !ok || cb.state != cbExecutable {
				d.validationError("QueueSubmit: command buffer 0x%X is not executable", uint64(h))
				d.mu.Unlock()
				return vk.ERROR_UNKNOWN
			}
		}
		for _, h := range info.SignalSemaphores {
			d.signalSemaphore("QueueSubmit", h)
		}
		info.CommandBuffers = append([]vk.CommandBuffer(nil), info.CommandBuffers...)
		s.infos = append(s.infos, info)
	}
	if fh != vk.NULL_HANDLE {
		f, ok := lookup[fence](d, uint64(fh))
		if !ok {
			d.validationError("QueueSubmit: invalid fence 0x%X", uint64(fh))
			d.mu.Unlock()
			return vk.ERROR_UNKNOWN
		}
		if f.signaled || f.submitted {
			d.validationError("QueueSubmit: fence 0x%X must be unsignaled and unused", uint64(fh))
		}
		f.submitted = true
		s.fence = f
	}
	d.pending++
	d.stats.Submits++
	d.mu.Unlock()
	d.queue <- s
	return vk.SUCCESS
}
