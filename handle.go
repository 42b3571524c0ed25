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

import "fmt"

type HandleKind uint32

const (
	HandleUnknown HandleKind = iota
	HandleTexture
	HandleBuffer
	HandleShader
	HandleSampler
	HandleResourceLayout
	HandleResourceSet
	HandleResourceSetPool
	HandleRenderPass
	HandleFramebuffer
	HandleGraphicsPipeline
	HandleComputePipeline
	HandleCommandPool
	HandleCommandBuffer
	HandleSwapchain
)

func (k HandleKind) String() string {
	switch k {
	case HandleTexture:
		return "Texture"
	case HandleBuffer:
		return "Buffer"
	case HandleShader:
		return "Shader"
	case HandleSampler:
		return "Sampler"
	case HandleResourceLayout:
		return "ResourceLayout"
	case HandleResourceSet:
		return "ResourceSet"
	case HandleResourceSetPool:
		return "ResourceSetPool"
	case HandleRenderPass:
		return "RenderPass"
	case HandleFramebuffer:
		return "Framebuffer"
	case HandleGraphicsPipeline:
		return "GraphicsPipeline"
	case HandleComputePipeline:
		return "ComputePipeline"
	case HandleCommandPool:
		return "CommandPool"
	case HandleCommandBuffer:
		return "CommandBuffer"
	case HandleSwapchain:
		return "Swapchain"
	default:
		return fmt.Sprintf("HandleKind(%d)", uint32(k))
	}
}

/*
handle is embedded by every resource type. It is valid strictly between its Create and Destroy, every method
of the embedding type checks it first.
*/
type handle struct {
	noCopy noCopy
	ctx    *Context
	id     uint64
	kind   HandleKind
	name   string
}

func (h *handle) init(c *Context, kind HandleKind, name string) {
	h.noCopy.init(c)
	h.ctx = c
	h.id = c.nextID.Add(1)
	h.kind = kind
	h.name = name
}

func (h *handle) check() {
	h.noCopy.check(h.ctx)
}

func (h *handle) Kind() HandleKind {
	h.check()
	return h.kind
}

func (h *handle) Name() string {
	h.check()
	return h.name
}

func (h *handle) String() string {
	return fmt.Sprintf("%s(%q)", h.kind, h.name)
}

/*
release is the common prologue of every Destroy*. It reports false for handles that were already destroyed and
aborts when the handle belongs to another context.
*/
func (h *handle) release(c *Context) bool {
	if h.ctx == nil {
		c.abort("Destroy called on a zero value handle")
		return false
	}
	if !h.noCopy.alive(h.ctx) {
		c.logger.WPrintf("%s destroyed twice", h)
		return false
	}
	if h.ctx != c {
		c.abort("%s destroyed through a context that did not create it", h)
		return false
	}
	return true
}

func (h *handle) close() {
	h.noCopy.close()
}
