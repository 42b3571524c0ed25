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

// PushConstantRange is the push constant block shared by every stage in Stages, starting at offset 0.
type PushConstantRange struct {
	Stages ShaderStage
	Size   uint32
}

func (r PushConstantRange) String() string {
	return fmt.Sprintf("[%s,%d]", r.Stages, r.Size)
}

type PipelineLayoutInfo struct {
	Layouts       []*ResourceLayout
	PushConstants PushConstantRange
}

// pipelineBase is embedded by both pipeline kinds.
type pipelineBase struct {
	handle
	layouts       []*ResourceLayout
	pushConstants PushConstantRange
	layout        *pipelineLayout
	vkPipeline    vk.Pipeline
}

func (p *pipelineBase) initLayout(c *Context, name string, info PipelineLayoutInfo) bool {
	if info.PushConstants.Size%4 != 0 {
		c.abort("[%s] Push constant size %d must be a multiple of 4", name, info.PushConstants.Size)
	}
	if info.PushConstants.Size > 0 && info.PushConstants.Stages == 0 {
		c.abort("[%s] Push constants need at least one stage", name)
	}
	for i, l := range info.Layouts {
		if l == nil {
			c.abort("[%s] Resource layout %d is nil", name, i)
		}
		l.check()
	}
	p.layouts = append([]*ResourceLayout(nil), info.Layouts...)
	p.pushConstants = info.PushConstants
	p.layout = c.layoutCache.createOrRetrieve(c, p.layouts, p.pushConstants)
	return p.layout != nil
}

func (p *pipelineBase) destroy(c *Context) {
	drv := c.vkb().drv
	if p.vkPipeline != vk.NULL_HANDLE {
		drv.DestroyPipeline(p.vkPipeline)
	}
	if p.layout != nil {
		c.layoutCache.release(c, p.layout)
	}
	p.close()
}

func (p *pipelineBase) ResourceLayouts() []*ResourceLayout {
	p.check()
	return append([]*ResourceLayout(nil), p.layouts...)
}

func (p *pipelineBase) PushConstants() PushConstantRange {
	p.check()
	return p.pushConstants
}
