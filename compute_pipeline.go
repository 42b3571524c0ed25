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

import "goarrg.com/rhi/xrhi/internal/vk"

type ComputePipelineInfo struct {
	Name   string
	Shader *Shader
	Layout PipelineLayoutInfo
	// WorkGroupSize is the local size declared by the shader, used to size DispatchInvocations.
	WorkGroupSize [3]uint32
}

type ComputePipeline struct {
	pipelineBase
	info ComputePipelineInfo
}

func (p *ComputePipeline) Info() ComputePipelineInfo {
	p.check()
	return p.info
}

func (c *Context) CreateComputePipeline(info ComputePipelineInfo) *ComputePipeline {
	b := c.vkb()
	if info.Shader == nil {
		c.abort("[%s] Compute pipeline needs a shader", info.Name)
	}
	if info.Shader.Stage() != ShaderStageCompute {
		c.abort("[%s] Shader stage is %s, expected Compute", info.Name, info.Shader.info.Stage)
	}
	for i := range info.WorkGroupSize {
		if info.WorkGroupSize[i] == 0 {
			info.WorkGroupSize[i] = 1
		}
	}

	p := &ComputePipeline{info: info}
	if !p.initLayout(c, info.Name, info.Layout) {
		return nil
	}
	if !c.vkCheck("vkCreateComputePipelines", b.drv.CreateComputePipeline(&vk.ComputePipelineCreateInfo{
		Stage:  info.Shader.vkStageInfo(),
		Layout: p.layout.vkLayout,
	}, &p.vkPipeline)) {
		c.layoutCache.release(c, p.layout)
		return nil
	}
	p.handle.init(c, HandleComputePipeline, info.Name)
	c.logger.VPrintf("Created compute pipeline %q with work group size %v", info.Name, info.WorkGroupSize)
	return p
}

func (c *Context) DestroyComputePipeline(p *ComputePipeline) {
	if p == nil || !p.release(c) {
		return
	}
	p.destroy(c)
}
