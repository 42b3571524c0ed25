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

func (cb *CommandBuffer) BeginComputePass() {
	cb.requireState("BeginComputePass", CommandBufferBegan)
	cb.state = CommandBufferComputePass
	cb.graphicsPipeline = nil
}

func (cb *CommandBuffer) EndComputePass() {
	cb.requireState("EndComputePass", CommandBufferComputePass)
	cb.state = CommandBufferBegan
	cb.computePipeline = nil
}

func (cb *CommandBuffer) BindComputePipeline(p *ComputePipeline) {
	cb.requireState("BindComputePipeline", CommandBufferComputePass)
	p.check()
	cb.drv().CmdBindPipeline(cb.vkCommandBuffer, vk.PIPELINE_BIND_POINT_COMPUTE, p.vkPipeline)
	cb.computePipeline = p
	cb.graphicsPipeline = nil
}

// Dispatch records groupCountX*groupCountY*groupCountZ work groups.
func (cb *CommandBuffer) Dispatch(groupCountX, groupCountY, groupCountZ uint32) {
	cb.requireState("Dispatch", CommandBufferComputePass)
	if cb.computePipeline == nil {
		cb.ctx.abort("[%s] Dispatch requires a bound compute pipeline", cb.name)
	}
	if groupCountX == 0 || groupCountY == 0 || groupCountZ == 0 {
		cb.ctx.logger.WPrintf("[%s] Dispatch with an empty group count [%d, %d, %d]", cb.name, groupCountX, groupCountY, groupCountZ)
		return
	}
	cb.drv().CmdDispatch(cb.vkCommandBuffer, groupCountX, groupCountY, groupCountZ)
}

// DispatchInvocations dispatches enough work groups of the bound pipeline's WorkGroupSize to cover x*y*z invocations.
func (cb *CommandBuffer) DispatchInvocations(x, y, z uint32) {
	cb.requireState("DispatchInvocations", CommandBufferComputePass)
	if cb.computePipeline == nil {
		cb.ctx.abort("[%s] DispatchInvocations requires a bound compute pipeline", cb.name)
	}
	size := cb.computePipeline.info.WorkGroupSize
	cb.Dispatch(
		alignUp(x, size[0])/size[0],
		alignUp(y, size[1])/size[1],
		alignUp(z, size[2])/size[2],
	)
}
