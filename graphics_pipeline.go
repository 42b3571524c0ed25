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
	"bytes"
	"fmt"

	"goarrg.com/rhi/xrhi/internal/vk"
)

type VertexTopology vk.PrimitiveTopology

const (
	VertexTopologyTriangleList  = VertexTopology(vk.PRIMITIVE_TOPOLOGY_TRIANGLE_LIST)
	VertexTopologyPointList     = VertexTopology(vk.PRIMITIVE_TOPOLOGY_POINT_LIST)
	VertexTopologyLineList      = VertexTopology(vk.PRIMITIVE_TOPOLOGY_LINE_LIST)
	VertexTopologyLineStrip     = VertexTopology(vk.PRIMITIVE_TOPOLOGY_LINE_STRIP)
	VertexTopologyTriangleStrip = VertexTopology(vk.PRIMITIVE_TOPOLOGY_TRIANGLE_STRIP)
)

func (t VertexTopology) String() string {
	switch t {
	case VertexTopologyPointList:
		return "PointList"
	case VertexTopologyLineList:
		return "LineList"
	case VertexTopologyLineStrip:
		return "LineStrip"
	case VertexTopologyTriangleList:
		return "TriangleList"
	case VertexTopologyTriangleStrip:
		return "TriangleStrip"
	default:
		return fmt.Sprintf("VertexTopology(%d)", uint32(t))
	}
}

type PolygonMode vk.PolygonMode

const (
	PolygonModeFill = PolygonMode(vk.POLYGON_MODE_FILL)
	PolygonModeLine = PolygonMode(vk.POLYGON_MODE_LINE)
)

type CullMode vk.CullModeFlags

const (
	CullModeNone  = CullMode(vk.CULL_MODE_NONE)
	CullModeFront = CullMode(vk.CULL_MODE_FRONT_BIT)
	CullModeBack  = CullMode(vk.CULL_MODE_BACK_BIT)
)

type FrontFace vk.FrontFace

const (
	FrontFaceCounterClockwise = FrontFace(vk.FRONT_FACE_COUNTER_CLOCKWISE)
	FrontFaceClockwise        = FrontFace(vk.FRONT_FACE_CLOCKWISE)
)

type CompareOp vk.CompareOp

const (
	CompareOpNever          = CompareOp(vk.COMPARE_OP_NEVER)
	CompareOpLess           = CompareOp(vk.COMPARE_OP_LESS)
	CompareOpEqual          = CompareOp(vk.COMPARE_OP_EQUAL)
	CompareOpLessOrEqual    = CompareOp(vk.COMPARE_OP_LESS_OR_EQUAL)
	CompareOpGreater        = CompareOp(vk.COMPARE_OP_GREATER)
	CompareOpNotEqual       = CompareOp(vk.COMPARE_OP_NOT_EQUAL)
	CompareOpGreaterOrEqual = CompareOp(vk.COMPARE_OP_GREATER_OR_EQUAL)
	CompareOpAlways         = CompareOp(vk.COMPARE_OP_ALWAYS)
)

type BlendFactor vk.BlendFactor

const (
	BlendFactorZero             = BlendFactor(vk.BLEND_FACTOR_ZERO)
	BlendFactorOne              = BlendFactor(vk.BLEND_FACTOR_ONE)
	BlendFactorSrcAlpha         = BlendFactor(vk.BLEND_FACTOR_SRC_ALPHA)
	BlendFactorOneMinusSrcAlpha = BlendFactor(vk.BLEND_FACTOR_ONE_MINUS_SRC_ALPHA)
)

type BlendOp vk.BlendOp

const (
	BlendOpAdd             = BlendOp(vk.BLEND_OP_ADD)
	BlendOpSubtract        = BlendOp(vk.BLEND_OP_SUBTRACT)
	BlendOpReverseSubtract = BlendOp(vk.BLEND_OP_REVERSE_SUBTRACT)
	BlendOpMin             = BlendOp(vk.BLEND_OP_MIN)
	BlendOpMax             = BlendOp(vk.BLEND_OP_MAX)
)

// BlendState is per color attachment, the zero value disables blending and writes all channels.
type BlendState struct {
	Enable   bool
	SrcColor BlendFactor
	DstColor BlendFactor
	ColorOp  BlendOp
	SrcAlpha BlendFactor
	DstAlpha BlendFactor
	AlphaOp  BlendOp
}

// BlendStateAlpha is standard non premultiplied alpha blending.
var BlendStateAlpha = BlendState{
	Enable:   true,
	SrcColor: BlendFactorSrcAlpha,
	DstColor: BlendFactorOneMinusSrcAlpha,
	ColorOp:  BlendOpAdd,
	SrcAlpha: BlendFactorOne,
	DstAlpha: BlendFactorOneMinusSrcAlpha,
	AlphaOp:  BlendOpAdd,
}

func (b BlendState) vkBlendState() vk.PipelineColorBlendAttachmentState {
	return vk.PipelineColorBlendAttachmentState{
		BlendEnable:         b.Enable,
		SrcColorBlendFactor: vk.BlendFactor(b.SrcColor),
		DstColorBlendFactor: vk.BlendFactor(b.DstColor),
		ColorBlendOp:        vk.BlendOp(b.ColorOp),
		SrcAlphaBlendFactor: vk.BlendFactor(b.SrcAlpha),
		DstAlphaBlendFactor: vk.BlendFactor(b.DstAlpha),
		AlphaBlendOp:        vk.BlendOp(b.AlphaOp),
		ColorWriteMask:      vk.COLOR_COMPONENT_ALL,
	}
}

type VertexBinding struct {
	Binding     uint32
	Stride      uint32
	PerInstance bool
}

type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

type DepthState struct {
	Test    bool
	Write   bool
	Compare CompareOp
}

/*
GraphicsPipelineInfo describes a vertex+fragment pipeline for subpass 0 of RenderPass. Blend has one entry per
color attachment, nil means opaque writes to all of them. Viewport and scissor are dynamic.
*/
type GraphicsPipelineInfo struct {
	Name       string
	Vertex     *Shader
	Fragment   *Shader
	RenderPass *RenderPass
	Layout     PipelineLayoutInfo

	VertexBindings   []VertexBinding
	VertexAttributes []VertexAttribute
	Topology         VertexTopology
	PolygonMode      PolygonMode
	CullMode         CullMode
	FrontFace        FrontFace
	Depth            DepthState
	Blend            []BlendState
}

func (info *GraphicsPipelineInfo) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")
	buff.WriteString(fmt.Sprintf("\"Name\": %q,", info.Name))
	buff.WriteString(fmt.Sprintf("\"Vertex\": %q,", info.Vertex.name))
	buff.WriteString(fmt.Sprintf("\"Fragment\": %q,", info.Fragment.name))
	buff.WriteString(fmt.Sprintf("\"RenderPass\": %q,", info.RenderPass.name))
	buff.WriteString(fmt.Sprintf("\"PushConstants\": %q,", info.Layout.PushConstants))
	buff.WriteString(fmt.Sprintf("\"Topology\": %q,", info.Topology))
	buff.WriteString(fmt.Sprintf("\"VertexBindings\": %d,", len(info.VertexBindings)))
	buff.WriteString(fmt.Sprintf("\"VertexAttributes\": %d,", len(info.VertexAttributes)))
	buff.WriteString(fmt.Sprintf("\"DepthTest\": %t,", info.Depth.Test))
	buff.WriteString(fmt.Sprintf("\"Blend\": %d", len(info.Blend)))
	buff.WriteString("}")
	return buff.Bytes(), nil
}

type GraphicsPipeline struct {
	pipelineBase
	info GraphicsPipelineInfo
}

func (p *GraphicsPipeline) Info() GraphicsPipelineInfo {
	p.check()
	return p.info
}

func (p *GraphicsPipeline) RenderPass() *RenderPass {
	p.check()
	return p.info.RenderPass
}

func (c *Context) CreateGraphicsPipeline(info GraphicsPipelineInfo) *GraphicsPipeline {
	b := c.vkb()
	if info.Vertex == nil || info.Fragment == nil || info.RenderPass == nil {
		c.abort("[%s] Graphics pipeline needs a vertex shader, a fragment shader and a render pass", info.Name)
	}
	info.RenderPass.check()
	if info.Vertex.Stage() != ShaderStageVertex || info.Fragment.Stage() != ShaderStageFragment {
		c.abort("[%s] Shader stages are %s and %s, expected Vertex and Fragment", info.Name, info.Vertex.info.Stage, info.Fragment.info.Stage)
	}
	colors := len(info.RenderPass.info.Colors)
	if info.Blend == nil {
		info.Blend = make([]BlendState, colors)
	}
	if len(info.Blend) != colors {
		c.abort("[%s] %d blend states for %d color attachments", info.Name, len(info.Blend), colors)
	}
	if info.Depth.Test && info.RenderPass.info.Depth == nil {
		c.abort("[%s] Depth test enabled but render pass %q has no depth attachment", info.Name, info.RenderPass.name)
	}

	p := &GraphicsPipeline{info: info}
	if !p.initLayout(c, info.Name, info.Layout) {
		return nil
	}

	vkInfo := vk.GraphicsPipelineCreateInfo{
		Stages:           []vk.PipelineShaderStageCreateInfo{info.Vertex.vkStageInfo(), info.Fragment.vkStageInfo()},
		Topology:         vk.PrimitiveTopology(info.Topology),
		PolygonMode:      vk.PolygonMode(info.PolygonMode),
		CullMode:         vk.CullModeFlags(info.CullMode),
		FrontFace:        vk.FrontFace(info.FrontFace),
		LineWidth:        1,
		DepthTestEnable:  info.Depth.Test,
		DepthWriteEnable: info.Depth.Write,
		DepthCompareOp:   vk.CompareOp(info.Depth.Compare),
		Layout:           p.layout.vkLayout,
		RenderPass:       info.RenderPass.vkRenderPass,
	}
	for _, vb := range info.VertexBindings {
		rate := vk.VERTEX_INPUT_RATE_VERTEX
		if vb.PerInstance {
			rate = vk.VERTEX_INPUT_RATE_INSTANCE
		}
		vkInfo.VertexBindings = append(vkInfo.VertexBindings, vk.VertexInputBindingDescription{
			Binding: vb.Binding, Stride: vb.Stride, InputRate: rate,
		})
	}
	for _, va := range info.VertexAttributes {
		vkInfo.VertexAttributes = append(vkInfo.VertexAttributes, vk.VertexInputAttributeDescription{
			Location: va.Location, Binding: va.Binding, Format: vk.Format(va.Format), Offset: va.Offset,
		})
	}
	for _, bs := range info.Blend {
		vkInfo.ColorBlend = append(vkInfo.ColorBlend, bs.vkBlendState())
	}

	if !c.vkCheck("vkCreateGraphicsPipelines", b.drv.CreateGraphicsPipeline(&vkInfo, &p.vkPipeline)) {
		c.layoutCache.release(c, p.layout)
		return nil
	}
	p.handle.init(c, HandleGraphicsPipeline, info.Name)
	c.logger.VPrintf("Created graphics pipeline: %s", jsonString(&p.info))
	return p
}

func (c *Context) DestroyGraphicsPipeline(p *GraphicsPipeline) {
	if p == nil || !p.release(c) {
		return
	}
	p.destroy(c)
}
