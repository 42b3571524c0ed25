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

	"goarrg.com/gmath"
	"goarrg.com/rhi/xrhi/internal/vk"
)

type LoadAction uint32

const (
	LoadActionDontCare LoadAction = iota
	LoadActionLoad
	LoadActionClear
)

func (a LoadAction) String() string {
	switch a {
	case LoadActionDontCare:
		return "DontCare"
	case LoadActionLoad:
		return "Load"
	case LoadActionClear:
		return "Clear"
	default:
		return fmt.Sprintf("LoadAction(%d)", uint32(a))
	}
}

func (a LoadAction) vkAttachmentLoadOp() vk.AttachmentLoadOp {
	switch a {
	case LoadActionLoad:
		return vk.ATTACHMENT_LOAD_OP_LOAD
	case LoadActionClear:
		return vk.ATTACHMENT_LOAD_OP_CLEAR
	}
	return vk.ATTACHMENT_LOAD_OP_DONT_CARE
}

type StoreAction uint32

const (
	StoreActionStore StoreAction = iota
	StoreActionDontCare
)

func (a StoreAction) String() string {
	switch a {
	case StoreActionStore:
		return "Store"
	case StoreActionDontCare:
		return "DontCare"
	default:
		return fmt.Sprintf("StoreAction(%d)", uint32(a))
	}
}

func (a StoreAction) vkAttachmentStoreOp() vk.AttachmentStoreOp {
	if a == StoreActionDontCare {
		return vk.ATTACHMENT_STORE_OP_DONT_CARE
	}
	return vk.ATTACHMENT_STORE_OP_STORE
}

/*
ColorAttachment describes one color target. InitialLayout is only used with LoadActionLoad and defaults to
FinalLayout, FinalLayout defaults to TextureLayoutColorAttachment.
*/
type ColorAttachment struct {
	Format        Format
	Load          LoadAction
	Store         StoreAction
	InitialLayout TextureLayout
	FinalLayout   TextureLayout
}

// DepthAttachment is ColorAttachment for the depth/stencil target, FinalLayout defaults to TextureLayoutDepthStencilAttachment.
type DepthAttachment struct {
	Format        Format
	Load          LoadAction
	Store         StoreAction
	InitialLayout TextureLayout
	FinalLayout   TextureLayout
}

type RenderPassInfo struct {
	Name   string
	Colors []ColorAttachment
	Depth  *DepthAttachment
}

func (info *RenderPassInfo) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")
	buff.WriteString(fmt.Sprintf("\"Name\": %q,", info.Name))
	buff.WriteString("\"Colors\": [")
	if len(info.Colors) > 0 {
		for _, a := range info.Colors {
			buff.WriteString(fmt.Sprintf("{\"Format\": %q, \"Load\": %q, \"Store\": %q, \"FinalLayout\": %q},",
				a.Format, a.Load, a.Store, a.FinalLayout))
		}
		buff.Truncate(buff.Len() - 1)
	}
	buff.WriteString("],")
	if info.Depth != nil {
		buff.WriteString(fmt.Sprintf("\"Depth\": {\"Format\": %q, \"Load\": %q, \"Store\": %q, \"FinalLayout\": %q}",
			info.Depth.Format, info.Depth.Load, info.Depth.Store, info.Depth.FinalLayout))
	} else {
		buff.WriteString("\"Depth\": null")
	}
	buff.WriteString("}")
	return buff.Bytes(), nil
}

type RenderPass struct {
	handle
	info         RenderPassInfo
	vkRenderPass vk.RenderPass
}

func (rp *RenderPass) Info() RenderPassInfo {
	rp.check()
	info := rp.info
	info.Colors = append([]ColorAttachment(nil), rp.info.Colors...)
	if rp.info.Depth != nil {
		d := *rp.info.Depth
		info.Depth = &d
	}
	return info
}

func (rp *RenderPass) ColorCount() int {
	rp.check()
	return len(rp.info.Colors)
}

func vkAttachment(format Format, load LoadAction, store StoreAction, initial, final TextureLayout) vk.AttachmentDescription {
	a := vk.AttachmentDescription{
		Format:         vk.Format(format),
		LoadOp:         load.vkAttachmentLoadOp(),
		StoreOp:        store.vkAttachmentStoreOp(),
		StencilLoadOp:  vk.ATTACHMENT_LOAD_OP_DONT_CARE,
		StencilStoreOp: vk.ATTACHMENT_STORE_OP_DONT_CARE,
		InitialLayout:  vk.IMAGE_LAYOUT_UNDEFINED,
		FinalLayout:    final.vkImageLayout(),
	}
	if format.HasStencil() {
		a.StencilLoadOp = a.LoadOp
		a.StencilStoreOp = a.StoreOp
	}
	if load == LoadActionLoad {
		if initial == TextureLayoutUndefined {
			initial = final
		}
		a.InitialLayout = initial.vkImageLayout()
	}
	return a
}

// CreateRenderPass creates a single subpass render pass, attachments are ordered colors first then depth.
func (c *Context) CreateRenderPass(info RenderPassInfo) *RenderPass {
	b := c.vkb()
	info.Colors = append([]ColorAttachment(nil), info.Colors...)
	if info.Depth != nil {
		d := *info.Depth
		info.Depth = &d
	}
	if len(info.Colors) == 0 && info.Depth == nil {
		c.abort("[%s] Render pass needs at least one attachment", info.Name)
	}

	vkInfo := vk.RenderPassCreateInfo{}
	for i := range info.Colors {
		a := &info.Colors[i]
		if a.Format.IsDepth() || a.Format == FormatUndefined {
			c.abort("[%s] Color attachment %d has invalid format %s", info.Name, i, a.Format)
		}
		if a.FinalLayout == TextureLayoutUndefined {
			a.FinalLayout = TextureLayoutColorAttachment
		}
		vkInfo.ColorAttachments = append(vkInfo.ColorAttachments, vk.AttachmentReference{
			Attachment: uint32(len(vkInfo.Attachments)),
			Layout:     vk.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL,
		})
		vkInfo.Attachments = append(vkInfo.Attachments, vkAttachment(a.Format, a.Load, a.Store, a.InitialLayout, a.FinalLayout))
	}
	if d := info.Depth; d != nil {
		if !d.Format.IsDepth() {
			c.abort("[%s] Depth attachment has invalid format %s", info.Name, d.Format)
		}
		if d.FinalLayout == TextureLayoutUndefined {
			d.FinalLayout = TextureLayoutDepthStencilAttachment
		}
		vkInfo.DepthStencilAttachment = &vk.AttachmentReference{
			Attachment: uint32(len(vkInfo.Attachments)),
			Layout:     vk.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT_OPTIMAL,
		}
		vkInfo.Attachments = append(vkInfo.Attachments, vkAttachment(d.Format, d.Load, d.Store, d.InitialLayout, d.FinalLayout))
	}

	rp := &RenderPass{info: info}
	if !c.vkCheck("vkCreateRenderPass", b.drv.CreateRenderPass(&vkInfo, &rp.vkRenderPass)) {
		return nil
	}
	rp.handle.init(c, HandleRenderPass, info.Name)
	c.logger.VPrintf("Created render pass: %s", jsonString(&rp.info))
	return rp
}

func (c *Context) DestroyRenderPass(rp *RenderPass) {
	if rp == nil || !rp.release(c) {
		return
	}
	c.vkb().drv.DestroyRenderPass(rp.vkRenderPass)
	rp.close()
}

// ClearValues are matched to the render pass attachments in order, missing colors clear to zero.
type ClearValues struct {
	Colors  [][4]float32
	Depth   float32
	Stencil uint32
}

func (v *ClearValues) vkClearValues(rp *RenderPass) []vk.ClearValue {
	values := make([]vk.ClearValue, 0, len(rp.info.Colors)+1)
	for i := range rp.info.Colors {
		var color [4]float32
		if i < len(v.Colors) {
			color = v.Colors[i]
		}
		values = append(values, vk.ClearValue{Color: color})
	}
	if rp.info.Depth != nil {
		values = append(values, vk.ClearValue{Depth: v.Depth, Stencil: v.Stencil})
	}
	return values
}

type FramebufferInfo struct {
	Name       string
	RenderPass *RenderPass
	Colors     []*Texture
	Depth      *Texture
}

type Framebuffer struct {
	handle
	info          FramebufferInfo
	extent        gmath.Extent2i32
	vkFramebuffer vk.Framebuffer
}

func (fb *Framebuffer) Info() FramebufferInfo {
	fb.check()
	info := fb.info
	info.Colors = append([]*Texture(nil), fb.info.Colors...)
	return info
}

func (fb *Framebuffer) RenderPass() *RenderPass {
	fb.check()
	return fb.info.RenderPass
}

func (fb *Framebuffer) Extent() gmath.Extent2i32 {
	fb.check()
	return fb.extent
}

// attachments returns the textures in render pass attachment order.
func (fb *Framebuffer) attachments() []*Texture {
	if fb.info.Depth == nil {
		return fb.info.Colors
	}
	return append(append([]*Texture(nil), fb.info.Colors...), fb.info.Depth)
}

/*
CreateFramebuffer binds textures to the attachments of info.RenderPass, formats must match and every attachment
must have the same extent.
*/
func (c *Context) CreateFramebuffer(info FramebufferInfo) *Framebuffer {
	b := c.vkb()
	rp := info.RenderPass
	rp.check()
	info.Colors = append([]*Texture(nil), info.Colors...)

	if len(info.Colors) != len(rp.info.Colors) {
		c.abort("[%s] Framebuffer has %d color attachments, render pass %q has %d", info.Name, len(info.Colors), rp.name, len(rp.info.Colors))
	}
	if (info.Depth == nil) != (rp.info.Depth == nil) {
		c.abort("[%s] Framebuffer depth attachment does not match render pass %q", info.Name, rp.name)
	}

	fb := &Framebuffer{info: info}
	views := make([]vk.ImageView, 0, len(info.Colors)+1)
	for i, t := range fb.attachments() {
		t.check()
		var want Format
		if i < len(rp.info.Colors) {
			want = rp.info.Colors[i].Format
		} else {
			want = rp.info.Depth.Format
		}
		if t.info.Format != want {
			c.abort("[%s] Attachment %d is %s, render pass %q expects %s", info.Name, i, t.info.Format, rp.name, want)
		}
		e := gmath.Extent2i32{X: t.info.Extent.X, Y: t.info.Extent.Y}
		if i == 0 {
			fb.extent = e
		} else if e != fb.extent {
			c.abort("[%s] Attachment %d extent %v does not match %v", info.Name, i, e, fb.extent)
		}
		views = append(views, t.vkView)
	}

	if !c.vkCheck("vkCreateFramebuffer", b.drv.CreateFramebuffer(&vk.FramebufferCreateInfo{
		RenderPass:  rp.vkRenderPass,
		Attachments: views,
		Width:       uint32(fb.extent.X),
		Height:      uint32(fb.extent.Y),
		Layers:      1,
	}, &fb.vkFramebuffer)) {
		return nil
	}
	fb.handle.init(c, HandleFramebuffer, info.Name)
	return fb
}

func (c *Context) DestroyFramebuffer(fb *Framebuffer) {
	if fb == nil || !fb.release(c) {
		return
	}
	c.vkb().drv.DestroyFramebuffer(fb.vkFramebuffer)
	fb.close()
}
